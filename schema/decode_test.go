package schema

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixedSchema = `[
	{"type":"info","text":"Tell us about yourself."},
	{"type":"text","name":"Name","default":"nobody"},
	{"type":"choice","name":"Color","default":0,"single":false,"choices":["Red","Green","Blue"]},
	{"type":"range","name":"Age","default":18,"min":0,"max":130}
]`

func TestDecodeFields(t *testing.T) {
	doc := parseDoc(t, mixedSchema).([]any)

	fields, err := DecodeFields(doc)
	require.NoError(t, err)
	require.Len(t, fields, len(doc))

	assert.Equal(t, InfoField{Text: "Tell us about yourself."}, fields[0])
	assert.Equal(t, TextField{Name: "Name", Default: "nobody"}, fields[1])
	assert.Equal(t, ChoiceField{
		Name:    "Color",
		Default: 0,
		Single:  false,
		Choices: []string{"Red", "Green", "Blue"},
	}, fields[2])
	assert.Equal(t, RangeField{Name: "Age", Default: 18, Min: 0, Max: 130}, fields[3])
}

func TestDecodeFieldsDoesNotMutateInput(t *testing.T) {
	doc := parseDoc(t, mixedSchema).([]any)
	snapshot := parseDoc(t, mixedSchema).([]any)

	_, err := DecodeFields(doc)
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(snapshot, doc), "decode must not mutate its input")
}

func TestDecodeFieldsRejectsMalformedSchemas(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"element not an object", `[42]`, "invalid format"},
		{"missing type", `[{"name":"a","default":""}]`, "invalid format"},
		{"unknown type", `[{"type":"date","name":"a","default":""}]`, "invalid format"},
		{"text default wrong type", `[{"type":"text","name":"a","default":1}]`, "invalid format"},
		{"text attribute count", `[{"type":"text","name":"a","default":"","x":1}]`, "invalid format"},
		{"choice default wrong type", `[{"type":"choice","name":"a","default":"0","single":true,"choices":["x"]}]`, "invalid format"},
		{"choice single wrong type", `[{"type":"choice","name":"a","default":0,"single":"yes","choices":["x"]}]`, "invalid format"},
		{"choice entry wrong type", `[{"type":"choice","name":"a","default":0,"single":true,"choices":[1]}]`, "invalid format"},
		{"choice empty choices", `[{"type":"choice","name":"a","default":0,"single":true,"choices":[]}]`, "invalid value"},
		{"range bound wrong type", `[{"type":"range","name":"a","default":0,"min":"0","max":10}]`, "invalid format"},
		{"info text wrong type", `[{"type":"info","text":1}]`, "invalid format"},
		{"name too long", `[{"type":"text","name":"` + strings.Repeat("q", 257) + `","default":""}]`, "invalid value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFields(parseDoc(t, tt.doc).([]any))
			require.Error(t, err)
			assert.IsType(t, &DecodeError{}, err)
			assert.EqualError(t, err, tt.want)
		})
	}
}
