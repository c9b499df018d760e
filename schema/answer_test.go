package schema

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleFields() []Field {
	return []Field{
		TextField{Name: "Name", Default: ""},
		ChoiceField{Name: "Color", Default: 0, Single: false, Choices: []string{"Red", "Green", "Blue"}},
	}
}

func TestValidateAnswerSingleValued(t *testing.T) {
	fields := []Field{
		InfoField{Text: "hello"},
		TextField{Name: "Name", Default: ""},
		ChoiceField{Name: "Pick", Default: 0, Single: true, Choices: []string{"a", "b", "c"}},
		RangeField{Name: "Age", Default: 5, Min: 1, Max: 10},
	}
	valid := url.Values{
		"col1": {"Ann"},
		"col2": {"2"},
		"col3": {"5"},
	}

	tests := []struct {
		name    string
		mutate  func(url.Values)
		wantErr string
	}{
		{"valid submission", func(url.Values) {}, ""},
		{"info field needs no answer", func(f url.Values) { delete(f, "col0") }, ""},
		{"missing text answer", func(f url.Values) { delete(f, "col1") }, "Question #2 is missing an answer."},
		{"text answer too long", func(f url.Values) { f.Set("col1", strings.Repeat("x", 1024)) }, "Question #2's answer cannot be longer than 1023 characters."},
		{"missing choice answer", func(f url.Values) { delete(f, "col2") }, "Question #3 is missing an answer."},
		{"choice answer not a number", func(f url.Values) { f.Set("col2", "abc") }, "Question #3 has an invalid answer."},
		{"choice answer negative", func(f url.Values) { f.Set("col2", "-1") }, "Question #3 has an invalid answer."},
		{"choice index out of range", func(f url.Values) { f.Set("col2", "3") }, "Question #3 has an invalid answer."},
		{"choice answer too many digits", func(f url.Values) { f.Set("col2", strings.Repeat("1", 21)) }, "Question #3 has an invalid answer."},
		{"range below minimum", func(f url.Values) { f.Set("col3", "0") }, "Question #4's answer is out of bounds."},
		{"range above maximum", func(f url.Values) { f.Set("col3", "11") }, "Question #4's answer is out of bounds."},
		{"range at bounds", func(f url.Values) { f.Set("col3", "1") }, ""},
		{"range not a number", func(f url.Values) { f.Set("col3", "1.5") }, "Question #4 has an invalid answer."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			for k, vs := range valid {
				form[k] = append([]string(nil), vs...)
			}
			tt.mutate(form)

			err := ValidateAnswer(fields, form)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.IsType(t, &AnswerError{}, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidateAnswerMultiChoiceMask(t *testing.T) {
	fields := exampleFields()

	tests := []struct {
		name    string
		form    url.Values
		wantErr string
	}{
		{"combined zero mask", url.Values{"col0": {"x"}, "col1": {"0"}}, ""},
		{"combined mask at upper bound", url.Values{"col0": {"x"}, "col1": {"7"}}, ""},
		{"combined mask too large", url.Values{"col0": {"x"}, "col1": {"8"}}, "Question #2's answer is out of bounds."},
		{"combined mask negative", url.Values{"col0": {"x"}, "col1": {"-1"}}, "Question #2 has an invalid answer."},
		{"combined mask not a number", url.Values{"col0": {"x"}, "col1": {"abc"}}, "Question #2 has an invalid answer."},
		{"per-bit keys", url.Values{"col0": {"x"}, "col1_0": {""}, "col1_2": {""}}, ""},
		{"per-bit key out of range", url.Values{"col0": {"x"}, "col1_3": {""}}, "Question #2's answer is out of bounds."},
		{"per-bit key far out of range", url.Values{"col0": {"x"}, "col1_70": {""}}, "Question #2's answer is out of bounds."},
		{"malformed suffixes skipped", url.Values{"col0": {"x"}, "col1_x": {""}, "col1_1_2": {""}, "col1_-1": {""}}, ""},
		{"no selection at all", url.Values{"col0": {"x"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswer(fields, tt.form)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestEncodeAnswer(t *testing.T) {
	fields := exampleFields()

	// per-bit submission shape
	form := url.Values{"col0": {"Ann"}, "col1_0": {""}, "col1_2": {""}}
	require.NoError(t, ValidateAnswer(fields, form))
	values := EncodeAnswer(fields, form)
	assert.Equal(t, map[string]any{"col0": "Ann", "col1": int64(5)}, values)

	// combined mask shape encodes identically
	combined := url.Values{"col0": {"Ann"}, "col1": {"5"}}
	require.NoError(t, ValidateAnswer(fields, combined))
	assert.Equal(t, values, EncodeAnswer(fields, combined))

	// malformed suffixes are dropped, not encoded
	lenient := url.Values{"col0": {"Ann"}, "col1_0": {""}, "col1_bogus": {""}}
	require.NoError(t, ValidateAnswer(fields, lenient))
	assert.Equal(t, map[string]any{"col0": "Ann", "col1": int64(1)}, EncodeAnswer(fields, lenient))
}

func TestEncodeAnswerSkipsInfoFields(t *testing.T) {
	fields := []Field{
		InfoField{Text: "intro"},
		RangeField{Name: "Age", Default: 18, Min: 0, Max: 130},
	}
	form := url.Values{"col1": {"42"}}

	require.NoError(t, ValidateAnswer(fields, form))
	assert.Equal(t, map[string]any{"col1": int64(42)}, EncodeAnswer(fields, form))
}

func TestDecodeRow(t *testing.T) {
	fields := exampleFields()

	cells, err := DecodeRow(fields, map[string]any{"col0": "Ann", "col1": int64(5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann", "Red+Blue"}, cells)

	// empty mask decodes to an empty string, not an error
	cells, err = DecodeRow(fields, map[string]any{"col0": "Bob", "col1": int64(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", ""}, cells)
}

func TestDecodeRowSingleChoiceAndRange(t *testing.T) {
	fields := []Field{
		ChoiceField{Name: "Pick", Default: 0, Single: true, Choices: []string{"a", "b", "c"}},
		RangeField{Name: "Age", Default: 5, Min: 1, Max: 10},
	}

	cells, err := DecodeRow(fields, map[string]any{"col0": int64(1), "col1": int64(7)})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "7"}, cells)

	// a stored index no encode could have produced is a data fault
	_, err = DecodeRow(fields, map[string]any{"col0": int64(3), "col1": int64(7)})
	require.Error(t, err)
	assert.IsType(t, &DecodeError{}, err)
}

func TestAnswerRoundTrip(t *testing.T) {
	fields := exampleFields()

	perBit := url.Values{"col0": {"Ann"}, "col1_0": {""}, "col1_2": {""}}
	combined := url.Values{"col0": {"Ann"}, "col1": {"5"}}

	for _, form := range []url.Values{perBit, combined} {
		require.NoError(t, ValidateAnswer(fields, form))
		values := EncodeAnswer(fields, form)

		first, err := DecodeRow(fields, values)
		require.NoError(t, err)
		second, err := DecodeRow(fields, values)
		require.NoError(t, err)

		// same selection set either way, labels in ascending choice order
		assert.Equal(t, []string{"Ann", "Red+Blue"}, first)
		assert.Equal(t, first, second)
	}
}
