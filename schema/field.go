// Package schema implements the form definition language: validation of
// untrusted schema documents, decoding into typed fields, and the answer
// codec that maps submissions to and from storage column values.
package schema

// Field is one question definition. The variant set is closed: Info, Text,
// Choice and Range are the only implementations, so consumers can type-switch
// over all of them.
type Field interface {
	isField()
}

// InfoField is a block of display text. It occupies a schema position but
// never a storage column.
type InfoField struct {
	Text string
}

// TextField is a free-form text question.
type TextField struct {
	Name    string
	Default string
}

// ChoiceField is a pick-one (Single) or pick-many question. For pick-many
// fields the answer is a bitmask over choice indices.
type ChoiceField struct {
	Name    string
	Default int64
	Single  bool
	Choices []string
}

// RangeField is an integer question bounded by Min and Max.
type RangeField struct {
	Name    string
	Default int64
	Min     int64
	Max     int64
}

func (InfoField) isField()   {}
func (TextField) isField()   {}
func (ChoiceField) isField() {}
func (RangeField) isField()  {}
