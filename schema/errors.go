package schema

// SchemaError reports a schema document that violates the form definition
// rules. Its message is meant to be surfaced verbatim to the submitter.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string { return e.Message }

// DecodeError reports a schema that was assumed valid but failed to decode.
// It indicates a mismatch between stored data and the current validator, so
// it maps to a server-side fault rather than a user error.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string { return e.Message }

// AnswerError reports a malformed or out-of-range answer submission. Its
// message is surfaced verbatim to the submitter.
type AnswerError struct {
	Message string
}

func (e *AnswerError) Error() string { return e.Message }
