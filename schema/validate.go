package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const (
	maxFields     = 64
	maxNameLen    = 256
	maxInfoLen    = 512
	maxDefaultLen = 1023
	maxChoices    = 64
	maxChoiceLen  = 64
)

// Validate checks an untrusted schema document against the form definition
// rules. The document is expected to come from a json.Decoder with UseNumber
// set, so integers are json.Number values.
//
// Validation is fail-fast: the first violation is reported as a *SchemaError
// and nil means the whole document is acceptable. Field positions in messages
// are 1-based.
func Validate(doc any) error {
	list, ok := doc.([]any)
	if !ok {
		return &SchemaError{"Invalid schema root type."}
	}
	if len(list) == 0 {
		return &SchemaError{"Cannot make an empty form."}
	}
	if len(list) > maxFields {
		return &SchemaError{fmt.Sprintf("Cannot have more than %d fields.", maxFields)}
	}

	for i, elem := range list {
		pos := i + 1

		field, ok := elem.(map[string]any)
		if !ok {
			return &SchemaError{fmt.Sprintf("Invalid type for field #%d", pos)}
		}

		rawType, ok := field["type"]
		if !ok {
			return &SchemaError{fmt.Sprintf("Field #%d needs a type.", pos)}
		}
		fieldType, ok := rawType.(string)
		if !ok {
			return &SchemaError{fmt.Sprintf("Field #%d has an invalid type.", pos)}
		}

		if fieldType == "info" {
			if err := validateInfo(pos, field); err != nil {
				return err
			}
			continue
		}

		name, ok := field["name"].(string)
		if !ok || name == "" {
			return &SchemaError{fmt.Sprintf("Field #%d requires a question.", pos)}
		}
		if len(name) > maxNameLen {
			return &SchemaError{fmt.Sprintf("Field #%d's question cannot be longer than %d characters.", pos, maxNameLen)}
		}

		switch fieldType {
		case "text":
			if err := validateText(pos, field); err != nil {
				return err
			}
		case "choice":
			if err := validateChoice(pos, field); err != nil {
				return err
			}
		case "range":
			if err := validateRange(pos, field); err != nil {
				return err
			}
		default:
			return &SchemaError{fmt.Sprintf("Field #%d has an invalid type.", pos)}
		}
	}

	return nil
}

func validateInfo(pos int, field map[string]any) error {
	rawText, ok := field["text"]
	if !ok {
		return &SchemaError{fmt.Sprintf("Field #%d needs a text attribute.", pos)}
	}
	text, ok := rawText.(string)
	if !ok {
		return &SchemaError{fmt.Sprintf("Field #%d's text must be a string.", pos)}
	}
	if text == "" {
		return &SchemaError{fmt.Sprintf("Field #%d's text cannot be empty.", pos)}
	}
	if len(text) > maxInfoLen {
		return &SchemaError{fmt.Sprintf("Field #%d's text cannot be longer than %d characters.", pos, maxInfoLen)}
	}
	if len(field) != 2 {
		return &SchemaError{fmt.Sprintf("Field #%d cannot have more than 2 attributes.", pos)}
	}
	return nil
}

func validateText(pos int, field map[string]any) error {
	rawDefault, ok := field["default"]
	if !ok {
		return &SchemaError{fmt.Sprintf("Field #%d needs a default attribute.", pos)}
	}
	def, ok := rawDefault.(string)
	if !ok {
		return &SchemaError{fmt.Sprintf("Field #%d's default must be a string.", pos)}
	}
	if len(def) > maxDefaultLen {
		return &SchemaError{fmt.Sprintf("Field #%d's default cannot be longer than %d characters.", pos, maxDefaultLen)}
	}
	if len(field) != 3 {
		return &SchemaError{fmt.Sprintf("Field #%d cannot have more than 3 attributes.", pos)}
	}
	return nil
}

func validateChoice(pos int, field map[string]any) error {
	rawDefault, ok := field["default"]
	if !ok {
		return &SchemaError{fmt.Sprintf("Field #%d needs a default attribute.", pos)}
	}
	if _, ok := intValue(rawDefault); !ok {
		return &SchemaError{fmt.Sprintf("Field #%d's default must be an integer.", pos)}
	}

	rawSingle, ok := field["single"]
	if !ok {
		return &SchemaError{fmt.Sprintf("Field #%d needs a single attribute.", pos)}
	}
	if _, ok := rawSingle.(bool); !ok {
		return &SchemaError{fmt.Sprintf("Field #%d's single must be a boolean.", pos)}
	}

	rawChoices, ok := field["choices"]
	if !ok {
		return &SchemaError{fmt.Sprintf("Field #%d needs a choices attribute", pos)}
	}
	choices, ok := rawChoices.([]any)
	if !ok {
		return &SchemaError{fmt.Sprintf("Field #%d's choices must be a list.", pos)}
	}
	if len(choices) > maxChoices {
		return &SchemaError{fmt.Sprintf("Field #%d cannot have more than %d choices.", pos, maxChoices)}
	}
	if len(choices) == 0 {
		return &SchemaError{fmt.Sprintf("Field #%d needs at least one choice.", pos)}
	}
	for ci, rawChoice := range choices {
		choice, ok := rawChoice.(string)
		if !ok {
			return &SchemaError{fmt.Sprintf("Field #%d choice #%d must be a string.", pos, ci+1)}
		}
		if len(choice) > maxChoiceLen {
			return &SchemaError{fmt.Sprintf("Field #%d choice #%d cannot have more than %d characters.", pos, ci+1, maxChoiceLen)}
		}
	}

	if len(field) != 5 {
		return &SchemaError{fmt.Sprintf("Field #%d cannot have more than 5 attributes.", pos)}
	}
	return nil
}

func validateRange(pos int, field map[string]any) error {
	bounds := make(map[string]int64, 3)
	for _, attr := range [...]string{"default", "min", "max"} {
		raw, ok := field[attr]
		if !ok {
			return &SchemaError{fmt.Sprintf("Field #%d needs a %s attribute.", pos, attr)}
		}
		n, ok := intValue(raw)
		if !ok {
			return &SchemaError{fmt.Sprintf("Field #%d's %s must be an integer.", pos, attr)}
		}
		bounds[attr] = n
	}

	if bounds["default"] < bounds["min"] {
		return &SchemaError{fmt.Sprintf("Field #%d's default cannot be lower than minimum.", pos)}
	}
	if bounds["default"] > bounds["max"] {
		return &SchemaError{fmt.Sprintf("Field #%d's default cannot be higher than maximum.", pos)}
	}

	if len(field) != 5 {
		return &SchemaError{fmt.Sprintf("Field #%d cannot have more than 5 attributes.", pos)}
	}
	return nil
}

// intValue extracts an integer from a decoded JSON value. Documents decoded
// with UseNumber carry json.Number; values that went through a plain decode
// show up as float64 and are accepted only when integral.
func intValue(v any) (int64, bool) {
	switch v := v.(type) {
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		return n, err == nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}
