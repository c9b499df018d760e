package schema

// DecodeFields converts a raw schema document into typed fields.
//
// It is called right after Validate on the creation path, but also on schemas
// read back from storage, which may have been written under an older
// validator. Every assertion is therefore defensive: any shape mismatch
// yields a *DecodeError instead of trusting the input. The input document is
// never mutated.
func DecodeFields(doc []any) ([]Field, error) {
	fields := make([]Field, 0, len(doc))
	for _, elem := range doc {
		raw, ok := elem.(map[string]any)
		if !ok {
			return nil, &DecodeError{"invalid format"}
		}

		fieldType, ok := raw["type"].(string)
		if !ok {
			return nil, &DecodeError{"invalid format"}
		}

		if fieldType == "info" {
			text, ok := raw["text"].(string)
			if !ok || len(raw) != 2 {
				return nil, &DecodeError{"invalid format"}
			}
			if text == "" || len(text) > maxInfoLen {
				return nil, &DecodeError{"invalid value"}
			}
			fields = append(fields, InfoField{Text: text})
			continue
		}

		name, ok := raw["name"].(string)
		if !ok {
			return nil, &DecodeError{"invalid format"}
		}
		if name == "" || len(name) > maxNameLen {
			return nil, &DecodeError{"invalid value"}
		}

		switch fieldType {
		case "text":
			def, ok := raw["default"].(string)
			if !ok || len(raw) != 3 {
				return nil, &DecodeError{"invalid format"}
			}
			if len(def) > maxDefaultLen {
				return nil, &DecodeError{"invalid value"}
			}
			fields = append(fields, TextField{Name: name, Default: def})

		case "choice":
			def, ok := intValue(raw["default"])
			if !ok {
				return nil, &DecodeError{"invalid format"}
			}
			single, ok := raw["single"].(bool)
			if !ok {
				return nil, &DecodeError{"invalid format"}
			}
			rawChoices, ok := raw["choices"].([]any)
			if !ok || len(raw) != 5 {
				return nil, &DecodeError{"invalid format"}
			}
			if len(rawChoices) == 0 || len(rawChoices) > maxChoices {
				return nil, &DecodeError{"invalid value"}
			}
			choices := make([]string, len(rawChoices))
			for i, rawChoice := range rawChoices {
				choice, ok := rawChoice.(string)
				if !ok {
					return nil, &DecodeError{"invalid format"}
				}
				choices[i] = choice
			}
			fields = append(fields, ChoiceField{Name: name, Default: def, Single: single, Choices: choices})

		case "range":
			def, okDef := intValue(raw["default"])
			min, okMin := intValue(raw["min"])
			max, okMax := intValue(raw["max"])
			if !okDef || !okMin || !okMax || len(raw) != 5 {
				return nil, &DecodeError{"invalid format"}
			}
			fields = append(fields, RangeField{Name: name, Default: def, Min: min, Max: max})

		default:
			return nil, &DecodeError{"invalid format"}
		}
	}
	return fields, nil
}
