package schema

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Answers arrive form-encoded. A field at schema position i answers under the
// key "col{i}", except multi-choice fields, which may instead spread their
// selection over "col{i}_{bit}" keys, one per selected choice index.

const maxAnswerDigits = 20

// ValidateAnswer checks a submission against the decoded schema. It is
// fail-fast like Validate: the first violation is returned as an
// *AnswerError with a 1-based question number, nil means the submission can
// be encoded.
func ValidateAnswer(fields []Field, form url.Values) error {
	for i, field := range fields {
		key := colName(i)
		pos := i + 1

		switch field := field.(type) {
		case InfoField:
			continue

		case TextField:
			answer, ok := singleValue(form, key)
			if !ok {
				return &AnswerError{fmt.Sprintf("Question #%d is missing an answer.", pos)}
			}
			if len(answer) > maxDefaultLen {
				return &AnswerError{fmt.Sprintf("Question #%d's answer cannot be longer than %d characters.", pos, maxDefaultLen)}
			}

		case RangeField:
			answer, ok := singleValue(form, key)
			if !ok {
				return &AnswerError{fmt.Sprintf("Question #%d is missing an answer.", pos)}
			}
			n, err := parseAnswer(answer)
			if err != nil {
				return &AnswerError{fmt.Sprintf("Question #%d has an invalid answer.", pos)}
			}
			if n > math.MaxInt64 || int64(n) < field.Min || int64(n) > field.Max {
				return &AnswerError{fmt.Sprintf("Question #%d's answer is out of bounds.", pos)}
			}

		case ChoiceField:
			if field.Single {
				answer, ok := singleValue(form, key)
				if !ok {
					return &AnswerError{fmt.Sprintf("Question #%d is missing an answer.", pos)}
				}
				n, err := parseAnswer(answer)
				if err != nil || n >= uint64(len(field.Choices)) {
					return &AnswerError{fmt.Sprintf("Question #%d has an invalid answer.", pos)}
				}
				continue
			}

			var mask uint64
			var overflow bool
			if answer, ok := singleValue(form, key); ok {
				n, err := parseAnswer(answer)
				if err != nil {
					return &AnswerError{fmt.Sprintf("Question #%d has an invalid answer.", pos)}
				}
				mask = n
			} else {
				mask, overflow = collectMask(form, i)
			}
			if overflow || maskOutOfBounds(mask, len(field.Choices)) {
				return &AnswerError{fmt.Sprintf("Question #%d's answer is out of bounds.", pos)}
			}
		}
	}
	return nil
}

// EncodeAnswer maps a submission to storage column values: strings for text
// fields, integers for range and single-choice fields, a bitmask integer for
// multi-choice fields. It trusts that ValidateAnswer already passed, so
// unparseable keys are skipped rather than reported.
func EncodeAnswer(fields []Field, form url.Values) map[string]any {
	values := make(map[string]any)
	for i, field := range fields {
		key := colName(i)

		switch field := field.(type) {
		case InfoField:
			continue

		case TextField:
			if answer, ok := singleValue(form, key); ok {
				values[key] = answer
			}

		case RangeField:
			if answer, ok := singleValue(form, key); ok {
				if n, err := parseAnswer(answer); err == nil && n <= math.MaxInt64 {
					values[key] = int64(n)
				}
			}

		case ChoiceField:
			if field.Single {
				if answer, ok := singleValue(form, key); ok {
					if n, err := parseAnswer(answer); err == nil {
						values[key] = int64(n)
					}
				}
				continue
			}

			var mask uint64
			if answer, ok := singleValue(form, key); ok {
				n, err := parseAnswer(answer)
				if err != nil {
					continue
				}
				mask = n
			} else {
				mask, _ = collectMask(form, i)
			}
			values[key] = int64(mask)
		}
	}
	return values
}

// DecodeRow turns stored column values back into display cells, one per
// non-info field in schema order. Multi-choice bitmasks unpack to their
// selected choice labels joined with "+" in ascending index order; an empty
// mask decodes to the empty string.
//
// A stored value that cannot have been produced by EncodeAnswer (wrong type,
// choice index out of bounds) is a stored-data fault and yields a
// *DecodeError.
func DecodeRow(fields []Field, values map[string]any) ([]string, error) {
	cells := make([]string, 0, len(fields))
	for i, field := range fields {
		key := colName(i)

		switch field := field.(type) {
		case InfoField:
			continue

		case TextField:
			answer, ok := storedString(values[key])
			if !ok {
				return nil, &DecodeError{"invalid value for " + key}
			}
			cells = append(cells, answer)

		case RangeField:
			n, ok := storedInt(values[key])
			if !ok {
				return nil, &DecodeError{"invalid value for " + key}
			}
			cells = append(cells, strconv.FormatInt(n, 10))

		case ChoiceField:
			n, ok := storedInt(values[key])
			if !ok {
				return nil, &DecodeError{"invalid value for " + key}
			}
			if field.Single {
				if n < 0 || n >= int64(len(field.Choices)) {
					return nil, &DecodeError{"choice index out of bounds for " + key}
				}
				cells = append(cells, field.Choices[n])
				continue
			}

			var selected []string
			for bit, choice := range field.Choices {
				if uint64(n)&(1<<uint(bit)) != 0 {
					selected = append(selected, choice)
				}
			}
			cells = append(cells, strings.Join(selected, "+"))
		}
	}
	return cells, nil
}

func colName(i int) string {
	return "col" + strconv.Itoa(i)
}

func singleValue(form url.Values, key string) (string, bool) {
	vs, ok := form[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// parseAnswer parses an integer answer: decimal digits only (no sign, no
// spaces), at most 20 of them.
func parseAnswer(s string) (uint64, error) {
	if s == "" || len(s) > maxAnswerDigits {
		return 0, strconv.ErrSyntax
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseUint(s, 10, 64)
}

// collectMask ORs 1<<bit over every well-formed "col{i}_{bit}" key in the
// submission. Malformed suffixes (non-integer, trailing junk, negative bit)
// are skipped silently, not rejected. A bit beyond the widest representable
// mask reports overflow so the caller can fail the bounds check.
func collectMask(form url.Values, i int) (mask uint64, overflow bool) {
	prefix := colName(i) + "_"
	for key := range form {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		bit, err := strconv.Atoi(key[len(prefix):])
		if err != nil || bit < 0 {
			continue
		}
		if bit >= maxChoices {
			overflow = true
			continue
		}
		mask |= 1 << uint(bit)
	}
	return mask, overflow
}

func maskOutOfBounds(mask uint64, choices int) bool {
	if choices >= 64 {
		return false
	}
	return mask >= 1<<uint(choices)
}

// storedString and storedInt normalize values coming back from the sql
// driver, which may hand out []byte for text and any integer width.
func storedString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func storedInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}
