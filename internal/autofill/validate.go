// internal/autofill/validate.go
package autofill

import (
	"strconv"
	"strings"

	"github.com/formpilot/formpilot-cli/api/schemas"
)

// ValidateResponses pairs a raw answer map (field id -> value) with the
// schema and returns response entries, marking Valid=false where the value
// cannot satisfy the field's type or option set. Invalid entries are never
// attempted at fill time; the plan records them as errors instead.
func ValidateResponses(schema *schemas.FormSchema, answers map[string]any) []schemas.ResponseEntry {
	fields := make(map[string]schemas.FieldDescriptor)
	for _, f := range schema.AllFields() {
		fields[f.ID] = f
	}

	var entries []schemas.ResponseEntry
	for fieldID, value := range answers {
		entry := schemas.ResponseEntry{FieldID: fieldID, Value: value}
		if field, known := fields[fieldID]; known {
			entry.Valid = valueFits(field, value)
		}
		entries = append(entries, entry)
	}
	return entries
}

func valueFits(field schemas.FieldDescriptor, value any) bool {
	switch field.Type {
	case schemas.FieldCheckbox:
		values := checkboxValues(value)
		if len(values) == 0 {
			return false
		}
		for _, v := range values {
			if !optionExists(field, v) {
				return false
			}
		}
		return true

	case schemas.FieldMultipleChoice, schemas.FieldDropdown:
		v, ok := scalarValue(value)
		return ok && optionExists(field, v)

	case schemas.FieldNumber:
		v, ok := scalarValue(value)
		if !ok {
			return false
		}
		_, err := strconv.ParseFloat(v, 64)
		return err == nil

	case schemas.FieldEmail:
		v, ok := scalarValue(value)
		return ok && strings.Contains(v, "@")

	case schemas.FieldFile:
		return false

	default:
		_, ok := scalarValue(value)
		return ok
	}
}

// optionExists matches by value first, then by visible text. A field whose
// option set could not be extracted accepts any value.
func optionExists(field schemas.FieldDescriptor, value string) bool {
	if len(field.Options) == 0 {
		return true
	}
	for _, opt := range field.Options {
		if opt.Value == value || strings.EqualFold(opt.Text, value) {
			return true
		}
	}
	return false
}
