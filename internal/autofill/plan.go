// internal/autofill/plan.go
package autofill

import (
	"fmt"
	"strings"

	"github.com/formpilot/formpilot-cli/api/schemas"
)

// Action is one planned fill operation. Text-like and dropdown fields carry a
// single Value; checkbox fields carry the ordered Values to check.
type Action struct {
	Field  schemas.FieldDescriptor
	Value  string
	Values []string
}

// Plan is the outcome of matching caller responses against a schema. Errors
// accumulate per field; a plan with errors is still executable for the
// actions it does contain.
type Plan struct {
	Actions []Action
	Errors  []string
}

// BuildPlan pairs every schema field with its response entry. Fields without
// a usable response become plan errors, never aborts: the page visit proceeds
// with whatever can be filled.
func BuildPlan(schema *schemas.FormSchema, responses []schemas.ResponseEntry) Plan {
	byID := make(map[string]schemas.ResponseEntry, len(responses))
	for _, r := range responses {
		byID[r.FieldID] = r
	}

	var plan Plan
	for _, field := range schema.AllFields() {
		entry, ok := byID[field.ID]
		if !ok {
			plan.Errors = append(plan.Errors,
				fmt.Sprintf("no response provided for field %q (%s)", field.Label, field.ID))
			continue
		}
		if !entry.Valid {
			plan.Errors = append(plan.Errors,
				fmt.Sprintf("response for field %q (%s) failed validation; skipped", field.Label, field.ID))
			continue
		}
		if field.Type == schemas.FieldFile {
			plan.Errors = append(plan.Errors,
				fmt.Sprintf("field %q (%s): file uploads are not automated", field.Label, field.ID))
			continue
		}

		if field.Type == schemas.FieldCheckbox {
			values := checkboxValues(entry.Value)
			if len(values) == 0 {
				plan.Errors = append(plan.Errors,
					fmt.Sprintf("field %q (%s): checkbox response is empty", field.Label, field.ID))
				continue
			}
			plan.Actions = append(plan.Actions, Action{Field: field, Values: values})
			continue
		}

		value, ok := scalarValue(entry.Value)
		if !ok {
			plan.Errors = append(plan.Errors,
				fmt.Sprintf("field %q (%s): response value %v is not a scalar", field.Label, field.ID, entry.Value))
			continue
		}
		plan.Actions = append(plan.Actions, Action{Field: field, Value: value})
	}
	return plan
}

// checkboxValues accepts a list of values or a comma separated string.
func checkboxValues(v any) []string {
	var out []string
	push := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	switch raw := v.(type) {
	case []string:
		for _, s := range raw {
			push(s)
		}
	case []any:
		for _, item := range raw {
			if s, ok := scalarValue(item); ok {
				push(s)
			}
		}
	case string:
		for _, s := range strings.Split(raw, ",") {
			push(s)
		}
	default:
		if s, ok := scalarValue(v); ok {
			push(s)
		}
	}
	return out
}

// scalarValue renders a single-answer response as the string written into the
// control. Lists are rejected for non-checkbox fields.
func scalarValue(v any) (string, bool) {
	switch raw := v.(type) {
	case nil:
		return "", false
	case string:
		return raw, true
	case bool:
		return fmt.Sprintf("%t", raw), true
	case float64:
		// JSON numbers decode as float64; keep integers undecorated.
		if raw == float64(int64(raw)) {
			return fmt.Sprintf("%d", int64(raw)), true
		}
		return fmt.Sprintf("%g", raw), true
	case int:
		return fmt.Sprintf("%d", raw), true
	case int64:
		return fmt.Sprintf("%d", raw), true
	case []string, []any:
		return "", false
	default:
		return fmt.Sprintf("%v", raw), true
	}
}
