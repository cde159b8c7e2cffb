// internal/autofill/plan_test.go
package autofill

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilot/formpilot-cli/api/schemas"
)

func surveySchema() *schemas.FormSchema {
	return &schemas.FormSchema{Forms: []schemas.Form{{
		ID:   "survey",
		Name: "survey",
		Fields: []schemas.FieldDescriptor{
			{ID: "name", Name: "name", Type: schemas.FieldText, Label: "Name"},
			{ID: "email", Name: "email", Type: schemas.FieldEmail, Label: "Email"},
			{ID: "color", Name: "color", Type: schemas.FieldMultipleChoice, Label: "Color",
				Options: []schemas.Option{{Value: "red", Text: "Red"}, {Value: "blue", Text: "Blue"}}},
			{ID: "toppings", Name: "toppings", Type: schemas.FieldCheckbox, Label: "Toppings",
				Options: []schemas.Option{{Value: "fries", Text: "Fries"}, {Value: "salad", Text: "Salad"}}},
		},
	}}}
}

func entry(id string, value any) schemas.ResponseEntry {
	return schemas.ResponseEntry{FieldID: id, Value: value, Valid: true}
}

// -- Plan Building --

func TestBuildPlanAllFieldsAnswered(t *testing.T) {
	plan := BuildPlan(surveySchema(), []schemas.ResponseEntry{
		entry("name", "Ada"),
		entry("email", "ada@example.com"),
		entry("color", "red"),
		entry("toppings", []string{"fries", "salad"}),
	})

	assert.Empty(t, plan.Errors)
	require.Len(t, plan.Actions, 4)
	assert.Equal(t, "Ada", plan.Actions[0].Value)
	assert.Equal(t, []string{"fries", "salad"}, plan.Actions[3].Values)
}

func TestBuildPlanMissingResponseAccumulates(t *testing.T) {
	plan := BuildPlan(surveySchema(), []schemas.ResponseEntry{
		entry("name", "Ada"),
		entry("color", "red"),
		entry("toppings", "fries"),
	})

	require.Len(t, plan.Actions, 3, "the remaining fields still get planned")
	require.Len(t, plan.Errors, 1)
	assert.Contains(t, plan.Errors[0], "email", "the error names the unanswered field")
}

func TestBuildPlanInvalidEntrySkipped(t *testing.T) {
	plan := BuildPlan(surveySchema(), []schemas.ResponseEntry{
		entry("name", "Ada"),
		entry("email", "ada@example.com"),
		{FieldID: "color", Value: "purple", Valid: false},
		entry("toppings", "fries"),
	})

	require.Len(t, plan.Actions, 3)
	require.Len(t, plan.Errors, 1)
	assert.Contains(t, plan.Errors[0], "failed validation")
	assert.Contains(t, plan.Errors[0], "color")
}

func TestBuildPlanFileFieldsRejected(t *testing.T) {
	schema := &schemas.FormSchema{Forms: []schemas.Form{{Fields: []schemas.FieldDescriptor{
		{ID: "resume", Type: schemas.FieldFile, Label: "Resume"},
	}}}}

	plan := BuildPlan(schema, []schemas.ResponseEntry{entry("resume", "/tmp/cv.pdf")})
	assert.Empty(t, plan.Actions)
	require.Len(t, plan.Errors, 1)
	assert.Contains(t, plan.Errors[0], "file uploads")
}

func TestBuildPlanFieldsetFieldsIncluded(t *testing.T) {
	schema := &schemas.FormSchema{Forms: []schemas.Form{{
		Fieldsets: []schemas.Fieldset{{
			ID:     "fs",
			Fields: []schemas.FieldDescriptor{{ID: "street", Type: schemas.FieldText, Label: "Street"}},
		}},
	}}}

	plan := BuildPlan(schema, []schemas.ResponseEntry{entry("street", "Main St")})
	assert.Empty(t, plan.Errors)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, "street", plan.Actions[0].Field.ID)
}

// -- Value Coercion --

func TestCheckboxValues(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"String List", []string{"a", "b"}, []string{"a", "b"}},
		{"Any List", []any{"a", "b"}, []string{"a", "b"}},
		{"Comma String", "a, b ,c", []string{"a", "b", "c"}},
		{"Single Scalar", "a", []string{"a"}},
		{"Empty String", "", nil},
		{"Blank Entries Dropped", " , ,x", []string{"x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, checkboxValues(tc.in))
		})
	}
}

func TestScalarValue(t *testing.T) {
	cases := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{"hello", "hello", true},
		{true, "true", true},
		{float64(42), "42", true},
		{float64(2.5), "2.5", true},
		{int(7), "7", true},
		{nil, "", false},
		{[]string{"a"}, "", false},
		{[]any{"a"}, "", false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v", tc.in), func(t *testing.T) {
			got, ok := scalarValue(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOptionValueMapsTextToValue(t *testing.T) {
	field := surveySchema().Forms[0].Fields[2] // color

	assert.Equal(t, "red", optionValue(field, "red"), "a direct value passes through")
	assert.Equal(t, "blue", optionValue(field, "Blue"), "option text maps to its value")
	assert.Equal(t, "blue", optionValue(field, "blue"))
	assert.Equal(t, "other", optionValue(field, "other"), "unknown values pass through")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "field_1", sanitize("field_1"))
	assert.Equal(t, "a_b_c-d", sanitize("a/b c-d"))
}
