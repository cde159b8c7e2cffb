// internal/resolve/resolver_test.go
package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilot/formpilot-cli/api/schemas"
)

const generatedID = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"

// -- Selector Chain --

func TestSelectorPrefersDOMID(t *testing.T) {
	sel, err := Selector(schemas.FieldDescriptor{ID: "email", Name: "email_addr", Type: schemas.FieldEmail})
	require.NoError(t, err)
	assert.Equal(t, `[id="email"]`, sel)
}

func TestSelectorSkipsGeneratedIDs(t *testing.T) {
	sel, err := Selector(schemas.FieldDescriptor{ID: generatedID, Name: "city", Type: schemas.FieldText})
	require.NoError(t, err)
	assert.Equal(t, `[name="city"]`, sel, "a UUID id never exists on the page")
}

func TestSelectorSkipsGeneratedIDWithDedupSuffix(t *testing.T) {
	sel, err := Selector(schemas.FieldDescriptor{ID: generatedID + "_ab12cd34", Name: "city", Type: schemas.FieldText})
	require.NoError(t, err)
	assert.Equal(t, `[name="city"]`, sel)
}

func TestSelectorFallsBackToAriaLabel(t *testing.T) {
	sel, err := Selector(schemas.FieldDescriptor{ID: generatedID, Label: "Your name", Type: schemas.FieldText})
	require.NoError(t, err)
	assert.Equal(t, `input[aria-label*="Your name"]`, sel)
}

func TestSelectorIgnoresPlaceholderLabels(t *testing.T) {
	sel, err := Selector(schemas.FieldDescriptor{
		ID:    generatedID,
		Label: "Untitled Field ab12cd34",
		Type:  schemas.FieldParagraph,
	})
	require.NoError(t, err)
	assert.Equal(t, "textarea", sel, "placeholder labels fall through to the type selector")
}

func TestSelectorTypeFallbacks(t *testing.T) {
	cases := map[schemas.FieldType]string{
		schemas.FieldParagraph: "textarea",
		schemas.FieldDate:      "input[type='date']",
		schemas.FieldText:      "input[type='text'], input:not([type])",
	}
	for ftype, want := range cases {
		sel, err := Selector(schemas.FieldDescriptor{ID: generatedID, Type: ftype})
		require.NoError(t, err)
		assert.Equal(t, want, sel)
	}
}

func TestSelectorUnresolvable(t *testing.T) {
	_, err := Selector(schemas.FieldDescriptor{ID: generatedID, Type: schemas.FieldMultipleChoice, Label: "Untitled Question 1"})
	require.Error(t, err)

	var resErr *schemas.SelectorResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, generatedID, resErr.FieldID)
}

// -- Choice Groups --

func TestSelectorChoiceGroupByDOMID(t *testing.T) {
	sel, err := Selector(schemas.FieldDescriptor{ID: "q1", Type: schemas.FieldMultipleChoice})
	require.NoError(t, err)
	assert.Contains(t, sel, `div[role='radiogroup'][aria-labelledby*="q1"]`)
	assert.Contains(t, sel, `div[role='listbox'][aria-labelledby*="q1"]`)
}

func TestSelectorChoiceGroupByName(t *testing.T) {
	sel, err := Selector(schemas.FieldDescriptor{ID: generatedID, Name: "size", Type: schemas.FieldDropdown})
	require.NoError(t, err)
	assert.Contains(t, sel, `select[name="size"]`)
}

// -- Option Selectors --

func TestOptionSelectorRadio(t *testing.T) {
	field := schemas.FieldDescriptor{Name: "size", Type: schemas.FieldMultipleChoice}
	sel := OptionSelector(field, "large")

	assert.Contains(t, sel, `div[role='radio'][aria-label*="large"]`)
	assert.Contains(t, sel, `input[type='radio'][name="size"][value="large"]`)
}

func TestOptionSelectorCheckboxWithoutName(t *testing.T) {
	sel := OptionSelector(schemas.FieldDescriptor{Type: schemas.FieldCheckbox}, "fries")
	assert.Contains(t, sel, `input[type='checkbox'][value="fries"]`)
	assert.NotContains(t, sel, "[name=")
}

func TestOptionSelectorDropdown(t *testing.T) {
	sel := OptionSelector(schemas.FieldDescriptor{Type: schemas.FieldDropdown}, "uk")
	assert.Contains(t, sel, `div[role='option'][aria-label*="uk"]`)
	assert.Contains(t, sel, `option[value="uk"]`)
}

func TestOptionSelectorUnsupportedType(t *testing.T) {
	assert.Empty(t, OptionSelector(schemas.FieldDescriptor{Type: schemas.FieldText}, "x"))
}

// -- Quoting --

func TestCSSQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, CSSQuote("plain"))
	assert.Equal(t, `"a\"b"`, CSSQuote(`a"b`))
	assert.Equal(t, `"a\\b"`, CSSQuote(`a\b`))
}

func TestSelectorQuotesSpecialCharacters(t *testing.T) {
	sel, err := Selector(schemas.FieldDescriptor{ID: `we"ird`, Type: schemas.FieldText})
	require.NoError(t, err)
	assert.Equal(t, `[id="we\"ird"]`, sel)
}
