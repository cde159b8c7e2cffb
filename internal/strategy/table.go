// internal/strategy/table.go
package strategy

import (
	"github.com/formpilot/formpilot-cli/api/schemas"
)

// TypeProbe pairs a canonical field type with the XPath that detects it
// inside a question container.
type TypeProbe struct {
	Type  schemas.FieldType
	XPath string
}

// ControlMatcher locates a page control (next/continue/submit button) on the
// live page: either a CSS selector or a case-insensitive substring of the
// control's visible text.
type ControlMatcher struct {
	CSS  string
	Text string
}

// Table is the per-provider selector strategy: ordered candidate selectors
// for question containers, form title, field-type detection, required
// markers, and option lists. Adding a provider means adding a table entry,
// not new control flow.
type Table struct {
	Provider schemas.Provider

	// ContainerCSS locates question containers on the live page. Extraction
	// waits for it after navigation; absence within the bounded wait is a
	// page-level parse failure.
	ContainerCSS string

	// TitleCSS are live-page form title candidates, tried in order.
	TitleCSS     []string
	DefaultTitle string

	// TypeProbes are evaluated in order against a container fragment; the
	// first probe with a match decides the field type, never blended.
	TypeProbes []TypeProbe

	// RequiredXPaths mark a question as required when any matches. A literal
	// '*' in the container's visible text also counts.
	RequiredXPaths []string

	// OptionXPaths are tried in order; the first selector yielding a
	// non-empty, text-deduplicated set wins and later selectors are never
	// consulted.
	OptionXPaths []string
}

// typeProbePrecedence is the shared detection order: radio/role-radio, then
// checkbox, then native input types, then textarea, then select/listbox,
// with text as the terminal fallback.
var typeProbePrecedence = []TypeProbe{
	{schemas.FieldMultipleChoice, `.//div[@role='radio'] | .//input[@type='radio']`},
	{schemas.FieldCheckbox, `.//div[@role='checkbox'] | .//input[@type='checkbox']`},
	{schemas.FieldEmail, `.//input[@type='email']`},
	{schemas.FieldTel, `.//input[@type='tel']`},
	{schemas.FieldNumber, `.//input[@type='number']`},
	{schemas.FieldDate, `.//input[@type='date']`},
	{schemas.FieldPassword, `.//input[@type='password']`},
	{schemas.FieldFile, `.//input[@type='file']`},
	{schemas.FieldText, `.//input[@type='text'] | .//input[@type='url'] | .//input[not(@type)]`},
	{schemas.FieldParagraph, `.//textarea`},
	{schemas.FieldDropdown, `.//div[@role='listbox'] | .//select`},
}

var tables = map[schemas.Provider]Table{
	schemas.ProviderGoogle: {
		Provider:     schemas.ProviderGoogle,
		ContainerCSS: `div[role="listitem"]`,
		TitleCSS:     []string{`div[jsname="r4nke"]`},
		DefaultTitle: "Untitled Google Form",
		TypeProbes:   typeProbePrecedence,
		RequiredXPaths: []string{
			`.//span[@aria-label='Required question']`,
			`.//*[@aria-required='true']`,
		},
		OptionXPaths: []string{
			`.//div[@role='presentation']//span`,
			`.//div[@role='radio']//span`,
			`.//div[@role='option']//span`,
			`.//label//span`,
			`.//div[contains(@class,'jNTOo')]//span`,
		},
	},
	schemas.ProviderTypeform: {
		Provider:     schemas.ProviderTypeform,
		ContainerCSS: `[data-qa="question"]`,
		TitleCSS:     []string{`h1`},
		DefaultTitle: "Untitled Typeform",
		TypeProbes:   typeProbePrecedence,
		RequiredXPaths: []string{
			`.//*[@aria-required='true']`,
		},
		OptionXPaths: []string{
			`.//label | .//option`,
		},
	},
	schemas.ProviderMicrosoft: {
		Provider:     schemas.ProviderMicrosoft,
		ContainerCSS: `div[data-automation-id="questionItem"]`,
		TitleCSS:     []string{`div[data-automation-id="formTitle"]`},
		DefaultTitle: "Untitled Microsoft Form",
		TypeProbes:   typeProbePrecedence,
		RequiredXPaths: []string{
			`.//*[@aria-required='true']`,
		},
		OptionXPaths: []string{
			`.//label | .//option`,
		},
	},
}

// ForProvider returns the strategy table for the given provider tag. The
// custom provider has no table: it is handled by the static-HTML heuristic.
func ForProvider(p schemas.Provider) (Table, bool) {
	t, ok := tables[p]
	return t, ok
}

// NextControls is the ordered matcher list for "next/continue" controls on
// multi-page forms.
var NextControls = []ControlMatcher{
	{Text: "next"},
	{Text: "continue"},
	{CSS: `input[type='submit'][value*='Next']`},
	{CSS: `button[aria-label*='Next']`},
	{CSS: `button[data-qa*='next']`},
}

// SubmitControls is the ordered matcher list for submit controls.
var SubmitControls = []ControlMatcher{
	{CSS: `input[type='submit']`},
	{CSS: `button[type='submit']`},
	{Text: "submit"},
}

// FieldPresenceSelectors are the page elements whose appearance means a form
// is (probably) present. Their absence after the bounded wait is logged, not
// fatal.
var FieldPresenceSelectors = []string{
	"form", "input", "select", "textarea", `div[role="radiogroup"]`, `div[role="listitem"]`,
}
