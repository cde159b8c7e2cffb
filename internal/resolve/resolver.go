// internal/resolve/resolver.go

// Package resolve maps field descriptors back onto live DOM elements. The
// selector strategy is a fixed fallback chain evaluated per field; resolution
// is pure string assembly and never touches the page.
package resolve

import (
	"fmt"
	"strings"

	"github.com/formpilot/formpilot-cli/api/schemas"
)

// Selector returns the CSS selector that locates the field's control on the
// live page. The chain is: choice-group selectors for option-bearing types,
// then DOM id, then name, then aria-label, then a bare type selector. A field
// no strategy can address yields a SelectorResolutionError.
func Selector(field schemas.FieldDescriptor) (string, error) {
	if field.Type.HasOptions() {
		if sel := choiceGroupSelector(field); sel != "" {
			return sel, nil
		}
	}

	if field.ID != "" && !looksGenerated(field.ID) {
		return fmt.Sprintf(`[id=%s]`, CSSQuote(field.ID)), nil
	}
	if field.Name != "" {
		return fmt.Sprintf(`[name=%s]`, CSSQuote(field.Name)), nil
	}
	if field.Label != "" && !strings.HasPrefix(field.Label, "Untitled ") {
		return fmt.Sprintf(`input[aria-label*=%s]`, CSSQuote(field.Label)), nil
	}

	if sel := typeSelector(field.Type); sel != "" {
		return sel, nil
	}
	return "", &schemas.SelectorResolutionError{FieldID: field.ID, Type: field.Type}
}

// choiceGroupSelector targets the ARIA group (or native select) wrapping a
// choice field. SPA providers label groups via aria-labelledby; static forms
// expose the control by name.
func choiceGroupSelector(field schemas.FieldDescriptor) string {
	var parts []string
	if field.ID != "" && !looksGenerated(field.ID) {
		parts = append(parts,
			fmt.Sprintf(`div[role='radiogroup'][aria-labelledby*=%s]`, CSSQuote(field.ID)),
			fmt.Sprintf(`div[role='listbox'][aria-labelledby*=%s]`, CSSQuote(field.ID)),
		)
	}
	if field.Name != "" {
		switch field.Type {
		case schemas.FieldDropdown:
			parts = append(parts, fmt.Sprintf(`select[name=%s]`, CSSQuote(field.Name)))
		case schemas.FieldMultipleChoice:
			parts = append(parts, fmt.Sprintf(`input[type='radio'][name=%s]`, CSSQuote(field.Name)))
		case schemas.FieldCheckbox:
			parts = append(parts, fmt.Sprintf(`input[type='checkbox'][name=%s]`, CSSQuote(field.Name)))
		}
	}
	return strings.Join(parts, ", ")
}

// OptionSelector locates one concrete option inside a choice field by value.
func OptionSelector(field schemas.FieldDescriptor, value string) string {
	var parts []string
	switch field.Type {
	case schemas.FieldMultipleChoice:
		parts = append(parts,
			fmt.Sprintf(`div[role='radio'][aria-label*=%s]`, CSSQuote(value)),
			fmt.Sprintf(`div[role='radio'][data-value=%s]`, CSSQuote(value)),
		)
		if field.Name != "" {
			parts = append(parts, fmt.Sprintf(`input[type='radio'][name=%s][value=%s]`,
				CSSQuote(field.Name), CSSQuote(value)))
		}
		parts = append(parts, fmt.Sprintf(`input[type='radio'][value=%s]`, CSSQuote(value)))
	case schemas.FieldCheckbox:
		parts = append(parts,
			fmt.Sprintf(`div[role='checkbox'][aria-label*=%s]`, CSSQuote(value)),
		)
		if field.Name != "" {
			parts = append(parts, fmt.Sprintf(`input[type='checkbox'][name=%s][value=%s]`,
				CSSQuote(field.Name), CSSQuote(value)))
		}
		parts = append(parts, fmt.Sprintf(`input[type='checkbox'][value=%s]`, CSSQuote(value)))
	case schemas.FieldDropdown:
		parts = append(parts,
			fmt.Sprintf(`div[role='option'][aria-label*=%s]`, CSSQuote(value)),
			fmt.Sprintf(`div[role='option'][data-value=%s]`, CSSQuote(value)),
			fmt.Sprintf(`option[value=%s]`, CSSQuote(value)),
		)
	}
	return strings.Join(parts, ", ")
}

func typeSelector(t schemas.FieldType) string {
	switch t {
	case schemas.FieldParagraph:
		return "textarea"
	case schemas.FieldDropdown:
		return "select, div[role='listbox']"
	case schemas.FieldText:
		return "input[type='text'], input:not([type])"
	case schemas.FieldEmail, schemas.FieldTel, schemas.FieldNumber,
		schemas.FieldDate, schemas.FieldPassword, schemas.FieldFile:
		return fmt.Sprintf("input[type='%s']", t)
	}
	return ""
}

// looksGenerated reports whether an id is a generated UUID (possibly carrying
// a de-duplication suffix) rather than a real DOM id. Generated ids never
// exist on the page, so they are useless as selectors.
func looksGenerated(id string) bool {
	if len(id) < 36 {
		return false
	}
	core := id[:36]
	for i, r := range core {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if !isHex(r) {
				return false
			}
		}
	}
	return true
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// CSSQuote wraps s in a double-quoted CSS attribute string. Callers building
// attribute selectors from schema-derived names must use it so quotes and
// backslashes in the input cannot break out of the selector.
func CSSQuote(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + replacer.Replace(s) + `"`
}
