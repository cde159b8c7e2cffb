// internal/autofill/verify.go
package autofill

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/browser"
	"github.com/formpilot/formpilot-cli/internal/resolve"
)

// Verify re-reads the live state of the plan's fields and reports mismatches:
// text-like fields compare their value, choice fields compare the selected
// state of every expected option. Per-field read failures become mismatch
// notes; only navigation and session acquisition errors propagate. An empty
// slice means every verifiable field holds its expected state.
func (e *Engine) Verify(ctx context.Context, url string, schema *schemas.FormSchema, responses []schemas.ResponseEntry) ([]string, error) {
	plan := BuildPlan(schema, responses)

	sess, err := e.sessions.Open(ctx, browser.ModeEphemeral)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire browser session: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, url); err != nil {
		return nil, err
	}

	mismatches := e.verifyFields(ctx, sess, plan)
	e.logger.Info("Verification complete.",
		zap.Int("checked", len(plan.Actions)),
		zap.Int("mismatches", len(mismatches)))
	return mismatches, nil
}

func (e *Engine) verifyFields(ctx context.Context, sess page, plan Plan) []string {
	mismatches := []string{}
	for _, action := range plan.Actions {
		field := action.Field

		switch {
		case field.Type.TextLike() || field.Type == schemas.FieldParagraph:
			mismatches = append(mismatches, e.verifyTextField(ctx, sess, action)...)
		case field.Type.HasOptions():
			mismatches = append(mismatches, e.verifyChoiceField(ctx, sess, action)...)
		}
	}
	return mismatches
}

func (e *Engine) verifyTextField(ctx context.Context, sess page, action Action) []string {
	field := action.Field

	selector, err := resolve.Selector(field)
	if err != nil {
		return []string{fmt.Sprintf("field %q (%s): %v", field.Label, field.ID, err)}
	}

	actual, err := e.readValue(ctx, sess, selector)
	if err != nil {
		return []string{fmt.Sprintf("field %q (%s): could not read value: %v", field.Label, field.ID, err)}
	}
	if actual != action.Value {
		return []string{fmt.Sprintf("field %q (%s): expected %q, found %q", field.Label, field.ID, action.Value, actual)}
	}
	return nil
}

// verifyChoiceField confirms every expected option of a choice field is
// selected on the live page.
func (e *Engine) verifyChoiceField(ctx context.Context, sess page, action Action) []string {
	field := action.Field

	expected := action.Values
	if len(expected) == 0 {
		expected = []string{action.Value}
	}

	var mismatches []string
	for _, value := range expected {
		selector := resolve.OptionSelector(field, optionValue(field, value))
		if selector == "" {
			mismatches = append(mismatches,
				fmt.Sprintf("field %q (%s): no selector for option %q", field.Label, field.ID, value))
			continue
		}

		selected, err := e.isSelected(ctx, sess, selector)
		if err != nil {
			mismatches = append(mismatches,
				fmt.Sprintf("field %q (%s): could not read state of option %q: %v", field.Label, field.ID, value, err))
			continue
		}
		if !selected {
			mismatches = append(mismatches,
				fmt.Sprintf("field %q (%s): option %q is not selected", field.Label, field.ID, value))
		}
	}
	return mismatches
}

func (e *Engine) readValue(ctx context.Context, sess page, selector string) (string, error) {
	var value string
	expr := fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); return el ? (el.value || '') : ''; })()`,
		jsQuote(selector))
	if err := sess.Evaluate(ctx, expr, &value); err != nil {
		return "", err
	}
	return value, nil
}

func jsQuote(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(s) + "'"
}
