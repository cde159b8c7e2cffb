// internal/autofill/engine.go

// Package autofill drives a live browser session to fill a previously
// extracted form with caller-supplied responses, producing a full audit trail
// of screenshots and a structured result log.
package autofill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/artifacts"
	"github.com/formpilot/formpilot-cli/internal/browser"
	"github.com/formpilot/formpilot-cli/internal/config"
	"github.com/formpilot/formpilot-cli/internal/resolve"
	"github.com/formpilot/formpilot-cli/internal/strategy"
)

// maxPages bounds multi-page traversal so a form that keeps presenting a
// "next" control cannot loop forever.
const maxPages = 10

// page is the subset of session operations the fill and verification loops
// drive. *browser.Session satisfies it; tests substitute a scripted page.
type page interface {
	Navigate(ctx context.Context, url string) error
	WaitAny(ctx context.Context, selectors []string, timeout time.Duration) error
	SetValue(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Exists(ctx context.Context, selector string) (bool, error)
	Evaluate(ctx context.Context, expr string, res any) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// Engine executes fill plans against live pages.
type Engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	sessions *browser.Manager
	store    *artifacts.Store
}

// NewEngine wires an autofill engine.
func NewEngine(cfg *config.Config, sessions *browser.Manager, store *artifacts.Store, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		logger:   logger.Named("autofill"),
		sessions: sessions,
		store:    store,
	}
}

// Autofill navigates to the form URL and fills every plannable field. Field
// failures are accumulated, screenshotted and skipped; only session
// acquisition and navigation failures abort the run. The returned result is
// always non-nil and already persisted to the audit log.
func (e *Engine) Autofill(ctx context.Context, url string, schema *schemas.FormSchema, responses []schemas.ResponseEntry) (*schemas.AutofillResult, error) {
	result := schemas.NewAutofillResult()

	plan := BuildPlan(schema, responses)
	result.Errors = append(result.Errors, plan.Errors...)

	sess, err := e.sessions.Open(ctx, browser.ModeEphemeral)
	if err != nil {
		result.Status = schemas.StatusError
		result.Errors = append(result.Errors, err.Error())
		result.LogFile = e.store.SaveResultLog(result)
		return result, err
	}
	defer sess.Close()

	runErr := e.run(ctx, sess, url, plan, result)
	result.LogFile = e.store.SaveResultLog(result)
	return result, runErr
}

// run performs the navigate-fill-submit cycle against an open page.
func (e *Engine) run(ctx context.Context, sess page, url string, plan Plan, result *schemas.AutofillResult) error {
	if err := sess.Navigate(ctx, url); err != nil {
		result.Status = schemas.StatusError
		result.Errors = append(result.Errors, err.Error())
		e.capture(ctx, sess, "navigation_error", result)
		return err
	}

	if err := sess.WaitAny(ctx, strategy.FieldPresenceSelectors, e.cfg.Network.ContainerWait); err != nil {
		// Not fatal: the plan's selectors may still resolve on an unusual page.
		e.logger.Warn("No form markers detected after load; attempting fill anyway.", zap.Error(err))
		result.Errors = append(result.Errors, "no form fields detected on the page")
	}

	limiter := rate.NewLimiter(rate.Limit(e.cfg.Network.SettleActionsPerSec), 1)

	// Multi-page traversal: fill what resolves on the current page, then look
	// for a next/continue control. Fields already filled are never retried on
	// later pages.
	done := make(map[string]bool, len(plan.Actions))
	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		e.fillPage(ctx, sess, limiter, plan.Actions, done, result)

		if len(done) == len(plan.Actions) && pageNum > 1 {
			break
		}
		if !e.clickControl(ctx, sess, strategy.NextControls) {
			break
		}
		e.logger.Info("Advanced to next form page.", zap.Int("page", pageNum+1))
		e.capture(ctx, sess, fmt.Sprintf("page_%d", pageNum+1), result)
	}

	if e.clickControl(ctx, sess, strategy.SubmitControls) {
		e.logger.Info("Form submitted.", zap.Int("filled_fields", len(result.FilledFields)))
		e.capture(ctx, sess, "submitted", result)
	} else {
		subErr := &schemas.SubmissionError{Reason: "no submit button found"}
		result.Errors = append(result.Errors, subErr.Error())
		e.capture(ctx, sess, "final_state", result)
	}
	return nil
}

// fillPage attempts every not-yet-filled action against the current page.
func (e *Engine) fillPage(ctx context.Context, sess page, limiter *rate.Limiter, actions []Action, done map[string]bool, result *schemas.AutofillResult) {
	for _, action := range actions {
		if done[action.Field.ID] {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		if err := e.fillField(ctx, sess, action); err != nil {
			fieldErr := &schemas.FieldError{Label: action.Field.Label, Err: err}
			e.logger.Warn("Field fill failed.",
				zap.String("field_id", action.Field.ID),
				zap.String("label", action.Field.Label),
				zap.Error(err))
			result.Errors = append(result.Errors, fieldErr.Error())
			e.capture(ctx, sess, "field_error_"+sanitize(action.Field.ID), result)
			// The field may simply live on a later page; leave it pending
			// unless its selector can never resolve.
			var unresolvable *schemas.SelectorResolutionError
			if errors.As(err, &unresolvable) {
				done[action.Field.ID] = true
			}
			continue
		}

		done[action.Field.ID] = true
		result.FilledFields = append(result.FilledFields, action.Field.Label)
		e.logger.Debug("Field filled.",
			zap.String("field_id", action.Field.ID),
			zap.String("type", string(action.Field.Type)))
	}
}

// fillField dispatches on the field type.
func (e *Engine) fillField(ctx context.Context, sess page, action Action) error {
	field := action.Field

	switch {
	case field.Type.TextLike() || field.Type == schemas.FieldParagraph:
		selector, err := resolve.Selector(field)
		if err != nil {
			return err
		}
		return sess.SetValue(ctx, selector, action.Value)

	case field.Type == schemas.FieldMultipleChoice:
		return e.clickOption(ctx, sess, field, action.Value)

	case field.Type == schemas.FieldCheckbox:
		for _, value := range action.Values {
			if err := e.checkOption(ctx, sess, field, value); err != nil {
				return err
			}
		}
		return nil

	case field.Type == schemas.FieldDropdown:
		return e.fillDropdown(ctx, sess, field, action.Value)
	}

	return fmt.Errorf("unsupported field type %q", field.Type)
}

// clickOption selects a single choice by value, mapping option text to its
// underlying value when the schema knows it.
func (e *Engine) clickOption(ctx context.Context, sess page, field schemas.FieldDescriptor, value string) error {
	selector := resolve.OptionSelector(field, optionValue(field, value))
	if selector == "" {
		return &schemas.SelectorResolutionError{FieldID: field.ID, Type: field.Type}
	}
	return sess.Click(ctx, selector)
}

// checkOption checks a checkbox option. Clicking a checkbox toggles it, so an
// option the page already has checked is left alone.
func (e *Engine) checkOption(ctx context.Context, sess page, field schemas.FieldDescriptor, value string) error {
	selector := resolve.OptionSelector(field, optionValue(field, value))
	if selector == "" {
		return &schemas.SelectorResolutionError{FieldID: field.ID, Type: field.Type}
	}
	if checked, err := e.isSelected(ctx, sess, selector); err == nil && checked {
		e.logger.Debug("Option already checked; skipping click.", zap.String("field_id", field.ID))
		return nil
	}
	return sess.Click(ctx, selector)
}

// fillDropdown writes a native <select> directly; ARIA listboxes need the
// group opened first and the option clicked.
func (e *Engine) fillDropdown(ctx context.Context, sess page, field schemas.FieldDescriptor, value string) error {
	target := optionValue(field, value)

	if field.Name != "" {
		nativeSel := fmt.Sprintf(`select[name=%s]`, resolve.CSSQuote(field.Name))
		if found, err := sess.Exists(ctx, nativeSel); err == nil && found {
			return sess.SetValue(ctx, nativeSel, target)
		}
	}

	groupSel, err := resolve.Selector(field)
	if err != nil {
		return err
	}
	if err := sess.Click(ctx, groupSel); err != nil {
		return fmt.Errorf("failed to open dropdown: %w", err)
	}
	return sess.Click(ctx, resolve.OptionSelector(field, target))
}

// isSelected reads the live selected/checked state of the first element the
// selector matches: input.checked, option.selected, or the ARIA equivalents.
func (e *Engine) isSelected(ctx context.Context, sess page, selector string) (bool, error) {
	var selected bool
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		if (el.tagName === 'INPUT') return el.checked;
		if (el.tagName === 'OPTION') return el.selected;
		return el.getAttribute('aria-checked') === 'true' || el.getAttribute('aria-selected') === 'true';
	})()`, jsQuote(selector))
	if err := sess.Evaluate(ctx, expr, &selected); err != nil {
		return false, err
	}
	return selected, nil
}

// optionValue maps a response given as option text onto the option's value.
// Unknown values pass through untouched so free-text "other" answers still
// work.
func optionValue(field schemas.FieldDescriptor, value string) string {
	for _, opt := range field.Options {
		if opt.Value == value {
			return value
		}
	}
	for _, opt := range field.Options {
		if strings.EqualFold(opt.Text, value) {
			return opt.Value
		}
	}
	return value
}

// clickControl evaluates the matcher chain on the live page and clicks the
// first visible match. Returns false when nothing matched or the click failed.
func (e *Engine) clickControl(ctx context.Context, sess page, matchers []strategy.ControlMatcher) bool {
	var found bool
	if err := sess.Evaluate(ctx, strategy.ControlProbeJS(matchers), &found); err != nil || !found {
		return false
	}
	if err := sess.Click(ctx, strategy.TaggedControlSelector); err != nil {
		e.logger.Warn("Control click failed.", zap.Error(err))
		return false
	}
	return true
}

// capture takes a screenshot and records its path on the result. Failures are
// logged, never propagated.
func (e *Engine) capture(ctx context.Context, sess page, prefix string, result *schemas.AutofillResult) {
	png, err := sess.Screenshot(ctx)
	if err != nil {
		e.logger.Debug("Screenshot failed.", zap.String("prefix", prefix), zap.Error(err))
		return
	}
	if path := e.store.SaveScreenshot(prefix, png); path != "" {
		result.Screenshots = append(result.Screenshots, path)
	}
}

// sanitize keeps a field id filesystem-safe for screenshot prefixes.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
