// api/schemas/errors.go
package schemas

import "fmt"

// Error taxonomy. Only NavigationError and session acquisition failures are
// allowed to propagate out of extraction/autofill calls; every other kind is
// recovered locally and accumulated into the result object.

// NavigationError indicates the target page was unreachable or timed out
// while loading.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %q failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ParseError indicates a page-level extraction failure: no extractable
// structure, a provider marker that never appeared, or an authentication wall.
// PagePath points at the raw page capture saved for offline debugging, when
// one could be written.
type ParseError struct {
	Provider Provider
	Reason   string
	PagePath string
	Err      error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("failed to parse %s form: %s", e.Provider, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// FieldError is a single-field extraction or fill failure. It is always
// recovered where it occurs; the type exists so the recovery sites produce
// uniform, attributable messages.
type FieldError struct {
	Label string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Label, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// SelectorResolutionError indicates no selector strategy could locate a live
// element for a field. The field is skipped at fill time.
type SelectorResolutionError struct {
	FieldID string
	Type    FieldType
}

func (e *SelectorResolutionError) Error() string {
	return fmt.Sprintf("no selector strategy matched field %s (type %s)", e.FieldID, e.Type)
}

// SubmissionError indicates no submit control was found or the submit click
// failed. It is recorded in the result, never propagated.
type SubmissionError struct {
	Reason string
}

func (e *SubmissionError) Error() string {
	return "submission failed: " + e.Reason
}
