// internal/extract/spa.go
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/browser"
	"github.com/formpilot/formpilot-cli/internal/strategy"
)

// extractSPA drives a live browser session against a known SPA provider: wait
// for the provider's question containers, snapshot each container's HTML, then
// analyze the fragments offline. A container that fails to parse is logged and
// skipped; only navigation and page-level failures abort the call.
func (e *Engine) extractSPA(ctx context.Context, url string, table strategy.Table) (*schemas.FormSchema, error) {
	mode := browser.ModeEphemeral
	if table.Provider == schemas.ProviderMicrosoft {
		// Microsoft Forms usually sits behind an org login; reuse the local
		// Chrome profile so the session carries its cookies.
		mode = browser.ModeProfile
	}

	sess, err := e.sessions.Open(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire browser session: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, url); err != nil {
		return nil, err
	}

	if table.Provider == schemas.ProviderMicrosoft {
		if loc, locErr := sess.Location(ctx); locErr == nil && strings.Contains(strings.ToLower(loc), "login") {
			return nil, &schemas.ParseError{
				Provider: table.Provider,
				Reason:   "redirected to a login page; authenticate in Chrome first or pass a profile directory",
				PagePath: e.captureDebugPage(ctx, sess, table.Provider),
			}
		}
	}

	if table.Provider == schemas.ProviderGoogle {
		// Long Google Forms lazy-render their tail; scroll it into existence.
		if err := sess.ScrollToBottom(ctx, e.cfg.Browser.ScrollPasses); err != nil {
			e.logger.Warn("Scroll passes failed; continuing with what rendered.", zap.Error(err))
		}
	}

	if err := sess.WaitAny(ctx, []string{table.ContainerCSS}, e.cfg.Network.ContainerWait); err != nil {
		return nil, &schemas.ParseError{
			Provider: table.Provider,
			Reason:   "question containers never appeared; the form may be private, closed, or the URL invalid",
			PagePath: e.captureDebugPage(ctx, sess, table.Provider),
			Err:      err,
		}
	}

	title := e.pageTitle(ctx, sess, table)
	fragments, err := containerFragments(ctx, sess, table.ContainerCSS)
	if err != nil {
		return nil, &schemas.ParseError{
			Provider: table.Provider,
			Reason:   "failed to snapshot question containers",
			PagePath: e.captureDebugPage(ctx, sess, table.Provider),
			Err:      err,
		}
	}

	if e.cfg.Browser.Debug {
		e.captureDebugPage(ctx, sess, table.Provider)
	}

	form := schemas.Form{
		ID:        uuid.NewString(),
		Name:      slugify(title),
		Action:    url,
		Method:    "POST",
		Fieldsets: []schemas.Fieldset{},
		Fields:    []schemas.FieldDescriptor{},
	}

	for i, fragment := range fragments {
		field, err := e.analyzeContainer(table, fragment, i)
		if err != nil {
			e.logger.Warn("Skipping unparseable question container.",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		form.Fields = append(form.Fields, field)
	}

	e.logger.Info("SPA extraction complete.",
		zap.String("provider", string(table.Provider)),
		zap.Int("containers", len(fragments)),
		zap.Int("fields", len(form.Fields)))

	schema := &schemas.FormSchema{Forms: []schemas.Form{form}}
	ensureUniqueFieldIDs(schema)
	return schema, nil
}

// analyzeContainer turns one container's HTML fragment into a field
// descriptor using the provider's strategy table.
func (e *Engine) analyzeContainer(table strategy.Table, fragment string, index int) (schemas.FieldDescriptor, error) {
	node, err := htmlquery.Parse(strings.NewReader(fragment))
	if err != nil {
		return schemas.FieldDescriptor{}, &schemas.FieldError{
			Label: fmt.Sprintf("container %d", index+1),
			Err:   err,
		}
	}

	visible := strategy.VisibleText(node)
	label := firstLine(visible)
	if label == "" {
		label = fmt.Sprintf("Untitled Question %d", index+1)
	}

	field := schemas.FieldDescriptor{
		ID:       uuid.NewString(),
		Name:     slugify(label),
		Type:     table.DetectType(node),
		Label:    label,
		Required: table.IsRequired(node, visible),
	}
	if field.Required {
		field.Validation = map[string]any{"required": true}
	}

	if field.Type.HasOptions() {
		field.Options = table.ExtractOptions(node, label)
		if len(field.Options) == 0 {
			e.logger.Warn("Option-bearing question yielded no options.",
				zap.String("label", label), zap.String("type", string(field.Type)))
		}
	}

	return field, nil
}

// pageTitle tries the table's title selectors in order against the live page.
func (e *Engine) pageTitle(ctx context.Context, sess *browser.Session, table strategy.Table) string {
	for _, css := range table.TitleCSS {
		var title string
		expr := fmt.Sprintf(
			`(() => { const el = document.querySelector(%s); return el ? el.textContent.trim() : ''; })()`,
			jsQuote(css))
		if err := sess.Evaluate(ctx, expr, &title); err != nil {
			continue
		}
		if title != "" {
			return title
		}
	}
	return table.DefaultTitle
}

// containerFragments snapshots the outerHTML of every question container in
// one round trip.
func containerFragments(ctx context.Context, sess *browser.Session, containerCSS string) ([]string, error) {
	var fragments []string
	expr := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%s)).map(el => el.outerHTML)`,
		jsQuote(containerCSS))
	if err := sess.Evaluate(ctx, expr, &fragments); err != nil {
		return nil, err
	}
	return fragments, nil
}

// captureDebugPage saves the current page HTML for offline debugging and
// returns the artifact path ("" when capture failed or is disabled).
func (e *Engine) captureDebugPage(ctx context.Context, sess *browser.Session, provider schemas.Provider) string {
	html, err := sess.HTML(ctx)
	if err != nil {
		e.logger.Debug("Debug page capture failed.", zap.Error(err))
		return ""
	}
	return e.store.SaveDebugHTML(string(provider), html)
}

func jsQuote(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(s) + "'"
}
