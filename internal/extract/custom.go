// internal/extract/custom.go
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/browser"
)

const staticFetchTimeout = 10 * time.Second

// extractCustom handles arbitrary pages: try a plain HTTP fetch first (no
// browser cost for server-rendered forms), then fall back to a rendered
// session, scanning same-origin iframes and finally loose controls outside
// any <form>.
func (e *Engine) extractCustom(ctx context.Context, url string) (*schemas.FormSchema, error) {
	if body, err := e.fetchStatic(ctx, url); err == nil {
		if schema, parseErr := e.parseStaticHTML(body); parseErr == nil && schemaHasFields(schema) {
			e.logger.Debug("Custom form extracted without a browser.", zap.String("url", url))
			return schema, nil
		}
	} else {
		e.logger.Debug("Static fetch failed; falling back to a browser session.",
			zap.String("url", url), zap.Error(err))
	}

	sess, err := e.sessions.Open(ctx, browser.ModeEphemeral)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire browser session: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, url); err != nil {
		return nil, err
	}

	pageHTML, err := sess.HTML(ctx)
	if err != nil {
		return nil, &schemas.ParseError{
			Provider: schemas.ProviderCustom,
			Reason:   "failed to capture rendered page",
			Err:      err,
		}
	}
	if e.cfg.Browser.Debug {
		e.store.SaveDebugHTML(string(schemas.ProviderCustom), pageHTML)
	}

	if schema, parseErr := e.parseStaticHTML(pageHTML); parseErr == nil && schemaHasFields(schema) {
		return schema, nil
	}

	// Some sites render their form inside a same-origin iframe.
	if schema := e.scanIframes(ctx, sess); schema != nil {
		return schema, nil
	}

	// Last resort: controls scattered outside any <form> element.
	if schema := e.looseControls(pageHTML, url); schema != nil {
		return schema, nil
	}

	return nil, &schemas.ParseError{
		Provider: schemas.ProviderCustom,
		Reason:   "no form structure found on the page",
		PagePath: e.store.SaveDebugHTML(string(schemas.ProviderCustom), pageHTML),
	}
}

// fetchStatic performs a plain GET and returns the body.
func (e *Engine) fetchStatic(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, staticFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; formpilot/1.0)")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// scanIframes walks the page's same-origin iframes for an embedded form.
// Cross-origin frames are invisible to contentDocument and skipped.
func (e *Engine) scanIframes(ctx context.Context, sess *browser.Session) *schemas.FormSchema {
	var frames []string
	expr := `Array.from(document.querySelectorAll('iframe')).map(f => {
		try { return f.contentDocument ? f.contentDocument.documentElement.outerHTML : ''; }
		catch (err) { return ''; }
	}).filter(h => h !== '')`
	if err := sess.Evaluate(ctx, expr, &frames); err != nil {
		e.logger.Debug("Iframe scan failed.", zap.Error(err))
		return nil
	}

	for i, frameHTML := range frames {
		if !strings.Contains(strings.ToLower(frameHTML), "<form") {
			continue
		}
		schema, err := e.parseStaticHTML(frameHTML)
		if err == nil && schemaHasFields(schema) {
			e.logger.Debug("Form extracted from iframe.", zap.Int("iframe_index", i))
			return schema
		}
	}
	return nil
}

// looseControls builds a synthetic single form from the fillable controls of a
// page that has no <form> element at all.
func (e *Engine) looseControls(pageHTML, url string) *schemas.FormSchema {
	doc, err := htmlquery.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	fields := e.parseFields(doc)
	if len(fields) == 0 {
		return nil
	}

	title := "Untitled Custom Form"
	if node := htmlquery.FindOne(doc, "//title"); node != nil {
		if text := strings.TrimSpace(htmlquery.InnerText(node)); text != "" {
			title = text
		}
	}

	e.logger.Info("Built synthetic form from loose controls.",
		zap.String("url", url), zap.Int("fields", len(fields)))

	schema := &schemas.FormSchema{Forms: []schemas.Form{{
		ID:        uuid.NewString(),
		Name:      slugify(title),
		Action:    url,
		Method:    "POST",
		Fieldsets: []schemas.Fieldset{},
		Fields:    fields,
	}}}
	ensureUniqueFieldIDs(schema)
	return schema
}

func schemaHasFields(schema *schemas.FormSchema) bool {
	return schema != nil && len(schema.AllFields()) > 0
}
