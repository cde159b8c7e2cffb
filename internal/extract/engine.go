// internal/extract/engine.go
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/artifacts"
	"github.com/formpilot/formpilot-cli/internal/browser"
	"github.com/formpilot/formpilot-cli/internal/config"
	"github.com/formpilot/formpilot-cli/internal/strategy"
)

// Engine normalizes four structurally different DOM shapes (static HTML plus
// three SPA providers and a generic fallback) into one canonical FormSchema.
type Engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	sessions *browser.Manager
	store    *artifacts.Store
}

// NewEngine wires an extraction engine.
func NewEngine(cfg *config.Config, sessions *browser.Manager, store *artifacts.Store, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		logger:   logger.Named("extract"),
		sessions: sessions,
		store:    store,
	}
}

// ExtractHTML parses a raw HTML payload without a browser.
func (e *Engine) ExtractHTML(htmlContent string) (*schemas.FormSchema, error) {
	htmlContent = strings.TrimSpace(htmlContent)
	if htmlContent == "" {
		return nil, &schemas.ParseError{Provider: schemas.ProviderCustom, Reason: "HTML content cannot be empty"}
	}
	schema, err := e.parseStaticHTML(htmlContent)
	if err != nil {
		return nil, err
	}
	if e.cfg.Browser.Debug {
		e.store.SaveDebugHTML("html", htmlContent)
	}
	return schema, nil
}

// ExtractFile parses an HTML file from disk without a browser.
func (e *Engine) ExtractFile(path string) (*schemas.FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML file %q: %w", path, err)
	}
	return e.ExtractHTML(string(data))
}

// ExtractURL navigates to the URL in a scoped browser session and extracts
// the form using the provider's selector strategy. Session acquisition and
// navigation failures propagate; everything below that degrades per-field.
func (e *Engine) ExtractURL(ctx context.Context, url string, provider schemas.Provider) (*schemas.FormSchema, error) {
	if !provider.Valid() {
		return nil, fmt.Errorf("unknown provider %q (expected one of %v)", provider, schemas.KnownProviders)
	}

	if provider == schemas.ProviderCustom {
		return e.extractCustom(ctx, url)
	}

	table, ok := strategy.ForProvider(provider)
	if !ok {
		return nil, fmt.Errorf("no selector strategy registered for provider %q", provider)
	}
	return e.extractSPA(ctx, url, table)
}

// -- shared helpers --

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func uuid8() string {
	return uuid.NewString()[:8]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// ensureUniqueFieldIDs enforces the schema invariant that every field ID is
// unique within one FormSchema. Duplicated DOM ids get a UUID suffix.
func ensureUniqueFieldIDs(schema *schemas.FormSchema) {
	seen := make(map[string]struct{})

	dedup := func(fields []schemas.FieldDescriptor) {
		for i := range fields {
			id := fields[i].ID
			if _, dup := seen[id]; dup {
				id = id + "_" + uuid8()
				fields[i].ID = id
			}
			seen[id] = struct{}{}
		}
	}

	var walkSets func(sets []schemas.Fieldset)
	walkSets = func(sets []schemas.Fieldset) {
		for i := range sets {
			dedup(sets[i].Fields)
			walkSets(sets[i].Fieldsets)
		}
	}

	for i := range schema.Forms {
		walkSets(schema.Forms[i].Fieldsets)
		dedup(schema.Forms[i].Fields)
	}
}
