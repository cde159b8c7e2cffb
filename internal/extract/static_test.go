// internal/extract/static_test.go
package extract

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/artifacts"
	"github.com/formpilot/formpilot-cli/internal/config"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := config.NewDefaultConfig()
	dir := t.TempDir()
	cfg.Artifacts = config.ArtifactsConfig{
		ScreenshotDir: filepath.Join(dir, "screenshots"),
		LogDir:        filepath.Join(dir, "logs"),
		DebugDir:      filepath.Join(dir, "debug"),
	}

	logger := zaptest.NewLogger(t)
	store, err := artifacts.NewStore(cfg.Artifacts, logger)
	require.NoError(t, err)

	// Static extraction never touches a browser session.
	return NewEngine(cfg, nil, store, logger)
}

// -- Input Handling --

func TestExtractHTMLRejectsEmptyInput(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ExtractHTML("   \n\t ")
	require.Error(t, err)

	var parseErr *schemas.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestExtractHTMLNoFormsYieldsEmptySchema(t *testing.T) {
	e := newTestEngine(t)

	schema, err := e.ExtractHTML(`<html><body><p>nothing here</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, schema.Forms)
	assert.NotNil(t, schema.Forms, "forms must serialize as an array, not null")
}

func TestExtractFileMissingPath(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ExtractFile(filepath.Join(t.TempDir(), "does-not-exist.html"))
	assert.Error(t, err)
}

// -- Field Collection --

const contactFormHTML = `
<html><body>
<form id="contact" name="contact_form" action="/submit" method="post">
  <label for="email">Email address</label>
  <input type="email" id="email" name="email" required>

  <label for="age">Age</label>
  <input type="number" id="age" name="age" min="18" max="120">

  <label for="website">Website</label>
  <input type="url" id="website" name="website">

  <label for="bio">Bio</label>
  <textarea id="bio" name="bio" maxlength="500"></textarea>

  <label for="country">Country</label>
  <select id="country" name="country">
    <option value="us" selected>United States</option>
    <option value="uk">United Kingdom</option>
    <option value="uk2">United Kingdom</option>
    <option value="de" disabled>Germany</option>
  </select>

  <input type="hidden" name="csrf" value="token">
  <input type="submit" value="Send">
</form>
</body></html>`

func TestStaticFormExtraction(t *testing.T) {
	e := newTestEngine(t)

	schema, err := e.ExtractHTML(contactFormHTML)
	require.NoError(t, err)
	require.Len(t, schema.Forms, 1)

	form := schema.Forms[0]
	assert.Equal(t, "contact", form.ID)
	assert.Equal(t, "contact_form", form.Name)
	assert.Equal(t, "/submit", form.Action)
	assert.Equal(t, "POST", form.Method)

	// hidden and submit inputs are excluded.
	require.Len(t, form.Fields, 5)

	byID := make(map[string]schemas.FieldDescriptor)
	for _, f := range form.Fields {
		byID[f.ID] = f
	}

	t.Run("Required Email", func(t *testing.T) {
		email := byID["email"]
		assert.Equal(t, schemas.FieldEmail, email.Type)
		assert.Equal(t, "Email address", email.Label)
		assert.True(t, email.Required)
		assert.Equal(t, true, email.Validation["required"])
	})

	t.Run("Numeric Constraints", func(t *testing.T) {
		age := byID["age"]
		assert.Equal(t, schemas.FieldNumber, age.Type)
		assert.False(t, age.Required)
		assert.Equal(t, "18", age.Validation["min"])
		assert.Equal(t, "120", age.Validation["max"])
	})

	t.Run("URL Normalizes To Text", func(t *testing.T) {
		assert.Equal(t, schemas.FieldText, byID["website"].Type)
	})

	t.Run("Textarea Is Paragraph", func(t *testing.T) {
		bio := byID["bio"]
		assert.Equal(t, schemas.FieldParagraph, bio.Type)
		assert.Equal(t, "500", bio.Validation["maxlength"])
	})

	t.Run("Dropdown Options Deduplicated By Text", func(t *testing.T) {
		country := byID["country"]
		require.Equal(t, schemas.FieldDropdown, country.Type)
		require.Len(t, country.Options, 3, "duplicate option texts collapse")

		assert.Equal(t, "us", country.Options[0].Value)
		assert.True(t, country.Options[0].Selected)
		assert.Equal(t, "United Kingdom", country.Options[1].Text)
		assert.True(t, country.Options[2].Disabled)
	})
}

func TestStaticChoiceInputsCarryTheirValue(t *testing.T) {
	e := newTestEngine(t)

	schema, err := e.ExtractHTML(`
<form>
  <label><input type="radio" name="size" value="small" checked> Small</label>
  <label><input type="radio" name="size" value="large"> Large</label>
  <label><input type="checkbox" name="extras" value="fries"> Fries</label>
</form>`)
	require.NoError(t, err)

	fields := schema.AllFields()
	require.Len(t, fields, 3)

	assert.Equal(t, schemas.FieldMultipleChoice, fields[0].Type)
	require.Len(t, fields[0].Options, 1)
	assert.Equal(t, "small", fields[0].Options[0].Value)
	assert.True(t, fields[0].Options[0].Selected)

	assert.Equal(t, schemas.FieldCheckbox, fields[2].Type)
	require.Len(t, fields[2].Options, 1)
	assert.Equal(t, "fries", fields[2].Options[0].Value)
}

// -- Label Resolution --

func TestLabelResolutionChain(t *testing.T) {
	e := newTestEngine(t)

	schema, err := e.ExtractHTML(`
<form>
  <label for="a">Explicit label</label>
  <input type="text" id="a" name="a">

  <label>Wrapping label <input type="text" name="b"></label>

  <input type="text" name="c" aria-label="Aria label">

  <input type="text" name="d">
</form>`)
	require.NoError(t, err)

	fields := schema.AllFields()
	require.Len(t, fields, 4)

	assert.Equal(t, "Explicit label", fields[0].Label)
	assert.Equal(t, "Wrapping label", fields[1].Label)
	assert.Equal(t, "Aria label", fields[2].Label)
	assert.True(t, strings.HasPrefix(fields[3].Label, "Untitled Field "),
		"unlabeled fields get a generated placeholder, got %q", fields[3].Label)
	assert.NotEmpty(t, fields[3].Label)
}

// -- Fieldsets --

func TestFieldsetClaimsItsFields(t *testing.T) {
	e := newTestEngine(t)

	schema, err := e.ExtractHTML(`
<form id="f">
  <input type="text" name="top_level">
  <fieldset id="shipping">
    <legend>Shipping</legend>
    <input type="text" name="street">
    <fieldset id="inner">
      <legend>Inner</legend>
      <input type="text" name="apartment">
    </fieldset>
  </fieldset>
</form>`)
	require.NoError(t, err)
	require.Len(t, schema.Forms, 1)

	form := schema.Forms[0]
	require.Len(t, form.Fields, 1, "fieldset fields must not leak into the form")
	assert.Equal(t, "top_level", form.Fields[0].Name)

	require.Len(t, form.Fieldsets, 1)
	shipping := form.Fieldsets[0]
	assert.Equal(t, "Shipping", shipping.Legend)
	require.Len(t, shipping.Fields, 1)
	assert.Equal(t, "street", shipping.Fields[0].Name)

	require.Len(t, shipping.Fieldsets, 1)
	inner := shipping.Fieldsets[0]
	assert.Equal(t, "Inner", inner.Legend)
	require.Len(t, inner.Fields, 1)
	assert.Equal(t, "apartment", inner.Fields[0].Name)

	// Every field appears exactly once across the whole schema.
	assert.Len(t, schema.AllFields(), 3)
}

// -- Invariants --

func TestDuplicateDOMIDsAreDisambiguated(t *testing.T) {
	e := newTestEngine(t)

	schema, err := e.ExtractHTML(`
<form>
  <input type="text" id="dup" name="first">
  <input type="text" id="dup" name="second">
</form>`)
	require.NoError(t, err)

	fields := schema.AllFields()
	require.Len(t, fields, 2)
	assert.NotEqual(t, fields[0].ID, fields[1].ID)
	assert.Equal(t, "dup", fields[0].ID, "first occurrence keeps the DOM id")
	assert.True(t, strings.HasPrefix(fields[1].ID, "dup_"))
}

func TestExtractionIsStableAcrossRuns(t *testing.T) {
	e := newTestEngine(t)

	first, err := e.ExtractHTML(contactFormHTML)
	require.NoError(t, err)
	second, err := e.ExtractHTML(contactFormHTML)
	require.NoError(t, err)

	a, b := first.AllFields(), second.AllFields()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Label, b[i].Label)
		assert.Equal(t, a[i].Type, b[i].Type)
		assert.Equal(t, a[i].Required, b[i].Required)
		assert.Equal(t, a[i].ID, b[i].ID, "DOM-derived ids are deterministic")
	}
}
