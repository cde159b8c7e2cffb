// internal/extract/custom_test.go
package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilot/formpilot-cli/api/schemas"
)

func TestLooseControlsBuildsSyntheticForm(t *testing.T) {
	e := newTestEngine(t)

	schema := e.looseControls(`
<html><head><title>Newsletter Signup</title></head><body>
  <div class="widget">
    <label for="nl_email">Email</label>
    <input type="email" id="nl_email" name="nl_email">
    <textarea name="comments" aria-label="Comments"></textarea>
  </div>
</body></html>`, "https://example.test/signup")
	require.NotNil(t, schema)
	require.Len(t, schema.Forms, 1)

	form := schema.Forms[0]
	assert.Equal(t, "newsletter_signup", form.Name)
	assert.Equal(t, "https://example.test/signup", form.Action)
	assert.Equal(t, "POST", form.Method)

	require.Len(t, form.Fields, 2)
	assert.Equal(t, schemas.FieldEmail, form.Fields[0].Type)
	assert.Equal(t, "Email", form.Fields[0].Label)
	assert.Equal(t, schemas.FieldParagraph, form.Fields[1].Type)
	assert.Equal(t, "Comments", form.Fields[1].Label)
}

func TestLooseControlsNoFields(t *testing.T) {
	e := newTestEngine(t)
	assert.Nil(t, e.looseControls(`<html><body><p>static content</p></body></html>`, "https://x.test"))
}

func TestSchemaHasFields(t *testing.T) {
	assert.False(t, schemaHasFields(nil))
	assert.False(t, schemaHasFields(&schemas.FormSchema{Forms: []schemas.Form{{}}}))
	assert.True(t, schemaHasFields(&schemas.FormSchema{Forms: []schemas.Form{{
		Fields: []schemas.FieldDescriptor{{ID: "a"}},
	}}}))
}
