// internal/extract/static.go
package extract

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/formpilot/formpilot-cli/api/schemas"
)

// staticTypeMap maps raw input types / tag names onto the canonical field
// types. Anything absent from this map is not a fillable control and is
// silently excluded.
var staticTypeMap = map[string]schemas.FieldType{
	"text":     schemas.FieldText,
	"url":      schemas.FieldText,
	"email":    schemas.FieldEmail,
	"tel":      schemas.FieldTel,
	"number":   schemas.FieldNumber,
	"date":     schemas.FieldDate,
	"password": schemas.FieldPassword,
	"file":     schemas.FieldFile,
	"radio":    schemas.FieldMultipleChoice,
	"checkbox": schemas.FieldCheckbox,
	"select":   schemas.FieldDropdown,
	"textarea": schemas.FieldParagraph,
}

// parseStaticHTML walks every <form> in the document and builds the schema.
// A document with no forms yields an empty schema, not an error; the custom
// URL path decides whether that is fatal.
func (e *Engine) parseStaticHTML(htmlContent string) (*schemas.FormSchema, error) {
	doc, err := htmlquery.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &schemas.ParseError{Provider: schemas.ProviderCustom, Reason: "invalid HTML", Err: err}
	}

	schema := &schemas.FormSchema{Forms: []schemas.Form{}}
	for _, formNode := range htmlquery.Find(doc, "//form") {
		schema.Forms = append(schema.Forms, e.parseForm(formNode))
	}
	if len(schema.Forms) == 0 {
		e.logger.Warn("No form elements found in HTML content.")
	}

	ensureUniqueFieldIDs(schema)
	return schema, nil
}

func (e *Engine) parseForm(formNode *html.Node) schemas.Form {
	form := schemas.Form{
		ID:        attrOr(formNode, "id", uuid.NewString()),
		Name:      htmlquery.SelectAttr(formNode, "name"),
		Action:    htmlquery.SelectAttr(formNode, "action"),
		Method:    strings.ToUpper(attrOr(formNode, "method", "GET")),
		Fieldsets: []schemas.Fieldset{},
		Fields:    []schemas.FieldDescriptor{},
	}

	for _, fs := range childFieldsets(formNode) {
		form.Fieldsets = append(form.Fieldsets, e.parseFieldset(fs))
	}
	form.Fields = e.parseFields(formNode)
	return form
}

func (e *Engine) parseFieldset(fsNode *html.Node) schemas.Fieldset {
	fs := schemas.Fieldset{
		ID:        attrOr(fsNode, "id", uuid.NewString()),
		Fields:    e.parseFields(fsNode),
		Fieldsets: []schemas.Fieldset{},
	}
	if legend := htmlquery.FindOne(fsNode, ".//legend"); legend != nil {
		fs.Legend = strings.TrimSpace(htmlquery.InnerText(legend))
	}
	for _, nested := range childFieldsets(fsNode) {
		fs.Fieldsets = append(fs.Fieldsets, e.parseFieldset(nested))
	}
	return fs
}

// parseFields collects the input controls of parent that are not claimed by a
// nested fieldset, preserving document order.
func (e *Engine) parseFields(parent *html.Node) []schemas.FieldDescriptor {
	fields := []schemas.FieldDescriptor{}
	for _, el := range unclaimedControls(parent) {
		field, ok := e.parseField(el)
		if !ok {
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

// parseField builds a descriptor from a single input/select/textarea element.
// Unsupported input types (hidden, submit, button, image, ...) report ok=false.
func (e *Engine) parseField(el *html.Node) (schemas.FieldDescriptor, bool) {
	tag := strings.ToLower(el.Data)
	raw := tag
	if tag == "input" {
		raw = strings.ToLower(attrOr(el, "type", "text"))
	}

	ftype, supported := staticTypeMap[raw]
	if !supported {
		e.logger.Debug("Skipping unsupported control.", zap.String("tag", tag), zap.String("type", raw))
		return schemas.FieldDescriptor{}, false
	}

	label := e.resolveLabel(el)
	field := schemas.FieldDescriptor{
		ID:       attrOr(el, "id", uuid.NewString()),
		Name:     attrOr(el, "name", slugify(label)),
		Type:     ftype,
		Label:    label,
		Required: hasAttr(el, "required"),
	}
	field.Validation = validationOf(el, field.Required)

	switch ftype {
	case schemas.FieldDropdown:
		field.Options = selectOptions(el)
	case schemas.FieldMultipleChoice, schemas.FieldCheckbox:
		// A standalone radio/checkbox input carries its own value as its one
		// option; grouped inputs share a name and resolve by value at fill time.
		if v := htmlquery.SelectAttr(el, "value"); v != "" {
			field.Options = []schemas.Option{{
				Value:    v,
				Text:     label,
				Selected: hasAttr(el, "checked"),
				Disabled: hasAttr(el, "disabled"),
			}}
		}
	}

	return field, true
}

// resolveLabel walks the label resolution chain: <label for=...> within the
// enclosing form, then a wrapping <label>, then aria-label, then a generated
// placeholder. The result is never empty.
func (e *Engine) resolveLabel(el *html.Node) string {
	if id := htmlquery.SelectAttr(el, "id"); id != "" && !strings.ContainsAny(id, `'"`) {
		scope := ancestorElement(el, "form")
		if scope == nil {
			scope = rootOf(el)
		}
		if lbl := htmlquery.FindOne(scope, fmt.Sprintf(`.//label[@for='%s']`, id)); lbl != nil {
			if text := strings.TrimSpace(htmlquery.InnerText(lbl)); text != "" {
				return text
			}
		}
	}

	if wrap := ancestorElement(el, "label"); wrap != nil {
		if text := strings.TrimSpace(htmlquery.InnerText(wrap)); text != "" {
			return text
		}
	}

	if aria := strings.TrimSpace(htmlquery.SelectAttr(el, "aria-label")); aria != "" {
		return aria
	}

	return fmt.Sprintf("Untitled Field %s", uuid8())
}

// validationOf builds the sparse constraint map from the element's validation
// attributes. Returns nil when the element is unconstrained.
func validationOf(el *html.Node, required bool) map[string]any {
	v := make(map[string]any)
	if required {
		v["required"] = true
	}
	for _, key := range []string{"pattern", "min", "max", "minlength", "maxlength"} {
		if val := htmlquery.SelectAttr(el, key); val != "" {
			v[key] = val
		}
	}
	if len(v) == 0 {
		return nil
	}
	return v
}

// selectOptions reads the <option> children of a <select>, de-duplicating by
// visible text. A value-less option falls back to its text.
func selectOptions(selectNode *html.Node) []schemas.Option {
	seen := make(map[string]struct{})
	var options []schemas.Option
	for _, opt := range htmlquery.Find(selectNode, ".//option") {
		text := strings.TrimSpace(htmlquery.InnerText(opt))
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		options = append(options, schemas.Option{
			Value:    attrOr(opt, "value", text),
			Text:     text,
			Selected: hasAttr(opt, "selected"),
			Disabled: hasAttr(opt, "disabled"),
		})
	}
	return options
}

// -- DOM walking helpers --

var controlTags = map[string]struct{}{"input": {}, "select": {}, "textarea": {}}

// unclaimedControls returns the input/select/textarea descendants of parent in
// document order, stopping descent at fieldset boundaries so nested fieldsets
// keep their own fields.
func unclaimedControls(parent *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			tag := strings.ToLower(c.Data)
			if tag == "fieldset" {
				continue
			}
			if _, ok := controlTags[tag]; ok {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(parent)
	return out
}

// childFieldsets returns the fieldset descendants of parent whose nearest
// fieldset ancestor is parent itself.
func childFieldsets(parent *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if strings.EqualFold(c.Data, "fieldset") {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(parent)
	return out
}

func ancestorElement(el *html.Node, tag string) *html.Node {
	for p := el.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && strings.EqualFold(p.Data, tag) {
			return p
		}
	}
	return nil
}

func rootOf(el *html.Node) *html.Node {
	n := el
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func attrOr(n *html.Node, key, fallback string) string {
	if v := htmlquery.SelectAttr(n, key); v != "" {
		return v
	}
	return fallback
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}
