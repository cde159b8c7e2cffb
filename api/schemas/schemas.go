// api/schemas/schemas.go
package schemas

// Provider identifies the form platform a URL belongs to. It selects the
// selector strategy used during extraction.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderTypeform  Provider = "typeform"
	ProviderMicrosoft Provider = "microsoft"
	ProviderCustom    Provider = "custom"
)

// KnownProviders lists every provider tag accepted on the CLI and the RPC
// boundary.
var KnownProviders = []Provider{
	ProviderGoogle,
	ProviderTypeform,
	ProviderMicrosoft,
	ProviderCustom,
}

// Valid reports whether p is a recognized provider tag.
func (p Provider) Valid() bool {
	for _, known := range KnownProviders {
		if p == known {
			return true
		}
	}
	return false
}

// FieldType is the canonical, provider-agnostic field type. A field has
// exactly one type; detection follows a strict precedence order and the first
// match wins.
type FieldType string

const (
	FieldText           FieldType = "text"
	FieldParagraph      FieldType = "paragraph"
	FieldMultipleChoice FieldType = "multiple_choice"
	FieldCheckbox       FieldType = "checkbox"
	FieldDropdown       FieldType = "dropdown"
	FieldEmail          FieldType = "email"
	FieldTel            FieldType = "tel"
	FieldNumber         FieldType = "number"
	FieldDate           FieldType = "date"
	FieldPassword       FieldType = "password"
	FieldFile           FieldType = "file"
)

// HasOptions reports whether the type carries an option set.
func (t FieldType) HasOptions() bool {
	return t == FieldMultipleChoice || t == FieldCheckbox || t == FieldDropdown
}

// TextLike reports whether the type is filled by a direct value write into a
// single line control.
func (t FieldType) TextLike() bool {
	switch t {
	case FieldText, FieldEmail, FieldTel, FieldNumber, FieldDate, FieldPassword:
		return true
	}
	return false
}

// Option is one selectable choice of a multiple_choice, checkbox or dropdown
// field. Options are de-duplicated by Text within a field.
type Option struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
	Disabled bool   `json:"disabled"`
}

// FieldDescriptor describes one question/input of a form.
type FieldDescriptor struct {
	// ID is unique within one FormSchema. For static HTML it is the DOM id
	// when present, otherwise a generated UUID.
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Label is never empty; a generated placeholder is used when no label can
	// be located.
	Label    string `json:"label"`
	Required bool   `json:"required"`
	// Validation is a sparse constraint map (required, pattern, min, max,
	// minlength, maxlength). Absent keys mean unconstrained.
	Validation map[string]any `json:"validation,omitempty"`
	// Options is present only for option-bearing types.
	Options []Option `json:"options,omitempty"`
}

// Fieldset mirrors an HTML <fieldset>. SPA providers never produce fieldsets.
type Fieldset struct {
	ID        string            `json:"id"`
	Legend    string            `json:"legend"`
	Fields    []FieldDescriptor `json:"fields"`
	Fieldsets []Fieldset        `json:"fieldsets"`
}

// Form is the schema of a single form. Field order is significant: it is the
// fill order and the conversational question order.
type Form struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Action    string            `json:"action"`
	Method    string            `json:"method"`
	Fieldsets []Fieldset        `json:"fieldsets"`
	Fields    []FieldDescriptor `json:"fields"`
}

// FormSchema is the root artifact of extraction. It is immutable once
// returned; annotation layers copy and extend it rather than mutate.
type FormSchema struct {
	Forms []Form `json:"forms"`
}

// AllFields returns every field of every form in schema order, including
// fields nested inside fieldsets.
func (s *FormSchema) AllFields() []FieldDescriptor {
	var out []FieldDescriptor
	for _, f := range s.Forms {
		out = append(out, collectFieldsetFields(f.Fieldsets)...)
		out = append(out, f.Fields...)
	}
	return out
}

func collectFieldsetFields(sets []Fieldset) []FieldDescriptor {
	var out []FieldDescriptor
	for _, fs := range sets {
		out = append(out, fs.Fields...)
		out = append(out, collectFieldsetFields(fs.Fieldsets)...)
	}
	return out
}

// ResponseEntry is one caller-supplied answer. Value is a scalar for
// single-answer types and an ordered list for checkbox fields. Entries with
// Valid=false are never attempted; they are recorded as errors instead.
type ResponseEntry struct {
	FieldID string `json:"field_id"`
	Value   any    `json:"value"`
	Valid   bool   `json:"valid"`
}

// Autofill result statuses. A call that performed any useful work returns
// StatusSuccess even when Errors is non-empty; StatusError is reserved for
// failures before any field could be attempted.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AutofillResult is the structured record of one autofill call. It is built
// incrementally and returned whole; it is never partially persisted.
type AutofillResult struct {
	Status       string   `json:"status"`
	FilledFields []string `json:"filled_fields"`
	Errors       []string `json:"errors"`
	Screenshots  []string `json:"screenshots"`
	LogFile      string   `json:"log_file"`
}

// NewAutofillResult returns a result primed for incremental accumulation.
// Slices are non-nil so the JSON audit log always carries arrays.
func NewAutofillResult() *AutofillResult {
	return &AutofillResult{
		Status:       StatusSuccess,
		FilledFields: []string{},
		Errors:       []string{},
		Screenshots:  []string{},
	}
}
