// internal/form/definition.go
//
// Signup – Forms subsystem: YAML definition loader.
//
// Context
//   Labels, placeholders, level options, and inline error copy live in a YAML
//   document so organisers can reword the page or add a level without a
//   rebuild.  The validation rules themselves stay in code (validate.go); the
//   definition only drives rendering.
//
// Workflow
//   •  LoadDefinition parses the override file when a path is given, else the
//      embedded default.
//   •  validateDefinition enforces structural rules: known field names, every
//      signup field present exactly once, and supported control types.
//
// Style
//   Comments follow the house guide: full sentences, two spaces after periods,
//   Oxford commas.
//
//------------------------------------------------------------------------------

package form

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed definitions/signup.yaml
var defaultDefinition []byte

// ErrUnknownField is returned when a definition names a field the signup
// flow does not know.
var ErrUnknownField = errors.New("unknown signup field")

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// Definition describes how the signup page presents its fields.
type Definition struct {
	ID          string     `yaml:"id"           json:"id"`
	Title       string     `yaml:"title"        json:"title"`
	Intro       string     `yaml:"intro"        json:"intro,omitempty"`
	SubmitLabel string     `yaml:"submit_label" json:"submitLabel"` // Restored after each submission.
	Fields      []FieldDef `yaml:"fields"       json:"fields"`
}

// FieldDef describes a single input control.
type FieldDef struct {
	Name        Field    `yaml:"name"        json:"name"`                  // One of the five signup fields.
	Label       string   `yaml:"label"       json:"label"`                 // Human-readable label.  Required.
	Type        string   `yaml:"type"        json:"type"`                  // text, tel, select, textarea.
	Placeholder string   `yaml:"placeholder" json:"placeholder,omitempty"` // Optional placeholder text.
	Required    bool     `yaml:"required"    json:"required"`              // HTML hint only.
	MaxLength   int      `yaml:"maxlength"   json:"maxLength,omitempty"`   // 0 means unset.
	Options     []string `yaml:"options"     json:"options,omitempty"`     // For select.
	ErrorMsg    string   `yaml:"error"       json:"error"`                 // Inline error copy.
}

// Field returns the definition for f, or a bare FieldDef when absent.
func (d *Definition) Field(f Field) FieldDef {
	for _, fd := range d.Fields {
		if fd.Name == f {
			return fd
		}
	}
	return FieldDef{Name: f, Label: string(f), Type: "text"}
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// LoadDefinition parses the YAML file at path, or the embedded default when
// path is empty.
func LoadDefinition(path string) (*Definition, error) {
	raw := defaultDefinition
	src := "embedded signup.yaml"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read form file %s: %w", path, err)
		}
		raw, src = b, path
	}
	return ParseDefinition(raw, src)
}

// ParseDefinition decodes and validates one YAML document.  src only labels
// errors.
func ParseDefinition(raw []byte, src string) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := validateDefinition(&d, src); err != nil {
		return nil, err
	}
	return &d, nil
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

var controlTypes = map[string]bool{
	"text":     true,
	"tel":      true,
	"select":   true,
	"textarea": true,
}

func validateDefinition(d *Definition, src string) error {
	if d.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", src)
	}
	if d.SubmitLabel == "" {
		d.SubmitLabel = "Register Attendance"
	}

	seen := make(map[Field]bool, len(Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if _, ok := errorIDs[f.Name]; !ok {
			return fmt.Errorf("form %s: field %q: %w", src, f.Name, ErrUnknownField)
		}
		if seen[f.Name] {
			return fmt.Errorf("form %s: duplicate field name '%s'", src, f.Name)
		}
		seen[f.Name] = true

		if f.Label == "" {
			return fmt.Errorf("form %s: field '%s' missing 'label'", src, f.Name)
		}
		if !controlTypes[f.Type] {
			return fmt.Errorf("form %s: field '%s' unsupported type %q", src, f.Name, f.Type)
		}
		if f.MaxLength < 0 {
			return fmt.Errorf("form %s: field '%s' maxlength cannot be negative", src, f.Name)
		}
		if f.Type == "select" && len(f.Options) == 0 {
			return fmt.Errorf("form %s: select field '%s' has no options", src, f.Name)
		}
	}

	for _, f := range Fields {
		if !seen[f] {
			return fmt.Errorf("form %s: missing field '%s'", src, f)
		}
	}
	return nil
}
