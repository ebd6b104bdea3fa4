// internal/feedback/page.go
//
// Signup – feedback: server-side model of the signup page.
//
// Context
//   The browser page exposes a fixed surface: five inputs, five inline error
//   elements, an aria-invalid marker per input, a submit button with a label,
//   and a toast.  Page keeps that surface as plain state so the controller
//   can drive it through the UI interface and the web layer can render a
//   Snapshot into HTML or JSON.
//
// Notes
//   •  One Page backs one rendered form instance; it outlives a single HTTP
//      request, so every method takes the lock.
//   •  Field values are kept for re-render after a failed attempt and cleared
//      by Reset after a successful one.
//
//------------------------------------------------------------------------------

package feedback

import (
	"sync"

	"github.com/yanizio/eventsignup/internal/form"
)

// Button labels.
const (
	LabelSubmitting = "Submitting..."
	LabelIdle       = "Register Attendance"
)

// Page implements signup.UI.
type Page struct {
	mu         sync.Mutex
	values     form.Input
	errors     map[string]bool     // error element id → visible
	invalid    map[form.Field]bool // aria-invalid markers
	submitting bool
	idleLabel  string
	toast      *Toast
}

// NewPage returns an empty page.  idleLabel is the submit button text when
// no submission is running; empty means LabelIdle.
func NewPage(toast *Toast, idleLabel string) *Page {
	if toast == nil {
		toast = NewToast(0)
	}
	if idleLabel == "" {
		idleLabel = LabelIdle
	}
	return &Page{
		errors:    make(map[string]bool),
		invalid:   make(map[form.Field]bool),
		idleLabel: idleLabel,
		toast:     toast,
	}
}

// ShowError toggles the inline error element id.
func (p *Page) ShowError(id string, show bool) {
	p.mu.Lock()
	p.errors[id] = show
	p.mu.Unlock()
}

// SetInvalid sets the aria-invalid marker of f.
func (p *Page) SetInvalid(f form.Field, invalid bool) {
	p.mu.Lock()
	p.invalid[f] = invalid
	p.mu.Unlock()
}

// ShowToast displays message, styled as an error when isError is set.
func (p *Page) ShowToast(message string, isError bool) { p.toast.Show(message, isError) }

// HideToast hides the toast and stops its timer.
func (p *Page) HideToast() { p.toast.Hide() }

// SetSubmitting disables the submit control and swaps its label while busy.
func (p *Page) SetSubmitting(busy bool) {
	p.mu.Lock()
	p.submitting = busy
	p.mu.Unlock()
}

// Reset clears every field back to empty.
func (p *Page) Reset() {
	p.mu.Lock()
	p.values = form.Input{}
	p.mu.Unlock()
}

// Fill records the values the user just posted so a re-render keeps them.
func (p *Page) Fill(in form.Input) {
	p.mu.Lock()
	p.values = in
	p.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// FieldView is the render state of one input.
type FieldView struct {
	ID        form.Field `json:"id"`
	Value     string     `json:"value"`
	Invalid   bool       `json:"invalid"`
	ErrorID   string     `json:"errorId"`
	ShowError bool       `json:"showError"`
}

// View is a consistent copy of the whole page.
type View struct {
	Fields      []FieldView `json:"fields"`
	Submitting  bool        `json:"submitting"`
	ButtonLabel string      `json:"buttonLabel"`
	Toast       ToastState  `json:"toast"`
}

// Field returns the view of f.
func (v View) Field(f form.Field) FieldView {
	for _, fv := range v.Fields {
		if fv.ID == f {
			return fv
		}
	}
	return FieldView{ID: f, ErrorID: f.ErrorID()}
}

// Snapshot copies the current state.
func (p *Page) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View{
		Fields:      make([]FieldView, 0, len(form.Fields)),
		Submitting:  p.submitting,
		ButtonLabel: p.idleLabel,
		Toast:       p.toast.State(),
	}
	if p.submitting {
		v.ButtonLabel = LabelSubmitting
	}
	for _, f := range form.Fields {
		v.Fields = append(v.Fields, FieldView{
			ID:        f,
			Value:     p.values.Value(f),
			Invalid:   p.invalid[f],
			ErrorID:   f.ErrorID(),
			ShowError: p.errors[f.ErrorID()],
		})
	}
	return v
}
