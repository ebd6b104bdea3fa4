package web

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/yanizio/eventsignup/internal/feedback"
	"github.com/yanizio/eventsignup/internal/form"
	"github.com/yanizio/eventsignup/internal/logger"
	"github.com/yanizio/eventsignup/internal/signup"
)

// MsgBusy answers a post that arrives while the same form is submitting.
const MsgBusy = "Your registration is already being submitted."

// -----------------------------------------------------------------------------
// HTML page
// -----------------------------------------------------------------------------

type fieldRow struct {
	Def  form.FieldDef
	View feedback.FieldView
}

type pageData struct {
	Def       *form.Definition
	Token     string
	View      feedback.View
	Rows      []fieldRow
	BusyLabel string
	ToastMS   int64
	Year      int
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	inst, err := s.newInstance()
	if err != nil {
		logger.FromContext(r.Context()).Errorw("form token", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, r, http.StatusOK, inst)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	inst, err := s.lookup(r.PostForm.Get(csrfField))
	if err != nil {
		http.Error(w, "This form has expired.  Please reload the page.", http.StatusForbidden)
		return
	}

	in := form.InputFromValues(r.PostForm)
	out, err := inst.ctl.Submit(r.Context(), in)
	if errors.Is(err, signup.ErrBusy) {
		logBusy(r, inst)
	}
	status := submitStatus(out, err)
	if err == nil && status != http.StatusOK {
		inst.page.Fill(in) // keep what the user typed
	}
	s.renderPage(w, r, status, inst)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, inst *instance) {
	view := inst.page.Snapshot()
	data := pageData{
		Def:       s.def,
		Token:     inst.token,
		View:      view,
		BusyLabel: feedback.LabelSubmitting,
		ToastMS:   s.toastDelay.Milliseconds(),
		Year:      s.now().Year(),
	}
	for _, fd := range s.def.Fields {
		data.Rows = append(data.Rows, fieldRow{Def: fd, View: view.Field(fd.Name)})
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "signup.html", data); err != nil {
		logger.FromContext(r.Context()).Errorw("render error", "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func logBusy(r *http.Request, inst *instance) {
	logger.FromContext(r.Context()).Infow("submit while busy", "state", inst.ctl.State())
}

// submitStatus maps a controller outcome to an HTTP status.
func submitStatus(out signup.Outcome, err error) int {
	switch {
	case errors.Is(err, signup.ErrBusy):
		return http.StatusConflict
	case err != nil:
		return http.StatusInternalServerError
	case !out.Validation.Valid():
		return http.StatusUnprocessableEntity
	case out.Submitted && !out.Result.OK:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

// -----------------------------------------------------------------------------
// JSON API
// -----------------------------------------------------------------------------

type formResponse struct {
	CSRFToken string           `json:"csrfToken"`
	Form      *form.Definition `json:"form"`
}

// apiRequest accepts JSON or a url-encoded body.
type apiRequest struct {
	CSRFToken   string `json:"csrfToken"   form:"csrf_token"`
	FullName    string `json:"fullName"    form:"fullName"`
	StudentCode string `json:"studentCode" form:"studentCode"`
	Level       string `json:"level"       form:"level"`
	Phone       string `json:"phone"       form:"phone"`
	Question    string `json:"question"    form:"question"`
}

// Bind implements render.Binder.
func (a *apiRequest) Bind(*http.Request) error {
	if a.CSRFToken == "" {
		return errBadToken
	}
	return nil
}

func (a *apiRequest) input() form.Input {
	return form.Input{
		FullName:    a.FullName,
		StudentCode: a.StudentCode,
		Level:       a.Level,
		Phone:       a.Phone,
		Question:    a.Question,
	}
}

type submitResponse struct {
	OK      bool                  `json:"ok"`
	Message string                `json:"message"`
	Error   string                `json:"error,omitempty"`
	Invalid []form.Field          `json:"invalid,omitempty"`
	Errors  map[form.Field]string `json:"errors,omitempty"`
	View    *feedback.View        `json:"view,omitempty"`
}

func (s *Server) handleAPIForm(w http.ResponseWriter, r *http.Request) {
	inst, err := s.newInstance()
	if err != nil {
		logger.FromContext(r.Context()).Errorw("form token", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, submitResponse{Error: "internal error"})
		return
	}
	render.JSON(w, r, formResponse{CSRFToken: inst.token, Form: s.def})
}

func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	var req apiRequest
	if err := render.Bind(r, &req); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBadToken) {
			status = http.StatusForbidden
		}
		render.Status(r, status)
		render.JSON(w, r, submitResponse{Error: err.Error()})
		return
	}
	inst, err := s.lookup(req.CSRFToken)
	if err != nil {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, submitResponse{Error: err.Error()})
		return
	}

	out, err := inst.ctl.Submit(r.Context(), req.input())
	status := submitStatus(out, err)
	render.Status(r, status)

	if errors.Is(err, signup.ErrBusy) {
		logBusy(r, inst)
		render.JSON(w, r, submitResponse{Message: MsgBusy, Error: err.Error()})
		return
	}

	view := inst.page.Snapshot()
	resp := submitResponse{
		OK:      status == http.StatusOK,
		Message: view.Toast.Message,
		View:    &view,
	}
	if out.Submitted && !out.Result.OK {
		resp.Error = out.Result.Error
	}
	if failed := out.Validation.Failed(); len(failed) > 0 {
		resp.Invalid = failed
		resp.Errors = make(map[form.Field]string, len(failed))
		for _, f := range failed {
			resp.Errors[f] = s.def.Field(f).ErrorMsg
		}
	}
	render.JSON(w, r, resp)
}
