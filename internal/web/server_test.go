// internal/web/server_test.go
//
// End-to-end tests for the signup routes.  A httptest.Server stands in for
// the spreadsheet script and a real relay.Client talks to it.
//
// Run: go test ./internal/web -v

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/yanizio/eventsignup/internal/form"
	"github.com/yanizio/eventsignup/internal/relay"
	"github.com/yanizio/eventsignup/internal/signup"
)

type sheet struct {
	srv   *httptest.Server
	hits  atomic.Int32
	reply func(w http.ResponseWriter, r *http.Request)
}

func newSheet(t *testing.T) *sheet {
	t.Helper()
	s := &sheet{reply: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.reply(w, r)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func newTestServer(t *testing.T, sh *sheet, opts ...Option) http.Handler {
	t.Helper()
	def, err := form.LoadDefinition("")
	if err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}
	log := zap.NewNop().Sugar()
	client := relay.New(sh.srv.URL, relay.WithLogger(log))
	opts = append([]Option{WithLogger(log)}, opts...)
	s, err := New(def, form.NewCSRF(nil), client, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s.Routes()
}

var tokenRE = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func fetchToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	m := tokenRE.FindStringSubmatch(rec.Body.String())
	if m == nil {
		t.Fatal("csrf token missing from page")
	}
	return m[1]
}

func validForm(tok string) url.Values {
	return url.Values{
		"csrf_token":  {tok},
		"fullName":    {"محمد أحمد علي"},
		"studentCode": {"1234567"},
		"level":       {"Level 2"},
		"phone":       {"01012345678"},
		"question":    {""},
	}
}

func post(h http.Handler, path string, v url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPage_RendersFormSurface(t *testing.T) {
	h := newTestServer(t, newSheet(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`id="signupForm"`, `id="submitBtn"`, `class="btnText"`, `id="toast"`, `id="toastInner"`,
		`id="year"`, `id="fullName"`, `id="studentCode"`, `id="level"`, `id="phone"`, `id="question"`,
		`id="nameError"`, `id="codeError"`, `id="levelError"`, `id="phoneError"`, `id="questionError"`,
		`Register Attendance`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s", want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
}

func TestSubmit_Success(t *testing.T) {
	sh := newSheet(t)
	h := newTestServer(t, sh)

	rec := post(h, "/signup", validForm(fetchToken(t, h)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /signup = %d", rec.Code)
	}
	if sh.hits.Load() != 1 {
		t.Fatalf("sheet hit %d times, want 1", sh.hits.Load())
	}
	body := rec.Body.String()
	if !strings.Contains(body, signup.MsgSuccess) {
		t.Fatal("success toast missing")
	}
	if strings.Contains(body, `value="1234567"`) {
		t.Fatal("form not reset after success")
	}
}

func TestSubmit_InvalidDoesNotRelay(t *testing.T) {
	sh := newSheet(t)
	h := newTestServer(t, sh)

	v := validForm(fetchToken(t, h))
	v.Set("studentCode", "123456")
	rec := post(h, "/signup", v)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d, want 422", rec.Code)
	}
	if sh.hits.Load() != 0 {
		t.Fatal("invalid input reached the sheet")
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<span id="codeError" class="error">`) {
		t.Fatal("codeError not shown")
	}
	if !strings.Contains(body, `<span id="nameError" class="error" hidden>`) {
		t.Fatal("nameError should stay hidden")
	}
	if !strings.Contains(body, `value="123456"`) {
		t.Fatal("user input not kept on re-render")
	}
	if !strings.Contains(body, signup.MsgInvalid) {
		t.Fatal("invalid toast missing")
	}
}

func TestSubmit_RelayFailure(t *testing.T) {
	sh := newSheet(t)
	sh.reply = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Server error"))
	}
	h := newTestServer(t, sh)

	rec := post(h, "/signup", validForm(fetchToken(t, h)))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http-500 Internal Server Error Server error") {
		t.Fatal("relay error not surfaced in toast")
	}
}

func TestSubmit_BadToken(t *testing.T) {
	sh := newSheet(t)
	h := newTestServer(t, sh)
	rec := post(h, "/signup", validForm("forged"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rec.Code)
	}
	if sh.hits.Load() != 0 {
		t.Fatal("forged post reached the sheet")
	}
}

func TestSubmit_DoublePostIsRejected(t *testing.T) {
	sh := newSheet(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	sh.reply = func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		_, _ = w.Write([]byte("ok"))
	}
	h := newTestServer(t, sh)
	tok := fetchToken(t, h)

	first := make(chan int, 1)
	go func() { first <- post(h, "/signup", validForm(tok)).Code }()
	<-entered

	if code := post(h, "/signup", validForm(tok)).Code; code != http.StatusConflict {
		t.Fatalf("second post = %d, want 409", code)
	}
	close(release)
	if code := <-first; code != http.StatusOK {
		t.Fatalf("first post = %d, want 200", code)
	}
	if sh.hits.Load() != 1 {
		t.Fatalf("sheet hit %d times, want 1", sh.hits.Load())
	}
}

func TestSubmit_ObserverSeesResult(t *testing.T) {
	var got []relay.Result
	obs := func(_ context.Context, p form.Payload, res relay.Result) { got = append(got, res) }
	h := newTestServer(t, newSheet(t), WithObserver(obs))

	post(h, "/signup", validForm(fetchToken(t, h)))
	if diff := cmp.Diff([]relay.Result{{OK: true}}, got); diff != "" {
		t.Fatalf("observer mismatch (-want +got):\n%s", diff)
	}
}

func TestAPI_FormAndSubmit(t *testing.T) {
	sh := newSheet(t)
	h := newTestServer(t, sh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/form", nil))
	var fr struct {
		CSRFToken string `json:"csrfToken"`
		Form      struct {
			Fields []struct {
				Name string `json:"name"`
			} `json:"fields"`
		} `json:"form"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fr); err != nil {
		t.Fatalf("decode /api/form: %v", err)
	}
	if fr.CSRFToken == "" || len(fr.Form.Fields) != len(form.Fields) {
		t.Fatalf("unexpected /api/form body: %s", rec.Body.String())
	}

	bad := map[string]string{
		"csrfToken": fr.CSRFToken, "fullName": "Mohamed Ahmed Ali", "studentCode": "1234567",
		"level": "Level 1", "phone": "01312345678", "question": "",
	}
	rec = postJSON(h, bad)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid JSON submit = %d", rec.Code)
	}
	var sr submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sr); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]form.Field{form.FieldFullName, form.FieldPhone}, sr.Invalid); diff != "" {
		t.Fatalf("invalid fields mismatch (-want +got):\n%s", diff)
	}
	if sr.Message != signup.MsgInvalid || sr.Errors[form.FieldPhone] == "" {
		t.Fatalf("unexpected response: %+v", sr)
	}

	good := bad
	good["fullName"] = "محمد أحمد علي"
	good["phone"] = "01212345678"
	rec = postJSON(h, good)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid JSON submit = %d: %s", rec.Code, rec.Body.String())
	}
	sr = submitResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &sr); err != nil {
		t.Fatal(err)
	}
	if !sr.OK || sr.Message != signup.MsgSuccess || sh.hits.Load() != 1 {
		t.Fatalf("unexpected response: %+v (hits %d)", sr, sh.hits.Load())
	}
}

func TestAPI_MissingToken(t *testing.T) {
	h := newTestServer(t, newSheet(t))
	rec := postJSON(h, map[string]string{"fullName": "x"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rec.Code)
	}
}

func postJSON(h http.Handler, body map[string]string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/signup", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndStatic(t *testing.T) {
	h := newTestServer(t, newSheet(t))
	for path, want := range map[string]string{
		"/healthz":           "ok",
		"/static/signup.js":  "signupForm",
		"/static/signup.css": ".toast",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), want) {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
}

func TestEvictedInstanceDropsToast(t *testing.T) {
	def, err := form.LoadDefinition("")
	if err != nil {
		t.Fatalf("LoadDefinition: %v", err)
	}
	s, err := New(def, form.NewCSRF(nil), relay.New("http://127.0.0.1:0"),
		WithLogger(zap.NewNop().Sugar()), WithInstances(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := s.newInstance()
	if err != nil {
		t.Fatal(err)
	}
	first.page.ShowToast(signup.MsgSuccess, false)
	if _, err := s.newInstance(); err != nil {
		t.Fatal(err)
	}

	if s.forms.Len() != 1 {
		t.Fatalf("live instances = %d, want 1", s.forms.Len())
	}
	if first.page.Snapshot().Toast.Visible {
		t.Fatal("evicted instance still shows its toast")
	}
}
