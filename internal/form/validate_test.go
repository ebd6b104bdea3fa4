// internal/form/validate_test.go
//
// Unit-tests for the signup field validators and payload helpers.
//
// Run: go test ./internal/form -v

package form

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsArabicName(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"محمد أحمد علي", true},
		{"  محمد   أحمد\tعلي  ", true},
		{"محمد أحمد علي John 42", true}, // words past the third are ignored
		{"محمد أحمد", false},
		{"", false},
		{"   ", false},
		{"محمد Ahmed علي", false},
		{"محمد أحمد3 علي", false},
		{"ݐݑ ࢠࢡ محمد", true}, // Supplement and Extended-A letters
	}
	for _, tc := range cases {
		if got := IsArabicName(tc.in); got != tc.want {
			t.Errorf("IsArabicName(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsStudentCode(t *testing.T) {
	cases := map[string]bool{
		"1234567":   true,
		"123456":    false,
		"12345678":  false,
		" 1234567":  false,
		"1234567 ":  false,
		"12345a7":   false,
		"١٢٣٤٥٦٧": false, // Arabic-Indic digits are not ASCII
	}
	for in, want := range cases {
		if got := IsStudentCode(in); got != want {
			t.Errorf("IsStudentCode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsEgyptianMobile(t *testing.T) {
	cases := map[string]bool{
		"01012345678":  true,
		"01112345678":  true,
		"01212345678":  true,
		"01512345678":  true,
		"01312345678":  false,
		"0101234567":   false,
		"010123456789": false,
		"+201012345678": false,
		"0101234567a":  false,
	}
	for in, want := range cases {
		if got := IsEgyptianMobile(in); got != want {
			t.Errorf("IsEgyptianMobile(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsQuestionWithinLimit(t *testing.T) {
	if !IsQuestionWithinLimit("") {
		t.Fatal("empty question must pass")
	}
	if !IsQuestionWithinLimit(strings.Repeat("q", QuestionMaxLen)) {
		t.Fatal("500 characters must pass")
	}
	if IsQuestionWithinLimit(strings.Repeat("q", QuestionMaxLen+1)) {
		t.Fatal("501 characters must fail")
	}
	if !IsQuestionWithinLimit("  " + strings.Repeat("q", QuestionMaxLen) + "\n") {
		t.Fatal("length is measured after trimming")
	}
	if !IsQuestionWithinLimit(strings.Repeat("س", QuestionMaxLen)) {
		t.Fatal("500 Arabic letters must pass")
	}
}

func TestIsLevel(t *testing.T) {
	if IsLevel("") {
		t.Fatal("empty level must fail")
	}
	if !IsLevel("anything") {
		t.Fatal("any non-empty level must pass")
	}
}

func validInput() Input {
	return Input{
		FullName:    "محمد أحمد علي",
		StudentCode: "1234567",
		Level:       "Level 2",
		Phone:       "01012345678",
		Question:    "",
	}
}

func TestValidate_AllValid(t *testing.T) {
	res := Validate(validInput())
	if !res.Valid() {
		t.Fatalf("expected valid, failed fields: %v", res.Failed())
	}
}

func TestValidate_CollectsEveryFailure(t *testing.T) {
	in := Input{
		FullName:    "John Smith",
		StudentCode: "123456",
		Level:       "",
		Phone:       "01312345678",
		Question:    strings.Repeat("x", QuestionMaxLen+1),
	}
	res := Validate(in)
	if diff := cmp.Diff(Fields, res.Failed()); diff != "" {
		t.Fatalf("failed fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_SingleField(t *testing.T) {
	in := validInput()
	in.StudentCode = "123456"
	res := Validate(in)
	if res.Valid() {
		t.Fatal("expected invalid result")
	}
	if diff := cmp.Diff([]Field{FieldStudentCode}, res.Failed()); diff != "" {
		t.Fatalf("failed fields mismatch (-want +got):\n%s", diff)
	}
	if !res.FieldValid(FieldFullName) {
		t.Fatal("fullName should be valid")
	}
}

func TestNewPayload_Trims(t *testing.T) {
	in := Input{
		FullName:    "  محمد أحمد علي ",
		StudentCode: "1234567",
		Level:       " Level 2 ",
		Phone:       " 01012345678",
		Question:    "\n  When does it start?  ",
	}
	want := Payload{
		FullName:    "محمد أحمد علي",
		StudentCode: "1234567",
		Level:       " Level 2 ", // copied as-is
		Phone:       "01012345678",
		Question:    "When does it start?",
	}
	if diff := cmp.Diff(want, NewPayload(in)); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestInputFromValues(t *testing.T) {
	v := url.Values{
		"fullName":    {"محمد أحمد علي"},
		"studentCode": {"1234567"},
		"phone":       {"01012345678"},
	}
	in := InputFromValues(v)
	if in.Level != "" || in.Question != "" {
		t.Fatalf("missing keys should be empty, got %+v", in)
	}
	if in.Value(FieldStudentCode) != "1234567" {
		t.Fatalf("Value(studentCode) = %q", in.Value(FieldStudentCode))
	}
}

func TestPayloadValues(t *testing.T) {
	p := NewPayload(validInput())
	got := p.Values().Encode()
	for _, key := range []string{"fullName=", "studentCode=1234567", "level=Level+2", "phone=01012345678", "question="} {
		if !strings.Contains(got, key) {
			t.Errorf("encoded body %q missing %q", got, key)
		}
	}
}

func TestErrorIDs(t *testing.T) {
	want := map[Field]string{
		FieldFullName:    "nameError",
		FieldStudentCode: "codeError",
		FieldLevel:       "levelError",
		FieldPhone:       "phoneError",
		FieldQuestion:    "questionError",
	}
	for f, id := range want {
		if f.ErrorID() != id {
			t.Errorf("%s.ErrorID() = %q, want %q", f, f.ErrorID(), id)
		}
	}
}
