// internal/form/input.go
//
// Signup – Forms subsystem: raw input, field identifiers, and the outbound
// payload.
//
// Context
//   Input mirrors what the browser posts, untouched.  Payload is what we relay
//   to the sheet endpoint: the same five keys, trimmed, built once and never
//   mutated afterwards.
//
//------------------------------------------------------------------------------

package form

import (
	"net/url"
	"strings"
)

// Field names one of the five signup inputs.  The string value is the DOM id
// and the submission key.
type Field string

const (
	FieldFullName    Field = "fullName"
	FieldStudentCode Field = "studentCode"
	FieldLevel       Field = "level"
	FieldPhone       Field = "phone"
	FieldQuestion    Field = "question"
)

// Fields lists every input in display order.
var Fields = []Field{FieldFullName, FieldStudentCode, FieldLevel, FieldPhone, FieldQuestion}

var errorIDs = map[Field]string{
	FieldFullName:    "nameError",
	FieldStudentCode: "codeError",
	FieldLevel:       "levelError",
	FieldPhone:       "phoneError",
	FieldQuestion:    "questionError",
}

// ErrorID returns the id of the inline message element paired with f.
func (f Field) ErrorID() string { return errorIDs[f] }

func (f Field) String() string { return string(f) }

// fieldByStructName maps Input struct fields to their Field, for folding
// validator errors back.
var fieldByStructName = map[string]Field{
	"FullName":    FieldFullName,
	"StudentCode": FieldStudentCode,
	"Level":       FieldLevel,
	"Phone":       FieldPhone,
	"Question":    FieldQuestion,
}

// Input holds the raw values of one submission attempt.
type Input struct {
	FullName    string `validate:"arabic_name"`
	StudentCode string `validate:"student_code"`
	Level       string `validate:"level"`
	Phone       string `validate:"eg_mobile"`
	Question    string `validate:"question_len"`
}

// InputFromValues reads the five fields from a parsed POST body.  Missing
// keys become empty strings.
func InputFromValues(v url.Values) Input {
	return Input{
		FullName:    v.Get(string(FieldFullName)),
		StudentCode: v.Get(string(FieldStudentCode)),
		Level:       v.Get(string(FieldLevel)),
		Phone:       v.Get(string(FieldPhone)),
		Question:    v.Get(string(FieldQuestion)),
	}
}

// Value returns the raw value of f.
func (in Input) Value(f Field) string {
	switch f {
	case FieldFullName:
		return in.FullName
	case FieldStudentCode:
		return in.StudentCode
	case FieldLevel:
		return in.Level
	case FieldPhone:
		return in.Phone
	case FieldQuestion:
		return in.Question
	}
	return ""
}

// Payload is the flat body relayed to the sheet endpoint.
type Payload struct {
	FullName    string `json:"fullName"`
	StudentCode string `json:"studentCode"`
	Level       string `json:"level"`
	Phone       string `json:"phone"`
	Question    string `json:"question"`
}

// NewPayload trims the text fields of in.  Level is copied as-is.
func NewPayload(in Input) Payload {
	return Payload{
		FullName:    strings.TrimSpace(in.FullName),
		StudentCode: strings.TrimSpace(in.StudentCode),
		Level:       in.Level,
		Phone:       strings.TrimSpace(in.Phone),
		Question:    strings.TrimSpace(in.Question),
	}
}

// Values encodes p as the five url-encoded keys.
func (p Payload) Values() url.Values {
	return url.Values{
		string(FieldFullName):    {p.FullName},
		string(FieldStudentCode): {p.StudentCode},
		string(FieldLevel):       {p.Level},
		string(FieldPhone):       {p.Phone},
		string(FieldQuestion):    {p.Question},
	}
}
