// internal/form/validate.go
//
// Signup – Forms subsystem: field validators.
//
// Context
//   The signup page posts five fields.  Each one is checked by a small pure
//   predicate, and the predicates are registered as go-playground/validator
//   tags so the Input struct carries its own rules.  Validate runs the struct
//   through a single validator instance and folds the FieldErrors back into a
//   per-field Result that the controller can act on.
//
// Workflow
//   •  IsArabicName, IsStudentCode, IsLevel, IsEgyptianMobile, and
//      IsQuestionWithinLimit are side-effect free and safe for concurrent use.
//   •  Validate never short-circuits.  Every field is checked so the UI can
//      highlight all problems in one pass.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

// QuestionMaxLen is the upper bound for the optional question, in UTF-16
// code units to match what the browser counts.
const QuestionMaxLen = 500

var (
	// Base Arabic, Arabic Supplement, and Arabic Extended-A blocks.
	arabicWord  = regexp.MustCompile(`^[\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}]+$`)
	studentCode = regexp.MustCompile(`^[0-9]{7}$`)
	egMobile    = regexp.MustCompile(`^01[0125][0-9]{8}$`)
)

// -----------------------------------------------------------------------------
// Predicates
// -----------------------------------------------------------------------------

// IsArabicName reports whether v holds at least three whitespace-separated
// words and the first three consist solely of Arabic letters.  Words after the
// third are not inspected.
func IsArabicName(v string) bool {
	parts := strings.Fields(v)
	if len(parts) < 3 {
		return false
	}
	for _, p := range parts[:3] {
		if !arabicWord.MatchString(p) {
			return false
		}
	}
	return true
}

// IsStudentCode reports whether v is exactly seven ASCII digits.  The raw
// value is checked, so surrounding whitespace fails.
func IsStudentCode(v string) bool { return studentCode.MatchString(v) }

// IsLevel accepts any non-empty selection.
func IsLevel(v string) bool { return v != "" }

// IsEgyptianMobile reports whether v is an 11-digit Egyptian mobile number:
// "01", one of 0/1/2/5, then eight digits.
func IsEgyptianMobile(v string) bool { return egMobile.MatchString(v) }

// IsQuestionWithinLimit trims v and reports whether it fits QuestionMaxLen.
// The empty string always passes.
func IsQuestionWithinLimit(v string) bool {
	return utf16Len(strings.TrimSpace(v)) <= QuestionMaxLen
}

func utf16Len(s string) int { return len(utf16.Encode([]rune(s))) }

// -----------------------------------------------------------------------------
// Validator wiring
// -----------------------------------------------------------------------------

// Result is the per-field outcome of one validation pass.  A field missing
// from Invalid is valid.
type Result struct {
	Invalid map[Field]bool
}

// Valid reports whether every field passed.
func (r Result) Valid() bool { return len(r.Invalid) == 0 }

// FieldValid reports whether f passed.
func (r Result) FieldValid(f Field) bool { return !r.Invalid[f] }

// Failed returns the invalid fields in display order.
func (r Result) Failed() []Field {
	var out []Field
	for _, f := range Fields {
		if r.Invalid[f] {
			out = append(out, f)
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	register := func(tag string, pred func(string) bool) {
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return pred(fl.Field().String())
		}); err != nil {
			panic("form: register " + tag + ": " + err.Error())
		}
	}
	register("arabic_name", IsArabicName)
	register("student_code", IsStudentCode)
	register("level", IsLevel)
	register("eg_mobile", IsEgyptianMobile)
	register("question_len", IsQuestionWithinLimit)
	return v
}

// Validate checks every field of in and returns the combined Result.
func Validate(in Input) Result {
	res := Result{}
	err := validate.Struct(in)
	if err == nil {
		return res
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		// InvalidValidationError: fail every field.
		res.Invalid = make(map[Field]bool, len(Fields))
		for _, f := range Fields {
			res.Invalid[f] = true
		}
		return res
	}

	res.Invalid = make(map[Field]bool, len(ve))
	for _, fe := range ve {
		if f, ok := fieldByStructName[fe.StructField()]; ok {
			res.Invalid[f] = true
		}
	}
	return res
}
