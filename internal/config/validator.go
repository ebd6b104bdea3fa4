// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, so the binary never runs
// with partial, malformed, or missing configuration.
//
// Built-in rules only: `required`, `url`, `hostname_port`, and `gte`.
// The error names the first offending key in its koanf spelling.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	err := v.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		key := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
		return fmt.Errorf("config: %s fails %q: %w", key, fe.Tag(), err)
	}
	return err
}
