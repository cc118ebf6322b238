// Package validation provides struct tag validation for configuration types
// and a small programmatic validator for builder arguments.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    Required("host", host).
//	    Range("port", port, 1, 65535).
//	    Err()
//
// Both forms return *Error, which lists every failing field.
package validation
