package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limits struct {
	Rate  float64 `yaml:"rate" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

type sample struct {
	Name       string  `yaml:"name" validate:"required"`
	Workers    int     `yaml:"workers" validate:"gte=0"`
	MaxRetries int     `validate:"lte=10"`
	Limits     *limits `yaml:"limits"`
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(sample{Name: "api", Limits: &limits{Rate: 1}}))
	assert.NoError(t, Validate(&sample{Name: "api"}))
}

func TestValidate_FieldNames(t *testing.T) {
	err := Validate(sample{Workers: -1, MaxRetries: 11, Limits: &limits{Burst: -2}})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []FieldError{
		{Field: "name", Message: "is required"},
		{Field: "workers", Message: "must be greater than or equal to 0"},
		{Field: "max_retries", Message: "must be less than or equal to 10"},
		{Field: "limits.burst", Message: "must be greater than or equal to 0"},
	}, verr.Fields)
	assert.Contains(t, err.Error(), "validation failed: ")
}

func TestValidator_Chain(t *testing.T) {
	err := New().
		Required("host", "  ").
		Range("port", 0, 1, 65535).
		Err()

	require.Error(t, err)
	assert.Equal(t, "validation failed: host is required; port must be between 1 and 65535", err.Error())
}

func TestValidator_NoErrors(t *testing.T) {
	v := New().
		Required("host", "example.com").
		NotEmpty("password", " ").
		Excludes("user", "alice", ":").
		MaxLength("name", "abc", 3).
		Min("n", 2, 1).
		Pattern("id", "A-12", `^[A-Z]-\d+$`).
		OneOf("mode", "sync", []string{"sync", "async"}).
		Custom(true, "x", "unused")

	assert.False(t, v.HasErrors())
	assert.Empty(t, v.Errors())
	assert.NoError(t, v.Err())
}

func TestValidator_Failures(t *testing.T) {
	tests := []struct {
		name  string
		check func(*Validator)
		want  FieldError
	}{
		{"not empty", func(v *Validator) { v.NotEmpty("password", "") }, FieldError{"password", "must not be empty"}},
		{"excludes", func(v *Validator) { v.Excludes("user", "a:b", ":") }, FieldError{"user", `must not contain ":"`}},
		{"max length", func(v *Validator) { v.MaxLength("name", "abcd", 3) }, FieldError{"name", "must be 3 characters or less"}},
		{"min", func(v *Validator) { v.Min("n", 0, 1) }, FieldError{"n", "must be at least 1"}},
		{"pattern", func(v *Validator) { v.Pattern("id", "x", `^\d+$`) }, FieldError{"id", "does not match required format"}},
		{"one of", func(v *Validator) { v.OneOf("mode", "x", []string{"a", "b"}) }, FieldError{"mode", "must be one of: a, b"}},
		{"custom", func(v *Validator) { v.Custom(false, "x", "is wrong") }, FieldError{"x", "is wrong"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			tc.check(v)
			assert.Equal(t, []FieldError{tc.want}, v.Errors())
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "max_retries", toSnakeCase("MaxRetries"))
	assert.Equal(t, "name", toSnakeCase("Name"))
}
