package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the domain tags registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
			return Grade(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("industry", func(fl validator.FieldLevel) bool {
			return IsIndustry(fl.Field().String())
		})
		_ = v.RegisterValidation("role_type", func(fl validator.FieldLevel) bool {
			return IsRoleType(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks v against its struct tags and flattens the result into one
// error naming every failing field
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// IsIndustry reports whether s names a known Industry
func IsIndustry(s string) bool {
	for _, i := range Industries {
		if string(i) == s {
			return true
		}
	}
	return false
}

// IsRoleType reports whether s names a known RoleType
func IsRoleType(s string) bool {
	for _, r := range RoleTypes {
		if string(r) == s {
			return true
		}
	}
	return false
}
