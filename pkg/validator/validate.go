package validator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Describe flattens validation errors into one readable line.
func Describe(err error) string {
	validErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	issues := make([]string, 0, len(validErrs))
	for _, vErr := range validErrs {
		if vErr.Param() != "" {
			issues = append(issues, fmt.Sprintf("%s failed on '%s=%s'", vErr.Field(), vErr.Tag(), vErr.Param()))
		} else {
			issues = append(issues, fmt.Sprintf("%s failed on '%s'", vErr.Field(), vErr.Tag()))
		}
	}
	return strings.Join(issues, "; ")
}
