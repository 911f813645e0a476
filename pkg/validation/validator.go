package validation

import (
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// phoneRegex matches E.164 formatted numbers
var phoneRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("phone", validatePhone)
		_ = validate.RegisterValidation("user_role", validateUserRole)
		_ = validate.RegisterValidation("future", validateFuture)
		_ = validate.RegisterValidation("past", validatePast)
	})
	return validate
}

// ValidateStruct validates a struct using its `validate` tags and returns a
// *ValidationError carrying per-field messages on failure.
func ValidateStruct(s interface{}) error {
	if err := getValidator().Struct(s); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			return NewValidationError(errs)
		}
		return err
	}
	return nil
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "rider", "driver", "admin":
		return true
	}
	return false
}

func validateFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.After(time.Now())
}

func validatePast(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.Before(time.Now())
}
