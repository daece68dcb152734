package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
)

// Validation rule patterns
var (
	// EmailPattern is the loose check applied on self-registration.
	EmailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

	// PasswordMinLength is the minimum accepted password length
	PasswordMinLength = 6

	// Name length bounds used by the schemas
	NameMinLength = 2
	NameMaxLength = 100
)

// AgePolicy bounds the age of a student record. One policy applies to every
// path that writes an age.
type AgePolicy struct {
	Min int
	Max int
}

// DefaultAgePolicy accepts 1..120.
var DefaultAgePolicy = AgePolicy{Min: 1, Max: 120}

// Allows reports whether age is inside the policy.
func (p AgePolicy) Allows(age int) bool {
	return age >= p.Min && age <= p.Max
}

// Validator runs struct schemas declared with `validate` tags.
type Validator struct {
	validate *validator.Validate
	age      AgePolicy
}

// New creates a Validator enforcing the given age policy through the
// `student_age` tag.
func New(age AgePolicy) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("student_age", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return age.Allows(int(f.Int()))
		}
		return false
	})

	return &Validator{validate: v, age: age}
}

// AgePolicy returns the policy the validator enforces.
func (v *Validator) AgePolicy() AgePolicy {
	return v.age
}

// Struct validates s and converts any failure into an apperrors validation
// error carrying one message per offending field.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, v.message(fe))
	}
	return apperrors.NewValidationError("Validation failed", messages...)
}

func (v *Validator) message(fe validator.FieldError) string {
	label := Label(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Param() == "1" {
			return label + " cannot be empty"
		}
		return label + " must be at least " + fe.Param() + " characters long"
	case "max":
		return label + " cannot be longer than " + fe.Param() + " characters"
	case "oneof":
		return label + " must be one of: " + fe.Param()
	case "student_age":
		return fmt.Sprintf("Age must be between %d and %d", v.age.Min, v.age.Max)
	default:
		return label + " is invalid"
	}
}

// Label turns a json field name into a message label.
func Label(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

// IsEmail applies the loose registration email check.
func IsEmail(email string) bool {
	return EmailPattern.MatchString(email)
}

// NormalizeEmail trims and lower-cases an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
