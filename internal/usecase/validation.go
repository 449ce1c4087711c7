package usecase

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

var nonDigits = regexp.MustCompile(`\D`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone_digits", validatePhoneDigits)
	return v
}

// ValidateCreateLeadInput checks the trimmed input against its field tags.
func ValidateCreateLeadInput(input CreateLeadInput) []entity.ValidationError {
	input.CompanyName = strings.TrimSpace(input.CompanyName)
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	input.OwnerEmail = strings.TrimSpace(input.OwnerEmail)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	return fieldErrors(validate.Struct(input))
}

func ValidateLogActivityInput(input LogActivityInput) []entity.ValidationError {
	input.UserID = strings.TrimSpace(input.UserID)
	input.ActivityType = strings.TrimSpace(input.ActivityType)
	input.Summary = strings.TrimSpace(input.Summary)
	input.NextAction = strings.TrimSpace(input.NextAction)
	input.NextActionDate = strings.TrimSpace(input.NextActionDate)
	return fieldErrors(validate.Struct(input))
}

func fieldErrors(err error) []entity.ValidationError {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []entity.ValidationError{{Field: "input", Constraint: "invalid"}}
	}
	out := make([]entity.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, entity.ValidationError{Field: fe.Field(), Constraint: constraintOf(fe)})
	}
	return out
}

func constraintOf(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "min_length_" + fe.Param()
	case "max":
		return "max_length_" + fe.Param()
	case "email":
		return "invalid_email"
	case "phone_digits":
		return "invalid_phone"
	case "required_with":
		return "required_with_next_action_date"
	default:
		return fe.Tag()
	}
}

// validationFailure folds field errors into one DomainError; the first field
// is reported as the primary one.
func validationFailure(errs []entity.ValidationError) error {
	msg := "validation failed: "
	for i, e := range errs {
		if i > 0 {
			msg += ", "
		}
		msg += e.Field + " (" + e.Constraint + ")"
	}
	first := errs[0]
	return &DomainError{Code: CodeValidation, Message: msg, Field: first.Field, Err: &first}
}

// validatePhoneDigits accepts 7 to 15 digits once separators are stripped.
func validatePhoneDigits(fl validator.FieldLevel) bool {
	cleaned := nonDigits.ReplaceAllString(fl.Field().String(), "")
	return len(cleaned) >= 7 && len(cleaned) <= 15
}
