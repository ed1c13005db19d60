// Package validation checks form input with go-playground/validator.
//
// Failures are reported as VALIDATION domain errors carrying the message
// the dashboards show inline.
package validation

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/verte-zerg/concerto/internal/errors"
)

// Inline messages.
const (
	MsgFillAllFields    = "fill in all fields"
	MsgPasswordMismatch = "passwords do not match"
	MsgInvalidEmail     = "enter a valid email address"
	MsgInvalidRating    = "rating must be between 0 and 3"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Registration is the sign-up form.
type Registration struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required"`
	Password string `validate:"required"`
	Confirm  string `validate:"required,eqfield=Password"`
}

// Login is the sign-in form.
type Login struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// RatingInput is one rating change.
type RatingInput struct {
	ProgramID string `validate:"required"`
	Rating    int    `validate:"min=0,max=3"`
}

// Struct validates s and maps the first failing rule to an inline message.
// Missing fields take precedence over every other failure.
func Struct(s any) error {
	err := instance().Struct(trimmed(s))
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.ErrValidation.WithCause(err)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return apperrors.Validation(MsgFillAllFields)
		}
	}
	switch fe := verrs[0]; fe.Tag() {
	case "eqfield":
		return apperrors.Validation(MsgPasswordMismatch)
	case "email":
		return apperrors.Validation(MsgInvalidEmail)
	case "min", "max":
		if fe.Field() == "Rating" {
			return apperrors.Validation(MsgInvalidRating)
		}
	}
	return apperrors.Validation(strings.ToLower(verrs[0].Field()) + " is invalid")
}

// trimmed returns a copy of the known forms with surrounding whitespace removed
// from identity fields, so blank input counts as missing.
func trimmed(s any) any {
	switch v := s.(type) {
	case Registration:
		v.Email = strings.TrimSpace(v.Email)
		v.Name = strings.TrimSpace(v.Name)
		return v
	case *Registration:
		return trimmed(*v)
	case Login:
		v.Email = strings.TrimSpace(v.Email)
		return v
	case *Login:
		return trimmed(*v)
	case RatingInput:
		v.ProgramID = strings.TrimSpace(v.ProgramID)
		return v
	case *RatingInput:
		return trimmed(*v)
	}
	return s
}
