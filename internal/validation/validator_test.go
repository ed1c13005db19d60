package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/verte-zerg/concerto/internal/errors"
)

func TestRegistration(t *testing.T) {
	tests := []struct {
		name string
		in   Registration
		want string
	}{
		{"valid", Registration{Email: "a@b.co", Name: "Ana", Password: "x", Confirm: "x"}, ""},
		{"missing name", Registration{Email: "a@b.co", Name: "  ", Password: "x", Confirm: "x"}, MsgFillAllFields},
		{"missing confirm", Registration{Email: "a@b.co", Name: "Ana", Password: "x"}, MsgFillAllFields},
		{"missing beats mismatch", Registration{Name: "Ana", Password: "x", Confirm: "y"}, MsgFillAllFields},
		{"mismatch", Registration{Email: "a@b.co", Name: "Ana", Password: "x", Confirm: "y"}, MsgPasswordMismatch},
		{"bad email", Registration{Email: "not-an-email", Name: "Ana", Password: "x", Confirm: "x"}, MsgInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.want, apperrors.Message(err))
		})
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	assert.NoError(t, Struct(&Login{Email: "a@b.co", Password: "x"}))
	err := Struct(Login{Email: "a@b.co"})
	assert.Equal(t, MsgFillAllFields, apperrors.Message(err))
}

func TestRatingInput(t *testing.T) {
	assert.NoError(t, Struct(RatingInput{ProgramID: "P1", Rating: 0}))
	assert.Equal(t, MsgInvalidRating, apperrors.Message(Struct(RatingInput{ProgramID: "P1", Rating: 4})))
	assert.Equal(t, MsgInvalidRating, apperrors.Message(Struct(RatingInput{ProgramID: "P1", Rating: -1})))
	assert.Equal(t, MsgFillAllFields, apperrors.Message(Struct(RatingInput{Rating: 2})))
}
