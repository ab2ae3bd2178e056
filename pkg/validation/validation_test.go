package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "vitta/pkg/domain-errors"
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type pinForm struct {
	PIN string `validate:"required,len=4,numeric"`
}

func TestValidateReturnsDomainValidationErrors(t *testing.T) {
	err := Validate(loginForm{Email: "not-an-email", Password: "secret1"})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	assert.Equal(t, "email must be a valid email", err.Error())

	err = Validate(loginForm{Email: "ada@vitta.com", Password: "short"})
	assert.Equal(t, "password must be at least 6", err.Error())

	assert.NoError(t, Validate(loginForm{Email: "ada@vitta.com", Password: "secret1"}))
}

func TestValidateDigitFields(t *testing.T) {
	assert.Equal(t, "pin must be 4 characters", Validate(pinForm{PIN: "123"}).Error())
	assert.Equal(t, "pin must be numeric", Validate(pinForm{PIN: "12a4"}).Error())
	assert.NoError(t, Validate(pinForm{PIN: "1234"}))
}

func TestValidateNotBlank(t *testing.T) {
	type form struct {
		FullName string `validate:"required,notblank"`
	}
	assert.Equal(t, "full_name must not be blank", Validate(form{FullName: "   "}).Error())
	assert.NoError(t, Validate(form{FullName: "Ada Wallace"}))
}
