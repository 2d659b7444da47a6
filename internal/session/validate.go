package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type loginInput struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
}

type registerInput struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// check turns the first validation failure into a readable AuthenticationError.
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &AuthenticationError{Message: DefaultAuthMessage, Err: err}
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	msg := fmt.Sprintf("%s is invalid", field)
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "email":
		msg = fmt.Sprintf("%s must be a valid email address", field)
	}
	return &AuthenticationError{Message: msg, Err: err}
}
