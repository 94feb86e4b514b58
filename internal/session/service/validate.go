package service

import (
	"strings"

	dErrors "elan/pkg/domain-errors"
)

const minPasswordLength = 6

// LoginForm holds the credentials submitted to Login. Validate catches
// empty fields before any provider round trip.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" || f.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}
	return nil
}

// RegistrationForm holds the fields submitted to Register.
type RegistrationForm struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (f RegistrationForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" || f.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email and password are required")
	}
	if len(f.Password) < minPasswordLength {
		return dErrors.New(dErrors.CodeWeakPassword, "password must be at least 6 characters")
	}
	if f.Password != f.ConfirmPassword {
		return dErrors.New(dErrors.CodeBadRequest, "passwords do not match")
	}
	return nil
}

// ResetForm holds the email submitted to ResetPassword.
type ResetForm struct {
	Email string `json:"email"`
}

func (f ResetForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	return nil
}

// wrapUnknown tags infrastructure failures that have no domain meaning.
func wrapUnknown(msg string, err error) error {
	return dErrors.Wrap(dErrors.CodeUnknown, msg, err)
}
