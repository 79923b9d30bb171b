// Package validation checks request schemas before they reach the services.
package validation

import (
	"errors"
	"strings"

	"store-rating/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

// SpecialChars is the set of characters a password must draw at least one from.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

const (
	msgName       = "Name must be 20-60 characters"
	msgEmail      = "Invalid email format"
	msgEmailLen   = "Email max 255 characters"
	msgStoreName  = "Store name max 255 characters"
	msgPassword   = "Password must be 8-16 characters, 1 uppercase, 1 special character"
	msgNewPass    = "New password must be 8-16 characters, 1 uppercase, 1 special character"
	msgAddress    = "Address max 400 characters"
	msgRole       = "Role must be admin or user"
	msgRating     = "Store ID and a valid rating (1-5) are required"
	msgLogin      = "Please provide email and password"
	msgUpdatePass = "Must provide current and new password"
	msgStore      = "All fields are required"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("password_strength", passwordStrength); err != nil {
		panic(err)
	}
	return v
}

func passwordStrength(fl validator.FieldLevel) bool {
	return StrongPassword(fl.Field().String())
}

// StrongPassword reports whether p is 8-16 characters long and holds at least
// one uppercase ASCII letter and one character from SpecialChars.
func StrongPassword(p string) bool {
	n := len([]rune(p))
	if n < 8 || n > 16 {
		return false
	}
	hasUpper, hasSpecial := false, false
	for _, c := range p {
		if c >= 'A' && c <= 'Z' {
			hasUpper = true
		}
		if strings.ContainsRune(SpecialChars, c) {
			hasSpecial = true
		}
	}
	return hasUpper && hasSpecial
}

// Struct validates req and returns a ValidationError naming the first failing field.
func Struct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation("Invalid request body")
	}
	return apperrors.Validation(messageFor(fieldErrs[0]))
}

func messageFor(fe validator.FieldError) string {
	switch fe.StructNamespace() {
	case "LoginRequest.Email", "LoginRequest.Password":
		return msgLogin
	case "UpdatePasswordRequest.CurrentPassword":
		return msgUpdatePass
	case "UpdatePasswordRequest.NewPassword":
		if fe.Tag() == "required" {
			return msgUpdatePass
		}
		return msgNewPass
	case "RatingRequest.StoreID", "RatingRequest.Rating":
		return msgRating
	}

	if strings.HasPrefix(fe.StructNamespace(), "AddStoreRequest.") {
		switch {
		case fe.Field() == "Name" && fe.Tag() == "max":
			return msgStoreName
		case fe.Field() == "Email" && fe.Tag() == "max":
			return msgEmailLen
		case fe.Field() == "Email" && fe.Tag() == "email":
			return msgEmail
		case fe.Field() == "Address" && fe.Tag() == "max":
			return msgAddress
		}
		return msgStore
	}

	switch fe.Field() {
	case "Name":
		return msgName
	case "Email":
		if fe.Tag() == "max" {
			return msgEmailLen
		}
		return msgEmail
	case "Password":
		return msgPassword
	case "Address":
		return msgAddress
	case "Role":
		return msgRole
	}
	return fe.Field() + " is invalid"
}
