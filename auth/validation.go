package auth

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/backoffice-console/internal/utils"
)

// Validator checks user input before it is sent to the backend
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEmail checks presence and a basic address shape
func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateCredentials validates login credentials
func (v *Validator) ValidateCredentials(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// ValidateProfileUpdate requires at least one field, and a valid email if one is given
func (v *Validator) ValidateProfileUpdate(u ProfileUpdate) error {
	if u.Name == nil && u.Email == nil && u.Phone == nil {
		return ErrEmptyUpdate
	}
	u = u.Trimmed()
	if u.Email != nil {
		if err := v.ValidateEmail(utils.Value(u.Email)); err != nil {
			return err
		}
	}
	if u.Name != nil && utils.Value(u.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

// Trimmed returns u with surrounding spaces removed from every set field
func (u ProfileUpdate) Trimmed() ProfileUpdate {
	return ProfileUpdate{
		Name:  utils.MapPtr(u.Name, strings.TrimSpace),
		Email: utils.MapPtr(u.Email, strings.TrimSpace),
		Phone: utils.MapPtr(u.Phone, strings.TrimSpace),
	}
}
