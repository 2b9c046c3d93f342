package auth

import "errors"

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")
	ErrEmptyUpdate      = errors.New("nothing to update")
	ErrNoAccessToken    = errors.New("login response has no access token")
)
