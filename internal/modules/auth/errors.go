package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrUnauthorized       = errors.New("unauthorized")
)
