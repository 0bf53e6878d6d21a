package core

import "errors"

// Tagged failures returned by the service layer. The HTTP layer translates
// these to status codes; everything else is treated as a storage failure and
// surfaced generically.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("already exists")
	ErrAuthFailed   = errors.New("invalid credentials")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)
