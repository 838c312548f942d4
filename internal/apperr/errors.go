package apperr

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrVaultRoot = errors.New("vault root unavailable")
)
