package domain

import "errors"

var (
	ErrShowNotFound       = errors.New("show not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
