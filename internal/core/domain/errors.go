package domain

import "errors"

// Shared error taxonomy. The storage adapter returns ErrInsufficientStock
// from inside the order transaction, so the sentinels live here rather than
// in the service package.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrBookNotFound      = errors.New("book not found")
	ErrGenreNotFound     = errors.New("genre not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateTitle    = errors.New("book with this title already exists")
	ErrDuplicateGenre    = errors.New("genre with this name already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCommitFailed      = errors.New("order commit failed")
)
