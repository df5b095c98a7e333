package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	ErrEmptyFile          = errors.New("empty file")
	ErrInsufficientText   = errors.New("no text extracted or file too small")
	ErrNoChunks           = errors.New("no text chunks created")
	ErrEmptyMessage       = errors.New("message empty")
	ErrStorageUnavailable = errors.New("vector storage unavailable")
	ErrStorageFailed      = errors.New("vector storage write failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
