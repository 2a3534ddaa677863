package db

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound: book / open record / user does not exist (closed records included).
	ErrNotFound = errors.New("not found")
	// ErrConflict: the book is already borrowed, or a unique key is taken.
	ErrConflict = errors.New("conflict")
)

// classify maps gorm errors onto the package sentinels and passes the rest through.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}
