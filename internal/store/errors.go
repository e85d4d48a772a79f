package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConstraint        = errors.New("constraint violation")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownField      = errors.New("unknown field")
	ErrMissingID         = errors.New("missing identifier")
	ErrImmutableID       = errors.New("identifier cannot be changed")
	ErrStale             = errors.New("record no longer matches")
)

// StorageError reports a failed data access call.
type StorageError struct {
	Op         string
	Collection Collection
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newError(op string, coll Collection, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	if isUniqueViolation(err) && !errors.Is(err, ErrConstraint) {
		err = fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return &StorageError{Op: op, Collection: coll, Err: err}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}
