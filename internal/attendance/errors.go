package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrMismatchedClass    = errors.New("student not found in the specified class")
	ErrUnauthorized       = errors.New("student is not authorized to record attendance")
	ErrInvalidRange       = errors.New("invalid reporting range")
	ErrStoreFailure       = errors.New("store failure")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

// EntityKind names what a NotFoundError was looking for.
type EntityKind string

const (
	KindClass    EntityKind = "class"
	KindStudent  EntityKind = "student"
	KindRecorder EntityKind = "recorder"
	KindTeacher  EntityKind = "teacher"
)

// NotFoundError reports a missing entity. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Kind EntityKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(kind EntityKind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// NotFoundKind returns the entity kind of a not-found error, if err is one.
func NotFoundKind(err error) (EntityKind, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Kind, true
	}
	return "", false
}

// storeFailure wraps a persistence error so it matches both ErrStoreFailure
// and the underlying cause. Unique violations are reported as ErrConflict only.
func storeFailure(op string, err error) error {
	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}
