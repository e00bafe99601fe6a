package services

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence matches every *PersistenceError via errors.Is.
	ErrPersistence = errors.New("persistence failure")

	// ErrTagCycle is returned when a reparent would make a tag its own ancestor.
	ErrTagCycle = errors.New("tag parent cycle")
)

// PersistenceError reports a failed save or load. The in-memory state is
// left as it was before the failed operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrPersistence, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
