package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/gema-assess-api/internal/content"
)

// ErrNotFound matches every NotFoundError.
var ErrNotFound = errors.New("not found")

// ErrEmptyContent indicates there is no text to analyse.
var ErrEmptyContent = content.ErrEmptyContent

// NotFoundError reports a missing referenced record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a failed write of an analysis result.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
