package options

import (
	"errors"

	"github.com/arloliu/sas7bdat/errs"
)

// Option represents a functional option for configuring any type T.
type Option[T any] interface {
	apply(T) error
}

// Func is a generic functional option that wraps a function.
type Func[T any] struct {
	applyFunc func(T) error
}

// apply implements the Option interface.
func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates a new functional option from a function that may reject its input.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates a functional option from a function that can't fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply applies options in order and stops at the first failure.
// Errors that do not already match errs.ErrInvalidOption are wrapped so callers can
// match every configuration failure with errors.Is.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			if errors.Is(err, errs.ErrInvalidOption) {
				return err
			}

			return errs.Errorf(errs.ErrInvalidOption, "%v", err)
		}
	}

	return nil
}

// Positive returns an error unless v > 0.
func Positive(name string, v int) error {
	if v <= 0 {
		return errs.Errorf(errs.ErrInvalidOption, "%s must be positive, got %d", name, v)
	}

	return nil
}
