package tenantctx

import (
	"errors"
	"fmt"
)

var (
	// ErrContextNotFound is returned when a frame is required but no scope is active.
	ErrContextNotFound = errors.New("tenantctx: no tenant context in scope")

	// ErrContextExpired is returned when the current frame is past its expiry.
	ErrContextExpired = errors.New("tenantctx: tenant context expired")

	// ErrSerialization is matched by every *SerializationError.
	ErrSerialization = errors.New("tenantctx: malformed serialized context")
)

// SerializationError reports a serialized frame that cannot be restored.
type SerializationError struct {
	Field string
	Err   error
}

func (e *SerializationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", ErrSerialization, e.Err)
	}
	return fmt.Sprintf("%s: field %q: %v", ErrSerialization, e.Field, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSerialization) hold for any SerializationError.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}
