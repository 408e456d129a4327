package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Handler runs tasks with a given name.
type Handler interface {
	Name() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

// TaskHandlerFunc handles a decoded payload.
type TaskHandlerFunc[T any] func(ctx context.Context, payload T) error

// NewTaskHandler returns a Handler named after the payload type, matching the
// name the Enqueuer gives tasks of that type.
func NewTaskHandler[T any](handler TaskHandlerFunc[T]) Handler {
	var payload T
	return &taskHandler[T]{
		name:    qualifiedStructName(payload),
		handler: handler,
	}
}

type taskHandler[T any] struct {
	name    string
	handler TaskHandlerFunc[T]
}

func (h *taskHandler[T]) Name() string {
	return h.name
}

func (h *taskHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", h.name, err)
	}
	return h.handler(ctx, t)
}

func qualifiedStructName(v any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}
