package tenantctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
)

// SerializedFrame is the wire shape of a Frame.
// Timestamps are RFC 3339 strings with nanoseconds in UTC.
type SerializedFrame struct {
	TenantID  *string  `json:"tenant_id"`
	CreatedAt string   `json:"created_at"`
	ExpiresAt *string  `json:"expires_at"`
	Metadata  Metadata `json:"metadata"`
}

// Serialize captures the current frame, or returns nil if there is none.
func (s *Store) Serialize(ctx context.Context) *SerializedFrame {
	f, ok := s.Current(ctx)
	if !ok {
		return nil
	}
	return serializeFrame(f)
}

// Encode returns the JSON form of the current frame.
// Returns nil, nil if there is no current frame.
func (s *Store) Encode(ctx context.Context) ([]byte, error) {
	sf := s.Serialize(ctx)
	if sf == nil {
		return nil, nil
	}
	data, err := json.Marshal(sf)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tenant context: %w", err)
	}
	return data, nil
}

// Decode parses a JSON-encoded frame.
// The tenant_id key must be present; a null value means no tenant.
func Decode(data []byte) (*SerializedFrame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &SerializationError{Err: err}
	}
	if _, ok := fields["tenant_id"]; !ok {
		return nil, &SerializationError{Field: "tenant_id", Err: errors.New("missing")}
	}

	var sf SerializedFrame
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, &SerializationError{Err: err}
	}
	return &sf, nil
}

// Restore rebuilds the frame described by sf and runs fn with it current.
// createdAt and expiresAt are kept verbatim: restoring never renews expiry.
func (s *Store) Restore(ctx context.Context, sf *SerializedFrame, fn func(context.Context) error) error {
	f, err := deserializeFrame(sf)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to restore tenant context", slog.Any("error", err))
		return err
	}
	return s.Push(ctx, f, fn)
}

// RestoreBytes decodes data and calls Restore.
func (s *Store) RestoreBytes(ctx context.Context, data []byte, fn func(context.Context) error) error {
	sf, err := Decode(data)
	if err != nil {
		return err
	}
	return s.Restore(ctx, sf, fn)
}

func serializeFrame(f *Frame) *SerializedFrame {
	sf := &SerializedFrame{
		CreatedAt: formatTime(f.createdAt),
		Metadata:  f.metadata,
	}
	if id, ok := f.TenantID(); ok {
		sf.TenantID = &id
	}
	if exp, ok := f.ExpiresAt(); ok {
		v := formatTime(exp)
		sf.ExpiresAt = &v
	}
	return sf
}

func deserializeFrame(sf *SerializedFrame) (*Frame, error) {
	if sf == nil {
		return nil, &SerializationError{Err: errors.New("nil serialized frame")}
	}

	createdAt, err := time.Parse(time.RFC3339Nano, sf.CreatedAt)
	if err != nil {
		return nil, &SerializationError{Field: "created_at", Err: err}
	}

	f := &Frame{
		createdAt: createdAt,
		metadata:  sf.Metadata,
	}
	if sf.TenantID != nil {
		f.tenantID = *sf.TenantID
		f.hasTenant = true
	}
	if sf.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339Nano, *sf.ExpiresAt)
		if err != nil {
			return nil, &SerializationError{Field: "expires_at", Err: err}
		}
		if expiresAt.Before(createdAt) {
			return nil, &SerializationError{Field: "expires_at", Err: errors.New("before created_at")}
		}
		f.expiresAt = expiresAt
		f.hasExpiry = true
	}
	return f, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
