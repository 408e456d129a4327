package tenantctx

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-json"
)

// Frame is an immutable snapshot of the active tenant.
// Use the Store to create frames; the zero value is a frame with no tenant.
type Frame struct {
	tenantID  string
	hasTenant bool
	createdAt time.Time
	expiresAt time.Time
	hasExpiry bool
	metadata  Metadata
}

// TenantID returns the tenant identifier.
// Returns "", false if the frame carries no tenant (e.g. after ClearTenant).
func (f *Frame) TenantID() (string, bool) {
	if f == nil || !f.hasTenant {
		return "", false
	}
	return f.tenantID, true
}

// CreatedAt returns the frame creation time.
func (f *Frame) CreatedAt() time.Time {
	if f == nil {
		return time.Time{}
	}
	return f.createdAt
}

// ExpiresAt returns the logical expiry of the frame, if any.
func (f *Frame) ExpiresAt() (time.Time, bool) {
	if f == nil || !f.hasExpiry {
		return time.Time{}, false
	}
	return f.expiresAt, true
}

// Expired reports whether the frame has an expiry strictly before now.
func (f *Frame) Expired(now time.Time) bool {
	if f == nil || !f.hasExpiry {
		return false
	}
	return f.expiresAt.Before(now)
}

// Metadata returns the value stored under key.
func (f *Frame) Metadata(key string) (any, bool) {
	if f == nil {
		return nil, false
	}
	return f.metadata.Get(key)
}

// MetadataKeys returns metadata keys in insertion order.
func (f *Frame) MetadataKeys() []string {
	if f == nil {
		return nil
	}
	return f.metadata.Keys()
}

// withoutTenant returns a copy of the frame with the tenant nulled.
// Metadata is shared: Metadata values are never mutated after construction.
func (f *Frame) withoutTenant() *Frame {
	cp := *f
	cp.tenantID = ""
	cp.hasTenant = false
	return &cp
}

// Metadata is an ordered string-keyed mapping attached to a frame.
// The zero value is empty and ready to use.
type Metadata struct {
	keys   []string
	values map[string]any
}

// NewMetadata builds metadata from alternating key/value pairs.
// A non-string key or a dangling key panics.
func NewMetadata(kv ...any) Metadata {
	if len(kv)%2 != 0 {
		panic("tenantctx: NewMetadata requires key/value pairs")
	}
	var m Metadata
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("tenantctx: metadata key must be a string, got %T", kv[i]))
		}
		m = m.With(key, kv[i+1])
	}
	return m
}

// With returns a copy of m with key set to value.
// An existing key keeps its original position.
func (m Metadata) With(key string, value any) Metadata {
	out := Metadata{
		keys:   slices.Clone(m.keys),
		values: make(map[string]any, len(m.values)+1),
	}
	for k, v := range m.values {
		out.values[k] = v
	}
	if _, exists := out.values[key]; !exists {
		out.keys = append(out.keys, key)
	}
	out.values[key] = value
	return out
}

// Get returns the value stored under key.
func (m Metadata) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m Metadata) Keys() []string {
	return slices.Clone(m.keys)
}

// Len returns the number of entries.
func (m Metadata) Len() int {
	return len(m.keys)
}

// MarshalJSON encodes metadata as a JSON object preserving key order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, fmt.Errorf("metadata key %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the order keys appear in.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	// Key order is only observable through the token stream.
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = Metadata{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metadata must be a JSON object")
	}

	out := Metadata{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("metadata key must be a string")
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("metadata key %q: %w", key, err)
		}
		if _, exists := out.values[key]; !exists {
			out.keys = append(out.keys, key)
		}
		out.values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}
