package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Loader parses environment variables into configuration structs and caches
// the result per struct type. Create one at startup and pass it to the
// components that need configuration.
type Loader struct {
	files []string

	dotenvOnce sync.Once
	dotenvErr  error

	mu     sync.Mutex
	values map[reflect.Type]any
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnvFiles sets the .env files read before parsing.
// Missing files are ignored; by default ".env" is tried.
func WithEnvFiles(files ...string) LoaderOption {
	return func(l *Loader) {
		l.files = files
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		files:  []string{".env"},
		values: make(map[reflect.Type]any),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses the environment into v. The first successful parse of a type
// is cached and later calls for the same type return the cached copy.
//
// Example:
//
//	type StoreConfig struct {
//		DefaultTTL time.Duration `env:"TENANT_CONTEXT_DEFAULT_TTL" envDefault:"0s"`
//	}
//
//	var cfg StoreConfig
//	if err := loader.Load(&cfg); err != nil {
//		return err
//	}
func (l *Loader) Load(v any) error {
	rv := reflect.ValueOf(v)
	if v == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNilPointer
	}
	if err := l.loadDotenv(); err != nil {
		return err
	}

	typ := rv.Elem().Type()

	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.values[typ]; ok {
		rv.Elem().Set(reflect.ValueOf(cached))
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	l.values[typ] = rv.Elem().Interface()
	return nil
}

// MustLoad works like Load but panics on failure.
func (l *Loader) MustLoad(v any) {
	if err := l.Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// Reset drops all cached configurations so the next Load parses again.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.values)
}

// LoadInto parses the environment into a new T.
func LoadInto[T any](l *Loader) (T, error) {
	var v T
	err := l.Load(&v)
	return v, err
}

func (l *Loader) loadDotenv() error {
	l.dotenvOnce.Do(func() {
		for _, f := range l.files {
			err := godotenv.Load(f)
			if err == nil || errors.Is(err, fs.ErrNotExist) {
				continue
			}
			l.dotenvErr = errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", f, err))
			return
		}
	})
	return l.dotenvErr
}
