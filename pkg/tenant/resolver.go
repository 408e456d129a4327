package tenant

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Resolver extracts the tenant identifier from a request.
// It returns "" when the request names no tenant.
type Resolver func(r *http.Request) (string, error)

// NewSubdomainResolver reads the first subdomain label of the host
// ("acme" from "acme.app.com"). A leading "www" label is skipped. When suffix
// is set (".app.com"), only hosts ending with it are considered.
func NewSubdomainResolver(suffix string) Resolver {
	return func(r *http.Request) (string, error) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = strings.ToLower(host)

		if suffix != "" {
			if !strings.HasSuffix(host, suffix) || len(host) == len(suffix) {
				return "", nil
			}
			host = strings.TrimSuffix(host, suffix)
		} else {
			// Need at least subdomain.domain.tld
			parts := strings.Split(host, ".")
			if len(parts) < 3 {
				return "", nil
			}
			host = strings.Join(parts[:len(parts)-2], ".")
		}

		labels := strings.Split(host, ".")
		if labels[0] == "www" {
			labels = labels[1:]
		}
		if len(labels) == 0 {
			return "", nil
		}
		return labels[0], nil
	}
}

// NewHeaderResolver reads the tenant from a request header.
// An empty name defaults to DefaultHeader.
func NewHeaderResolver(name string) Resolver {
	if name == "" {
		name = DefaultHeader
	}
	return func(r *http.Request) (string, error) {
		return strings.TrimSpace(r.Header.Get(name)), nil
	}
}

// NewPathResolver reads the tenant from a 1-based URL path segment
// (position 2 for /api/{tenant}/...).
func NewPathResolver(position int) Resolver {
	return func(r *http.Request) (string, error) {
		if position < 1 {
			return "", errors.New("invalid path position")
		}

		path := strings.Trim(r.URL.Path, "/")
		if path == "" {
			return "", nil
		}

		parts := strings.Split(path, "/")
		if position > len(parts) {
			return "", nil
		}
		return parts[position-1], nil
	}
}

// NewURLParamResolver reads the tenant from a chi route parameter.
// The middleware must run inside the chi route that declares the parameter.
func NewURLParamResolver(param string) Resolver {
	return func(r *http.Request) (string, error) {
		return chi.URLParam(r, param), nil
	}
}

// NewCompositeResolver tries resolvers in order and returns the first
// non-empty identifier. Errors are only reported if no resolver succeeds.
func NewCompositeResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		var errs []error
		for _, resolve := range resolvers {
			id, err := resolve(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if id != "" {
				return id, nil
			}
		}
		if len(errs) > 0 {
			return "", fmt.Errorf("composite resolver: %w", errors.Join(errs...))
		}
		return "", nil
	}
}

// NewResolverFromConfig builds a header-then-subdomain resolver.
func NewResolverFromConfig(cfg Config) Resolver {
	return NewCompositeResolver(
		NewHeaderResolver(cfg.Header),
		NewSubdomainResolver(cfg.DomainSuffix),
	)
}
