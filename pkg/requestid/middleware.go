package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	Header      = "X-Request-ID"
	maxIDLength = 128
	idPattern   = "^[a-zA-Z0-9_-]+$"
)

var validIDRegex = regexp.MustCompile(idPattern)

// Middleware stores a request id in the request context and echoes it in
// the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = Ensure(w, r)
		next.ServeHTTP(w, r)
	})
}

// Ensure returns r with a request id in its context. An id already in the
// context wins; otherwise the header value is reused when valid and a UUID
// is generated when not. New ids are echoed in the response header.
func Ensure(w http.ResponseWriter, r *http.Request) *http.Request {
	if FromContext(r.Context()) != "" {
		return r
	}
	requestID := FromRequest(r)
	w.Header().Set(Header, requestID)
	return r.WithContext(WithContext(r.Context(), requestID))
}

// FromRequest returns the X-Request-ID header value when valid and a new
// UUID otherwise.
func FromRequest(r *http.Request) string {
	if requestID := r.Header.Get(Header); isValidRequestID(requestID) {
		return requestID
	}
	return uuid.New().String()
}

func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > maxIDLength {
		return false
	}
	return validIDRegex.MatchString(id)
}
