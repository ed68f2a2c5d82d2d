package testutil

import (
	"context"
	"net/http"

	id "pathway/pkg/domain"
	"pathway/pkg/requestcontext"
)

// WithStudentRef adds a student ref to the request context, simulating what
// the auth middleware does for authenticated requests. Invalid refs are
// silently ignored.
func WithStudentRef(req *http.Request, ref string) *http.Request {
	parsed, err := id.ParseStudentRef(ref)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithStudentRef(req.Context(), parsed)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
