package testutil

import (
	"context"
	"net/http"

	authmw "trustgate/pkg/platform/middleware/auth"
)

// WithUserID adds a user ID to the request context, simulating what the auth
// middleware does for authenticated requests.
func WithUserID(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), authmw.ContextKeyUserID, userID)
	return req.WithContext(ctx)
}

// WithAuth adds both user ID and role to the request context.
func WithAuth(req *http.Request, userID, role string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = context.WithValue(ctx, authmw.ContextKeyUserID, userID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, authmw.ContextKeyRole, role)
	}
	return req.WithContext(ctx)
}
