package handlers

import (
	"net/http"

	"srms/internal/shared"
)

type contextKey string

// UserContextKey is where the auth middleware stores the verified caller.
const UserContextKey contextKey = "user"

// CurrentUser returns the verified account injected by the auth middleware,
// or nil when the request never passed it.
func CurrentUser(r *http.Request) *shared.User {
	user, ok := r.Context().Value(UserContextKey).(*shared.User)
	if !ok {
		return nil
	}
	return user
}
