package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/goodpsyche/hopebot/backend/pkg/utils"
)

// UserIDHeader carries the authenticated user id injected by the identity proxy.
const UserIDHeader = "X-User-ID"

type userKey struct{}

// RequireUser rejects requests without a user id and stores it in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			utils.RespondError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID returns the user id stored by RequireUser.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok && userID != ""
}
