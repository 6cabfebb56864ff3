package rest

import (
	"net/http"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/platform/httpx"
	"github.com/louisbranch/taskmanager/internal/platform/requestctx"
)

const (
	msgMissingToken = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
)

// TokenVerifier validates a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (requestctx.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller identity in the request context. Rejection never reaches a store.
func RequireAuth(verifier TokenVerifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := httpx.BearerToken(r)
			if !ok {
				httpx.WriteError(w, r, apperrors.New(apperrors.CodeUnauthenticated, msgMissingToken))
				return
			}
			if verifier == nil {
				httpx.WriteError(w, r, apperrors.New(apperrors.CodeUnauthenticated, msgInvalidToken))
				return
			}
			identity, err := verifier.Verify(raw)
			if err != nil {
				if apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
					httpx.WriteError(w, r, apperrors.Wrap(apperrors.CodeUnauthenticated, msgInvalidToken, err))
					return
				}
				httpx.WriteError(w, r, err)
				return
			}
			if identity.UserID <= 0 {
				httpx.WriteError(w, r, apperrors.New(apperrors.CodeUnauthenticated, msgInvalidToken))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithIdentity(r.Context(), identity)))
		})
	}
}
