package http

import (
	"context"
	"net/http"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/shop-dash/backend/internal/common/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/jwtverify"
	"github.com/AlibekovAA/shop-dash/backend/internal/session/domain"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Session, jwtverify.Claims, error)
}

type contextKey string

const sessionKey contextKey = "shop_session"

func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(domain.Session)
	return s, ok
}

// RequireSession rejects requests without a valid session token for an
// installed shop.
func RequireSession(auth Authenticator, errs *commonhttp.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := jwtverify.BearerToken(r)
			if !ok {
				errs.HandleError(w, r, commonerrors.ErrMissingSession)
				return
			}

			session, claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				errs.HandleError(w, r, err)
				return
			}

			ctx := jwtverify.WithClaims(r.Context(), claims)
			ctx = WithSession(ctx, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ShopKey keys rate limiting by the authenticated shop.
func ShopKey(r *http.Request) string {
	if s, ok := SessionFromContext(r.Context()); ok {
		return s.Shop
	}
	return commonhttp.GetClientIP(r)
}
