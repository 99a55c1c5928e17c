package jwtverify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
)

// Claims is the subset of a Shopify session token the backend relies on.
type Claims struct {
	Shop      string
	Subject   string
	SessionID string
	ExpiresAt time.Time
}

type contextKey string

const claimsKey contextKey = "session_claims"

const leeway = 5 * time.Second

// Verifier checks App Bridge session tokens: HS256 signed with the app
// secret, audience equal to the API key, and matching iss/dest shop hosts.
type Verifier struct {
	secret      []byte
	apiKey      string
	isValidShop func(string) bool
	now         func() time.Time
}

func NewVerifier(apiKey, apiSecret string, isValidShop func(string) bool) *Verifier {
	return &Verifier{
		secret:      []byte(apiSecret),
		apiKey:      apiKey,
		isValidShop: isValidShop,
		now:         time.Now,
	}
}

type sessionTokenClaims struct {
	Dest string `json:"dest"`
	SID  string `json:"sid"`
	jwt.RegisteredClaims
}

func (v *Verifier) Verify(tokenString string) (Claims, error) {
	var claims sessionTokenClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, commonerrors.ErrInvalidTokenSigningMethod
		}
		return v.secret, nil
	},
		jwt.WithAudience(v.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, commonerrors.ErrInvalidTokenSigningMethod) {
			return Claims{}, commonerrors.ErrInvalidTokenSigningMethod.WithCause(err)
		}
		return Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid {
		return Claims{}, commonerrors.ErrInvalidToken
	}

	shop, err := hostOf(claims.Dest)
	if err != nil || (v.isValidShop != nil && !v.isValidShop(shop)) {
		return Claims{}, commonerrors.ErrInvalidTokenClaims.WithMessage("token destination is not a shop")
	}

	issuerHost, err := hostOf(claims.Issuer)
	if err != nil || issuerHost != shop {
		return Claims{}, commonerrors.ErrInvalidTokenClaims.WithMessage("token issuer does not match destination")
	}

	out := Claims{
		Shop:      shop,
		Subject:   claims.Subject,
		SessionID: claims.SID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func hostOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	return strings.ToLower(u.Host), nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	raw := r.Header.Get("Authorization")
	if !strings.HasPrefix(raw, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	return token, token != ""
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}
