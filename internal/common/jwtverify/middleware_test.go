package jwtverify

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
)

const (
	testKey    = "api-key"
	testSecret = "api-secret"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func validShop(s string) bool { return strings.HasSuffix(s, ".myshopify.com") }

func newVerifier() *Verifier {
	v := NewVerifier(testKey, testSecret, validShop)
	v.now = func() time.Time { return fixedNow }
	return v
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":  "https://demo.myshopify.com/admin",
		"dest": "https://demo.myshopify.com",
		"aud":  testKey,
		"sub":  "42",
		"sid":  "session-1",
		"exp":  fixedNow.Add(time.Minute).Unix(),
		"nbf":  fixedNow.Add(-time.Minute).Unix(),
	}
}

func TestVerify_ValidToken(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), baseClaims())

	claims, err := newVerifier().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "demo.myshopify.com", claims.Shop)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "session-1", claims.SessionID)
}

func TestVerify_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(jwt.MapClaims)
		secret string
	}{
		{"expired", func(c jwt.MapClaims) { c["exp"] = fixedNow.Add(-time.Minute).Unix() }, testSecret},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "other" }, testSecret},
		{"wrong secret", func(jwt.MapClaims) {}, "nope"},
		{"dest not a shop", func(c jwt.MapClaims) { c["dest"] = "https://evil.example.com" }, testSecret},
		{"issuer mismatch", func(c jwt.MapClaims) { c["iss"] = "https://other.myshopify.com/admin" }, testSecret},
		{"missing exp", func(c jwt.MapClaims) { delete(c, "exp") }, testSecret},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := baseClaims()
			tc.mutate(claims)
			token := sign(t, jwt.SigningMethodHS256, []byte(tc.secret), claims)

			_, err := newVerifier().Verify(token)
			require.Error(t, err)
			assert.True(t, commonerrors.IsCategory(err, commonerrors.CategoryUnauthorized))
		})
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS512, []byte(testSecret), baseClaims())

	_, err := newVerifier().Verify(token)
	assert.ErrorIs(t, err, commonerrors.ErrInvalidTokenSigningMethod)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, ok := BearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "Bearer abc.def")
	token, ok := BearerToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)
}

func TestClaimsContext(t *testing.T) {
	ctx := WithClaims(context.Background(), Claims{Shop: "demo.myshopify.com"})
	claims, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "demo.myshopify.com", claims.Shop)
}
