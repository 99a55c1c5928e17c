package commonerrors

import "net/http"

var (
	ErrMissingRequiredEnv = NewDomainError(
		"MISSING_REQUIRED_ENV",
		CategoryValidation,
		http.StatusInternalServerError,
		"missing required environment variable",
	)

	ErrInvalidConfig = NewDomainError(
		"INVALID_CONFIG",
		CategoryValidation,
		http.StatusInternalServerError,
		"invalid configuration value",
	)

	ErrInvalidPayload = NewValidationError(
		"INVALID_PAYLOAD",
		"invalid payload",
	)

	ErrMissingSession = NewDomainError(
		"MISSING_SESSION",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"missing or expired session",
	)

	ErrInvalidToken = NewDomainError(
		"INVALID_TOKEN",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"token is not valid",
	)

	ErrInvalidTokenSigningMethod = NewDomainError(
		"INVALID_TOKEN_SIGNING_METHOD",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid token signing method",
	)

	ErrInvalidTokenClaims = NewDomainError(
		"INVALID_TOKEN_CLAIMS",
		CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid token claims",
	)

	ErrInvalidSignature = NewDomainError(
		"INVALID_SIGNATURE",
		CategoryAuth,
		http.StatusUnauthorized,
		"request signature is not valid",
	)

	ErrRateLimited = NewDomainError(
		"RATE_LIMITED",
		CategoryRateLimit,
		http.StatusTooManyRequests,
		"rate limit exceeded",
	)

	ErrCircuitOpen = NewUpstreamError(
		"CIRCUIT_OPEN",
		"upstream is unavailable, circuit breaker is open",
	)

	ErrUpstream = NewUpstreamError(
		"UPSTREAM_ERROR",
		"upstream request failed",
	)

	ErrUpstreamTimeout = NewDomainError(
		"UPSTREAM_TIMEOUT",
		CategoryUpstream,
		http.StatusGatewayTimeout,
		"upstream request timed out",
	)

	ErrDatabaseError = NewDomainError(
		"DATABASE_ERROR",
		CategoryInternal,
		http.StatusInternalServerError,
		"database operation failed",
	)

	ErrInternalError = NewDomainError(
		"INTERNAL_ERROR",
		CategoryInternal,
		http.StatusInternalServerError,
		"internal server error",
	)
)
