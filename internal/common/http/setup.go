package http

import (
	"net/http"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/httpmetrics"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
)

func BuildBaseHandler(appName string, log *logger.Logger, isValidShop func(string) bool, handler http.Handler) http.Handler {
	metrics := httpmetrics.New(appName)
	recovery := RecoveryMiddleware(log)
	traceID := TraceIDMiddleware
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	securityHeaders := SecurityHeadersMiddleware
	csp := EmbeddedCSPMiddleware(isValidShop)

	return securityHeaders(csp(traceID(recovery(maxRequestSize(metrics.Wrap(handler))))))
}
