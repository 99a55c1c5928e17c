package http

import (
	"fmt"
	"net/http"
)

func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}

// EmbeddedCSPMiddleware lets the Shopify admin frame the app. The shop from the
// query string is added to frame-ancestors only when isValidShop accepts it.
func EmbeddedCSPMiddleware(isValidShop func(string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ancestors := "https://admin.shopify.com"
			if shop := r.URL.Query().Get("shop"); shop != "" && isValidShop != nil && isValidShop(shop) {
				ancestors = fmt.Sprintf("https://%s %s", shop, ancestors)
			}
			w.Header().Set("Content-Security-Policy", "frame-ancestors "+ancestors+";")
			next.ServeHTTP(w, r)
		})
	}
}
