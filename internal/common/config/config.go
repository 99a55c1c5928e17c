package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
)

var (
	ErrMissingRequiredEnv = commonerrors.ErrMissingRequiredEnv
	ErrInvalidConfig      = commonerrors.ErrInvalidConfig
)

type AdminConfig struct {
	HTTPPort                 string
	AppURL                   string
	ShopifyAPIKey            string
	ShopifyAPISecret         string
	ShopifyScopes            []string
	ShopifyAPIVersion        string
	ShopifyTimeout           time.Duration
	DatabaseURL              string
	MongoURI                 string
	MongoDatabase            string
	MongoUsersCollection     string
	TokenEncKey              []byte
	RabbitURL                string
	RabbitExchange           string
	OrdersPageSize           int
	RequestTimeout           time.Duration
	LiveInterval             time.Duration
	LiveMaxConnections       int
	CircuitBreakerThreshold  int32
	CircuitBreakerTimeout    time.Duration
	CircuitBreakerReset      time.Duration
	AppProxyRequireSignature bool
}

type DashboardConfig struct {
	BaseURL       string
	SessionToken  string
	RetryAttempts int
	RetryDelay    time.Duration
	Timeout       time.Duration
}

// LoadDotEnv preloads variables from a .env file when one exists. Variables
// already present in the environment win.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

func LoadAdminConfig(ctx context.Context) (AdminConfig, error) {
	return LoadAdminConfigWith(ctx, lazySSMResolver())
}

func LoadAdminConfigWith(ctx context.Context, secrets SecretResolver) (AdminConfig, error) {
	apiKey, err := mustEnv("SHOPIFY_API_KEY")
	if err != nil {
		return AdminConfig{}, err
	}

	apiSecret, err := mustSecret(ctx, secrets, "SHOPIFY_API_SECRET")
	if err != nil {
		return AdminConfig{}, err
	}

	appURL, err := mustEnv("SHOPIFY_APP_URL")
	if err != nil {
		return AdminConfig{}, err
	}
	if err := validateAppURL(appURL); err != nil {
		return AdminConfig{}, err
	}

	databaseURL, err := mustSecret(ctx, secrets, "DATABASE_URL")
	if err != nil {
		return AdminConfig{}, err
	}

	mongoURI, err := mustSecret(ctx, secrets, "MONGO_URI")
	if err != nil {
		return AdminConfig{}, err
	}

	keyB64, err := mustSecret(ctx, secrets, "TOKEN_ENC_KEY_B64")
	if err != nil {
		return AdminConfig{}, err
	}
	encKey, err := decodeEncKey(keyB64)
	if err != nil {
		return AdminConfig{}, err
	}

	rabbitURL, err := optionalSecret(ctx, secrets, "RABBIT_URL")
	if err != nil {
		return AdminConfig{}, err
	}

	pageSize := getIntEnv("ORDERS_PAGE_SIZE", constants.DefaultOrdersPageSize)
	if pageSize < 1 || pageSize > constants.ShopifyMaxPageSize {
		return AdminConfig{}, ErrInvalidConfig.WithCause(
			fmt.Errorf("ORDERS_PAGE_SIZE must be within 1..%d, got %d", constants.ShopifyMaxPageSize, pageSize),
		)
	}

	port := getEnv("ADMIN_HTTP_PORT", "")
	if port == "" {
		port = getEnv("PORT", constants.DefaultAdminHTTPPort)
	}

	return AdminConfig{
		HTTPPort:                 port,
		AppURL:                   strings.TrimRight(appURL, "/"),
		ShopifyAPIKey:            apiKey,
		ShopifyAPISecret:         apiSecret,
		ShopifyScopes:            splitList(getEnv("SHOPIFY_SCOPES", constants.DefaultShopifyScopes)),
		ShopifyAPIVersion:        getEnv("SHOPIFY_API_VERSION", constants.DefaultShopifyAPIVersion),
		ShopifyTimeout:           getDurationEnv("SHOPIFY_REQUEST_TIMEOUT", constants.DefaultShopifyTimeout),
		DatabaseURL:              databaseURL,
		MongoURI:                 mongoURI,
		MongoDatabase:            getEnv("MONGO_DATABASE", "power"),
		MongoUsersCollection:     getEnv("MONGO_USERS_COLLECTION", "users"),
		TokenEncKey:              encKey,
		RabbitURL:                rabbitURL,
		RabbitExchange:           getEnv("RABBIT_EXCHANGE", constants.DefaultRabbitExchange),
		OrdersPageSize:           pageSize,
		RequestTimeout:           getDurationEnv("ADMIN_REQUEST_TIMEOUT", constants.DefaultAdminRequestTimeout),
		LiveInterval:             getDurationEnv("DASHBOARD_LIVE_INTERVAL", constants.DefaultLiveInterval),
		LiveMaxConnections:       getIntEnv("DASHBOARD_LIVE_MAX_CONNECTIONS", constants.DefaultLiveMaxConnections),
		CircuitBreakerThreshold:  int32(getIntEnv("SHOPIFY_CB_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
		CircuitBreakerTimeout:    getDurationEnv("SHOPIFY_CB_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:      getDurationEnv("SHOPIFY_CB_RESET", constants.DefaultCircuitBreakerReset),
		AppProxyRequireSignature: getBoolEnv("APP_PROXY_REQUIRE_SIGNATURE", false),
	}, nil
}

func LoadDashboardConfig() DashboardConfig {
	return DashboardConfig{
		BaseURL:       strings.TrimRight(getEnv("DASHBOARD_BASE_URL", "http://localhost:"+constants.DefaultAdminHTTPPort), "/"),
		SessionToken:  getEnv("DASHBOARD_SESSION_TOKEN", ""),
		RetryAttempts: getIntEnv("DASHBOARD_RETRY_ATTEMPTS", constants.DashboardRetryAttempts),
		RetryDelay:    getDurationEnv("DASHBOARD_RETRY_DELAY", constants.DashboardRetryDelay),
		Timeout:       getDurationEnv("DASHBOARD_TIMEOUT", constants.DashboardClientTimeout),
	}
}

func validateAppURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return ErrInvalidConfig.WithCause(fmt.Errorf("SHOPIFY_APP_URL must be an absolute http(s) url, got %q", raw))
	}
	return nil
}

func decodeEncKey(b64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, ErrInvalidConfig.WithCause(fmt.Errorf("TOKEN_ENC_KEY_B64: %w", err))
	}
	if len(key) != constants.TokenEncKeySize {
		return nil, ErrInvalidConfig.WithCause(
			fmt.Errorf("TOKEN_ENC_KEY_B64 must decode to %d bytes, got %d", constants.TokenEncKeySize, len(key)),
		)
	}
	return key, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
