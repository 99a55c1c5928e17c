package constants

import "time"

const (
	FullNameMaxLength  = 120
	PhoneMaxLength     = 32
	PasswordMinLength  = 6
	PasswordMaxLength  = 72
	EmailMaxLength     = 254
	BcryptCost         = 12
	OAuthStateSize     = 24
	TokenEncKeySize    = 32
	SampleProductCount = 5

	DefaultMaxRequestSize = 1 << 20

	ShopifyMaxPageSize        = 250
	DefaultOrdersPageSize     = 250
	RecentOrdersLimit         = 50
	RecentOrderLineItemsLimit = 10
	ProductListLimit          = 10
	RegisteredUsersListLimit  = 100

	DefaultShopifyAPIVersion = "2025-01"
	DefaultShopifyScopes     = "read_products,write_products,read_orders"
	DefaultShopifyTimeout    = 20 * time.Second

	OAuthStateTTL             = 10 * time.Minute
	OAuthStateCleanupInterval = 15 * time.Minute

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBMigrationTimeout    = 1 * time.Minute

	MongoConnectTimeout = 10 * time.Second
	MongoPingTimeout    = 2 * time.Second
	MongoMaxAttempts    = 5
	MongoRetryDelay     = 1 * time.Second

	RabbitPublishTimeout  = 2 * time.Second
	RabbitPublishWait     = 150 * time.Millisecond
	DefaultRabbitExchange = "shopdash.events"

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 60 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAdminHTTPPort       = "3000"
	DefaultAdminRequestTimeout = 30 * time.Second

	DefaultCircuitBreakerThreshold = 20
	DefaultCircuitBreakerTimeout   = 25 * time.Second
	DefaultCircuitBreakerReset     = 30 * time.Second

	DashboardRetryAttempts = 2
	DashboardRetryDelay    = 2 * time.Second
	DashboardClientTimeout = 60 * time.Second

	DefaultLiveInterval       = 30 * time.Second
	DefaultLiveMaxConnections = 200
	WebSocketWriteWait        = 10 * time.Second
	WebSocketPongWait         = 60 * time.Second
	WebSocketPingPeriod       = (WebSocketPongWait * 9) / 10
	WebSocketMaxMessageSize   = 4 * 1024
	WebSocketReadBufferSize   = 1024
	WebSocketWriteBufferSize  = 4096

	RateLimitCleanupInterval          = 5 * time.Minute
	RateLimitGeneralRequestsPerSecond = 20
	RateLimitGeneralBurst             = 40
	RateLimitIntakeRequestsPerSecond  = 0.5
	RateLimitIntakeBurst              = 5
	RateLimitInstallRequestsPerSecond = 1
	RateLimitInstallBurst             = 10
	RateLimitWebhookRequestsPerSecond = 50
	RateLimitWebhookBurst             = 100

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
	DefaultLogDir    = "/var/log/shop-dash"
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
