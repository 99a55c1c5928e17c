package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/bootstrap"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/shop-dash/backend/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/shop-dash/backend/internal/common/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/jwtverify"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/resilience"
	srv "github.com/AlibekovAA/shop-dash/backend/internal/common/server"
	"github.com/AlibekovAA/shop-dash/backend/internal/dashboard/live"
	sessioncleanup "github.com/AlibekovAA/shop-dash/backend/internal/session/cleanup"
	sessionhttp "github.com/AlibekovAA/shop-dash/backend/internal/session/http"
	sessionrepo "github.com/AlibekovAA/shop-dash/backend/internal/session/repository"
	sessionservice "github.com/AlibekovAA/shop-dash/backend/internal/session/service"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
	storehttp "github.com/AlibekovAA/shop-dash/backend/internal/store/http"
	storeservice "github.com/AlibekovAA/shop-dash/backend/internal/store/service"
	userhttp "github.com/AlibekovAA/shop-dash/backend/internal/user/http"
	userrepo "github.com/AlibekovAA/shop-dash/backend/internal/user/repository"
	userservice "github.com/AlibekovAA/shop-dash/backend/internal/user/service"
	webhookhttp "github.com/AlibekovAA/shop-dash/backend/internal/webhook/http"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewAdminApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "admin: %v\n", err)
		os.Exit(1)
	}
	log, cfg := app.Log, app.Config

	cipher, err := commoncrypto.NewAESGCMCipher(cfg.TokenEncKey)
	if err != nil {
		log.Fatalf("failed to initialize token cipher: %v", err)
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  cfg.CircuitBreakerThreshold,
		Timeout:    cfg.CircuitBreakerTimeout,
		ResetAfter: cfg.CircuitBreakerReset,
		Name:       "shopify",
		IsFailure:  shopify.IsBreakerFailure,
		Logger:     log,
	})
	shopifyClient := shopify.NewClient(shopify.ClientConfig{
		APIVersion: cfg.ShopifyAPIVersion,
		Timeout:    cfg.ShopifyTimeout,
		Breaker:    breaker,
	}, log)
	executors := func(shop, accessToken string) shopify.Executor {
		return shopifyClient.ForShop(shop, accessToken)
	}

	sessions := sessionrepo.NewPgRepository(app.Pool, cipher, log)
	sessionSvc := sessionservice.NewService(
		sessions,
		sessions,
		jwtverify.NewVerifier(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, shopify.IsValidShopDomain),
		shopify.NewOAuthClient(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, cfg.ShopifyTimeout),
		shopify.NewUninstallRegistrar(shopifyClient, cfg.AppURL+"/api/webhooks"),
		sessionservice.Config{
			APIKey:    cfg.ShopifyAPIKey,
			APISecret: cfg.ShopifyAPISecret,
			Scopes:    cfg.ShopifyScopes,
			AppURL:    cfg.AppURL,
		},
		log,
	)

	users := userrepo.NewMongoRepository(app.Mongo, cfg.MongoUsersCollection, log)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure registry indexes: %v", err)
	}
	registry := userservice.NewRegistryService(users, app.Events, log)

	storeSvc := storeservice.NewStoreService(storeservice.Config{OrdersPageSize: cfg.OrdersPageSize}, log)

	sessionHandler := sessionhttp.NewHandler(sessionSvc, log)
	webhookHandler := webhookhttp.NewHandler(sessionSvc, cfg.ShopifyAPISecret, log)
	userHandler := userhttp.NewHandler(registry, userhttp.ProxyConfig{
		APISecret:        cfg.ShopifyAPISecret,
		RequireSignature: cfg.AppProxyRequireSignature,
	}, log)
	storeHandler := storehttp.NewHandler(storeSvc, executors, log)
	liveHandler := live.NewHandler(sessionSvc, storeSvc.Summary, executors, live.Config{
		Interval:        cfg.LiveInterval,
		MaxConnections:  cfg.LiveMaxConnections,
		SnapshotTimeout: cfg.RequestTimeout,
	}, log)

	errs := commonhttp.NewErrorHandler(log)
	strictLimiter := commonhttp.NewStrictRateLimiter()
	shopLimiter := commonhttp.NewRateLimiter(constants.RateLimitGeneralRequestsPerSecond, constants.RateLimitGeneralBurst)

	r := chi.NewRouter()
	r.NotFound(commonhttp.NotFoundHandler)
	r.MethodNotAllowed(commonhttp.MethodNotAllowedHandler)
	r.Use(strictLimiter.Middleware)

	r.Get("/health", commonhttp.HealthHandler(log, map[string]commonhttp.HealthCheck{
		"postgres": app.Pool.Ping,
		"mongo":    app.Mongo.Ping,
	}))
	r.Handle("/metrics", promhttp.Handler())

	sessionHandler.Routes(r)
	webhookHandler.Routes(r)
	userHandler.PublicRoutes(r)
	liveHandler.Routes(r)

	r.Group(func(r chi.Router) {
		r.Use(sessionhttp.RequireSession(sessionSvc, errs))
		r.Use(commonhttp.WithTimeout(cfg.RequestTimeout))
		r.Use(shopLimiter.Middleware("shop", sessionhttp.ShopKey))

		storeHandler.Routes(r)
		userHandler.Routes(r)
	})

	go sessioncleanup.StartStateCleanup(ctx, sessions, log, constants.OAuthStateCleanupInterval)
	go sessioncleanup.StartLimiterSweep(ctx, strictLimiter, log, constants.RateLimitCleanupInterval)
	go sessioncleanup.StartLimiterSweep(ctx, shopLimiter, log, constants.RateLimitCleanupInterval)

	handler := commonhttp.BuildBaseHandler("admin", log, shopify.IsValidShopDomain, r)
	server := srv.NewServer(srv.DefaultServerConfig(cfg.HTTPPort), handler)

	hooks := app.ShutdownHooks(func(context.Context) error {
		log.Infof("admin service: stopping background loops")
		cancel()
		return nil
	})

	if err := srv.StartWithGracefulShutdownAndHooks(server, log, "admin", hooks); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
