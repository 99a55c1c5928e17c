package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/config"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/db"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/mongodb"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/server"
	"github.com/AlibekovAA/shop-dash/backend/internal/messaging/rabbitmq"
)

// EventPublisher is the broker side of the admin process. It is a
// NoopPublisher when no broker is configured.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// AdminApp holds the process-wide connections of the admin backend.
type AdminApp struct {
	Log    *logger.Logger
	Config config.AdminConfig
	Pool   *pgxpool.Pool
	Mongo  *mongodb.Connector
	Events EventPublisher
}

// NewAdminApp loads configuration and opens every backing store. Postgres
// migrations run before the pool is handed out.
func NewAdminApp(ctx context.Context) (*AdminApp, error) {
	config.LoadDotEnv()

	log, err := initializeLogger("admin")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadAdminConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := db.Migrate(ctx, log, cfg.DatabaseURL); err != nil {
		return nil, err
	}
	pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)

	mongo := mongodb.NewConnector(cfg.MongoURI, cfg.MongoDatabase, log)
	if err := mongo.Connect(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	var events EventPublisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.Dial(ctx, cfg.RabbitURL, cfg.RabbitExchange, log)
		if err != nil {
			// Registry events are best-effort; the admin keeps serving.
			log.Warnf("rabbitmq unavailable, registry events disabled: %v", err)
		} else {
			events = pub
		}
	} else {
		log.Infof("RABBIT_URL not set, registry events disabled")
	}

	return &AdminApp{
		Log:    log,
		Config: cfg,
		Pool:   pool,
		Mongo:  mongo,
		Events: events,
	}, nil
}

// ShutdownHooks closes the broker first and the databases last.
func (a *AdminApp) ShutdownHooks(extra ...server.ShutdownHook) []server.ShutdownHook {
	hooks := append([]server.ShutdownHook{}, extra...)
	return append(hooks,
		func(context.Context) error {
			return a.Events.Close()
		},
		func(ctx context.Context) error {
			return a.Mongo.Disconnect(ctx)
		},
		func(context.Context) error {
			a.Pool.Close()
			return nil
		},
	)
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}
