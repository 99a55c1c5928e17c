package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/retry"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
)

var ErrNotConnected = errors.New("mongo client is not connected")

type client interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
	Disconnect(ctx context.Context) error
}

type dialFunc func(ctx context.Context, uri string) (client, error)

// Connector owns the process-wide Mongo client. Every Database call pings
// first and re-establishes the client when the ping fails.
type Connector struct {
	uri      string
	database string
	log      *logger.Logger
	dial     dialFunc
	policy   retry.Policy

	mu     sync.Mutex
	client client
}

func dialMongo(ctx context.Context, uri string) (client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("shop-dash").
		SetConnectTimeout(constants.MongoConnectTimeout).
		SetServerSelectionTimeout(constants.MongoConnectTimeout)

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, constants.MongoPingTimeout)
	defer cancel()
	if err := c.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

func NewConnector(uri, database string, log *logger.Logger) *Connector {
	return &Connector{
		uri:      uri,
		database: database,
		log:      log,
		dial:     dialMongo,
		policy: retry.Policy{
			MaxAttempts:  constants.MongoMaxAttempts,
			InitialDelay: constants.MongoRetryDelay,
			MaxDelay:     constants.MongoRetryDelay,
			Multiplier:   1,
			Retryable:    func(error) bool { return true },
		},
	}
}

// Connect establishes the initial client, retrying a few times so the
// admin process can start before the database is reachable.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := retry.Do(ctx, c.log, "mongo connect", c.policy, func(ctx context.Context) error {
		cl, err := c.dial(ctx, c.uri)
		if err != nil {
			return err
		}
		c.client = cl
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}

	c.log.Infof("mongo connection established: database=%s", c.database)
	return nil
}

func (c *Connector) Database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		pingCtx, cancel := context.WithTimeout(ctx, constants.MongoPingTimeout)
		err := c.client.Ping(pingCtx, readpref.Primary())
		cancel()
		if err == nil {
			return c.client.Database(c.database), nil
		}
		c.log.Warnf("mongo ping failed, reconnecting: %v", err)
		_ = c.client.Disconnect(context.Background())
		c.client = nil
	}

	cl, err := c.dial(ctx, c.uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	c.client = cl
	metrics.MongoReconnectsTotal.Inc()
	c.log.Info("mongo connection re-established")

	return c.client.Database(c.database), nil
}

func (c *Connector) Ping(ctx context.Context) error {
	c.mu.Lock()
	cl := c.client
	c.mu.Unlock()

	if cl == nil {
		return ErrNotConnected
	}
	return cl.Ping(ctx, readpref.Primary())
}

func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}
