package db

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/studentdesk/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoDB wraps the client and the application database
type MongoDB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongoDB connects to MongoDB and verifies the primary is reachable
func NewMongoDB(cfg *config.Config) (*MongoDB, error) {
	timeout, err := time.ParseDuration(cfg.Mongo.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mongo connect timeout: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(timeout).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoDB{Client: client, DB: client.Database(cfg.Mongo.Database)}, nil
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// Ping checks the primary is reachable
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// WithinTransaction runs fn inside a session transaction. The ctx handed to fn
// is a mongo.SessionContext, so collection calls made with it join the
// transaction. Transactions require a replica set. The transaction is
// committed or aborted exactly once; nothing is retried.
func (m *MongoDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return fmt.Errorf("failed to start mongo transaction: %w", err)
		}

		defer func() {
			if p := recover(); p != nil {
				_ = sc.AbortTransaction(context.WithoutCancel(sc))
				panic(p)
			}
		}()

		if err := fn(sc); err != nil {
			if abortErr := sc.AbortTransaction(context.WithoutCancel(sc)); abortErr != nil {
				return fmt.Errorf("%w (abort failed: %v)", err, abortErr)
			}
			return err
		}

		if err := sc.CommitTransaction(sc); err != nil {
			return fmt.Errorf("failed to commit mongo transaction: %w", err)
		}
		return nil
	})
}
