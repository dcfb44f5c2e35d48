package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultTimeout bounds connect+ping when the caller passes no timeout.
const DefaultTimeout = 10 * time.Second

// ConnectMongo opens a connection and verifies it with a ping. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo connect: empty URI")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetAppName("dataharvester-schema-init")
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// OpenDatabase connects and returns the named database together with a
// function releasing the connection.
func OpenDatabase(ctx context.Context, uri, name string, timeout time.Duration) (*mongo.Database, func(), error) {
	if name == "" {
		return nil, nil, fmt.Errorf("mongo: database name is required")
	}
	client, err := ConnectMongo(ctx, uri, timeout)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = client.Disconnect(dctx)
	}
	return client.Database(name), closeFn, nil
}
