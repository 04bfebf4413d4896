package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
)

const (
	collectionSimulations    = "simulations"
	collectionParcels        = "parcels"
	collectionTransports     = "transports"
	collectionAgencies       = "agencies"
	collectionAgencyClients  = "agency_clients"
	collectionTariffs        = "tariffs"
	collectionTrackingEvents = "tracking_events"
	collectionUsers          = "users"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided. Transactions need the server to run as a
// replica set.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the indexes every repository relies on, including the
// unique constraints behind idempotent writes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		collectionSimulations: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "tracking_number", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		collectionParcels: {
			{Keys: bson.D{{Key: "simulation_id", Value: 1}, {Key: "position", Value: 1}}},
		},
		collectionTransports: {
			{Keys: bson.D{{Key: "is_available", Value: 1}}},
		},
		collectionAgencies: {
			{Keys: bson.D{{Key: "country", Value: 1}, {Key: "city", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionAgencyClients: {
			{Keys: bson.D{{Key: "agency_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionTariffs: {
			{Keys: bson.D{{Key: "updated_at", Value: -1}}},
		},
		collectionTrackingEvents: {
			{Keys: bson.D{{Key: "simulation_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
		},
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}

// exists reports whether a document with id is present in col.
func exists(ctx context.Context, col *mongo.Collection, id string) (bool, error) {
	err := col.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
