// Package store is the MongoDB data layer. Collection names and indexes are
// managed in one place here; resource stores share the generic helpers in
// helpers.go and the Collection accessor in collection.go.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roamtrails/tours-api/pkg/logger"
)

const (
	ColTours    = "tours"
	ColUsers    = "users"
	ColReviews  = "reviews"
	ColBookings = "bookings"
)

type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("store: ping failed: %w", err)
	}

	m := &Mongo{client: client, db: client.Database(dbName)}

	if err := m.ensureIndexes(ctx); err != nil {
		logger.Warn("store: ensure indexes failed", "error", err)
	}

	return m, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Database() *mongo.Database {
	return m.db
}

func (m *Mongo) col(name string) *mongo.Collection {
	return m.db.Collection(name)
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColTours, bson.D{{Key: "name", Value: 1}}, true},
		{ColTours, bson.D{{Key: "slug", Value: 1}}, false},
		{ColTours, bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}, false},

		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},

		// one review per (tour, user) pair
		{ColReviews, bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}}, true},
		{ColReviews, bson.D{{Key: "createdAt", Value: -1}}, false},

		{ColBookings, bson.D{{Key: "user", Value: 1}}, false},
		{ColBookings, bson.D{{Key: "tour", Value: 1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := m.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("index on %s: %w", i.col, err)
		}
	}
	return nil
}
