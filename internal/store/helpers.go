package store

import (
	"context"
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roamtrails/tours-api/internal/domain"
)

// dupKeyField pulls the offending field out of a duplicate-key error message,
// e.g. `... dup key: { email: "x@y.com" }`.
var dupKeyField = regexp.MustCompile(`dup key: \{ ([a-zA-Z]+):`)

// wrapError translates driver errors into domain errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		dup := &domain.DuplicateError{Field: "value"}
		if m := dupKeyField.FindStringSubmatch(err.Error()); m != nil {
			dup.Field = m[1]
		}
		return dup
	}
	return err
}

// ParseID converts a path identifier into an ObjectID; a malformed id is a
// client error, not a lookup miss.
func ParseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		verr := domain.NewValidationError()
		verr.Add("id", "invalid identifier")
		return bson.ObjectID{}, verr
	}
	return oid, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D) (*T, error) {
	var result T
	if err := col.FindOne(ctx, filter).Decode(&result); err != nil {
		return nil, wrapError(err)
	}
	return &result, nil
}

func findMany[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func insertOne(ctx context.Context, col *mongo.Collection, doc interface{}) (bson.ObjectID, error) {
	res, err := col.InsertOne(ctx, doc)
	if err != nil {
		return bson.ObjectID{}, wrapError(err)
	}
	oid, _ := res.InsertedID.(bson.ObjectID)
	return oid, nil
}

func aggregate[T any](ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// mergeFilter combines the standing base filter, a caller scope and the
// query-string filter into one document. The parts are joined with $and so a
// query-string key can never shadow a base or scope condition on the same
// field: MongoDB resolves a duplicated top-level key to its last occurrence,
// which would let a crafted query defeat the standing filter.
func mergeFilter(base bson.D, scope bson.D, extra bson.M) bson.D {
	parts := []bson.D{}
	if len(base) > 0 {
		parts = append(parts, base)
	}
	if len(scope) > 0 {
		parts = append(parts, scope)
	}
	if len(extra) > 0 {
		clause := bson.D{}
		for key, value := range extra {
			clause = append(clause, bson.E{Key: key, Value: value})
		}
		parts = append(parts, clause)
	}

	switch len(parts) {
	case 0:
		return bson.D{}
	case 1:
		return parts[0]
	default:
		return bson.D{{Key: "$and", Value: parts}}
	}
}
