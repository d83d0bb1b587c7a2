package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roamtrails/tours-api/internal/domain"
)

// Collection is the generic storage accessor the CRUD handler factory is
// parameterized over: find-by-id, find-many, create, update-by-id,
// delete-by-id and count over one resource collection. A standing base filter
// scopes every read (used for the user soft-delete rule).
type Collection[T any] struct {
	col  *mongo.Collection
	base bson.D
}

func NewCollection[T any](db *mongo.Database, name string, base bson.D) *Collection[T] {
	return &Collection[T]{col: db.Collection(name), base: base}
}

// Create inserts the document and reads it back, so callers see exactly what
// was stored, generated id included.
func (c *Collection[T]) Create(ctx context.Context, doc *T) (*T, error) {
	oid, err := insertOne(ctx, c.col, doc)
	if err != nil {
		return nil, err
	}
	return findOne[T](ctx, c.col, bson.D{{Key: "_id", Value: oid}})
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	filter := mergeFilter(c.base, bson.D{{Key: "_id", Value: oid}}, nil)
	return findOne[T](ctx, c.col, filter)
}

func (c *Collection[T]) FindOne(ctx context.Context, scope bson.D) (*T, error) {
	return findOne[T](ctx, c.col, mergeFilter(c.base, scope, nil))
}

// FindMany executes the list query: base filter, caller scope, then the
// query-feature refinements.
func (c *Collection[T]) FindMany(ctx context.Context, scope bson.D, f *Features) ([]T, error) {
	filter := mergeFilter(c.base, scope, f.Filter())
	return findMany[T](ctx, c.col, filter, f.FindOptions())
}

// Count sizes the scoped set for total-result metadata. It runs separately
// from FindMany, with no consistency guarantee between the two.
func (c *Collection[T]) Count(ctx context.Context, scope bson.D) (int64, error) {
	total, err := c.col.CountDocuments(ctx, mergeFilter(c.base, scope, nil))
	if err != nil {
		return 0, wrapError(err)
	}
	return total, nil
}

// UpdateByID merges the patch into the stored document, returning the updated
// state.
func (c *Collection[T]) UpdateByID(ctx context.Context, id string, patch bson.M) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	filter := mergeFilter(c.base, bson.D{{Key: "_id", Value: oid}}, nil)
	res := c.col.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": patch},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated T
	if err := res.Decode(&updated); err != nil {
		return nil, wrapError(err)
	}
	return &updated, nil
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	res, err := c.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
