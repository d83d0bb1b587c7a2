package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/roamtrails/tours-api/internal/domain"
)

// activeOnly excludes soft-deleted users from every read issued through the
// embedded Collection.
var activeOnly = bson.D{{Key: "active", Value: bson.D{{Key: "$ne", Value: false}}}}

type UserStore struct {
	*Collection[domain.User]
	col *mongo.Collection
}

func NewUserStore(m *Mongo) *UserStore {
	return &UserStore{
		Collection: NewCollection[domain.User](m.db, ColUsers, activeOnly),
		col:        m.col(ColUsers),
	}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	filter := mergeFilter(activeOnly, bson.D{{Key: "email", Value: email}}, nil)
	return findOne[domain.User](ctx, s.col, filter)
}

// FindByResetToken matches the stored reset-token hash with an unexpired
// expiry.
func (s *UserStore) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	filter := mergeFilter(activeOnly, bson.D{
		{Key: "passwordResetToken", Value: tokenHash},
		{Key: "passwordResetExpires", Value: bson.D{{Key: "$gt", Value: now}}},
	}, nil)
	return findOne[domain.User](ctx, s.col, filter)
}

func (s *UserStore) SetResetToken(ctx context.Context, id bson.ObjectID, tokenHash string, expires time.Time) error {
	return s.setFields(ctx, id, bson.M{
		"passwordResetToken":   tokenHash,
		"passwordResetExpires": expires,
	})
}

func (s *UserStore) ClearResetToken(ctx context.Context, id bson.ObjectID) error {
	_, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.M{"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		}})
	return wrapError(err)
}

// SetPassword stores the new hash, stamps passwordChangedAt and clears any
// outstanding reset token in one write.
func (s *UserStore) SetPassword(ctx context.Context, id bson.ObjectID, hash string, changedAt time.Time) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.M{
			"$set": bson.M{
				"password":          hash,
				"passwordChangedAt": changedAt,
			},
			"$unset": bson.M{
				"passwordResetToken":   "",
				"passwordResetExpires": "",
			},
		})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes the user; subsequent reads will not see them.
func (s *UserStore) Deactivate(ctx context.Context, id bson.ObjectID) error {
	return s.setFields(ctx, id, bson.M{"active": false})
}

func (s *UserStore) setFields(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.M{"$set": fields})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByIDs resolves a set of user references, e.g. tour guides.
func (s *UserStore) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	filter := mergeFilter(activeOnly, bson.D{
		{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}},
	}, nil)
	return findMany[domain.User](ctx, s.col, filter)
}
