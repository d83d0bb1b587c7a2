package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roamtrails/tours-api/internal/domain"
)

type ReviewStore struct {
	*Collection[domain.Review]
	col *mongo.Collection
}

func NewReviewStore(m *Mongo) *ReviewStore {
	return &ReviewStore{
		Collection: NewCollection[domain.Review](m.db, ColReviews, nil),
		col:        m.col(ColReviews),
	}
}

// ListByTour returns every review on the tour, newest first.
func (s *ReviewStore) ListByTour(ctx context.Context, tourID bson.ObjectID) ([]domain.Review, error) {
	return findMany[domain.Review](ctx, s.col,
		bson.D{{Key: "tour", Value: tourID}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// ratingStats is the recompute aggregate over one tour's reviews.
type ratingStats struct {
	Quantity int     `bson:"numberOfRatings"`
	Average  float64 `bson:"avgRating"`
}

// RatingStats computes the mean and count over all reviews of the tour.
// ok is false when the tour has no reviews left.
func (s *ReviewStore) RatingStats(ctx context.Context, tourID bson.ObjectID) (average float64, quantity int, ok bool, err error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "tour", Value: tourID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tour"},
			{Key: "numberOfRatings", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}

	stats, err := aggregate[ratingStats](ctx, s.col, pipeline)
	if err != nil {
		return 0, 0, false, err
	}
	if len(stats) == 0 {
		return 0, 0, false, nil
	}
	return stats[0].Average, stats[0].Quantity, true, nil
}
