package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/roamtrails/tours-api/internal/domain"
)

type TourStore struct {
	*Collection[domain.Tour]
	col *mongo.Collection
}

func NewTourStore(m *Mongo) *TourStore {
	return &TourStore{
		Collection: NewCollection[domain.Tour](m.db, ColTours, notSecret),
		col:        m.col(ColTours),
	}
}

func (s *TourStore) FindBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	filter := mergeFilter(notSecret, bson.D{{Key: "slug", Value: slug}}, nil)
	return findOne[domain.Tour](ctx, s.col, filter)
}

// notSecret keeps secret tours out of regular reads and aggregate reports.
var notSecret = bson.D{{Key: "secretTour", Value: bson.D{{Key: "$ne", Value: true}}}}

// Stats groups rating and price figures by difficulty tier, restricted to
// tours rated 4.4 and above.
func (s *TourStore) Stats(ctx context.Context) ([]domain.TourStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: notSecret}},
		{{Key: "$match", Value: bson.D{
			{Key: "ratingsAverage", Value: bson.D{{Key: "$gte", Value: 4.4}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toUpper", Value: "$difficulty"}}},
			{Key: "numTours", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "numRatings", Value: bson.D{{Key: "$sum", Value: "$ratingsQuantity"}}},
			{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$ratingsAverage"}}},
			{Key: "avgPrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "minPrice", Value: bson.D{{Key: "$min", Value: "$price"}}},
			{Key: "maxPrice", Value: bson.D{{Key: "$max", Value: "$price"}}},
		}}},
	}
	return aggregate[domain.TourStats](ctx, s.col, pipeline)
}

// MonthlyPlan counts tour starts per month within the given year, busiest
// month first, at most twelve buckets.
func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: notSecret}},
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.D{
			{Key: "startDates", Value: bson.D{
				{Key: "$gte", Value: from},
				{Key: "$lte", Value: to},
			}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$month", Value: "$startDates"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "tours", Value: bson.D{{Key: "$push", Value: "$name"}}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "month", Value: "$_id"}}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: 12}},
	}
	return aggregate[domain.MonthPlan](ctx, s.col, pipeline)
}

// SetRatings writes the recomputed rating aggregate onto the tour.
func (s *TourStore) SetRatings(ctx context.Context, tourID bson.ObjectID, average float64, quantity int) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: tourID}},
		bson.M{"$set": bson.M{
			"ratingsAverage":  average,
			"ratingsQuantity": quantity,
		}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
