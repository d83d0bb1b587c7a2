package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/store"
	"github.com/roamtrails/tours-api/pkg/events"
	"github.com/roamtrails/tours-api/pkg/logger"
)

// Rating defaults applied when a tour has no reviews left.
const (
	defaultRatingsAverage  = 4.5
	defaultRatingsQuantity = 0
)

type ReviewStore interface {
	Create(ctx context.Context, review *domain.Review) (*domain.Review, error)
	FindByID(ctx context.Context, id string) (*domain.Review, error)
	UpdateByID(ctx context.Context, id string, patch bson.M) (*domain.Review, error)
	DeleteByID(ctx context.Context, id string) error
	RatingStats(ctx context.Context, tourID bson.ObjectID) (average float64, quantity int, ok bool, err error)
}

type TourRatingStore interface {
	FindByID(ctx context.Context, id string) (*domain.Tour, error)
	SetRatings(ctx context.Context, tourID bson.ObjectID, average float64, quantity int) error
}

type ReviewService interface {
	Create(ctx context.Context, author *domain.User, tourID string, req *domain.CreateReviewRequest) (*domain.Review, error)
	Update(ctx context.Context, actor *domain.User, id string, req *domain.UpdateReviewRequest) (*domain.Review, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
	RecomputeTourRatings(ctx context.Context, tourID string) error
}

type reviewService struct {
	reviews ReviewStore
	tours   TourRatingStore
	bus     events.Publisher
}

func NewReviewService(reviews ReviewStore, tours TourRatingStore, bus events.Publisher) ReviewService {
	return &reviewService{reviews: reviews, tours: tours, bus: bus}
}

// Create stores a review for the tour named either by the nested route or the
// request body. The parent tour's rating aggregate is refreshed asynchronously
// after the write; readers may briefly observe the previous value.
func (s *reviewService) Create(ctx context.Context, author *domain.User, tourID string, req *domain.CreateReviewRequest) (*domain.Review, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if tourID == "" {
		tourID = req.TourID
	}
	tour, err := s.tours.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		Review:    req.Review,
		Rating:    req.Rating,
		Tour:      tour.ID,
		User:      author.ID,
		CreatedAt: time.Now(),
	}

	created, err := s.reviews.Create(ctx, review)
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, events.ReviewCreated, created.Tour, created.ID)
	return created, nil
}

func (s *reviewService) Update(ctx context.Context, actor *domain.User, id string, req *domain.UpdateReviewRequest) (*domain.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, review) {
		return nil, domain.ErrForbidden
	}

	patch := bson.M{}
	if req.Review != nil {
		patch["review"] = *req.Review
	}
	if req.Rating != nil {
		patch["rating"] = *req.Rating
	}
	if len(patch) == 0 {
		return review, nil
	}

	updated, err := s.reviews.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, events.ReviewUpdated, updated.Tour, updated.ID)
	return updated, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *domain.User, id string) error {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, review) {
		return domain.ErrForbidden
	}

	if err := s.reviews.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.publishChange(ctx, events.ReviewDeleted, review.Tour, review.ID)
	return nil
}

// RecomputeTourRatings refreshes the tour's rating aggregate from the mean
// and count over its remaining reviews; with none left the schema defaults
// are restored.
func (s *reviewService) RecomputeTourRatings(ctx context.Context, tourID string) error {
	oid, err := store.ParseID(tourID)
	if err != nil {
		return err
	}

	average, quantity, ok, err := s.reviews.RatingStats(ctx, oid)
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings for tour %s: %w", tourID, err)
	}
	if !ok {
		average, quantity = defaultRatingsAverage, defaultRatingsQuantity
	}

	return s.tours.SetRatings(ctx, oid, average, quantity)
}

func (s *reviewService) publishChange(ctx context.Context, subject string, tourID, reviewID bson.ObjectID) {
	if s.bus == nil {
		return
	}
	event := events.ReviewChangedEvent{
		TourID:     tourID.Hex(),
		ReviewID:   reviewID.Hex(),
		OccurredAt: time.Now(),
	}
	if err := s.bus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish review event",
			"subject", subject, "tour_id", event.TourID, "error", err)
	}
}

func canModify(actor *domain.User, review *domain.Review) bool {
	return actor.Role == domain.RoleAdmin || review.User == actor.ID
}
