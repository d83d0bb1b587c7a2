package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/response"
)

// TourStore is the tour storage surface the handlers use: the generic CRUD
// accessor plus the aggregation reads that bypass it.
type TourStore interface {
	CrudStore[domain.Tour]
	FindBySlug(ctx context.Context, slug string) (*domain.Tour, error)
	Stats(ctx context.Context) ([]domain.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthPlan, error)
}

// ReviewLister resolves the reviews relation a tour detail read expands.
type ReviewLister interface {
	ListByTour(ctx context.Context, tourID bson.ObjectID) ([]domain.Review, error)
}

// UserResolver resolves user references, e.g. tour guides and review
// authors.
type UserResolver interface {
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]domain.User, error)
}

type TourHandlers struct {
	crud    *Crud[domain.Tour]
	tours   TourStore
	reviews ReviewLister
	users   UserResolver
}

// tourDetail is a tour with its declared relations expanded: reviews pulled
// in with their authors, guide references resolved to users.
type tourDetail struct {
	*domain.Tour
	Reviews []domain.ReviewWithAuthor `json:"reviews"`
	Guides  []domain.User             `json:"guides,omitempty"`
}

func NewTourHandlers(tours TourStore, reviews ReviewLister, users UserResolver) *TourHandlers {
	h := &TourHandlers{tours: tours, reviews: reviews, users: users}
	h.crud = NewCrud(CrudConfig[domain.Tour]{
		Store:  tours,
		Decode: decodeTour,
		Patch:  patchTour,
		Expand: h.expandTour,
	})
	return h
}

func (h *TourHandlers) Create(w http.ResponseWriter, r *http.Request) { h.crud.Create(w, r) }
func (h *TourHandlers) GetOne(w http.ResponseWriter, r *http.Request) { h.crud.GetOne(w, r) }
func (h *TourHandlers) GetAll(w http.ResponseWriter, r *http.Request) { h.crud.GetAll(w, r) }
func (h *TourHandlers) Update(w http.ResponseWriter, r *http.Request) { h.crud.Update(w, r) }
func (h *TourHandlers) Delete(w http.ResponseWriter, r *http.Request) { h.crud.Delete(w, r) }

// GetTopCheap presets the list query to the five cheapest, best-rated tours.
func (h *TourHandlers) GetTopCheap(w http.ResponseWriter, r *http.Request) {
	preset := url.Values{
		"limit":  {"5"},
		"sort":   {"price,-ratingsAverage"},
		"fields": {"price,name,difficulty,ratingsAverage,summary"},
	}
	r2 := r.Clone(r.Context())
	r2.URL = &url.URL{Path: r.URL.Path, RawQuery: preset.Encode()}
	h.crud.GetAll(w, r2)
}

func (h *TourHandlers) GetBySlug(w http.ResponseWriter, r *http.Request) {
	tour, err := h.tours.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	detail, err := h.expandTour(r.Context(), tour)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, detail)
}

func (h *TourHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, stats)
}

func (h *TourHandlers) GetMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		verr := domain.NewValidationError()
		verr.Add("year", "year must be a number")
		response.Error(w, r, verr)
		return
	}

	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	results := int64(len(plan))
	response.JSON(w, http.StatusOK, response.Envelope{
		Status:  response.StatusSuccess,
		Data:    plan,
		Results: &results,
	})
}

func (h *TourHandlers) expandTour(ctx context.Context, tour *domain.Tour) (interface{}, error) {
	reviews, err := h.reviews.ListByTour(ctx, tour.ID)
	if err != nil {
		return nil, err
	}

	withAuthors, err := h.attachAuthors(ctx, reviews)
	if err != nil {
		return nil, err
	}

	detail := &tourDetail{Tour: tour, Reviews: withAuthors}
	if len(tour.Guides) > 0 {
		guides, err := h.users.FindByIDs(ctx, tour.Guides)
		if err != nil {
			return nil, err
		}
		detail.Guides = guides
	}
	return detail, nil
}

// attachAuthors resolves each review's user reference to a name and photo.
// Reviews by since-deactivated users keep a nil author.
func (h *TourHandlers) attachAuthors(ctx context.Context, reviews []domain.Review) ([]domain.ReviewWithAuthor, error) {
	ids := make([]bson.ObjectID, 0, len(reviews))
	seen := make(map[bson.ObjectID]bool, len(reviews))
	for _, review := range reviews {
		if !seen[review.User] {
			seen[review.User] = true
			ids = append(ids, review.User)
		}
	}

	authors := make(map[bson.ObjectID]*domain.ReviewAuthor, len(ids))
	if len(ids) > 0 {
		users, err := h.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range users {
			authors[users[i].ID] = &domain.ReviewAuthor{
				ID:    users[i].ID,
				Name:  users[i].Name,
				Photo: users[i].Photo,
			}
		}
	}

	withAuthors := make([]domain.ReviewWithAuthor, len(reviews))
	for i, review := range reviews {
		withAuthors[i] = domain.ReviewWithAuthor{Review: review, Author: authors[review.User]}
	}
	return withAuthors, nil
}

func decodeTour(r *http.Request) (*domain.Tour, error) {
	var tour domain.Tour
	if err := decodeJSON(r, &tour); err != nil {
		return nil, err
	}
	tour.Normalize()
	if err := tour.Validate(); err != nil {
		return nil, err
	}
	return &tour, nil
}

// Fields an update may touch; everything else in the payload is dropped.
var allowedTourFields = map[string]bool{
	"name":          true,
	"duration":      true,
	"maxGroupSize":  true,
	"difficulty":    true,
	"price":         true,
	"priceDiscount": true,
	"summary":       true,
	"description":   true,
	"imageCover":    true,
	"images":        true,
	"startDates":    true,
	"startLocation": true,
	"locations":     true,
	"guides":        true,
	"secretTour":    true,
}

func patchTour(r *http.Request) (bson.M, error) {
	var payload map[string]interface{}
	if err := decodeJSON(r, &payload); err != nil {
		return nil, err
	}

	patch := bson.M{}
	for key, value := range payload {
		if allowedTourFields[key] {
			patch[key] = value
		}
	}

	verr := domain.NewValidationError()
	if name, ok := patch["name"].(string); ok {
		if len(name) < 5 || len(name) > 40 {
			verr.Add("name", "name must be between 5 and 40 characters")
		}
		patch["slug"] = domain.Slugify(name)
	}
	if difficulty, ok := patch["difficulty"].(string); ok && !domain.Difficulty(difficulty).Valid() {
		verr.Add("difficulty", "difficulty must be either easy, medium or difficult")
	}
	if price, ok := patch["price"].(float64); ok && price < 1 {
		verr.Add("price", "price must be at least 1")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		verr.Add("body", "no updatable fields in payload")
		return nil, verr
	}

	return patch, nil
}
