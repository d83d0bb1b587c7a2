package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/middleware"
	"github.com/roamtrails/tours-api/internal/http/response"
	"github.com/roamtrails/tours-api/internal/service"
	"github.com/roamtrails/tours-api/internal/store"
)

type ReviewHandlers struct {
	crud    *Crud[domain.Review]
	store   CrudStore[domain.Review]
	reviews service.ReviewService
}

func NewReviewHandlers(reviews service.ReviewService, reviewStore CrudStore[domain.Review]) *ReviewHandlers {
	h := &ReviewHandlers{reviews: reviews, store: reviewStore}
	h.crud = NewCrud(CrudConfig[domain.Review]{
		Store: reviewStore,
		Scope: reviewScope,
	})
	return h
}

// reviewScope narrows list reads to the tour in the path when the route is
// nested under /tours/{tourID}/reviews.
func reviewScope(r *http.Request) (bson.D, error) {
	tourID := chi.URLParam(r, "tourID")
	if tourID == "" {
		return nil, nil
	}
	oid, err := store.ParseID(tourID)
	if err != nil {
		return nil, err
	}
	return bson.D{{Key: "tour", Value: oid}}, nil
}

func (h *ReviewHandlers) GetAll(w http.ResponseWriter, r *http.Request) { h.crud.GetAll(w, r) }
func (h *ReviewHandlers) GetOne(w http.ResponseWriter, r *http.Request) { h.crud.GetOne(w, r) }

// GetMine lists the reviews written by the authenticated user.
func (h *ReviewHandlers) GetMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	mine := NewCrud(CrudConfig[domain.Review]{
		Store: h.store,
		Scope: func(*http.Request) (bson.D, error) {
			return bson.D{{Key: "user", Value: user.ID}}, nil
		},
	})
	mine.GetAll(w, r)
}

func (h *ReviewHandlers) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	var req domain.CreateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	review, err := h.reviews.Create(r.Context(), user, chi.URLParam(r, "tourID"), &req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, review)
}

func (h *ReviewHandlers) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	var req domain.UpdateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	review, err := h.reviews.Update(r.Context(), user, chi.URLParam(r, "id"), &req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, review)
}

func (h *ReviewHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	if err := h.reviews.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		response.Error(w, r, err)
		return
	}
	response.NoContent(w)
}
