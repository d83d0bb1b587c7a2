package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/middleware"
	"github.com/roamtrails/tours-api/internal/http/response"
	"github.com/roamtrails/tours-api/internal/service"
	"github.com/roamtrails/tours-api/pkg/config"
)

type BookingHandlers struct {
	crud     *Crud[domain.Booking]
	store    CrudStore[domain.Booking]
	bookings service.BookingService
	config   *config.Config
}

func NewBookingHandlers(bookings service.BookingService, bookingStore CrudStore[domain.Booking], config *config.Config) *BookingHandlers {
	h := &BookingHandlers{bookings: bookings, store: bookingStore, config: config}
	h.crud = NewCrud(CrudConfig[domain.Booking]{
		Store: bookingStore,
	})
	return h
}

// Admin surface.
func (h *BookingHandlers) GetAll(w http.ResponseWriter, r *http.Request) { h.crud.GetAll(w, r) }
func (h *BookingHandlers) GetOne(w http.ResponseWriter, r *http.Request) { h.crud.GetOne(w, r) }
func (h *BookingHandlers) Delete(w http.ResponseWriter, r *http.Request) { h.crud.Delete(w, r) }

// GetCheckoutSession opens a payment session for the tour in the path and
// returns its id and redirect URL.
func (h *BookingHandlers) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	session, err := h.bookings.CheckoutSession(r.Context(), user, chi.URLParam(r, "tourID"), requestOrigin(r, h.config))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, session)
}

func (h *BookingHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	booking, err := h.bookings.Create(r.Context(), &req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, booking)
}

// GetMine lists the authenticated user's bookings.
func (h *BookingHandlers) GetMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	mine := NewCrud(CrudConfig[domain.Booking]{
		Store: h.store,
		Scope: func(*http.Request) (bson.D, error) {
			return bson.D{{Key: "user", Value: user.ID}}, nil
		},
	})
	mine.GetAll(w, r)
}
