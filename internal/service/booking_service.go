package service

import (
	"context"
	"fmt"
	"time"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/payments"
	"github.com/roamtrails/tours-api/internal/store"
	"github.com/roamtrails/tours-api/pkg/events"
	"github.com/roamtrails/tours-api/pkg/logger"
)

type BookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

type TourReader interface {
	FindByID(ctx context.Context, id string) (*domain.Tour, error)
}

type BookingService interface {
	CheckoutSession(ctx context.Context, user *domain.User, tourID, origin string) (*domain.CheckoutSession, error)
	Create(ctx context.Context, req *domain.CreateBookingRequest) (*domain.Booking, error)
}

type bookingService struct {
	bookings BookingStore
	tours    TourReader
	checkout payments.Provider
	bus      events.Publisher
}

func NewBookingService(bookings BookingStore, tours TourReader, checkout payments.Provider, bus events.Publisher) BookingService {
	return &bookingService{
		bookings: bookings,
		tours:    tours,
		checkout: checkout,
		bus:      bus,
	}
}

// CheckoutSession opens a hosted checkout for the tour, priced in minor
// currency units, with the tour id as the client reference for the booking
// created on completion.
func (s *bookingService) CheckoutSession(ctx context.Context, user *domain.User, tourID, origin string) (*domain.CheckoutSession, error) {
	tour, err := s.tours.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	return s.checkout.CreateCheckoutSession(ctx, &payments.CheckoutParams{
		Name:              fmt.Sprintf("%s Tour", tour.Name),
		Description:       tour.Summary,
		AmountMinor:       int64(tour.Price * 100),
		CustomerEmail:     user.Email,
		ClientReferenceID: tour.ID.Hex(),
		SuccessURL:        origin + "/account/bookings?payment=success",
		CancelURL:         origin + "/account/bookings?payment=error",
	})
}

func (s *bookingService) Create(ctx context.Context, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tourID, err := store.ParseID(req.TourID)
	if err != nil {
		return nil, err
	}
	userID, err := store.ParseID(req.UserID)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		Tour:      tourID,
		User:      userID,
		Price:     req.Price,
		Paid:      true,
		CreatedAt: time.Now(),
	}

	created, err := s.bookings.Create(ctx, booking)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		event := events.BookingCreatedEvent{
			BookingID: created.ID.Hex(),
			TourID:    created.Tour.Hex(),
			UserID:    created.User.Hex(),
			Price:     created.Price,
			CreatedAt: created.CreatedAt,
		}
		if err := s.bus.Publish(ctx, events.BookingCreated, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking event", "booking_id", event.BookingID, "error", err)
		}
	}

	return created, nil
}
