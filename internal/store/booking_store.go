package store

import (
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/roamtrails/tours-api/internal/domain"
)

type BookingStore struct {
	*Collection[domain.Booking]
	col *mongo.Collection
}

func NewBookingStore(m *Mongo) *BookingStore {
	return &BookingStore{
		Collection: NewCollection[domain.Booking](m.db, ColBookings, nil),
		col:        m.col(ColBookings),
	}
}
