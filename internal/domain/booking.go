package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Booking struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Tour      bson.ObjectID `bson:"tour" json:"tour"`
	User      bson.ObjectID `bson:"user" json:"user"`
	Price     float64       `bson:"price" json:"price"`
	Paid      bool          `bson:"paid" json:"paid"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

type CreateBookingRequest struct {
	TourID string  `json:"tour"`
	UserID string  `json:"user"`
	Price  float64 `json:"price"`
}

func (r *CreateBookingRequest) Validate() error {
	verr := NewValidationError()
	if r.TourID == "" {
		verr.Add("tour", "booking must belong to a tour")
	}
	if r.UserID == "" {
		verr.Add("user", "booking must belong to a user")
	}
	if r.Price <= 0 {
		verr.Add("price", "booking must have a price")
	}
	return verr.OrNil()
}

// CheckoutSession is the hosted-checkout handle returned to the client.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
