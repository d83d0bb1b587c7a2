package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Review belongs to exactly one tour and one user; the pair is unique.
type Review struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Review    string        `bson:"review" json:"review"`
	Rating    int           `bson:"rating" json:"rating"`
	Tour      bson.ObjectID `bson:"tour" json:"tour"`
	User      bson.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

type CreateReviewRequest struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
	TourID string `json:"tourId,omitempty"`
}

type UpdateReviewRequest struct {
	Review *string `json:"review,omitempty"`
	Rating *int    `json:"rating,omitempty"`
}

func (r *CreateReviewRequest) Normalize() {
	r.Review = strings.TrimSpace(r.Review)
}

func (r *CreateReviewRequest) Validate() error {
	verr := NewValidationError()
	if len(r.Review) < 10 {
		verr.Add("review", "review must be at least 10 characters")
	}
	if r.Rating < 1 || r.Rating > 5 {
		verr.Add("rating", "rating must be an integer between 1 and 5")
	}
	return verr.OrNil()
}

func (r *UpdateReviewRequest) Validate() error {
	verr := NewValidationError()
	if r.Review != nil && len(strings.TrimSpace(*r.Review)) < 10 {
		verr.Add("review", "review must be at least 10 characters")
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		verr.Add("rating", "rating must be an integer between 1 and 5")
	}
	return verr.OrNil()
}

// ReviewAuthor is the denormalized author shape attached when a review
// list is expanded with its users.
type ReviewAuthor struct {
	ID    bson.ObjectID `json:"id"`
	Name  string        `json:"name"`
	Photo string        `json:"photo,omitempty"`
}

type ReviewWithAuthor struct {
	Review
	Author *ReviewAuthor `json:"author,omitempty"`
}
