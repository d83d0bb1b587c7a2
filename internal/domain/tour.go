package domain

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

// Location is a GeoJSON point with tour-specific annotations.
type Location struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Day         int       `bson:"day,omitempty" json:"day,omitempty"`
}

type Tour struct {
	ID              bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string          `bson:"name" json:"name"`
	Slug            string          `bson:"slug" json:"slug"`
	Duration        int             `bson:"duration" json:"duration"`
	MaxGroupSize    int             `bson:"maxGroupSize" json:"maxGroupSize"`
	Difficulty      Difficulty      `bson:"difficulty" json:"difficulty"`
	RatingsAverage  float64         `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity int             `bson:"ratingsQuantity" json:"ratingsQuantity"`
	Price           float64         `bson:"price" json:"price"`
	PriceDiscount   float64         `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	Summary         string          `bson:"summary" json:"summary"`
	Description     string          `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string          `bson:"imageCover" json:"imageCover"`
	Images          []string        `bson:"images,omitempty" json:"images,omitempty"`
	StartDates      []time.Time     `bson:"startDates,omitempty" json:"startDates,omitempty"`
	StartLocation   *Location       `bson:"startLocation,omitempty" json:"startLocation,omitempty"`
	Locations       []Location      `bson:"locations,omitempty" json:"locations,omitempty"`
	Guides          []bson.ObjectID `bson:"guides,omitempty" json:"guides,omitempty"`
	SecretTour      bool            `bson:"secretTour" json:"-"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
}

// Normalize derives the slug from the name and fills rating defaults
// on freshly created tours.
func (t *Tour) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = Slugify(t.Name)
	if t.RatingsAverage == 0 {
		t.RatingsAverage = 4.5
	}
	if t.MaxGroupSize == 0 {
		t.MaxGroupSize = 1
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
}

func (t *Tour) Validate() error {
	verr := NewValidationError()
	if t.Name == "" {
		verr.Add("name", "tour name is required")
	} else if len(t.Name) < 5 || len(t.Name) > 40 {
		verr.Add("name", "name must be between 5 and 40 characters")
	}
	if t.Duration < 1 {
		verr.Add("duration", "duration must be at least 1 day")
	}
	if !t.Difficulty.Valid() {
		verr.Add("difficulty", "difficulty must be either easy, medium or difficult")
	}
	if t.RatingsAverage < 1 || t.RatingsAverage > 5 {
		verr.Add("ratingsAverage", "rating must be between 1 and 5")
	}
	if t.Price < 1 {
		verr.Add("price", "price must be at least 1")
	}
	if t.PriceDiscount != 0 && t.PriceDiscount >= t.Price {
		verr.Add("priceDiscount", "discount price must be lower than the price")
	}
	if t.MaxGroupSize < 1 || t.MaxGroupSize > 100 {
		verr.Add("maxGroupSize", "group size must be between 1 and 100")
	}
	if t.Summary == "" {
		verr.Add("summary", "summary is required")
	} else if len(t.Summary) > 255 {
		verr.Add("summary", "summary must be at most 255 characters")
	}
	if t.ImageCover == "" {
		verr.Add("imageCover", "cover image is required")
	}
	if len(t.StartDates) == 0 {
		verr.Add("startDates", "at least one start date is required")
	}
	return verr.OrNil()
}

// TourStats is one difficulty-tier row of the statistics aggregation.
type TourStats struct {
	Difficulty string  `bson:"_id" json:"difficulty"`
	Tours      int     `bson:"numTours" json:"tours"`
	Ratings    int     `bson:"numRatings" json:"ratings"`
	AvgRating  float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice   float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice" json:"maxPrice"`
}

// MonthPlan is one month bucket of the monthly-plan aggregation.
type MonthPlan struct {
	Month int      `bson:"month" json:"month"`
	Count int      `bson:"count" json:"count"`
	Tours []string `bson:"tours" json:"tours"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the name and collapses every non-alphanumeric run
// into a single dash.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
