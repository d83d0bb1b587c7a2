package store

import (
	"net/url"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestParseFeatures_OperatorRewrite(t *testing.T) {
	values, _ := url.ParseQuery("price[gte]=100&price[lt]=500&difficulty=easy")
	f := ParseFeatures(values)

	want := bson.M{
		"price":      bson.M{"$gte": int64(100), "$lt": int64(500)},
		"difficulty": "easy",
	}
	if !reflect.DeepEqual(f.Filter(), want) {
		t.Fatalf("Expected filter %v, got %v", want, f.Filter())
	}
}

func TestParseFeatures_UnknownSuffixPassesThrough(t *testing.T) {
	values, _ := url.ParseQuery("price[regex]=abc")
	f := ParseFeatures(values)

	if _, rewritten := f.Filter()["price"]; rewritten {
		t.Fatal("Unknown operator suffix should not be rewritten")
	}
	if f.Filter()["price[regex]"] != "abc" {
		t.Fatalf("Expected whole key to pass through, got %v", f.Filter())
	}
}

func TestParseFeatures_ValueCoercion(t *testing.T) {
	values, _ := url.ParseQuery("maxGroupSize=15&ratingsAverage[gte]=4.5&secretTour=false&name=The+Forest+Hiker")
	f := ParseFeatures(values)

	filter := f.Filter()
	if filter["maxGroupSize"] != int64(15) {
		t.Fatalf("Expected int64 15, got %T %v", filter["maxGroupSize"], filter["maxGroupSize"])
	}
	if filter["ratingsAverage"].(bson.M)["$gte"] != 4.5 {
		t.Fatalf("Expected float 4.5, got %v", filter["ratingsAverage"])
	}
	if filter["secretTour"] != false {
		t.Fatalf("Expected bool false, got %T", filter["secretTour"])
	}
	if filter["name"] != "The Forest Hiker" {
		t.Fatalf("Expected string passthrough, got %v", filter["name"])
	}
}

func TestParseFeatures_SortChain(t *testing.T) {
	values, _ := url.ParseQuery("sort=price,-ratingsAverage")
	f := ParseFeatures(values)

	want := bson.D{
		{Key: "price", Value: 1},
		{Key: "ratingsAverage", Value: -1},
	}
	if !reflect.DeepEqual(f.Sort(), want) {
		t.Fatalf("Expected sort %v, got %v", want, f.Sort())
	}
}

func TestParseFeatures_DefaultSortNewestFirst(t *testing.T) {
	f := ParseFeatures(url.Values{})

	want := bson.D{{Key: "createdAt", Value: -1}}
	if !reflect.DeepEqual(f.Sort(), want) {
		t.Fatalf("Expected default sort %v, got %v", want, f.Sort())
	}
}

func TestParseFeatures_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int64
		wantLimit int64
		wantSkip  int64
	}{
		{"defaults", "", 1, 10, 0},
		{"explicit", "page=3&limit=20", 3, 20, 40},
		{"zero page falls back", "page=0&limit=5", 1, 5, 0},
		{"negative limit falls back", "page=2&limit=-1", 2, 10, 10},
		{"garbage falls back", "page=abc&limit=xyz", 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			f := ParseFeatures(values)

			if f.Page != tt.wantPage || f.Limit != tt.wantLimit {
				t.Fatalf("Expected page=%d limit=%d, got page=%d limit=%d", tt.wantPage, tt.wantLimit, f.Page, f.Limit)
			}
			if f.Skip() != tt.wantSkip {
				t.Fatalf("Expected skip=%d, got %d", tt.wantSkip, f.Skip())
			}
		})
	}
}

func TestParseFeatures_ReservedKeysNotFiltered(t *testing.T) {
	values, _ := url.ParseQuery("page=2&limit=5&sort=name&fields=name,price&duration=7")
	f := ParseFeatures(values)

	want := bson.M{"duration": int64(7)}
	if !reflect.DeepEqual(f.Filter(), want) {
		t.Fatalf("Reserved keys leaked into filter: %v", f.Filter())
	}
}

func TestParseFeatures_FieldProjection(t *testing.T) {
	values, _ := url.ParseQuery("fields=name,price, duration")
	f := ParseFeatures(values)

	want := bson.M{"name": 1, "price": 1, "duration": 1}
	if !reflect.DeepEqual(f.projection, want) {
		t.Fatalf("Expected projection %v, got %v", want, f.projection)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		limit int64
		want  int64
	}{
		{"exact multiple", 100, 10, 10},
		{"rounds up", 101, 10, 11},
		{"single partial page", 3, 10, 1},
		{"empty result", 0, 10, 0},
		{"zero limit guarded", 25, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalPages(tt.total, tt.limit); got != tt.want {
				t.Fatalf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
			}
		})
	}
}

// The page count must come from the collection total, not from however many
// documents the current page happens to hold.
func TestTotalPages_IndependentOfPageSize(t *testing.T) {
	// 95 matching documents, page 10 holds only 5 of them
	if got := TotalPages(95, 10); got != 10 {
		t.Fatalf("Expected 10 pages for 95 documents at limit 10, got %d", got)
	}
}
