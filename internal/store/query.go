package store

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Reserved query keys consumed by the builder itself; everything else is
// treated as a filter.
var reservedKeys = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"fields": true,
}

// comparison operators rewritten into their Mongo form
var operators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
	"eq":  "$eq",
	"ne":  "$ne",
}

// Features translates a raw query string into the refinements applied to a
// list query: filter, sort, projection and pagination. It never executes the
// query; callers combine Filter with their own scope and pass FindOptions to
// the driver.
type Features struct {
	filter     bson.M
	sort       bson.D
	projection bson.M
	Page       int64
	Limit      int64
}

// ParseFeatures builds Features from query parameters. Keys shaped like
// field[op] with op in gte/gt/lte/lt/eq/ne become comparison filters; any
// other key passes through as an equality filter, unvalidated. Missing or
// malformed page/limit fall back to the defaults rather than erroring.
func ParseFeatures(values url.Values) *Features {
	f := &Features{
		filter: bson.M{},
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}

	for key := range values {
		if reservedKeys[key] {
			continue
		}
		value := values.Get(key)

		field, op, ok := splitOperator(key)
		if ok {
			existing, _ := f.filter[field].(bson.M)
			if existing == nil {
				existing = bson.M{}
			}
			existing[op] = coerceValue(value)
			f.filter[field] = existing
			continue
		}

		f.filter[key] = coerceValue(value)
	}

	f.sort = parseSort(values.Get("sort"))
	f.projection = parseFields(values.Get("fields"))

	if page, err := strconv.ParseInt(values.Get("page"), 10, 64); err == nil && page > 0 {
		f.Page = page
	}
	if limit, err := strconv.ParseInt(values.Get("limit"), 10, 64); err == nil && limit > 0 {
		f.Limit = limit
	}

	return f
}

func (f *Features) Filter() bson.M {
	return f.filter
}

func (f *Features) Sort() bson.D {
	return f.sort
}

func (f *Features) Skip() int64 {
	return (f.Page - 1) * f.Limit
}

// FindOptions assembles the driver options for the refined query.
func (f *Features) FindOptions() options.Lister[options.FindOptions] {
	opts := options.Find().
		SetSort(f.sort).
		SetSkip(f.Skip()).
		SetLimit(f.Limit)
	if len(f.projection) > 0 {
		opts = opts.SetProjection(f.projection)
	}
	return opts
}

// TotalPages computes ceil(total/limit), guarding against a zero or
// negative limit.
func TotalPages(total, limit int64) int64 {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// splitOperator recognizes the field[op] shape. Unknown suffixes are not
// rewritten; the whole key passes through untouched.
func splitOperator(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	mongoOp, known := operators[key[open+1:len(key)-1]]
	if !known {
		return "", "", false
	}
	return key[:open], mongoOp, true
}

// coerceValue turns the raw string into a number or bool when it parses as
// one, since the document store compares typed values.
func coerceValue(value string) interface{} {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if fl, err := strconv.ParseFloat(value, 64); err == nil {
		return fl
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

// parseSort turns "price,-ratingsAverage" into an ordered sort chain where a
// leading dash means descending. Defaults to newest first.
func parseSort(sort string) bson.D {
	if sort == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}

	var chain bson.D
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		order := 1
		if strings.HasPrefix(field, "-") {
			order = -1
			field = field[1:]
		}
		chain = append(chain, bson.E{Key: field, Value: order})
	}
	if len(chain) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return chain
}

func parseFields(fields string) bson.M {
	if fields == "" {
		return nil
	}
	projection := bson.M{}
	for _, field := range strings.Split(fields, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		projection[field] = 1
	}
	return projection
}
