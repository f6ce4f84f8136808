// Package query translates list query strings into typed Mongo filters and
// find options. It replaces the original API's trick of regex-rewriting
// serialized JSON (`gt` -> `$gt`) with an explicit field/operator parser.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// operators maps query-string operator suffixes (`price[gte]=500`) to their
// Mongo counterparts. Anything else inside brackets is ignored.
var operators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"in":  "$in",
}

// reserved query keys drive projection, ordering and paging rather than
// filtering.
var reserved = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

const defaultLimit = 25

// List holds everything needed to run a filtered, paginated Find.
type List struct {
	Filter bson.M
	Find   *options.FindOptions
	Page   int
	Limit  int
}

// Skip returns the number of documents before the requested page.
func (l List) Skip() int {
	return (l.Page - 1) * l.Limit
}

// ParseList builds a List from raw query values.
//
// Plain keys filter by equality (`name=Dr.+A`). Bracketed keys apply an
// operator (`StartingPrice[gte]=500`, `area_expertise[in]=Orthodontics`).
// Numeric values are compared as numbers. The reserved keys select, sort,
// page and limit map onto projection, sort order and paging.
func ParseList(values url.Values) List {
	l := List{
		Filter: bson.M{},
		Page:   1,
		Limit:  defaultLimit,
	}

	for key, vals := range values {
		if len(vals) == 0 || reserved[key] {
			continue
		}
		field, op := splitKey(key)
		// A field name carrying '$' would smuggle a raw Mongo operator
		// ($where, $expr) into the find; only clean names filter.
		if field == "" || strings.Contains(field, "$") {
			continue
		}
		raw := vals[0]
		switch op {
		case "":
			l.Filter[field] = coerce(raw)
		case "$in":
			parts := strings.Split(raw, ",")
			in := make([]interface{}, 0, len(parts))
			for _, p := range parts {
				in = append(in, coerce(p))
			}
			l.Filter[field] = bson.M{"$in": in}
		default:
			if existing, ok := l.Filter[field].(bson.M); ok {
				existing[op] = coerce(raw)
			} else {
				l.Filter[field] = bson.M{op: coerce(raw)}
			}
		}
	}

	find := options.Find()

	if sel := values.Get("select"); sel != "" {
		projection := bson.M{}
		for _, f := range strings.Split(sel, ",") {
			if f = strings.TrimSpace(f); f != "" {
				projection[f] = 1
			}
		}
		find.SetProjection(projection)
	}

	sort := bson.D{}
	for _, f := range strings.Split(values.Get("sort"), ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		order := 1
		if strings.HasPrefix(f, "-") {
			order = -1
			f = f[1:]
		}
		sort = append(sort, bson.E{Key: f, Value: order})
	}
	if len(sort) > 0 {
		find.SetSort(sort)
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		l.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 {
		l.Limit = limit
	}
	find.SetSkip(int64(l.Skip()))
	find.SetLimit(int64(l.Limit))

	l.Find = find
	return l
}

// splitKey breaks "field[op]" into its parts. A key with an unknown operator
// or mangled brackets yields an empty field so the caller skips it.
func splitKey(key string) (field, op string) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, ""
	}
	if !strings.HasSuffix(key, "]") {
		return "", ""
	}
	mongoOp, ok := operators[key[open+1:len(key)-1]]
	if !ok {
		return "", ""
	}
	return key[:open], mongoOp
}

// coerce turns a raw query value into a number when it parses as one, so
// range operators compare numerically against numeric fields.
func coerce(raw string) interface{} {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
