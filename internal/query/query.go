// Package query translates REST query strings into MongoDB filter, sort and
// pagination options. Filters support per-field comparison operators using
// the bracket syntax `field[op]=value` where op is one of gt, gte, lt, lte,
// in. Bare `field=value` is an equality match.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultLimit = 25
	maxLimit     = 100
)

// reserved query parameters which never become filter fields.
var reserved = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

var operators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"in":  "$in",
}

// Params is a parsed query ready to run against a collection.
type Params struct {
	Filter bson.M
	Sort   bson.D
	Page   int
	Limit  int
}

// Skip returns the number of documents to skip for the requested page.
func (p Params) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Page references a neighbouring results page.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries next/prev page cursors when they exist.
type Pagination struct {
	Next *Page `json:"next,omitempty"`
	Prev *Page `json:"prev,omitempty"`
}

// Paginate computes the next/prev cursors for a result set of the given
// total size.
func (p Params) Paginate(total int64) Pagination {
	var pg Pagination
	if int64(p.Page*p.Limit) < total {
		pg.Next = &Page{Page: p.Page + 1, Limit: p.Limit}
	}
	if p.Page > 1 {
		pg.Prev = &Page{Page: p.Page - 1, Limit: p.Limit}
	}
	return pg
}

// Parse builds Params from URL query values.
func Parse(values url.Values) Params {
	p := Params{
		Filter: bson.M{},
		Sort:   parseSort(values.Get("sort")),
		Page:   1,
		Limit:  DefaultLimit,
	}

	if n, err := strconv.Atoi(values.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(values.Get("limit")); err == nil && n > 0 {
		if n > maxLimit {
			n = maxLimit
		}
		p.Limit = n
	}

	for key, vals := range values {
		if len(vals) == 0 || reserved[key] {
			continue
		}
		field, op := splitOperator(key)
		if reserved[field] {
			continue
		}
		value := vals[0]

		if op == "" {
			p.Filter[field] = coerce(value)
			continue
		}

		mongoOp, ok := operators[op]
		if !ok {
			continue
		}

		cond, _ := p.Filter[field].(bson.M)
		if cond == nil {
			cond = bson.M{}
		}
		if op == "in" {
			parts := strings.Split(value, ",")
			list := make([]interface{}, 0, len(parts))
			for _, part := range parts {
				list = append(list, coerce(part))
			}
			cond[mongoOp] = list
		} else {
			cond[mongoOp] = coerce(value)
		}
		p.Filter[field] = cond
	}

	return p
}

// splitOperator splits "field[op]" into its parts. A key without brackets is
// a plain field name.
func splitOperator(key string) (field, op string) {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	return key[:open], key[open+1 : len(key)-1]
}

// coerce turns a query string value into the type Mongo should compare
// against: number, boolean, or string.
func coerce(s string) interface{} {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// parseSort converts a comma-separated sort spec ("-createdAt,model") into a
// Mongo sort document. An empty spec sorts by creation time descending.
func parseSort(spec string) bson.D {
	if spec == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}

	var sort bson.D
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(field, "-") {
			dir = -1
			field = field[1:]
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	if len(sort) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return sort
}
