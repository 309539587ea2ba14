// Package store defines the document store abstraction the rest of the
// application is written against. Collections hold schemaless records with
// opaque identifiers and a server-assigned update timestamp; queries are
// limited to equality filters, and live subscriptions deliver the full
// current matching set on every relevant change.
package store

import (
	"context"
	"time"
)

// Collection names used by the application.
const (
	CollectionIdentities = "identities"
	CollectionWritings   = "writings"
	CollectionBookmarks  = "bookmarks"
)

// Doc is a single record in a collection. UpdatedAt is assigned by the
// store on write; it is the zero value for records not yet synced.
type Doc struct {
	ID        string
	UpdatedAt time.Time
	Fields    map[string]any
}

// Filter is an equality clause on a single field. The field name "id"
// matches the document identifier.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// Store is the document store collaborator. Implementations must treat a
// limit of 0 as "no limit" and must never deliver diffs on subscriptions:
// every snapshot is the complete current matching set.
type Store interface {
	// QueryEqual runs a one-shot equality query on a single field.
	QueryEqual(ctx context.Context, collection, field string, value any, limit int) ([]Doc, error)

	// QueryCompound runs a one-shot query with multiple equality clauses.
	QueryCompound(ctx context.Context, collection string, filters []Filter, limit int) ([]Doc, error)

	// Subscribe opens a live view over the matching set. onSnapshot receives
	// the full matching set immediately and again after every relevant
	// change, in store emission order. onError receives delivery failures;
	// the subscription stays registered after an error.
	Subscribe(ctx context.Context, collection string, filters []Filter, onSnapshot func([]Doc), onError func(error)) (CancelFunc, error)

	// Insert adds a new document and returns its assigned identifier.
	Insert(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Update merges partial fields into an existing document and refreshes
	// its server timestamp.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
}

// Str reads a string field, tolerating absent or mistyped values.
func (d Doc) Str(key string) string {
	if v, ok := d.Fields[key].(string); ok {
		return v
	}
	return ""
}

// Int reads a numeric field. JSON round-trips store numbers as float64, so
// both integer and float representations are accepted.
func (d Doc) Int(key string) int {
	switch v := d.Fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Time reads a time field stored either natively or as RFC 3339 text.
func (d Doc) Time(key string) time.Time {
	switch v := d.Fields[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Matches reports whether the document satisfies every filter.
func (d Doc) Matches(filters []Filter) bool {
	for _, f := range filters {
		if f.Field == "id" {
			if d.ID != toString(f.Value) {
				return false
			}
			continue
		}
		if !equalValue(d.Fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

// equalValue compares loosely across the numeric representations that
// survive a JSON round-trip.
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	return aok && bok && af == bf
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
