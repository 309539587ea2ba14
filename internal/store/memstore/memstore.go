// Package memstore is an in-memory document store used by tests, seeding,
// and single-process development runs. Mutations fan out full snapshots to
// matching subscriptions synchronously, in mutation order.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/store"
)

type record struct {
	fields    map[string]any
	updatedAt time.Time
}

type subscription struct {
	collection string
	filters    []store.Filter
	onSnapshot func([]store.Doc)
	onError    func(error)
}

// Store implements store.Store entirely in memory.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	docs    map[string]map[string]*record
	order   map[string][]string
	subs    map[int]*subscription
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the server timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		docs:  make(map[string]map[string]*record),
		order: make(map[string][]string),
		subs:  make(map[int]*subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryEqual implements store.Store.
func (s *Store) QueryEqual(ctx context.Context, collection, field string, value any, limit int) ([]store.Doc, error) {
	return s.QueryCompound(ctx, collection, []store.Filter{store.Eq(field, value)}, limit)
}

// QueryCompound implements store.Store. Results come back in insertion
// order, which doubles as the deterministic baseline order for callers
// that sort client-side.
func (s *Store) QueryCompound(_ context.Context, collection string, filters []store.Filter, limit int) ([]store.Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchLocked(collection, filters, limit), nil
}

// Subscribe implements store.Store. The initial snapshot is delivered
// before Subscribe returns.
func (s *Store) Subscribe(_ context.Context, collection string, filters []store.Filter, onSnapshot func([]store.Doc), onError func(error)) (store.CancelFunc, error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("memstore: onSnapshot is required")
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &subscription{
		collection: collection,
		filters:    filters,
		onSnapshot: onSnapshot,
		onError:    onError,
	}
	initial := s.matchLocked(collection, filters, 0)
	s.mu.Unlock()

	onSnapshot(initial)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
	return cancel, nil
}

// Insert implements store.Store.
func (s *Store) Insert(_ context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	coll := s.docs[collection]
	if coll == nil {
		coll = make(map[string]*record)
		s.docs[collection] = coll
	}
	coll[id] = &record{fields: cloneFields(fields), updatedAt: s.now()}
	s.order[collection] = append(s.order[collection], id)
	pending := s.snapshotsLocked(collection)
	s.mu.Unlock()

	deliver(pending)
	return id, nil
}

// Update implements store.Store.
func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	rec, ok := s.docs[collection][id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("memstore: %s/%s not found", collection, id)
	}
	for k, v := range fields {
		rec.fields[k] = v
	}
	rec.updatedAt = s.now()
	pending := s.snapshotsLocked(collection)
	s.mu.Unlock()

	deliver(pending)
	return nil
}

// Delete removes a document. Not part of the store.Store contract; used by
// tests exercising disappearing records.
func (s *Store) Delete(collection, id string) {
	s.mu.Lock()
	delete(s.docs[collection], id)
	ids := s.order[collection]
	for i, existing := range ids {
		if existing == id {
			s.order[collection] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	pending := s.snapshotsLocked(collection)
	s.mu.Unlock()

	deliver(pending)
}

type delivery struct {
	onSnapshot func([]store.Doc)
	docs       []store.Doc
}

func (s *Store) snapshotsLocked(collection string) []delivery {
	var pending []delivery
	for _, sub := range s.subs {
		if sub.collection != collection {
			continue
		}
		pending = append(pending, delivery{
			onSnapshot: sub.onSnapshot,
			docs:       s.matchLocked(collection, sub.filters, 0),
		})
	}
	return pending
}

func deliver(pending []delivery) {
	for _, d := range pending {
		d.onSnapshot(d.docs)
	}
}

func (s *Store) matchLocked(collection string, filters []store.Filter, limit int) []store.Doc {
	docs := make([]store.Doc, 0)
	for _, id := range s.order[collection] {
		rec := s.docs[collection][id]
		doc := store.Doc{ID: id, UpdatedAt: rec.updatedAt, Fields: cloneFields(rec.fields)}
		if !doc.Matches(filters) {
			continue
		}
		docs = append(docs, doc)
		if limit > 0 && len(docs) >= limit {
			break
		}
	}
	return docs
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
