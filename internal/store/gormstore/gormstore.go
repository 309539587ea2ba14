// Package gormstore is the production document store. Documents live in a
// single table with the commonly-filtered fields promoted to indexed
// columns next to the full JSON payload; live subscriptions are driven by
// change notifications (Redis pub/sub when available, in-process
// otherwise) that trigger a re-query and a full snapshot fanout.
package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inkwell/internal/observability"
	"inkwell/internal/store"
)

// Document is the persisted row backing one document.
type Document struct {
	ID           string  `gorm:"primaryKey;size:64"`
	Collection   string  `gorm:"size:32;not null;index:idx_docs_coll_author;index:idx_docs_coll_status;index:idx_docs_coll_owner;uniqueIndex:idx_docs_handle"`
	Handle       *string `gorm:"size:120;uniqueIndex:idx_docs_handle"`
	AuthorID     *string `gorm:"size:64;index:idx_docs_coll_author"`
	AuthorHandle *string `gorm:"size:120;index"`
	Status       *string `gorm:"size:16;index:idx_docs_coll_status"`
	OwnerID      *string `gorm:"size:64;index:idx_docs_coll_owner"`
	Payload      string  `gorm:"type:text;not null"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime;index"`
}

// TableName implements the gorm naming override.
func (Document) TableName() string { return "documents" }

// promoted maps document field names to their column equivalents.
var promoted = map[string]string{
	"handle":        "handle",
	"author_id":     "author_id",
	"author_handle": "author_handle",
	"status":        "status",
	"owner_id":      "owner_id",
}

type subscription struct {
	collection string
	filters    []store.Filter
	onSnapshot func([]store.Doc)
	onError    func(error)
}

// Store implements store.Store on a relational database.
type Store struct {
	db       *gorm.DB
	notifier *Notifier
	log      *observability.StoreLogger

	mu      sync.Mutex
	subs    map[int]*subscription
	nextSub int
}

// New creates a Store and migrates its table. The notifier may be nil, in
// which case change fanout stays in-process.
func New(db *gorm.DB, notifier *Notifier) (*Store, error) {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &Store{
		db:       db,
		notifier: notifier,
		log:      observability.NewStoreLogger("documents"),
		subs:     make(map[int]*subscription),
	}, nil
}

// StartBridge wires remote change notifications into local snapshot
// fanout. Call once after construction when a notifier is present.
func (s *Store) StartBridge(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.StartChangeSubscriber(ctx, func(collection string) {
		s.refresh(context.Background(), collection)
	})
}

// QueryEqual implements store.Store.
func (s *Store) QueryEqual(ctx context.Context, collection, field string, value any, limit int) ([]store.Doc, error) {
	return s.QueryCompound(ctx, collection, []store.Filter{store.Eq(field, value)}, limit)
}

// QueryCompound implements store.Store.
func (s *Store) QueryCompound(ctx context.Context, collection string, filters []store.Filter, limit int) ([]store.Doc, error) {
	docs, err := s.query(ctx, collection, filters, limit)
	if err != nil {
		observability.StoreErrors.WithLabelValues(collection, "query").Inc()
		s.log.LogError(ctx, err, "query")
		return nil, err
	}
	return docs, nil
}

func (s *Store) query(ctx context.Context, collection string, filters []store.Filter, limit int) ([]store.Doc, error) {
	q := s.db.WithContext(ctx).Model(&Document{}).Where("collection = ?", collection)

	var residual []store.Filter
	for _, f := range filters {
		switch {
		case f.Field == "id":
			q = q.Where("id = ?", fmt.Sprint(f.Value))
		case promoted[f.Field] != "":
			q = q.Where(promoted[f.Field]+" = ?", fmt.Sprint(f.Value))
		default:
			residual = append(residual, f)
		}
	}

	q = q.Order("updated_at DESC")
	if limit > 0 && len(residual) == 0 {
		q = q.Limit(limit)
	}

	var rows []Document
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]store.Doc, 0, len(rows))
	for _, row := range rows {
		doc, err := docFromRow(row)
		if err != nil {
			return nil, err
		}
		if len(residual) > 0 && !doc.Matches(residual) {
			continue
		}
		docs = append(docs, doc)
		if limit > 0 && len(docs) >= limit {
			break
		}
	}
	return docs, nil
}

// Subscribe implements store.Store. The initial snapshot is delivered
// before Subscribe returns.
func (s *Store) Subscribe(ctx context.Context, collection string, filters []store.Filter, onSnapshot func([]store.Doc), onError func(error)) (store.CancelFunc, error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("gormstore: onSnapshot is required")
	}

	// Register before the initial query so a write landing between the
	// two is picked up by refresh instead of being silently missed.
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &subscription{
		collection: collection,
		filters:    filters,
		onSnapshot: onSnapshot,
		onError:    onError,
	}
	s.mu.Unlock()

	initial, err := s.QueryCompound(ctx, collection, filters, 0)
	if err != nil {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		return nil, err
	}

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
func (s *Store) Insert(ctx context.Context, collection string, fields map[string]any) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	row := Document{
		ID:         uuid.NewString(),
		Collection: collection,
		Payload:    string(payload),
	}
	promoteFields(&row, fields)

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		observability.StoreErrors.WithLabelValues(collection, "insert").Inc()
		s.log.LogError(ctx, err, "insert")
		return "", err
	}

	s.log.LogUpdate(ctx, map[string]interface{}{"id": row.ID, "op": "insert"})
	s.notify(ctx, collection)
	return row.ID, nil
}

// Update implements store.Store. Partial fields merge into the stored
// payload; the row's server timestamp refreshes on save.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	var row Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if err != nil {
		observability.StoreErrors.WithLabelValues(collection, "update").Inc()
		s.log.LogError(ctx, err, "update")
		return err
	}

	merged := map[string]any{}
	if err := json.Unmarshal([]byte(row.Payload), &merged); err != nil {
		return fmt.Errorf("decode payload for %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	row.Payload = string(payload)
	promoteFields(&row, merged)

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		observability.StoreErrors.WithLabelValues(collection, "update").Inc()
		s.log.LogError(ctx, err, "update")
		return err
	}

	s.log.LogUpdate(ctx, map[string]interface{}{"id": id, "op": "update"})
	s.notify(ctx, collection)
	return nil
}

func (s *Store) notify(ctx context.Context, collection string) {
	if s.notifier != nil {
		if err := s.notifier.PublishChange(ctx, collection); err == nil {
			return
		}
		// Publish failed; fall through so local subscribers still refresh.
	}
	s.refresh(ctx, collection)
}

// refresh re-runs every subscription on the collection and fans out full
// snapshots in registration order.
func (s *Store) refresh(ctx context.Context, collection string) {
	s.mu.Lock()
	targets := make([]*subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.collection == collection {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		docs, err := s.query(ctx, collection, sub.filters, 0)
		if err != nil {
			observability.StoreErrors.WithLabelValues(collection, "subscribe").Inc()
			s.log.LogError(ctx, err, "subscribe")
			if sub.onError != nil {
				sub.onError(err)
			}
			continue
		}
		sub.onSnapshot(docs)
	}
}

func promoteFields(row *Document, fields map[string]any) {
	row.Handle = strField(fields, "handle")
	row.AuthorID = strField(fields, "author_id")
	row.AuthorHandle = strField(fields, "author_handle")
	row.Status = strField(fields, "status")
	row.OwnerID = strField(fields, "owner_id")
}

func strField(fields map[string]any, key string) *string {
	if v, ok := fields[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func docFromRow(row Document) (store.Doc, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(row.Payload), &fields); err != nil {
		return store.Doc{}, fmt.Errorf("decode payload for %s/%s: %w", row.Collection, row.ID, err)
	}
	return store.Doc{ID: row.ID, UpdatedAt: row.UpdatedAt, Fields: fields}, nil
}
