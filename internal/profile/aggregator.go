package profile

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/store"
)

// Snapshot is one emission of a live view: the full visible writing set
// in display order, with stats recomputed from exactly that set.
type Snapshot struct {
	Items []models.Writing `json:"items"`
	Stats models.Stats     `json:"stats"`
}

// Aggregator opens live views over an author's visible content and
// derives stats on every store emission.
type Aggregator struct {
	store store.Store
	now   func() time.Time
	log   *observability.StreamLogger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithClock overrides the time source used for date labels.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an Aggregator over the given store.
func NewAggregator(st store.Store, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		store: st,
		now:   time.Now,
		log:   observability.NewStreamLogger("profile"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchOnce builds a single snapshot without subscribing, for one-shot
// REST reads of a profile.
func (a *Aggregator) FetchOnce(ctx context.Context, resolved ResolvedIdentity, viewer *models.Identity) (Snapshot, error) {
	owner := viewer != nil && viewer.ID == resolved.ID
	filters := []store.Filter{store.Eq("author_id", resolved.ID)}
	if !owner {
		filters = append(filters, store.Eq("status", models.StatusPublished))
	}
	docs, err := a.store.QueryCompound(ctx, store.CollectionWritings, filters, 0)
	if err != nil {
		observability.StoreErrors.WithLabelValues(store.CollectionWritings, "query").Inc()
		a.log.LogError(ctx, resolved.ID, err)
		return Snapshot{}, err
	}
	return a.buildSnapshot(docs, resolved.ID, owner), nil
}

// LiveView is a cancellable stream of snapshots for one (author, viewer)
// pair. The view itself is the cancellation token: once Close has run,
// late callbacks from any store subscription it ever held are no-ops, so
// correctness does not depend on the store suppressing in-flight
// deliveries after cancel.
type LiveView struct {
	agg      *Aggregator
	authorID string
	owner    bool
	role     string
	updates  chan Snapshot

	mu           sync.Mutex
	closed       bool
	reconnecting bool
	cancel       store.CancelFunc
}

// OpenLiveView subscribes to the author's writings, restricted to
// published work unless the viewer is the author. The first snapshot is
// available on Updates before OpenLiveView returns.
func (a *Aggregator) OpenLiveView(ctx context.Context, resolved ResolvedIdentity, viewer *models.Identity) (*LiveView, error) {
	owner := viewer != nil && viewer.ID == resolved.ID
	role := models.RoleVisitor
	if owner {
		role = models.RoleOwner
	}

	lv := &LiveView{
		agg:      a,
		authorID: resolved.ID,
		owner:    owner,
		role:     role,
		updates:  make(chan Snapshot, 1),
	}

	cancel, err := a.subscribe(ctx, lv)
	if err != nil {
		a.log.LogError(ctx, resolved.ID, err)
		return nil, err
	}

	lv.mu.Lock()
	if lv.closed {
		lv.mu.Unlock()
		cancel()
		return lv, nil
	}
	lv.cancel = cancel
	lv.mu.Unlock()

	observability.LiveViewsOpen.Inc()
	a.log.LogOpen(ctx, resolved.ID, owner)
	return lv, nil
}

func (a *Aggregator) subscribe(ctx context.Context, lv *LiveView) (store.CancelFunc, error) {
	filters := []store.Filter{store.Eq("author_id", lv.authorID)}
	if !lv.owner {
		filters = append(filters, store.Eq("status", models.StatusPublished))
	}
	return a.store.Subscribe(ctx, store.CollectionWritings, filters,
		func(docs []store.Doc) {
			lv.deliver(a.buildSnapshot(docs, lv.authorID, lv.owner))
		},
		func(err error) {
			lv.handleError(ctx, err)
		},
	)
}

// buildSnapshot turns one store emission into a display-ready snapshot.
// The incoming batch fully replaces anything emitted before: items are
// decoded, filtered by visibility, date-stamped, sorted, and the stats
// recomputed from scratch over the sorted set. Duplicate or out-of-order
// deliveries of the same underlying set therefore produce identical
// snapshots.
func (a *Aggregator) buildSnapshot(docs []store.Doc, authorID string, owner bool) Snapshot {
	now := a.now()
	items := make([]models.Writing, 0, len(docs))
	for _, d := range docs {
		w := models.WritingFromDoc(d)
		if !Visible(w, authorID, owner) {
			continue
		}
		w.DateLabel = dateLabel(now, w.UpdatedAt)
		items = append(items, w)
	}
	sortWritings(items)
	return Snapshot{Items: items, Stats: ComputeStats(items, owner)}
}

// Updates is the snapshot stream. The channel carries the latest snapshot
// only (stale intermediate snapshots are replaced, never queued) and is
// closed by Close.
func (lv *LiveView) Updates() <-chan Snapshot {
	return lv.updates
}

// Owner reports whether this view sees drafts.
func (lv *LiveView) Owner() bool { return lv.owner }

// Close cancels the subscription and closes Updates. Safe to call more
// than once.
func (lv *LiveView) Close() {
	lv.mu.Lock()
	if lv.closed {
		lv.mu.Unlock()
		return
	}
	lv.closed = true
	cancel := lv.cancel
	lv.cancel = nil
	lv.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	close(lv.updates)
	observability.LiveViewsOpen.Dec()
	lv.agg.log.LogClose(context.Background(), lv.authorID, "closed")
}

// deliver pushes a snapshot with latest-wins semantics: if the consumer
// has not drained the previous snapshot it is replaced rather than
// queued, so a slow consumer always wakes to the current state.
func (lv *LiveView) deliver(snap Snapshot) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	if lv.closed {
		return
	}
	for {
		select {
		case lv.updates <- snap:
			observability.SnapshotsDelivered.WithLabelValues(lv.role).Inc()
			return
		default:
			select {
			case <-lv.updates:
			default:
			}
		}
	}
}

// handleError tears down the failed subscription and starts a backoff
// reconnect loop. The stream stays at its last good emission until the
// store is reachable again.
func (lv *LiveView) handleError(ctx context.Context, err error) {
	lv.agg.log.LogError(ctx, lv.authorID, err)
	observability.StoreErrors.WithLabelValues(store.CollectionWritings, "subscribe").Inc()

	lv.mu.Lock()
	if lv.closed || lv.reconnecting {
		lv.mu.Unlock()
		return
	}
	lv.reconnecting = true
	cancel := lv.cancel
	lv.cancel = nil
	lv.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	go lv.reconnect(ctx)
}

func (lv *LiveView) reconnect(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // retry until closed

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(bo.NextBackOff()):
		}

		lv.mu.Lock()
		if lv.closed {
			lv.mu.Unlock()
			return
		}
		lv.mu.Unlock()

		observability.SubscriptionReconnects.Inc()
		cancel, err := lv.agg.subscribe(ctx, lv)
		if err != nil {
			continue
		}

		lv.mu.Lock()
		if lv.closed {
			lv.mu.Unlock()
			cancel()
			return
		}
		lv.cancel = cancel
		lv.reconnecting = false
		lv.mu.Unlock()
		return
	}
}
