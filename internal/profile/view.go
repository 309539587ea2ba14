package profile

import (
	"context"
	"errors"
	"strings"
	"sync"

	"inkwell/internal/models"
)

// ViewState is the lifecycle phase of a profile view.
type ViewState string

const (
	StateIdle        ViewState = "idle"
	StateResolving   ViewState = "resolving"
	StateNotFound    ViewState = "not_found"
	StateOwnRedirect ViewState = "own_redirect"
	StateLive        ViewState = "live"
)

// Outcome is the terminal result of showing a handle. Resolved is nil
// for every state except StateOwnRedirect and StateLive.
type Outcome struct {
	State    ViewState
	Resolved *ResolvedIdentity
	Live     *LiveView
}

// View drives one profile surface through resolve and subscribe. Showing
// a new handle supersedes the previous one: the old live view is closed
// before the new resolution starts, and a resolution that finishes after
// it has been superseded is discarded without touching the view.
type View struct {
	resolver *Resolver
	agg      *Aggregator

	mu    sync.Mutex
	gen   uint64
	state ViewState
	live  *LiveView
}

// NewView creates an idle view.
func NewView(r *Resolver, a *Aggregator) *View {
	return &View{resolver: r, agg: a, state: StateIdle}
}

// State returns the current phase.
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Show resolves the handle and, on success, opens a live view for it.
// A viewer who explicitly requests their own canonical handle gets
// StateOwnRedirect with no live view; the caller routes them to their
// own profile surface, which calls Show with an empty handle and goes
// live with drafts visible.
func (v *View) Show(ctx context.Context, handle string, viewer *models.Identity) (Outcome, error) {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	prev := v.live
	v.live = nil
	v.state = StateResolving
	v.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	resolved, err := v.resolver.Resolve(ctx, handle, viewer)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return v.finish(gen, Outcome{State: StateNotFound}), nil
		}
		v.finish(gen, Outcome{State: StateIdle})
		return Outcome{State: StateIdle}, err
	}

	if resolved.IsOwn && strings.TrimSpace(handle) != "" {
		return v.finish(gen, Outcome{State: StateOwnRedirect, Resolved: resolved}), nil
	}

	live, err := v.agg.OpenLiveView(ctx, *resolved, viewer)
	if err != nil {
		v.finish(gen, Outcome{State: StateIdle})
		return Outcome{State: StateIdle}, err
	}

	out := v.finish(gen, Outcome{State: StateLive, Resolved: resolved, Live: live})
	if out.State != StateLive {
		// Superseded while opening; the replacement owns the view now.
		live.Close()
	}
	return out, nil
}

// Close tears down any live view and returns the view to idle.
func (v *View) Close() {
	v.mu.Lock()
	v.gen++
	live := v.live
	v.live = nil
	v.state = StateIdle
	v.mu.Unlock()

	if live != nil {
		live.Close()
	}
}

// finish commits an outcome unless a later Show has taken over, in which
// case the stale outcome is returned as superseded (StateIdle, no view).
func (v *View) finish(gen uint64, out Outcome) Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return Outcome{State: StateIdle}
	}
	v.state = out.State
	v.live = out.Live
	return out
}
