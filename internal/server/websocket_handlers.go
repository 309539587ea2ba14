// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/profile"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// profileEvent is the wire shape of one live view emission.
type profileEvent struct {
	State  string           `json:"state"`
	Writer *models.Identity `json:"writer,omitempty"`
	Items  []models.Writing `json:"items,omitempty"`
	Stats  *models.Stats    `json:"stats,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// WebSocketProfileHandler streams live profile snapshots for a writer
// handle. The connection goes through resolve first; not_found and
// own_redirect terminate after a single event, live connections stream
// until either side closes.
func (s *Server) WebSocketProfileHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		s.streamProfile(conn, conn.Params("handle"))
	})
}

// WebSocketOwnProfileHandler streams the authenticated viewer's own
// profile, drafts included. Anonymous connections get a single error
// event and are closed.
func (s *Server) WebSocketOwnProfileHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		s.streamProfile(conn, "")
	})
}

func (s *Server) streamProfile(conn *websocket.Conn, handle string) {
	observability.ActiveWebSockets.Inc()
	defer observability.ActiveWebSockets.Dec()

	viewer, _ := conn.Locals(middleware.IdentityKey).(*models.Identity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	view := profile.NewView(s.resolver, s.aggregator)
	defer view.Close()

	outcome, err := view.Show(ctx, handle, viewer)
	if err != nil {
		msg := "failed to load profile"
		if errors.Is(err, profile.ErrNotAuthenticated) {
			msg = "authentication required"
		} else {
			log.Printf("WebSocket: failed to open profile view for %q: %v", handle, err)
		}
		_ = conn.WriteJSON(profileEvent{State: string(profile.StateIdle), Error: msg})
		_ = conn.Close()
		return
	}

	switch outcome.State {
	case profile.StateNotFound:
		_ = conn.WriteJSON(profileEvent{State: string(profile.StateNotFound)})
		_ = conn.Close()
		return
	case profile.StateOwnRedirect:
		_ = conn.WriteJSON(profileEvent{
			State:  string(profile.StateOwnRedirect),
			Writer: &outcome.Resolved.Identity,
		})
		_ = conn.Close()
		return
	}

	// Read pump exists only to detect client disconnect
	go func() {
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-outcome.Live.Updates():
			if !ok {
				return
			}
			ev := profileEvent{
				State:  string(profile.StateLive),
				Writer: &outcome.Resolved.Identity,
				Items:  snap.Items,
				Stats:  &snap.Stats,
			}
			if werr := conn.WriteJSON(ev); werr != nil {
				return
			}
		}
	}
}
