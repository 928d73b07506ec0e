// Package subserver implements the Subscription Server (SPEC_FULL.md
// §4.5/§4.6): a WebSocket log-tail of the label log with cursor replay
// and live tailing, plus a bearer-protected admin query endpoint.
//
// Grounded on the teacher's internal/server/xrpc_sync.go
// handleSubscribeRepos (manual websocket.Upgrader, a read goroutine
// that only detects disconnect, a write loop select-ing on the
// subscription channel and the disconnect signal), adapted from
// "subscribe once, stream pre-serialized frames pushed by a Manager"
// to "subscribe to wakeups, re-query the database by seq on each one"
// since this service's frames must reflect the freshest payload column
// rather than a value captured at publish time.
package subserver

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/consfyi/bsky-event-ingester/internal/metrics"
	"github.com/consfyi/bsky-event-ingester/internal/store"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server wires the Echo routes for subscribeLabels and the admin query
// endpoint.
type Server struct {
	Store      *store.Store
	Notifier   *store.Notifier
	AdminToken string
}

// New returns a Server backed by st and notifier. adminToken is the
// bearer token required by the admin query endpoint; an empty token
// disables that route (always returns 403).
func New(st *store.Store, notifier *store.Notifier, adminToken string) *Server {
	return &Server{Store: st, Notifier: notifier, AdminToken: adminToken}
}

// Register mounts this server's routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/xrpc/com.atproto.label.subscribeLabels", s.handleSubscribeLabels)
	e.GET("/admin/labels", s.handleAdminQuery)
}

// handleSubscribeLabels implements SPEC_FULL.md §4.5.
func (s *Server) handleSubscribeLabels(c echo.Context) error {
	ctx := c.Request().Context()

	var cursor int64
	hasCursor := false
	if raw := c.QueryParam("cursor"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error":   "InvalidRequest",
				"message": "cursor must be an integer",
			})
		}
		cursor = n
		hasCursor = true
	}

	maxSeq, err := s.Store.MaxSeq(ctx)
	if err != nil {
		log.Printf("subserver: max seq: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "InternalError"})
	}

	if !hasCursor {
		cursor = maxSeq
	} else if cursor > maxSeq {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return nil
		}
		defer ws.Close()
		frame, ferr := encodeErrorFrame(ErrFutureCursorName)
		if ferr == nil {
			_ = ws.WriteMessage(websocket.BinaryMessage, frame)
		}
		return nil
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("subserver: upgrade: %v", err)
		return nil
	}
	defer ws.Close()

	metrics.SubscribersActive.Inc()
	defer metrics.SubscribersActive.Dec()

	wake, cancel := s.Notifier.Subscribe()
	defer cancel()

	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	lastSent := cursor
	if err := s.drainAndSend(ctx, ws, &lastSent); err != nil {
		return nil
	}

	for {
		select {
		case <-wake:
			if err := s.drainAndSend(ctx, ws, &lastSent); err != nil {
				return nil
			}
		case <-disconnected:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// drainAndSend sends every row with seq > *lastSent, in order,
// advancing *lastSent as it goes. One pooled connection is held only
// for the duration of the underlying query, not across the whole
// subscriber lifetime, per SPEC_FULL.md §4.5's concurrency contract.
func (s *Server) drainAndSend(ctx context.Context, ws *websocket.Conn, lastSent *int64) error {
	rows, err := s.Store.Since(ctx, *lastSent)
	if err != nil {
		log.Printf("subserver: since: %v", err)
		return err
	}
	for _, row := range rows {
		frame, err := encodeLabelsFrame(row.Seq, row.Payload)
		if err != nil {
			log.Printf("subserver: encode frame for seq %d: %v", row.Seq, err)
			continue
		}
		if err := ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return err
		}
		*lastSent = row.Seq
	}
	return nil
}
