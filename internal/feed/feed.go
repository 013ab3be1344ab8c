package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"parking-status-backend/config"
)

// LiveStatus is a spot status as reported by the detector feed.
type LiveStatus string

const (
	LiveOccupied LiveStatus = "occupied"
	LiveEmpty    LiveStatus = "empty"
	LiveExpired  LiveStatus = "expired"
)

// ConnState is the health of the feed connection, rendered by UI as a
// live/offline badge.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnected    ConnState = "connected"
	StateError        ConnState = "error"
)

// Service maintains a WebSocket connection to the occupancy detector and
// mirrors its per-spot snapshots into an in-memory map. The map is a
// best-effort cache: it is replaced wholesale on every frame and deliberately
// not cleared on reconnect, so stale entries persist until the next snapshot.
type Service struct {
	cfg    *config.FeedConfig
	dialer *websocket.Dialer

	mu    sync.RWMutex
	live  map[string]LiveStatus
	state ConnState
}

// NewService creates a feed service. It does not connect until Run is called.
func NewService(cfg *config.FeedConfig) *Service {
	return &Service{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		live:   make(map[string]LiveStatus),
		state:  StateDisconnected,
	}
}

// Run connects to the feed and keeps the connection alive until ctx is
// cancelled. Every failure, whether a synchronous dial error or a dropped
// stream, is retried after the same fixed delay, forever; the detector is a
// best-effort device on a flaky network and backoff would only delay
// recovery. The retry timer is torn down with ctx, so shutdown never leaves
// a pending reconnect behind.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Feed is disabled. Not starting.")
		return
	}
	log.Printf("Starting feed service against %s...", s.cfg.URL)

	for {
		if err := s.connectAndServe(ctx); err != nil {
			log.Printf("Feed connection lost: %v. Retrying in %s...", err, s.cfg.RetryDelay)
		}
		s.setState(StateDisconnected)

		timer := time.NewTimer(s.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Feed service shutting down.")
			return
		case <-timer.C:
		}
	}
}

// connectAndServe dials the feed once and consumes frames until the stream
// ends. The returned error describes why the stream ended; ctx cancellation
// surfaces as a read error on the closed connection.
func (s *Service) connectAndServe(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		s.setState(StateError)
		return fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}
	defer conn.Close()

	s.setState(StateConnected)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.setState(StateError)
			}
			return fmt.Errorf("read: %w", err)
		}
		s.handleFrame(payload)
	}
}

// handleFrame decodes one full-snapshot frame and swaps it in atomically.
// The frame is a flat spot-id -> status mapping; entries with a status
// outside the recognized set are dropped key-by-key, and a frame that does
// not decode at all is logged and ignored. Nothing here may close the
// connection.
func (s *Service) handleFrame(payload []byte) {
	var raw map[string]string
	if err := json.Unmarshal(payload, &raw); err != nil {
		log.Printf("Feed: dropping malformed frame: %v", err)
		return
	}

	next := make(map[string]LiveStatus, len(raw))
	for spotID, v := range raw {
		switch status := LiveStatus(v); status {
		case LiveOccupied, LiveEmpty, LiveExpired:
			next[spotID] = status
		default:
			log.Printf("Feed: dropping unrecognized status %q for %s", v, spotID)
		}
	}

	s.mu.Lock()
	s.live = next
	s.mu.Unlock()
}

// Snapshot returns a copy of the current live-status map.
func (s *Service) Snapshot() map[string]LiveStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]LiveStatus, len(s.live))
	for k, v := range s.live {
		out[k] = v
	}
	return out
}

// ConnectionState reports the current feed connection health.
func (s *Service) ConnectionState() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsLive reports whether the feed is authoritative for a location. Only the
// configured live-enabled location trusts the detector; everything else
// renders from the registry's taken flags.
func (s *Service) IsLive(locationID string) bool {
	return s.cfg.Enabled && locationID != "" && locationID == s.cfg.LiveLocationID
}

func (s *Service) setState(state ConnState) {
	s.mu.Lock()
	if s.state != state {
		log.Printf("Feed connection state: %s -> %s", s.state, state)
		s.state = state
	}
	s.mu.Unlock()
}
