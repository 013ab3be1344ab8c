package store

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"parking-status-backend/config"
	"parking-status-backend/internal/model"
)

// Store owns the spot registry and the session history. Both are in-memory
// and reconstructed from configuration and booking input on each run; all
// mutation is funneled through the methods below so a location's spot flags
// and its availability counter are never observed out of step.
type Store struct {
	mu        sync.RWMutex
	locations []*model.Location // insertion order
	locIndex  map[string]*model.Location
	spots     map[string][]*model.Spot // locationID -> stalls, insertion order
	spotIndex map[string]map[string]*model.Spot
	sessions  []*model.Session // most recent first
	sessIndex map[string]*model.Session
}

// New builds a store seeded from the configured location catalog. Stall IDs
// follow the feed's key scheme ("spot_1".."spot_N") and every stall starts
// available.
func New(seed []config.LocationConfig) *Store {
	s := &Store{
		locIndex:  make(map[string]*model.Location, len(seed)),
		spots:     make(map[string][]*model.Spot, len(seed)),
		spotIndex: make(map[string]map[string]*model.Spot, len(seed)),
		sessIndex: make(map[string]*model.Session),
	}

	for _, lc := range seed {
		loc := &model.Location{
			ID:             lc.ID,
			Name:           lc.Name,
			Address:        lc.Address,
			Zone:           lc.Zone,
			PricePerHour:   lc.PricePerHour,
			TotalSpots:     lc.TotalSpots,
			AvailableSpots: lc.TotalSpots,
		}
		s.locations = append(s.locations, loc)
		s.locIndex[loc.ID] = loc

		accessible := make(map[int]bool, len(lc.AccessibleSpots))
		for _, n := range lc.AccessibleSpots {
			accessible[n] = true
		}

		index := make(map[string]*model.Spot, lc.TotalSpots)
		stalls := make([]*model.Spot, 0, lc.TotalSpots)
		for i := 1; i <= lc.TotalSpots; i++ {
			spot := &model.Spot{
				ID:           fmt.Sprintf("spot_%d", i),
				LocationID:   loc.ID,
				IsAccessible: accessible[i],
				Status:       model.SpotAvailable,
			}
			stalls = append(stalls, spot)
			index[spot.ID] = spot
		}
		s.spots[loc.ID] = stalls
		s.spotIndex[loc.ID] = index
	}

	return s
}

// Locations returns the location catalog with current availability counts.
func (s *Store) Locations() []model.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Location, len(s.locations))
	for i, loc := range s.locations {
		out[i] = *loc
	}
	return out
}

// Location returns a single location by ID.
func (s *Store) Location(locationID string) (model.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locIndex[locationID]
	if !ok {
		return model.Location{}, false
	}
	return *loc, true
}

// GetSpots returns the stall list for a location in insertion order. An
// unknown location yields an empty slice, not an error; views are often
// built from stale references and must not crash on them.
func (s *Store) GetSpots(locationID string) []model.Spot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stalls := s.spots[locationID]
	out := make([]model.Spot, len(stalls))
	for i, spot := range stalls {
		out[i] = *spot
	}
	return out
}

// SetSpotTaken sets a stall's taken flag. It is idempotent and an unknown
// location or stall is a no-op. The availability counter is adjusted by the
// delta of the single changed stall rather than re-scanned; the count is a
// coarse UI signal, not an authoritative inventory. Returns whether the flag
// actually flipped.
func (s *Store) SetSpotTaken(locationID, spotID string, taken bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spotIndex[locationID][spotID]
	if !ok {
		return false
	}
	return applyTaken(s.locIndex[locationID], spot, taken)
}

// applyTaken flips the taken flag and applies the counter delta in one step.
// Callers hold the write lock.
func applyTaken(loc *model.Location, spot *model.Spot, taken bool) bool {
	if spot.Taken == taken {
		return false
	}
	spot.Taken = taken
	if taken {
		spot.Status = model.SpotTaken
		loc.AvailableSpots = max(0, loc.AvailableSpots-1)
	} else {
		spot.Status = model.SpotAvailable
		loc.AvailableSpots = max(0, loc.AvailableSpots+1)
	}
	return true
}

// CreateSession books a stall for the given duration starting at start.
// The amount is priced once from the location's hourly rate and frozen; later
// rate changes never touch existing sessions. The new session is prepended to
// the history so the most recent booking is first.
func (s *Store) CreateSession(locationID, spotID string, durationMinutes int, start time.Time) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.locIndex[locationID]
	if !ok {
		return model.Session{}, ErrUnknownLocation
	}
	spot, ok := s.spotIndex[locationID][spotID]
	if !ok {
		return model.Session{}, ErrUnknownSpot
	}
	if spot.Taken {
		return model.Session{}, ErrSpotTaken
	}

	applyTaken(loc, spot, true)

	sess := &model.Session{
		ID:              uuid.NewString(),
		LocationID:      loc.ID,
		LocationName:    loc.Name,
		Zone:            loc.Zone,
		SpotID:          spot.ID,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
		Amount:          round2(loc.PricePerHour * float64(durationMinutes) / 60),
		Status:          model.SessionActive,
	}
	s.sessions = append([]*model.Session{sess}, s.sessions...)
	s.sessIndex[sess.ID] = sess

	return *sess, nil
}

// Sessions returns the booking history, most recent first, with each entry's
// status evaluated at now.
func (s *Store) Sessions(now time.Time) []model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = *sess
		out[i].Status = statusAt(sess, now)
	}
	return out
}

// Session returns a single session by ID with its status evaluated at now.
func (s *Store) Session(sessionID string, now time.Time) (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessIndex[sessionID]
	if !ok {
		return model.Session{}, false
	}
	out := *sess
	out.Status = statusAt(sess, now)
	return out, true
}

// ActiveSession returns the session surfaced to quick-glance UI: the first
// entry in history order whose status evaluates to Active at now. With
// several active sessions the most recently created wins by construction of
// the insertion order.
func (s *Store) ActiveSession(now time.Time) (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if statusAt(sess, now) == model.SessionActive {
			out := *sess
			out.Status = model.SessionActive
			return out, true
		}
	}
	return model.Session{}, false
}

// RemainingTime computes the countdown for a session at now. It returns nil
// for unknown sessions and sessions that are not currently active. A session
// found to have run out is flipped to Completed here; expiry is detected
// lazily on read, there is no background sweep, so countdown consumers must
// poll at one-second cadence or better.
func (s *Store) RemainingTime(sessionID string, now time.Time) *model.RemainingTime {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessIndex[sessionID]
	if !ok || sess.EndTime.IsZero() {
		return nil
	}
	if sess.Status != model.SessionActive || now.Before(sess.StartTime) {
		return nil
	}

	remaining := int(sess.EndTime.Sub(now) / time.Second)
	if remaining <= 0 {
		sess.Status = model.SessionCompleted
		return nil
	}

	return &model.RemainingTime{
		Hours:   remaining / 3600,
		Minutes: (remaining % 3600) / 60,
		Seconds: remaining % 60,
	}
}

// statusAt evaluates a session's lifecycle state at now. A stored Completed
// status is terminal regardless of the clock.
func statusAt(sess *model.Session, now time.Time) model.SessionStatus {
	if sess.Status == model.SessionCompleted {
		return model.SessionCompleted
	}
	switch {
	case now.Before(sess.StartTime):
		return model.SessionUpcoming
	case now.Before(sess.EndTime):
		return model.SessionActive
	default:
		return model.SessionCompleted
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
