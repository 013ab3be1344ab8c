package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-status-backend/config"
	"parking-status-backend/internal/api"
	"parking-status-backend/internal/feed"
	"parking-status-backend/internal/model"
	"parking-status-backend/internal/store"
)

// TestBookingLifecycle walks one booking from creation through countdown to
// expiry and verifies the registry and the session history at each step.
func TestBookingLifecycle(t *testing.T) {
	s := store.New([]config.LocationConfig{
		{ID: "loc1", Name: "Downtown Parking", Zone: "A-06", PricePerHour: 2.50, TotalSpots: 8, AccessibleSpots: []int{1}},
	})
	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// --- Step 1: Book a stall for an hour ---
	sess, err := s.CreateSession("loc1", "spot_3", 60, t0)
	require.NoError(t, err)
	assert.Equal(t, 2.50, sess.Amount, "one hour at $2.50/h")
	assert.Equal(t, "Downtown Parking", sess.LocationName)
	assert.Equal(t, t0.Add(time.Hour), sess.EndTime)
	assert.Equal(t, model.SessionActive, sess.Status)

	loc, ok := s.Location("loc1")
	require.True(t, ok)
	assert.Equal(t, 7, loc.AvailableSpots, "booking takes the stall immediately")

	spots := s.GetSpots("loc1")
	assert.True(t, spots[2].Taken)
	assert.Equal(t, model.SpotTaken, spots[2].Status)

	// Double-booking the same stall is rejected without side effects.
	_, err = s.CreateSession("loc1", "spot_3", 30, t0)
	assert.ErrorIs(t, err, store.ErrSpotTaken)
	loc, _ = s.Location("loc1")
	assert.Equal(t, 7, loc.AvailableSpots)

	// --- Step 2: Countdown ---
	remaining := s.RemainingTime(sess.ID, t0)
	require.NotNil(t, remaining)
	assert.Equal(t, model.RemainingTime{Hours: 1, Minutes: 0, Seconds: 0}, *remaining)

	remaining = s.RemainingTime(sess.ID, t0.Add(3599*time.Second))
	require.NotNil(t, remaining)
	assert.Equal(t, model.RemainingTime{Hours: 0, Minutes: 0, Seconds: 1}, *remaining)

	// --- Step 3: Expiry is detected on the read that crosses the end time ---
	assert.Nil(t, s.RemainingTime(sess.ID, t0.Add(3600*time.Second)))

	expired, ok := s.Session(sess.ID, t0.Add(3600*time.Second))
	require.True(t, ok)
	assert.Equal(t, model.SessionCompleted, expired.Status)

	// Completed is terminal; rewinding the clock does not resurrect it.
	rewound, _ := s.Session(sess.ID, t0.Add(30*time.Minute))
	assert.Equal(t, model.SessionCompleted, rewound.Status)
	assert.Nil(t, s.RemainingTime(sess.ID, t0.Add(30*time.Minute)))

	_, ok = s.ActiveSession(t0.Add(2 * time.Hour))
	assert.False(t, ok, "no active session after expiry")
}

// TestLiveFeedOverAPI runs the full router against a fake occupancy detector
// and verifies that detector snapshots surface on the live location's spot
// grid while other locations stay registry-driven.
func TestLiveFeedOverAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// A detector that pushes one snapshot and then holds the connection.
	upgrader := websocket.Upgrader{}
	detector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		err = conn.WriteMessage(websocket.TextMessage, []byte(`{"spot_1":"occupied","spot_2":"empty","spot_3":"expired"}`))
		assert.NoError(t, err)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer detector.Close()

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Feed = config.FeedConfig{
		Enabled:        true,
		URL:            "ws" + strings.TrimPrefix(detector.URL, "http"),
		RetryDelay:     50 * time.Millisecond,
		LiveLocationID: "loc4",
	}

	s := store.New([]config.LocationConfig{
		{ID: "loc1", Name: "Downtown Parking", PricePerHour: 2.50, TotalSpots: 8},
		{ID: "loc4", Name: "University Parking", PricePerHour: 1.50, TotalSpots: 3},
	})

	testDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&model.PushSubscription{}, &model.SubscriptionLocation{}))

	feedSvc := feed.NewService(&cfg.Feed)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feedSvc.Run(ctx)

	router := api.NewRouter(cfg, s, testDB, feedSvc, nil, nil)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		return w
	}

	require.Eventually(t, func() bool {
		return feedSvc.ConnectionState() == feed.StateConnected
	}, 2*time.Second, 10*time.Millisecond)

	// The live location carries the detector overlay.
	require.Eventually(t, func() bool {
		var resp struct {
			Live  bool `json:"live"`
			Spots []struct {
				ID         string `json:"id"`
				LiveStatus string `json:"liveStatus"`
			} `json:"spots"`
		}
		w := get("/api/locations/loc4/spots")
		if w.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			return false
		}
		return resp.Live && len(resp.Spots) == 3 && resp.Spots[0].LiveStatus == "occupied"
	}, 2*time.Second, 20*time.Millisecond)

	// The registry-driven location has no overlay.
	var plain struct {
		Live      bool   `json:"live"`
		FeedState string `json:"feedState"`
	}
	w := get("/api/locations/loc1/spots")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plain))
	assert.False(t, plain.Live)
	assert.Empty(t, plain.FeedState)

	// Feed health is exposed on its own endpoint.
	w = get("/api/feed/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"connected"}`, w.Body.String())
}

// TestBookingOverAPI drives a booking through the HTTP surface end to end.
func TestBookingOverAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Feed = config.FeedConfig{Enabled: false}

	s := store.New([]config.LocationConfig{
		{ID: "loc1", Name: "Downtown Parking", Zone: "A-06", PricePerHour: 2.50, TotalSpots: 8},
	})
	router := api.NewRouter(cfg, s, nil, feed.NewService(&cfg.Feed), nil, nil)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		var req *http.Request
		if body != "" {
			req, _ = http.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req, _ = http.NewRequest(method, path, nil)
		}
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/sessions", `{"location_id":"loc1","spot_id":"spot_3","duration_minutes":60}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var sess model.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, 2.50, sess.Amount)

	// The catalog reflects the booking.
	w = do(http.MethodGet, "/api/locations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var locations []model.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &locations))
	require.Len(t, locations, 1)
	assert.Equal(t, 7, locations[0].AvailableSpots)

	// The countdown endpoint serves the fresh session.
	w = do(http.MethodGet, "/api/sessions/"+sess.ID+"/remaining", "")
	require.Equal(t, http.StatusOK, w.Code)
	var remaining model.RemainingTime
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &remaining))
	total := remaining.Hours*3600 + remaining.Minutes*60 + remaining.Seconds
	assert.InDelta(t, 3600, total, 2)

	// The booking tops the history and is the active session.
	w = do(http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, sess.ID, history[0].ID)

	w = do(http.MethodGet, "/api/sessions/active", "")
	require.Equal(t, http.StatusOK, w.Code)
	var active model.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	assert.Equal(t, sess.ID, active.ID)
}
