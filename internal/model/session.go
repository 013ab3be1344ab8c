package model

import "time"

// SessionStatus is the lifecycle state of a parking session.
// Transitions are one-way: Upcoming -> Active -> Completed.
type SessionStatus string

const (
	SessionUpcoming  SessionStatus = "Upcoming"
	SessionActive    SessionStatus = "Active"
	SessionCompleted SessionStatus = "Completed"
)

// Session represents one booking of a spot for a bounded time window.
type Session struct {
	ID              string        `json:"id"`
	LocationID      string        `json:"locationId"`
	LocationName    string        `json:"locationName"`
	Zone            string        `json:"zone"`
	SpotID          string        `json:"spotId"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	DurationMinutes int           `json:"durationMinutes"`
	Amount          float64       `json:"amount"` // computed once at booking time, never recomputed
	Status          SessionStatus `json:"status"`
}

// RemainingTime is the live countdown for an active session.
type RemainingTime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}
