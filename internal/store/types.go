package store

import "errors"

// Booking failure taxonomy. All three are recovered locally by the API
// layer; none propagate past it.
var (
	// ErrSpotTaken is returned when booking a stall that is already occupied.
	ErrSpotTaken = errors.New("spot is already taken")

	// ErrUnknownLocation is returned when booking against a location the
	// registry does not know.
	ErrUnknownLocation = errors.New("unknown location")

	// ErrUnknownSpot is returned when booking a stall that does not exist
	// within the given location.
	ErrUnknownSpot = errors.New("unknown spot")
)
