package model

// SpotStatus is the registry-side status of a stall, derived from the taken flag.
type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotTaken     SpotStatus = "taken"
)

// Spot represents a single parking stall within a location.
type Spot struct {
	ID           string     `json:"id"` // unique within the location, e.g. "spot_3"
	LocationID   string     `json:"locationId"`
	Taken        bool       `json:"taken"`
	IsAccessible bool       `json:"isAccessible"`
	Status       SpotStatus `json:"status"`
}
