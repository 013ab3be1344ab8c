package model

// Location represents a parking facility.
type Location struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Zone           string  `json:"zone"`
	PricePerHour   float64 `json:"pricePerHour"`
	TotalSpots     int     `json:"totalSpots"`
	AvailableSpots int     `json:"availableSpots"`
}
