package model

import "strings"

// StoreLocation is a physical shop.
type StoreLocation struct {
	LocationID int     `json:"locationID"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Address    string  `json:"address"`
}

// StoreLocationRequest is the create/update payload for a store location.
type StoreLocationRequest struct {
	LocationID int     `json:"locationID"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Address    string  `json:"address"`
}

// Validate checks coordinates and address.
func (r StoreLocationRequest) Validate() error {
	if strings.TrimSpace(r.Address) == "" {
		return NewValidationError("address", "address is required")
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return NewValidationError("latitude", "latitude must be between -90 and 90")
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return NewValidationError("longitude", "longitude must be between -180 and 180")
	}
	return nil
}
