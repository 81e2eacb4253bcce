package models

import (
	"time"

	"gorm.io/gorm"
)

// WaitingPassenger is one pickup request. A record is live while Active is
// true and ExpiresAt lies in the future; expiry and acknowledgement are both
// terminal for the live set, the row itself is kept.
type WaitingPassenger struct {
	gorm.Model

	RouteID       string   `json:"route_id" gorm:"index"`
	DestinationID uint     `json:"destination_id" gorm:"index"`
	StopID        uint     `json:"stop_id" gorm:"index"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	Active        bool     `json:"active" gorm:"default:true"`

	LastSeen  time.Time `json:"last_seen"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// Live reports whether the record belongs to the live set at the given time.
func (p WaitingPassenger) Live(now time.Time) bool {
	return p.Active && now.Before(p.ExpiresAt)
}

// HasLocation reports whether the passenger shared GPS coordinates.
func (p WaitingPassenger) HasLocation() bool {
	return p.Lat != nil && p.Lng != nil
}
