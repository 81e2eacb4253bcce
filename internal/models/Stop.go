package models

import (
	"gorm.io/gorm"
)

// Stop is a boarding point along the route for one destination.
// StopOrder gives the display order; new stops append at max+1 and the
// sequence is never renumbered on delete.
type Stop struct {
	gorm.Model

	Name          string `json:"name" binding:"required"`
	RouteID       string `json:"route_id" gorm:"index"`
	DestinationID uint   `json:"destination_id" gorm:"index"`
	StopOrder     int    `json:"stop_order"`

	// RequiresLocation marks the "don't know my stop" sentinel: pickup
	// requests for this stop must carry coordinates.
	RequiresLocation bool `json:"requires_location"`

	Passengers []WaitingPassenger `gorm:"foreignKey:StopID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"passengers,omitempty"`
}
