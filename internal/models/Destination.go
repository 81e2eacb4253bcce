package models

import (
	"gorm.io/gorm"
)

// Destination is a terminus passengers travel towards. All stops and waiting
// passengers hang off a destination; deleting one cascades to both.
type Destination struct {
	gorm.Model

	Name string `json:"name" binding:"required"`

	// Associations
	Stops      []Stop             `gorm:"foreignKey:DestinationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stops,omitempty"`
	Passengers []WaitingPassenger `gorm:"foreignKey:DestinationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"passengers,omitempty"`
}
