package models

import (
	"gorm.io/gorm"
)

// Route is the registry row for the one route a deployment serves.
// RouteKey is the external identifier shared with the consoles (ROUTE_ID).
type Route struct {
	gorm.Model

	RouteKey    string `json:"route_key" gorm:"uniqueIndex"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`

	// Geometry stored as a WKB LINESTRING (SRID 4326).
	// Input and output use GeoJSON; conversion happens at the API boundary.
	Geometry []byte `gorm:"type:bytea" json:"-"`
}
