package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"trotro/internal/feed"
	"trotro/internal/geo"
	"trotro/internal/ledger"
)

// PassengerController exposes the waiting-passenger ledger: pickup requests
// from the passenger console, the live list and acknowledgements from the
// driver console.
type PassengerController struct {
	ledger  *ledger.Ledger
	hub     *feed.Hub
	routeID string
}

// NewPassengerController wires the ledger to the change feed.
func NewPassengerController(led *ledger.Ledger, hub *feed.Hub, routeID string) *PassengerController {
	return &PassengerController{ledger: led, hub: hub, routeID: routeID}
}

func (pc *PassengerController) publish(action feed.Action) {
	pc.hub.Publish(feed.Event{Table: "waiting_passengers", Action: action, RouteID: pc.routeID})
}

// RequestPickup inserts one pickup request. Coordinates are optional unless
// the stop requires them, in which case the request is refused before any
// write occurs.
func (pc *PassengerController) RequestPickup(c *gin.Context) {
	var input struct {
		StopID        uint     `json:"stop_id" binding:"required"`
		DestinationID uint     `json:"destination_id" binding:"required"`
		Lat           *float64 `json:"lat"`
		Lng           *float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var loc *geo.Position
	if input.Lat != nil && input.Lng != nil {
		loc = &geo.Position{Lat: *input.Lat, Lng: *input.Lng}
	}

	id, err := pc.ledger.RequestPickup(input.StopID, input.DestinationID, loc)
	switch {
	case errors.Is(err, ledger.ErrLocationRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "This stop requires a GPS location"})
		return
	case errors.Is(err, ledger.ErrStopMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Stop not found"})
		return
	case err != nil:
		logrus.WithError(err).Error("RequestPickup: insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request pickup"})
		return
	}

	pc.publish(feed.ActionInsert)
	c.JSON(http.StatusCreated, gin.H{"passenger_id": id, "has_gps": loc != nil})
}

// ListLive returns the live waiting passengers for a destination, oldest
// first. This backs both the feed-triggered and the poll-triggered refresh
// on the driver side.
func (pc *PassengerController) ListLive(c *gin.Context) {
	destID, err := strconv.ParseUint(c.Query("destination_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing destination_id"})
		return
	}

	recs, err := pc.ledger.FetchLive(uint(destID))
	if err != nil {
		logrus.WithError(err).Error("ListLive: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch waiting passengers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"passengers": recs, "waiting": len(recs)})
}

// Acknowledge marks a passenger as picked up. The response carries the
// passenger's last shared coordinates so the driver console can open
// directions; the deactivation happens regardless.
func (pc *PassengerController) Acknowledge(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid passenger ID"})
		return
	}

	rec, err := pc.ledger.Get(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Passenger not found"})
		return
	} else if err != nil {
		logrus.WithError(err).Error("Acknowledge: fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch passenger"})
		return
	}

	if err := pc.ledger.Acknowledge(uint(id)); err != nil {
		logrus.WithError(err).Error("Acknowledge: update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to acknowledge pickup"})
		return
	}

	pc.publish(feed.ActionUpdate)
	c.JSON(http.StatusOK, gin.H{
		"message": "Passenger acknowledged",
		"lat":     rec.Lat,
		"lng":     rec.Lng,
		"has_gps": rec.HasLocation(),
	})
}
