package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"trotro/internal/catalog"
	"trotro/internal/feed"
)

// CatalogController exposes destination and stop CRUD for the driver console
// and read-only listings for the passenger console. Every successful write
// publishes a change event so subscribed drivers refresh.
type CatalogController struct {
	store *catalog.Store
	hub   *feed.Hub
}

// NewCatalogController wires the catalog store to the change feed.
func NewCatalogController(store *catalog.Store, hub *feed.Hub) *CatalogController {
	return &CatalogController{store: store, hub: hub}
}

func (cc *CatalogController) publish(table string, action feed.Action) {
	cc.hub.Publish(feed.Event{Table: table, Action: action, RouteID: cc.store.RouteID()})
}

// statusForCatalogErr maps store errors onto HTTP statuses the way the rest
// of the API does: validation 400, missing rows 404, anything else 500.
func statusForCatalogErr(err error) int {
	switch {
	case errors.Is(err, catalog.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ListDestinations returns all destinations sorted by name.
func (cc *CatalogController) ListDestinations(c *gin.Context) {
	dests, err := cc.store.ListDestinations()
	if err != nil {
		logrus.WithError(err).Error("ListDestinations: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch destinations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"destinations": dests})
}

// CreateDestination adds a destination. Blank names are rejected without a
// write.
func (cc *CatalogController) CreateDestination(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	dest, err := cc.store.CreateDestination(input.Name)
	if err != nil {
		c.JSON(statusForCatalogErr(err), gin.H{"error": err.Error()})
		return
	}

	cc.publish("destinations", feed.ActionInsert)
	c.JSON(http.StatusCreated, gin.H{"destination": dest})
}

// RenameDestination updates a destination's name.
func (cc *CatalogController) RenameDestination(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination ID"})
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	dest, err := cc.store.RenameDestination(uint(id), input.Name)
	if err != nil {
		c.JSON(statusForCatalogErr(err), gin.H{"error": err.Error()})
		return
	}

	cc.publish("destinations", feed.ActionUpdate)
	c.JSON(http.StatusOK, gin.H{"destination": dest})
}

// DeleteDestination removes a destination, cascading to its stops and their
// waiting passengers. Confirmation happens in the console before the call.
func (cc *CatalogController) DeleteDestination(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination ID"})
		return
	}

	if err := cc.store.DeleteDestination(uint(id)); err != nil {
		c.JSON(statusForCatalogErr(err), gin.H{"error": err.Error()})
		return
	}

	cc.publish("destinations", feed.ActionDelete)
	c.JSON(http.StatusOK, gin.H{"message": "Destination deleted"})
}

// ListStops returns a destination's stops in display order.
func (cc *CatalogController) ListStops(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination ID"})
		return
	}

	stops, err := cc.store.ListStops(uint(id))
	if err != nil {
		logrus.WithError(err).Error("ListStops: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch stops"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stops": stops})
}

// CreateStop appends a stop to a destination with a server-assigned order.
func (cc *CatalogController) CreateStop(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination ID"})
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	stop, err := cc.store.CreateStop(uint(id), input.Name)
	if err != nil {
		c.JSON(statusForCatalogErr(err), gin.H{"error": err.Error()})
		return
	}

	cc.publish("route_stops", feed.ActionInsert)
	c.JSON(http.StatusCreated, gin.H{"stop": stop})
}

// RenameStop updates a stop's name (and its sentinel flag).
func (cc *CatalogController) RenameStop(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stop ID"})
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	stop, err := cc.store.RenameStop(uint(id), input.Name)
	if err != nil {
		c.JSON(statusForCatalogErr(err), gin.H{"error": err.Error()})
		return
	}

	cc.publish("route_stops", feed.ActionUpdate)
	c.JSON(http.StatusOK, gin.H{"stop": stop})
}

// DeleteStop removes a stop and purges its waiting passengers.
func (cc *CatalogController) DeleteStop(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stop ID"})
		return
	}

	if err := cc.store.DeleteStop(uint(id)); err != nil {
		c.JSON(statusForCatalogErr(err), gin.H{"error": err.Error()})
		return
	}

	cc.publish("route_stops", feed.ActionDelete)
	c.JSON(http.StatusOK, gin.H{"message": "Stop deleted"})
}
