package controllers

import (
	"encoding/binary"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"trotro/internal/models"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// RouteController manages the registry row for the one route this deployment
// serves. Geometry travels as GeoJSON over the API and is stored as WKB.
type RouteController struct {
	db      *gorm.DB
	routeID string
}

// NewRouteController returns a controller bound to the deployment's route key.
func NewRouteController(db *gorm.DB, routeID string) *RouteController {
	return &RouteController{db: db, routeID: routeID}
}

// RouteResponse mirrors models.Route with Geometry as a GeoJSON string.
type RouteResponse struct {
	ID          uint      `json:"ID"`
	CreatedAt   time.Time `json:"CreatedAt"`
	UpdatedAt   time.Time `json:"UpdatedAt"`
	RouteKey    string    `json:"route_key"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Geometry    string    `json:"geometry"`
}

func toRouteResponse(route models.Route) RouteResponse {
	jsonGeom, _ := convertWKBToGeoJSON(route.Geometry)
	return RouteResponse{
		ID:          route.ID,
		CreatedAt:   route.CreatedAt,
		UpdatedAt:   route.UpdatedAt,
		RouteKey:    route.RouteKey,
		Name:        route.Name,
		Description: route.Description,
		Geometry:    jsonGeom,
	}
}

// parseAndConvertGeometry parses a GeoJSON string into a geom.T and returns WKB bytes
func parseAndConvertGeometry(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal([]byte(raw), &g); err != nil {
		return nil, err
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

// convertWKBToGeoJSON converts WKB bytes into a GeoJSON string
func convertWKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetRoute returns the deployment's route registry row.
func (rc *RouteController) GetRoute(c *gin.Context) {
	var route models.Route
	if err := rc.db.Where("route_key = ?", rc.routeID).First(&route).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not registered yet"})
		} else {
			logrus.WithError(err).Error("GetRoute: query failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// PutRoute creates or updates the route registry row. Name and description
// replace existing values; geometry is optional GeoJSON and an empty string
// clears it.
func (rc *RouteController) PutRoute(c *gin.Context) {
	var input struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		Geometry    *string `json:"geometry"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("PutRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var route models.Route
	err := rc.db.Where("route_key = ?", rc.routeID).First(&route).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).Error("PutRoute: query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	route.RouteKey = rc.routeID
	route.Name = input.Name
	route.Description = input.Description
	if input.Geometry != nil {
		if *input.Geometry == "" {
			route.Geometry = nil
		} else {
			wkbGeom, gerr := parseAndConvertGeometry(*input.Geometry)
			if gerr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid geometry: " + gerr.Error()})
				return
			}
			route.Geometry = wkbGeom
		}
	}

	if err := rc.db.Save(&route).Error; err != nil {
		logrus.WithError(err).Error("PutRoute: save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Save failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}
