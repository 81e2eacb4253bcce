package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"trotro/internal/geo"
	"trotro/internal/models"
)

// TTL is how long a pickup request stays live after creation.
const TTL = 5 * time.Minute

var (
	// ErrLocationRequired is returned before any write when the selected
	// stop demands GPS coordinates and none were provided.
	ErrLocationRequired = errors.New("location required for this stop")

	// ErrStopMismatch is returned when the stop does not belong to the
	// given destination on this route.
	ErrStopMismatch = errors.New("stop does not belong to destination on this route")
)

// Ledger records and reads waiting-passenger pickup requests for one route.
type Ledger struct {
	db      *gorm.DB
	routeID string
	now     func() time.Time
}

// New returns a ledger bound to one route, using the wall clock.
func New(db *gorm.DB, routeID string) *Ledger {
	return NewWithClock(db, routeID, time.Now)
}

// NewWithClock is New with an injected clock.
func NewWithClock(db *gorm.DB, routeID string, now func() time.Time) *Ledger {
	return &Ledger{db: db, routeID: routeID, now: now}
}

// RequestPickup inserts one live pickup request for a stop and returns its
// id. The stop must belong to the destination on this route. When the stop
// requires a location and none is given the call fails without writing.
func (l *Ledger) RequestPickup(stopID, destinationID uint, loc *geo.Position) (uint, error) {
	var stop models.Stop
	if err := l.db.First(&stop, stopID).Error; err != nil {
		return 0, fmt.Errorf("request pickup: %w", err)
	}
	if stop.DestinationID != destinationID || stop.RouteID != l.routeID {
		return 0, ErrStopMismatch
	}
	if stop.RequiresLocation && loc == nil {
		return 0, ErrLocationRequired
	}

	now := l.now()
	rec := models.WaitingPassenger{
		RouteID:       l.routeID,
		DestinationID: destinationID,
		StopID:        stopID,
		Active:        true,
		LastSeen:      now,
		ExpiresAt:     now.Add(TTL),
	}
	rec.CreatedAt = now
	if loc != nil {
		lat, lng := loc.Lat, loc.Lng
		rec.Lat, rec.Lng = &lat, &lng
	}

	if err := l.db.Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("request pickup: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"passenger_id":   rec.ID,
		"stop_id":        stopID,
		"destination_id": destinationID,
		"has_gps":        loc != nil,
		"expires_at":     rec.ExpiresAt.Format(time.RFC3339),
	}).Info("Pickup requested.")
	return rec.ID, nil
}

// FetchLive returns the live waiting passengers for a destination, oldest
// first so whoever has waited longest is served first. This is the single
// authoritative query behind both the feed-triggered and the poll-triggered
// refresh; callers replace their local list with the result wholesale.
func (l *Ledger) FetchLive(destinationID uint) ([]models.WaitingPassenger, error) {
	var recs []models.WaitingPassenger
	err := l.db.
		Where("destination_id = ? AND route_id = ? AND active = ? AND expires_at > ?",
			destinationID, l.routeID, true, l.now()).
		Order("created_at asc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("fetch live passengers for destination %d: %w", destinationID, err)
	}
	return recs, nil
}

// Get returns one pickup request by id regardless of liveness.
func (l *Ledger) Get(id uint) (*models.WaitingPassenger, error) {
	var rec models.WaitingPassenger
	if err := l.db.First(&rec, id).Error; err != nil {
		return nil, fmt.Errorf("get passenger %d: %w", id, err)
	}
	return &rec, nil
}

// Acknowledge marks a pickup request as picked up. The update is idempotent:
// acknowledging an already-inactive or expired record is a no-op, not an
// error.
func (l *Ledger) Acknowledge(id uint) error {
	res := l.db.Model(&models.WaitingPassenger{}).
		Where("id = ?", id).
		Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("acknowledge passenger %d: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		logrus.WithField("passenger_id", id).Info("Passenger acknowledged.")
	}
	return nil
}
