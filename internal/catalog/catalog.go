package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"trotro/internal/models"
)

// ErrEmptyName rejects blank or whitespace-only names before any write.
var ErrEmptyName = errors.New("name must not be empty")

// Store manages destinations and their stops for the fixed route.
type Store struct {
	db      *gorm.DB
	routeID string
}

// NewStore returns a catalog store bound to one route.
func NewStore(db *gorm.DB, routeID string) *Store {
	return &Store{db: db, routeID: routeID}
}

// RouteID returns the route this store serves.
func (s *Store) RouteID() string {
	return s.routeID
}

// unknownStopVariants are the spellings passengers and drivers actually type
// for the "I don't know my stop" entry, including the curly-quote one iOS
// keyboards produce.
var unknownStopVariants = []string{
	"don't know my stop",
	"dont know my stop",
	"don’t know my stop",
}

// IsUnknownStopName reports whether a stop name designates the sentinel
// "don't know my stop" entry. Matching is case-insensitive and tolerant of
// apostrophe variants.
func IsUnknownStopName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, v := range unknownStopVariants {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

// ListDestinations returns all destinations sorted by name ascending.
func (s *Store) ListDestinations() ([]models.Destination, error) {
	var dests []models.Destination
	if err := s.db.Order("name asc").Find(&dests).Error; err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	return dests, nil
}

// CreateDestination validates the name locally and inserts a new destination.
// A blank name performs no write.
func (s *Store) CreateDestination(name string) (*models.Destination, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	dest := models.Destination{Name: name}
	if err := s.db.Create(&dest).Error; err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	return &dest, nil
}

// RenameDestination updates a destination's name with the same validation as
// creation. The update is only applied after the backend confirms the row
// exists.
func (s *Store) RenameDestination(id uint, newName string) (*models.Destination, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrEmptyName
	}

	var dest models.Destination
	if err := s.db.First(&dest, id).Error; err != nil {
		return nil, fmt.Errorf("rename destination %d: %w", id, err)
	}

	dest.Name = newName
	if err := s.db.Save(&dest).Error; err != nil {
		return nil, fmt.Errorf("rename destination %d: %w", id, err)
	}
	return &dest, nil
}

// DeleteDestination removes a destination and cascades to its stops and any
// waiting passengers referencing them. The cascade runs as one transaction so
// readers never observe a stop without its destination.
func (s *Store) DeleteDestination(id uint) error {
	var dest models.Destination
	if err := s.db.First(&dest, id).Error; err != nil {
		return fmt.Errorf("delete destination %d: %w", id, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("destination_id = ?", dest.ID).Delete(&models.WaitingPassenger{}).Error; err != nil {
			return err
		}
		if err := tx.Where("destination_id = ?", dest.ID).Delete(&models.Stop{}).Error; err != nil {
			return err
		}
		return tx.Delete(&dest).Error
	})
	if err != nil {
		return fmt.Errorf("delete destination %d: %w", id, err)
	}

	logrus.WithFields(logrus.Fields{
		"destination_id": dest.ID,
		"name":           dest.Name,
	}).Info("Destination deleted with cascading stops and passengers.")
	return nil
}

// ListStops returns the stops of a destination on this route, sorted by
// stop_order ascending with id as a stable tiebreak.
func (s *Store) ListStops(destinationID uint) ([]models.Stop, error) {
	var stops []models.Stop
	err := s.db.
		Where("destination_id = ? AND route_id = ?", destinationID, s.routeID).
		Order("stop_order asc, id asc").
		Find(&stops).Error
	if err != nil {
		return nil, fmt.Errorf("list stops for destination %d: %w", destinationID, err)
	}
	return stops, nil
}

// CreateStop appends a stop to a destination. The stop_order is assigned
// inside the insert transaction as max(existing)+1, so two concurrent adds
// cannot compute the same slot from stale local state.
func (s *Store) CreateStop(destinationID uint, name string) (*models.Stop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	var stop models.Stop
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var dest models.Destination
		if err := tx.First(&dest, destinationID).Error; err != nil {
			return err
		}

		var maxOrder int
		row := tx.Model(&models.Stop{}).
			Where("destination_id = ? AND route_id = ?", destinationID, s.routeID).
			Select("COALESCE(MAX(stop_order), 0)").
			Row()
		if err := row.Scan(&maxOrder); err != nil {
			return err
		}

		stop = models.Stop{
			Name:             name,
			RouteID:          s.routeID,
			DestinationID:    destinationID,
			StopOrder:        maxOrder + 1,
			RequiresLocation: IsUnknownStopName(name),
		}
		return tx.Create(&stop).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create stop for destination %d: %w", destinationID, err)
	}
	return &stop, nil
}

// RenameStop updates a stop's name and re-evaluates the sentinel flag, so a
// stop renamed to "don't know my stop" starts demanding GPS and one renamed
// away stops doing so.
func (s *Store) RenameStop(id uint, newName string) (*models.Stop, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrEmptyName
	}

	var stop models.Stop
	if err := s.db.First(&stop, id).Error; err != nil {
		return nil, fmt.Errorf("rename stop %d: %w", id, err)
	}

	stop.Name = newName
	stop.RequiresLocation = IsUnknownStopName(newName)
	if err := s.db.Save(&stop).Error; err != nil {
		return nil, fmt.Errorf("rename stop %d: %w", id, err)
	}
	return &stop, nil
}

// DeleteStop removes a stop and purges waiting passengers referencing it.
// Remaining stops keep their stop_order; the sequence is not renumbered.
func (s *Store) DeleteStop(id uint) error {
	var stop models.Stop
	if err := s.db.First(&stop, id).Error; err != nil {
		return fmt.Errorf("delete stop %d: %w", id, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stop_id = ?", stop.ID).Delete(&models.WaitingPassenger{}).Error; err != nil {
			return err
		}
		return tx.Delete(&stop).Error
	})
	if err != nil {
		return fmt.Errorf("delete stop %d: %w", id, err)
	}

	logrus.WithFields(logrus.Fields{
		"stop_id": stop.ID,
		"name":    stop.Name,
	}).Info("Stop deleted with cascading passengers.")
	return nil
}
