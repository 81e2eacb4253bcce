package nav

import (
	"errors"
	"fmt"

	"trotro/internal/prefs"
)

// Choice identifies a map application for directions.
type Choice string

const (
	ChoiceGoogle Choice = "google"
	ChoiceApple  Choice = "apple"
)

var (
	// ErrNoLocation means the passenger never shared GPS coordinates, so
	// there is nothing to navigate to.
	ErrNoLocation = errors.New("passenger did not share a GPS location")

	// ErrNoPreference means an iOS client has not chosen a map app yet;
	// the caller must ask once and call Remember.
	ErrNoPreference = errors.New("no map preference chosen yet")
)

// GoogleWebURL builds the universal web directions link. It also serves as
// the fallback when the Google Maps app link does not open.
func GoogleWebURL(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%v,%v", lat, lng)
}

// GoogleAppURL builds the Google Maps iOS app deep link.
func GoogleAppURL(lat, lng float64) string {
	return fmt.Sprintf("comgooglemaps://?daddr=%v,%v&directionsmode=driving", lat, lng)
}

// AppleURL builds the Apple Maps directions link.
func AppleURL(lat, lng float64) string {
	return fmt.Sprintf("https://maps.apple.com/?daddr=%v,%v", lat, lng)
}

// Opener resolves directions deep links for acknowledged pickups. On iOS the
// driver's map choice is remembered through the preference store and reused
// without re-prompting; elsewhere Google's web URL is always used.
type Opener struct {
	prefs *prefs.Store
	ios   bool
}

// NewOpener returns an opener for the given platform.
func NewOpener(p *prefs.Store, ios bool) *Opener {
	return &Opener{prefs: p, ios: ios}
}

// Preferred returns the remembered map choice, or "" when none was made.
func (o *Opener) Preferred() Choice {
	return Choice(o.prefs.Get(prefs.KeyMapPreference))
}

// Remember stores the map choice durably so the driver is never re-prompted.
func (o *Opener) Remember(c Choice) error {
	return o.prefs.Set(prefs.KeyMapPreference, string(c))
}

// DirectionsURL returns the deep link to open for a passenger's shared
// location. Nil coordinates yield ErrNoLocation; an iOS opener without a
// remembered choice yields ErrNoPreference so the caller can prompt once.
func (o *Opener) DirectionsURL(lat, lng *float64) (string, error) {
	if lat == nil || lng == nil {
		return "", ErrNoLocation
	}
	if !o.ios {
		return GoogleWebURL(*lat, *lng), nil
	}
	switch o.Preferred() {
	case ChoiceGoogle:
		return GoogleAppURL(*lat, *lng), nil
	case ChoiceApple:
		return AppleURL(*lat, *lng), nil
	default:
		return "", ErrNoPreference
	}
}
