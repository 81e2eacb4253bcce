package geo

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Profile controls how hard a provider tries to obtain a fix.
type Profile struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge allows reuse of a cached fix no older than this.
	// Zero means a fresh fix is mandatory.
	MaximumAge time.Duration
}

// Mandatory is the profile for stops that require GPS: high accuracy, 12s
// timeout, no cached reuse.
var Mandatory = Profile{HighAccuracy: true, Timeout: 12 * time.Second}

// Optional is the profile for ordinary stops: lower accuracy, 8s timeout,
// reuse of a fix up to a minute old.
var Optional = Profile{Timeout: 8 * time.Second, MaximumAge: 60 * time.Second}

var (
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrTimeout          = errors.New("geolocation timed out")
	ErrUnavailable      = errors.New("geolocation unavailable")
)

// Provider yields the device's current position under a given profile.
type Provider interface {
	Current(ctx context.Context, p Profile) (Position, error)
}

// Acquire runs the pickup-request location flow. When required, a failure to
// obtain a position is returned to the caller (the request must be refused
// before any write). When optional, failures degrade to a nil position and
// the request proceeds without coordinates.
func Acquire(ctx context.Context, provider Provider, required bool) (*Position, error) {
	if provider == nil {
		if required {
			return nil, ErrUnavailable
		}
		return nil, nil
	}

	profile := Optional
	if required {
		profile = Mandatory
	}

	cctx, cancel := context.WithTimeout(ctx, profile.Timeout)
	defer cancel()

	pos, err := provider.Current(cctx, profile)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		if required {
			return nil, err
		}
		return nil, nil
	}
	return &pos, nil
}

// Static is a provider that always reports a fixed position. The console
// binaries use it, fed from flags, since terminals have no GPS hardware.
type Static struct {
	Pos Position
}

func (s Static) Current(ctx context.Context, p Profile) (Position, error) {
	return s.Pos, nil
}

// Cache wraps a provider and reuses its last fix when the requesting
// profile's MaximumAge permits it.
type Cache struct {
	inner Provider
	clock func() time.Time

	mu  sync.Mutex
	pos Position
	at  time.Time
	ok  bool
}

// NewCache wraps a provider with last-fix reuse.
func NewCache(inner Provider) *Cache {
	return &Cache{inner: inner, clock: time.Now}
}

// NewCacheWithClock is NewCache with an injected clock.
func NewCacheWithClock(inner Provider, clock func() time.Time) *Cache {
	return &Cache{inner: inner, clock: clock}
}

func (c *Cache) Current(ctx context.Context, p Profile) (Position, error) {
	c.mu.Lock()
	if c.ok && p.MaximumAge > 0 && c.clock().Sub(c.at) <= p.MaximumAge {
		pos := c.pos
		c.mu.Unlock()
		return pos, nil
	}
	c.mu.Unlock()

	pos, err := c.inner.Current(ctx, p)
	if err != nil {
		return Position{}, err
	}

	c.mu.Lock()
	c.pos, c.at, c.ok = pos, c.clock(), true
	c.mu.Unlock()
	return pos, nil
}
