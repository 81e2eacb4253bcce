package livesync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"trotro/internal/feed"
	"trotro/internal/models"
)

// DefaultInterval is the poll backstop period. Change-feed delivery is not
// guaranteed, so the controller re-reads ground truth this often regardless.
const DefaultInterval = 5 * time.Second

// FetchFunc is the single authoritative live-passenger query. Its result
// fully replaces the controller's snapshot; there is no incremental merge.
type FetchFunc func(ctx context.Context) ([]models.WaitingPassenger, error)

// Config assembles a Controller.
type Config struct {
	Fetch FetchFunc

	// Events is the change-feed subscription. Any event triggers a
	// refetch; the payload is never inspected. May be nil (poll only).
	Events <-chan feed.Event

	// Interval overrides DefaultInterval when positive.
	Interval time.Duration

	// OnChange, when set, is invoked with each newly applied snapshot.
	OnChange func([]models.WaitingPassenger)
}

// Controller keeps a live-passenger snapshot fresh through a dual push+poll
// refresh. Every refresh carries a monotonically increasing generation and
// only the highest generation applied so far may replace the snapshot, so an
// older in-flight response can never overwrite a newer one.
type Controller struct {
	fetch    FetchFunc
	events   <-chan feed.Event
	interval time.Duration
	onChange func([]models.WaitingPassenger)

	issued atomic.Uint64

	mu       sync.Mutex
	applied  uint64
	snapshot []models.WaitingPassenger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewController builds a stopped controller from cfg.
func NewController(cfg Config) *Controller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{
		fetch:    cfg.Fetch,
		events:   cfg.Events,
		interval: interval,
		onChange: cfg.OnChange,
	}
}

// Start performs one immediate refresh, then runs the refresh loop until the
// context is cancelled or Stop is called. The initial refresh error is
// returned so callers can surface an empty-state notice; the loop still runs.
func (c *Controller) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	err := c.Refresh(ctx)
	go c.run(ctx)
	return err
}

// Stop tears the loop down and waits for it to exit. In-flight fetch results
// issued before Stop are discarded by the generation guard.
func (c *Controller) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	events := c.events
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		case _, ok := <-events:
			if !ok {
				// Subscription closed; the poll keeps going.
				events = nil
				continue
			}
			c.Refresh(ctx)
		}
	}
}

// Refresh runs the authoritative query once and applies the result if no
// newer refresh has been applied meanwhile. Safe for concurrent use. A fetch
// error leaves the previous snapshot in place.
func (c *Controller) Refresh(ctx context.Context) error {
	gen := c.issued.Add(1)

	recs, err := c.fetch(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Live passenger refresh failed, keeping previous snapshot.")
		return err
	}

	c.mu.Lock()
	if gen <= c.applied {
		// A newer refresh already landed; this result is stale.
		c.mu.Unlock()
		return nil
	}
	c.applied = gen
	c.snapshot = recs
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(append([]models.WaitingPassenger(nil), recs...))
	}
	return nil
}

// Snapshot returns a copy of the current live-passenger list, oldest first.
func (c *Controller) Snapshot() []models.WaitingPassenger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.WaitingPassenger(nil), c.snapshot...)
}

// WaitingCount returns the size of the current snapshot.
func (c *Controller) WaitingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshot)
}

// GroupByStop buckets a snapshot by stop id for per-stop display, keeping
// the oldest-first order within each bucket.
func GroupByStop(recs []models.WaitingPassenger) map[uint][]models.WaitingPassenger {
	grouped := make(map[uint][]models.WaitingPassenger)
	for _, p := range recs {
		grouped[p.StopID] = append(grouped[p.StopID], p)
	}
	return grouped
}
