package livesync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"trotro/internal/feed"
	"trotro/internal/models"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func passengers(stopIDs ...uint) []models.WaitingPassenger {
	out := make([]models.WaitingPassenger, len(stopIDs))
	for i, id := range stopIDs {
		out[i].StopID = id
	}
	return out
}

func TestStartPerformsImmediateFetch(t *testing.T) {
	t.Parallel()

	ctrl := NewController(Config{
		Fetch: func(ctx context.Context) ([]models.WaitingPassenger, error) {
			return passengers(1, 2), nil
		},
		Interval: time.Hour,
	})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer ctrl.Stop()

	if got := ctrl.WaitingCount(); got != 2 {
		t.Errorf("WaitingCount after Start = %d, want 2", got)
	}
}

func TestFeedEventTriggersRefresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	events := make(chan feed.Event, 1)

	ctrl := NewController(Config{
		Fetch: func(ctx context.Context) ([]models.WaitingPassenger, error) {
			n := calls.Add(1)
			return passengers(make([]uint, n)...), nil
		},
		Events:   events,
		Interval: time.Hour, // isolate the push path
	})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer ctrl.Stop()

	events <- feed.Event{Table: "waiting_passengers", Action: feed.ActionInsert}
	waitFor(t, func() bool { return calls.Load() >= 2 }, "feed event did not trigger a refetch")
	waitFor(t, func() bool { return ctrl.WaitingCount() == 2 }, "snapshot not replaced after feed event")
}

func TestPollTriggersRefresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	ctrl := NewController(Config{
		Fetch: func(ctx context.Context) ([]models.WaitingPassenger, error) {
			calls.Add(1)
			return nil, nil
		},
		Interval: 10 * time.Millisecond,
	})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer ctrl.Stop()

	waitFor(t, func() bool { return calls.Load() >= 3 }, "poll ticks did not trigger refetches")
}

func TestStaleResponseCannotOverwriteNewer(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	ctrl := NewController(Config{
		Fetch: func(ctx context.Context) ([]models.WaitingPassenger, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-release
				return passengers(1), nil // stale view
			}
			return passengers(2, 3), nil // fresh view
		},
		Interval: time.Hour,
	})

	// First refresh stalls inside fetch; a second one overtakes it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Refresh(context.Background())
	}()
	<-started

	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("overtaking Refresh: %v", err)
	}
	close(release)
	<-done

	snap := ctrl.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("stale response overwrote newer snapshot: got %d records, want 2", len(snap))
	}
}

func TestFetchErrorKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	ctrl := NewController(Config{
		Fetch: func(ctx context.Context) ([]models.WaitingPassenger, error) {
			if fail.Load() {
				return nil, errors.New("backend down")
			}
			return passengers(7), nil
		},
		Interval: time.Hour,
	})

	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	fail.Store(true)
	if err := ctrl.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh with failing backend: want error")
	}

	snap := ctrl.Snapshot()
	if len(snap) != 1 || snap[0].StopID != 7 {
		t.Errorf("snapshot lost on fetch error: %+v", snap)
	}
}

func TestStopHaltsRefreshLoop(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	events := make(chan feed.Event, 1)
	ctrl := NewController(Config{
		Fetch: func(ctx context.Context) ([]models.WaitingPassenger, error) {
			calls.Add(1)
			return nil, nil
		},
		Events:   events,
		Interval: 10 * time.Millisecond,
	})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctrl.Stop()
	after := calls.Load()
	events <- feed.Event{}
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != after {
		t.Errorf("refreshes continued after Stop: %d -> %d", after, calls.Load())
	}
}

func TestOnChangeSeesEachAppliedSnapshot(t *testing.T) {
	t.Parallel()

	var seen atomic.Int32
	ctrl := NewController(Config{
		Fetch: func(ctx context.Context) ([]models.WaitingPassenger, error) {
			return passengers(1), nil
		},
		Interval: time.Hour,
		OnChange: func(recs []models.WaitingPassenger) {
			seen.Add(int32(len(recs)))
		},
	})
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if seen.Load() != 1 {
		t.Errorf("OnChange not invoked with applied snapshot")
	}
}

func TestGroupByStop(t *testing.T) {
	t.Parallel()

	recs := passengers(5, 9, 5, 5, 9)
	grouped := GroupByStop(recs)
	if len(grouped[5]) != 3 || len(grouped[9]) != 2 {
		t.Errorf("GroupByStop: got %d/%d, want 3/2", len(grouped[5]), len(grouped[9]))
	}
}
