package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"trotro/internal/client"
	"trotro/internal/config"
	"trotro/internal/livesync"
	"trotro/internal/models"
	"trotro/internal/nav"
	"trotro/internal/prefs"
)

// The driver console: watch the live waiting list for a destination, and
// acknowledge pickups (which resolves a directions deep link for passengers
// who shared GPS).
func main() {
	var (
		server    = flag.String("server", "http://localhost:8080", "coordination server base URL")
		destName  = flag.String("dest", "", "destination name to watch")
		ackID     = flag.Uint("ack", 0, "acknowledge the passenger with this id and exit")
		ios       = flag.Bool("ios", false, "treat this device as iOS for map deep links")
		mapChoice = flag.String("maps", "", "remember map app preference: google or apple")
		prefsPath = flag.String("prefs", defaultPrefsPath(), "preference store path")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := prefs.Open(*prefsPath)
	if err != nil {
		log.Fatalf("open preferences: %v", err)
	}
	opener := nav.NewOpener(store, *ios)

	if *mapChoice != "" {
		choice := nav.Choice(strings.ToLower(*mapChoice))
		if choice != nav.ChoiceGoogle && choice != nav.ChoiceApple {
			log.Fatalf("unknown map choice %q (want google or apple)", *mapChoice)
		}
		if err := opener.Remember(choice); err != nil {
			log.Fatalf("remember map choice: %v", err)
		}
		fmt.Printf("Map preference saved: %s\n", choice)
	}

	api := client.New(*server)

	if *ackID != 0 {
		acknowledge(ctx, api, opener, *ackID)
		return
	}

	if *destName == "" {
		log.Fatal("missing -dest (destination name to watch)")
	}
	watch(ctx, api, *server, *destName)
}

func defaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trotro-prefs.json"
	}
	return filepath.Join(home, ".trotro", "prefs.json")
}

// acknowledge marks one passenger picked up, then prints the directions link
// for their last shared location. Deactivation happens even when no link can
// be resolved.
func acknowledge(ctx context.Context, api *client.API, opener *nav.Opener, id uint) {
	res, err := api.Acknowledge(ctx, id)
	if err != nil {
		log.Fatalf("acknowledge passenger %d: %v", id, err)
	}
	fmt.Printf("Passenger %d marked as picked up.\n", id)

	url, err := opener.DirectionsURL(res.Lat, res.Lng)
	switch {
	case errors.Is(err, nav.ErrNoLocation):
		fmt.Println("This passenger did not share GPS location; meet them at the stop.")
	case errors.Is(err, nav.ErrNoPreference):
		fmt.Println("Choose a map app once with -maps google or -maps apple to get deep links.")
	case err != nil:
		log.Fatalf("resolve directions: %v", err)
	default:
		fmt.Printf("Open directions: %s\n", url)
	}
}

// watch keeps the live waiting list fresh via the change feed plus the 5s
// poll and reprints it on every change.
func watch(ctx context.Context, api *client.API, server, destName string) {
	dest, err := findDestination(ctx, api, destName)
	if err != nil {
		log.Fatal(err)
	}

	stops, err := api.Stops(ctx, dest.ID)
	if err != nil {
		log.Fatalf("list stops: %v", err)
	}
	stopNames := make(map[uint]string, len(stops))
	for _, s := range stops {
		stopNames[s.ID] = s.Name
	}

	events, err := client.SubscribeFeed(ctx, server, config.RouteID())
	if err != nil {
		// Push is best effort; the poll still keeps us fresh.
		log.Printf("change feed unavailable (%v); relying on polling", err)
		events = nil
	}

	ctrl := livesync.NewController(livesync.Config{
		Fetch: func(ctx context.Context) ([]models.WaitingPassenger, error) {
			return api.LivePassengers(ctx, dest.ID)
		},
		Events: events,
		OnChange: func(recs []models.WaitingPassenger) {
			printWaiting(dest.Name, stopNames, recs)
		},
	})

	if err := ctrl.Start(ctx); err != nil {
		log.Printf("initial fetch failed: %v", err)
	}
	defer ctrl.Stop()

	fmt.Printf("Watching %q on route %s. Ctrl-C to quit.\n", dest.Name, config.RouteID())
	<-ctx.Done()
}

func findDestination(ctx context.Context, api *client.API, name string) (*models.Destination, error) {
	dests, err := api.Destinations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	for i := range dests {
		if strings.EqualFold(dests[i].Name, name) {
			return &dests[i], nil
		}
	}
	return nil, fmt.Errorf("destination %q not found", name)
}

func printWaiting(destName string, stopNames map[uint]string, recs []models.WaitingPassenger) {
	fmt.Printf("\n== %s: %d waiting ==\n", destName, len(recs))
	for stopID, ps := range livesync.GroupByStop(recs) {
		name := stopNames[stopID]
		if name == "" {
			name = fmt.Sprintf("stop %d", stopID)
		}
		fmt.Printf("  %s:\n", name)
		for n, p := range ps {
			gps := "no GPS (stop pickup)"
			if p.HasLocation() {
				gps = "GPS shared"
			}
			fmt.Printf("    %d. passenger #%d, %s, waiting since %s\n",
				n+1, p.ID, gps, p.CreatedAt.Format("15:04:05"))
		}
	}
}
