package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trotro/internal/client"
	"trotro/internal/geo"
	"trotro/internal/models"
	"trotro/internal/prefs"
)

// The passenger console: pick a destination and stop, optionally share a
// location, and request a pickup. Mirrors the three-step passenger screen.
func main() {
	var (
		server        = flag.String("server", "http://localhost:8080", "coordination server base URL")
		destName      = flag.String("dest", "", "destination name")
		stopName      = flag.String("stop", "", "stop name")
		lat           = flag.Float64("lat", math.NaN(), "latitude to share (optional)")
		lng           = flag.Float64("lng", math.NaN(), "longitude to share (optional)")
		ios           = flag.Bool("ios", false, "treat this device as iOS")
		dismissBanner = flag.Bool("dismiss-banner", false, "stop showing the home-screen install tip")
		prefsPath     = flag.String("prefs", defaultPrefsPath(), "preference store path")
		list          = flag.Bool("list", false, "list destinations (and stops with -dest) and exit")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := prefs.Open(*prefsPath)
	if err != nil {
		log.Fatalf("open preferences: %v", err)
	}
	if *dismissBanner {
		if err := store.SetBool(prefs.KeyBannerDismissed, true); err != nil {
			log.Fatalf("save preference: %v", err)
		}
	}
	if *ios && !store.GetBool(prefs.KeyBannerDismissed) {
		fmt.Println("Tip: add this console to your home screen for one-tap pickups. (-dismiss-banner hides this.)")
	}

	api := client.New(*server)

	if *list {
		listCatalog(ctx, api, *destName)
		return
	}
	if *destName == "" || *stopName == "" {
		log.Fatal("missing -dest or -stop (use -list to see what's available)")
	}

	dest, stop, err := resolveSelection(ctx, api, *destName, *stopName)
	if err != nil {
		log.Fatal(err)
	}

	// A terminal has no GPS; coordinates come from flags when shared.
	var provider geo.Provider
	if !math.IsNaN(*lat) && !math.IsNaN(*lng) {
		provider = geo.Static{Pos: geo.Position{Lat: *lat, Lng: *lng}}
	}

	pos, err := geo.Acquire(ctx, provider, stop.RequiresLocation)
	if err != nil {
		fmt.Println("This stop needs your location so the driver can find you.")
		fmt.Println("Pass -lat and -lng, or pick a named stop instead.")
		os.Exit(1)
	}

	id, err := api.RequestPickup(ctx, stop.ID, dest.ID, pos)
	if err != nil {
		log.Fatalf("request pickup: %v", err)
	}

	if pos != nil {
		fmt.Printf("✅ Pickup requested with GPS (request #%d)\n", id)
	} else {
		fmt.Printf("✅ Pickup requested, no GPS (request #%d)\n", id)
	}
}

func defaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trotro-prefs.json"
	}
	return filepath.Join(home, ".trotro", "prefs.json")
}

func listCatalog(ctx context.Context, api *client.API, destName string) {
	dests, err := api.Destinations(ctx)
	if err != nil {
		log.Fatalf("list destinations: %v", err)
	}
	if len(dests) == 0 {
		fmt.Println("No destinations yet. Ask a driver to add them.")
		return
	}
	for _, d := range dests {
		fmt.Printf("Destination: %s\n", d.Name)
		if destName != "" && strings.EqualFold(d.Name, destName) {
			stops, err := api.Stops(ctx, d.ID)
			if err != nil {
				log.Fatalf("list stops: %v", err)
			}
			for _, s := range stops {
				suffix := ""
				if s.RequiresLocation {
					suffix = " (uses your GPS to help the driver find you)"
				}
				fmt.Printf("  %2d. %s%s\n", s.StopOrder, s.Name, suffix)
			}
		}
	}
}

func resolveSelection(ctx context.Context, api *client.API, destName, stopName string) (*models.Destination, *models.Stop, error) {
	dests, err := api.Destinations(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list destinations: %w", err)
	}

	var dest *models.Destination
	for i := range dests {
		if strings.EqualFold(dests[i].Name, destName) {
			dest = &dests[i]
			break
		}
	}
	if dest == nil {
		return nil, nil, fmt.Errorf("destination %q not found", destName)
	}

	stops, err := api.Stops(ctx, dest.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list stops: %w", err)
	}
	for i := range stops {
		if strings.EqualFold(stops[i].Name, stopName) {
			return dest, &stops[i], nil
		}
	}
	return nil, nil, fmt.Errorf("stop %q not found under %q", stopName, dest.Name)
}
