package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trotro/internal/geo"
	"trotro/internal/models"
)

// API is the HTTP client the console binaries use against the coordination
// server. Failed calls return an error and leave the caller's state alone;
// there are no automatic retries.
type API struct {
	base string
	http *http.Client
}

// New returns a client for the server at base, e.g. "http://localhost:8080".
func New(base string) *API {
	return &API{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: server: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: server: %s", method, path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// Destinations lists all destinations, sorted by name.
func (a *API) Destinations(ctx context.Context) ([]models.Destination, error) {
	var out struct {
		Destinations []models.Destination `json:"destinations"`
	}
	err := a.do(ctx, http.MethodGet, "/passenger/destinations", nil, &out)
	return out.Destinations, err
}

// Stops lists the stops of a destination in display order.
func (a *API) Stops(ctx context.Context, destinationID uint) ([]models.Stop, error) {
	var out struct {
		Stops []models.Stop `json:"stops"`
	}
	err := a.do(ctx, http.MethodGet, fmt.Sprintf("/passenger/destinations/%d/stops", destinationID), nil, &out)
	return out.Stops, err
}

// CreateDestination adds a destination from the driver console.
func (a *API) CreateDestination(ctx context.Context, name string) (*models.Destination, error) {
	var out struct {
		Destination *models.Destination `json:"destination"`
	}
	err := a.do(ctx, http.MethodPost, "/driver/destinations", map[string]string{"name": name}, &out)
	return out.Destination, err
}

// RenameDestination renames a destination.
func (a *API) RenameDestination(ctx context.Context, id uint, name string) error {
	return a.do(ctx, http.MethodPut, fmt.Sprintf("/driver/destinations/%d", id), map[string]string{"name": name}, nil)
}

// DeleteDestination deletes a destination and everything under it. The
// console confirms with the user before calling.
func (a *API) DeleteDestination(ctx context.Context, id uint) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/driver/destinations/%d", id), nil, nil)
}

// CreateStop appends a stop to a destination.
func (a *API) CreateStop(ctx context.Context, destinationID uint, name string) (*models.Stop, error) {
	var out struct {
		Stop *models.Stop `json:"stop"`
	}
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/driver/destinations/%d/stops", destinationID), map[string]string{"name": name}, &out)
	return out.Stop, err
}

// RenameStop renames a stop.
func (a *API) RenameStop(ctx context.Context, id uint, name string) error {
	return a.do(ctx, http.MethodPut, fmt.Sprintf("/driver/stops/%d", id), map[string]string{"name": name}, nil)
}

// DeleteStop deletes a stop and its waiting passengers.
func (a *API) DeleteStop(ctx context.Context, id uint) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/driver/stops/%d", id), nil, nil)
}

// RequestPickup submits a pickup request, optionally with coordinates.
func (a *API) RequestPickup(ctx context.Context, stopID, destinationID uint, pos *geo.Position) (uint, error) {
	body := map[string]any{
		"stop_id":        stopID,
		"destination_id": destinationID,
	}
	if pos != nil {
		body["lat"] = pos.Lat
		body["lng"] = pos.Lng
	}

	var out struct {
		PassengerID uint `json:"passenger_id"`
	}
	err := a.do(ctx, http.MethodPost, "/passenger/pickups", body, &out)
	return out.PassengerID, err
}

// LivePassengers fetches the live waiting list for a destination.
func (a *API) LivePassengers(ctx context.Context, destinationID uint) ([]models.WaitingPassenger, error) {
	var out struct {
		Passengers []models.WaitingPassenger `json:"passengers"`
	}
	err := a.do(ctx, http.MethodGet, fmt.Sprintf("/driver/passengers?destination_id=%d", destinationID), nil, &out)
	return out.Passengers, err
}

// AckResult carries the acknowledged passenger's last shared location so the
// console can open directions.
type AckResult struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	HasGPS bool     `json:"has_gps"`
}

// Acknowledge marks a passenger as picked up.
func (a *API) Acknowledge(ctx context.Context, id uint) (*AckResult, error) {
	var out AckResult
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/driver/passengers/%d/acknowledge", id), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
