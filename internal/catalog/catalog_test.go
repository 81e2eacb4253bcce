package catalog

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"trotro/internal/config"
	"trotro/internal/models"
)

const testRoute = "test-route"

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestCreateDestinationRejectsBlankNames(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	for _, name := range []string{"", "   ", "\t\n "} {
		if _, err := store.CreateDestination(name); !errors.Is(err, ErrEmptyName) {
			t.Errorf("CreateDestination(%q): got %v, want ErrEmptyName", name, err)
		}
	}

	var count int64
	db.Model(&models.Destination{}).Count(&count)
	if count != 0 {
		t.Errorf("blank names performed writes: %d rows", count)
	}
}

func TestListDestinationsSortedByName(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	for _, name := range []string{"Osu", "Accra Mall", "Circle"} {
		if _, err := store.CreateDestination(name); err != nil {
			t.Fatalf("CreateDestination(%q): %v", name, err)
		}
	}

	dests, err := store.ListDestinations()
	if err != nil {
		t.Fatalf("ListDestinations: %v", err)
	}
	want := []string{"Accra Mall", "Circle", "Osu"}
	if len(dests) != len(want) {
		t.Fatalf("got %d destinations, want %d", len(dests), len(want))
	}
	for i, w := range want {
		if dests[i].Name != w {
			t.Errorf("dests[%d].Name = %q, want %q", i, dests[i].Name, w)
		}
	}
}

func TestRenameDestination(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	dest, err := store.CreateDestination("Kaneshie")
	if err != nil {
		t.Fatalf("CreateDestination: %v", err)
	}

	renamed, err := store.RenameDestination(dest.ID, "  Kaneshie Market ")
	if err != nil {
		t.Fatalf("RenameDestination: %v", err)
	}
	if renamed.Name != "Kaneshie Market" {
		t.Errorf("renamed.Name = %q, want trimmed %q", renamed.Name, "Kaneshie Market")
	}

	if _, err := store.RenameDestination(dest.ID, "   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank rename: got %v, want ErrEmptyName", err)
	}
	if _, err := store.RenameDestination(9999, "Nowhere"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("rename missing: got %v, want ErrRecordNotFound", err)
	}
}

func TestCreateStopAssignsSequentialOrder(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	dest, err := store.CreateDestination("Circle")
	if err != nil {
		t.Fatalf("CreateDestination: %v", err)
	}

	var stops []*models.Stop
	for _, name := range []string{"First Light", "Paloma", "Mobil Station"} {
		s, err := store.CreateStop(dest.ID, name)
		if err != nil {
			t.Fatalf("CreateStop(%q): %v", name, err)
		}
		stops = append(stops, s)
	}
	for i, s := range stops {
		if s.StopOrder != i+1 {
			t.Errorf("stop %q order = %d, want %d", s.Name, s.StopOrder, i+1)
		}
	}

	// Deleting does not renumber; the next stop still appends at max+1.
	if err := store.DeleteStop(stops[1].ID); err != nil {
		t.Fatalf("DeleteStop: %v", err)
	}
	s, err := store.CreateStop(dest.ID, "Paloma Junction")
	if err != nil {
		t.Fatalf("CreateStop after delete: %v", err)
	}
	if s.StopOrder != 4 {
		t.Errorf("stop after delete got order %d, want 4", s.StopOrder)
	}

	listed, err := store.ListStops(dest.ID)
	if err != nil {
		t.Fatalf("ListStops: %v", err)
	}
	wantOrders := []int{1, 3, 4}
	if len(listed) != len(wantOrders) {
		t.Fatalf("got %d stops, want %d", len(listed), len(wantOrders))
	}
	for i, w := range wantOrders {
		if listed[i].StopOrder != w {
			t.Errorf("listed[%d].StopOrder = %d, want %d", i, listed[i].StopOrder, w)
		}
	}
}

func TestCreateStopRejectsBlankName(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	dest, err := store.CreateDestination("Circle")
	if err != nil {
		t.Fatalf("CreateDestination: %v", err)
	}
	if _, err := store.CreateStop(dest.ID, " \t"); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank stop name: got %v, want ErrEmptyName", err)
	}

	var count int64
	db.Model(&models.Stop{}).Count(&count)
	if count != 0 {
		t.Errorf("blank stop name performed writes: %d rows", count)
	}
}

func TestListStopsTieBreaksByID(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	dest, err := store.CreateDestination("Circle")
	if err != nil {
		t.Fatalf("CreateDestination: %v", err)
	}
	a, _ := store.CreateStop(dest.ID, "A")
	b, _ := store.CreateStop(dest.ID, "B")

	// Force a tie; display must stay stable, not crash or flip.
	if err := db.Model(&models.Stop{}).Where("id = ?", b.ID).Update("stop_order", a.StopOrder).Error; err != nil {
		t.Fatalf("force tie: %v", err)
	}

	listed, err := store.ListStops(dest.ID)
	if err != nil {
		t.Fatalf("ListStops: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != a.ID || listed[1].ID != b.ID {
		t.Errorf("tied stops not ordered by id: got %v", []uint{listed[0].ID, listed[1].ID})
	}
}

func TestIsUnknownStopName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Don't know my stop", true},
		{"I don't know my stop", true},
		{"DONT KNOW MY STOP", true},
		{"don’t know my stop", true},
		{"  Don't Know My Stop  ", true},
		{"Main St", false},
		{"Unknown", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsUnknownStopName(c.name); got != c.want {
			t.Errorf("IsUnknownStopName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestSentinelFlagFollowsName(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	dest, err := store.CreateDestination("Circle")
	if err != nil {
		t.Fatalf("CreateDestination: %v", err)
	}

	sentinel, err := store.CreateStop(dest.ID, "Don't know my stop")
	if err != nil {
		t.Fatalf("CreateStop: %v", err)
	}
	if !sentinel.RequiresLocation {
		t.Error("sentinel stop should require location at creation")
	}

	renamed, err := store.RenameStop(sentinel.ID, "Paloma")
	if err != nil {
		t.Fatalf("RenameStop: %v", err)
	}
	if renamed.RequiresLocation {
		t.Error("renamed-away stop should not require location")
	}

	back, err := store.RenameStop(sentinel.ID, "dont know my stop")
	if err != nil {
		t.Fatalf("RenameStop back: %v", err)
	}
	if !back.RequiresLocation {
		t.Error("renamed-to-sentinel stop should require location")
	}
}

func TestDeleteDestinationCascades(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	dest, err := store.CreateDestination("Circle")
	if err != nil {
		t.Fatalf("CreateDestination: %v", err)
	}
	stop, err := store.CreateStop(dest.ID, "Paloma")
	if err != nil {
		t.Fatalf("CreateStop: %v", err)
	}
	rec := models.WaitingPassenger{
		RouteID: testRoute, DestinationID: dest.ID, StopID: stop.ID, Active: true,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed passenger: %v", err)
	}

	if err := store.DeleteDestination(dest.ID); err != nil {
		t.Fatalf("DeleteDestination: %v", err)
	}

	stops, err := store.ListStops(dest.ID)
	if err != nil {
		t.Fatalf("ListStops after delete: %v", err)
	}
	if len(stops) != 0 {
		t.Errorf("stops survived destination delete: %d", len(stops))
	}

	var passengers int64
	db.Model(&models.WaitingPassenger{}).Count(&passengers)
	if passengers != 0 {
		t.Errorf("passengers survived destination delete: %d", passengers)
	}
}

func TestDeleteStopPurgesPassengers(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db, testRoute)

	dest, err := store.CreateDestination("Circle")
	if err != nil {
		t.Fatalf("CreateDestination: %v", err)
	}
	keep, _ := store.CreateStop(dest.ID, "Keep")
	doomed, _ := store.CreateStop(dest.ID, "Doomed")

	for _, stopID := range []uint{keep.ID, doomed.ID} {
		rec := models.WaitingPassenger{
			RouteID: testRoute, DestinationID: dest.ID, StopID: stopID, Active: true,
		}
		if err := db.Create(&rec).Error; err != nil {
			t.Fatalf("seed passenger: %v", err)
		}
	}

	if err := store.DeleteStop(doomed.ID); err != nil {
		t.Fatalf("DeleteStop: %v", err)
	}

	var remaining []models.WaitingPassenger
	db.Find(&remaining)
	if len(remaining) != 1 || remaining[0].StopID != keep.ID {
		t.Errorf("expected only the kept stop's passenger, got %+v", remaining)
	}
}
