package prefs

import (
	"path/filepath"
	"testing"
)

func TestOpenMissingFileIsEmpty(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := store.Get(KeyMapPreference); got != "" {
		t.Errorf("Get on empty store = %q, want empty", got)
	}
	if store.GetBool(KeyBannerDismissed) {
		t.Error("GetBool on empty store = true, want false")
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Set(KeyMapPreference, "apple"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.SetBool(KeyBannerDismissed, true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Get(KeyMapPreference); got != "apple" {
		t.Errorf("Get after reopen = %q, want %q", got, "apple")
	}
	if !reopened.GetBool(KeyBannerDismissed) {
		t.Error("GetBool after reopen = false, want true")
	}
}

func TestSetOverwrites(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Set(KeyMapPreference, "google"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(KeyMapPreference, "apple"); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	if got := store.Get(KeyMapPreference); got != "apple" {
		t.Errorf("Get = %q, want last written value", got)
	}
}
