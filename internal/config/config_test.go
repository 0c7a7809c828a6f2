package config

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Defaults()
	cfg.DataDir = "/srv/agroquery/data"
	cfg.DefaultWindowYears = 7
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DataDir != "/srv/agroquery/data" {
		t.Fatalf("DataDir = %q", got.DataDir)
	}
	if got.DefaultWindowYears != 7 {
		t.Fatalf("DefaultWindowYears = %d", got.DefaultWindowYears)
	}
	// Untouched fields keep their defaults through the round trip.
	if got.Port != 5000 || got.DefaultTopCrops != 3 {
		t.Fatalf("defaults lost: %+v", got)
	}
	if len(got.YearColumns) == 0 || got.YearColumns[0] != "year" {
		t.Fatalf("YearColumns = %v", got.YearColumns)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Defaults()
	if got.DataDir != want.DataDir || got.Port != want.Port {
		t.Fatalf("got %+v, want defaults", got)
	}
	if got.RetryMaxAttempts != want.RetryMaxAttempts {
		t.Fatalf("RetryMaxAttempts = %d", got.RetryMaxAttempts)
	}
}
