package safety

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadMissingRecordSeedsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command_safety.yaml")
	store := NewStore(path, nil)
	cfg := store.Load()
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected record to be created on first load: %v", err)
	}
}

func TestLoadBackfillsMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command_safety.yaml")
	if err := os.WriteFile(path, []byte("always-approve:\n  - ls\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := NewStore(path, nil).Load()
	if !reflect.DeepEqual(cfg.AlwaysApprove, []string{"ls"}) {
		t.Fatalf("approve list mismatch: %v", cfg.AlwaysApprove)
	}
	if !reflect.DeepEqual(cfg.AlwaysConfirm, DefaultConfig().AlwaysConfirm) {
		t.Fatalf("confirm list should be back-filled with defaults: %v", cfg.AlwaysConfirm)
	}
}

func TestLoadUnparseableFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command_safety.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- broken"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := NewStore(path, nil).Load()
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("expected fallback to defaults, got %+v", cfg)
	}
}

func TestAddRemoveIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command_safety.yaml")
	store := NewStore(path, nil)
	if _, err := store.AddApprove([]string{"date", "date"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	cfg, err := store.AddApprove([]string{"date"})
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	count := 0
	for _, v := range cfg.AlwaysApprove {
		if v == "date" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one date entry, got %d", count)
	}
	cfg, err = store.RemoveApprove([]string{"date", "missing"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	for _, v := range cfg.AlwaysApprove {
		if v == "date" {
			t.Fatalf("date should have been removed")
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command_safety.yaml")
	store := NewStore(path, nil)
	want := Config{
		AlwaysConfirm: []string{"rm"},
		AlwaysApprove: []string{"ls"},
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var onDisk map[string][]string
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("record is not valid YAML: %v", err)
	}
	if len(onDisk) != 2 {
		t.Fatalf("record should have exactly two keys, got %v", onDisk)
	}
	if got := store.Load(); !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
