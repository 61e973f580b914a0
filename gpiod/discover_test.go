package gpiod

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestListChipPaths(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"gpiochip0", "gpiochip12", "gpiochipX", "watchdog"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0600); err != nil {
			t.Fatal("WriteFile failed:", err)
		}
	}

	paths, err := listChipPathsIn(dir)
	if err != nil {
		t.Fatal("listChipPathsIn failed:", err)
	}

	if len(paths) != 2 ||
		filepath.Base(paths[0]) != "gpiochip0" ||
		filepath.Base(paths[1]) != "gpiochip12" {
		t.Error("Unexpected chip paths:", paths)
	}
}

func waitChipEvent(t *testing.T, w *ChipPathWatcher) ChipPathEvent {
	t.Helper()

	select {
	case event := <-w.Events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("No chip event received")
		return ChipPathEvent{}
	}
}

func TestChipPathWatcher(t *testing.T) {
	dir := t.TempDir()

	w, err := NewChipPathWatcher(dir)
	if err != nil {
		t.Fatal("NewChipPathWatcher failed:", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "gpiochip3")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal("WriteFile failed:", err)
	}

	event := waitChipEvent(t, w)
	if event.Path != path || !event.Added {
		t.Error("Unexpected add event:", event)
	}

	// Unrelated files are filtered out.
	if err := os.WriteFile(filepath.Join(dir, "ttyUSB0"), nil, 0600); err != nil {
		t.Fatal("WriteFile failed:", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal("Remove failed:", err)
	}

	event = waitChipEvent(t, w)
	if event.Path != path || event.Added {
		t.Error("Unexpected remove event:", event)
	}

	if err := w.Close(); err != nil {
		t.Error("Close failed:", err)
	}
}
