package gpiod

import (
	"errors"
	"testing"
	"time"
)

func TestSettingsDefaults(t *testing.T) {
	config := NewLineConfig()
	s := config.SetOffset(3).Settings()

	if s.Direction != DirectionInput || s.Edge != EdgeNone ||
		s.Drive != DrivePushPull || s.Bias != BiasUnknown ||
		s.ActiveLow || s.DebouncePeriod != 0 || s.OutputValue != ValueLow {
		t.Error("First reference did not create default settings")
	}
}

func TestSettingsCursorHandle(t *testing.T) {
	config := NewLineConfig()

	a := config.SetOffset(1)
	b := config.SetOffset(2)

	if err := a.SetDirection(DirectionOutput); err != nil {
		t.Error("SetDirection failed:", err)
	}
	if err := b.SetEdge(EdgeFalling); err != nil {
		t.Error("SetEdge failed:", err)
	}

	if config.SetOffset(1).Settings().Direction != DirectionOutput {
		t.Error("Handle for offset 1 did not update offset 1")
	}
	if config.SetOffset(2).Settings().Direction != DirectionInput {
		t.Error("Handle for offset 1 leaked into offset 2")
	}
	if config.SetOffset(2).Settings().Edge != EdgeFalling {
		t.Error("Handle for offset 2 did not update offset 2")
	}
}

func TestSettingsValidation(t *testing.T) {
	config := NewLineConfig()
	o := config.SetOffset(0)

	if err := o.SetDirection(Direction(7)); !errors.Is(err, ErrorValidation) {
		t.Error("Invalid direction was accepted")
	}
	if err := o.SetEdge(Edge(-1)); !errors.Is(err, ErrorValidation) {
		t.Error("Invalid edge was accepted")
	}
	if err := o.SetDrive(Drive(9)); !errors.Is(err, ErrorValidation) {
		t.Error("Invalid drive was accepted")
	}
	if err := o.SetBias(Bias(9)); !errors.Is(err, ErrorValidation) {
		t.Error("Invalid bias was accepted")
	}
	if err := o.SetDebouncePeriod(-time.Second); !errors.Is(err, ErrorValidation) {
		t.Error("Negative debounce period was accepted")
	}

	s := o.Settings()
	if s.Direction != DirectionInput || s.Edge != EdgeNone {
		t.Error("Failed setter modified settings")
	}
}

func TestSettingsResolveFallback(t *testing.T) {
	config := NewLineConfig()

	if _, source := config.resolve(4); source != sourceDefaults {
		t.Error("Empty config did not resolve to defaults")
	}

	first := config.SetOffset(5)
	first.SetDirection(DirectionOutput)

	if s, source := config.resolve(4); source != sourceFirstEntry || s.Direction != DirectionOutput {
		t.Error("Missing offset did not fall back to first entry")
	}

	zero := config.SetOffset(0)
	zero.SetEdge(EdgeBoth)

	if s, source := config.resolve(4); source != sourceOffsetZero || s.Edge != EdgeBoth {
		t.Error("Missing offset did not fall back to offset 0")
	}

	if s, source := config.resolve(5); source != sourceExplicit || s.Direction != DirectionOutput {
		t.Error("Explicit offset was not resolved directly")
	}
}

func TestSettingsSnapshot(t *testing.T) {
	config := NewLineConfig()
	config.SetOffset(1).SetDirection(DirectionOutput)
	config.SetOffset(2)

	snapshot := config.Snapshot()
	if len(snapshot) != 2 {
		t.Fatal("Snapshot has wrong size")
	}
	if snapshot[1].Direction != DirectionOutput {
		t.Error("Snapshot lost settings")
	}

	// Mutating the snapshot must not touch the store.
	s := snapshot[2]
	s.Direction = DirectionOutput
	snapshot[2] = s
	if config.SetOffset(2).Settings().Direction != DirectionInput {
		t.Error("Snapshot aliases the store")
	}
}

func TestSettingsInsertionOrder(t *testing.T) {
	config := NewLineConfig()
	config.SetOffset(9)
	config.SetOffset(2)
	config.SetOffset(9)
	config.SetOffset(7)

	offsets := config.Offsets()
	if len(offsets) != 3 || offsets[0] != 9 || offsets[1] != 2 || offsets[2] != 7 {
		t.Error("Offsets are not in insertion order:", offsets)
	}
}
