package gpiosim

import (
	"errors"
	"testing"
	"time"

	"github.com/BertoldVdb/go-gpiod/gpiod"
)

func claimInput(t *testing.T, chip *Chip, offset uint32, settings gpiod.LineSettings) gpiod.Claim {
	t.Helper()

	claim, err := chip.Claim(gpiod.ClaimRequest{
		Consumer: "test",
		Offsets:  []uint32{offset},
		Settings: map[uint32]gpiod.LineSettings{offset: settings},
	})
	if err != nil {
		t.Fatal("Claim failed:", err)
	}

	return claim
}

func TestSimInputFollowsPull(t *testing.T) {
	chip := NewChip("a", 4)

	claim := claimInput(t, chip, 0, gpiod.LineSettings{})
	defer claim.Close()

	if v, _ := claim.GetValue(0); v != gpiod.ValueLow {
		t.Error("Initial value is not low")
	}

	chip.SetPull(0, true)
	if v, _ := claim.GetValue(0); v != gpiod.ValueHigh {
		t.Error("Value did not follow the pull")
	}
}

func TestSimActiveLow(t *testing.T) {
	chip := NewChip("a", 4)

	claim := claimInput(t, chip, 0, gpiod.LineSettings{ActiveLow: true})
	defer claim.Close()

	if v, _ := claim.GetValue(0); v != gpiod.ValueHigh {
		t.Error("Active-low input with low raw level is not high")
	}

	chip.SetPull(0, true)
	if v, _ := claim.GetValue(0); v != gpiod.ValueLow {
		t.Error("Active-low input with high raw level is not low")
	}
}

func TestSimOutput(t *testing.T) {
	chip := NewChip("a", 4)

	claim := claimInput(t, chip, 1, gpiod.LineSettings{
		Direction:   gpiod.DirectionOutput,
		OutputValue: gpiod.ValueHigh,
	})
	defer claim.Close()

	if v, _ := claim.GetValue(1); v != gpiod.ValueHigh {
		t.Error("Initial output value was not applied")
	}

	if err := claim.SetValue(1, gpiod.ValueLow); err != nil {
		t.Fatal("SetValue failed:", err)
	}
	if v, _ := claim.GetValue(1); v != gpiod.ValueLow {
		t.Error("SetValue was not applied")
	}

	// Writing to an input line fails.
	input := claimInput(t, chip, 2, gpiod.LineSettings{})
	defer input.Close()
	if err := input.SetValue(2, gpiod.ValueHigh); err == nil {
		t.Error("SetValue on input line succeeded")
	}
}

func TestSimBusyClaim(t *testing.T) {
	chip := NewChip("a", 4)

	first := claimInput(t, chip, 0, gpiod.LineSettings{})
	defer first.Close()

	_, err := chip.Claim(gpiod.ClaimRequest{
		Offsets: []uint32{1, 0},
		Settings: map[uint32]gpiod.LineSettings{
			0: {},
			1: {},
		},
	})
	if !errors.Is(err, ErrorLineBusy) {
		t.Fatal("Overlapping claim did not fail:", err)
	}

	// Offset 1 must not be left claimed by the failed attempt.
	second := claimInput(t, chip, 1, gpiod.LineSettings{})
	second.Close()
}

func TestSimEdgeFiltering(t *testing.T) {
	chip := NewChip("a", 4)

	claim := claimInput(t, chip, 0, gpiod.LineSettings{Edge: gpiod.EdgeRising})
	defer claim.Close()

	chip.SetPull(0, true)
	chip.SetPull(0, false)
	chip.SetPull(0, true)

	for i := 0; i < 2; i++ {
		event, ok, err := claim.ReadEdgeEvent(100 * time.Millisecond)
		if err != nil {
			t.Fatal("ReadEdgeEvent failed:", err)
		}
		if !ok {
			t.Fatal("Expected two rising events, got", i)
		}
		if !event.Rising {
			t.Error("Falling event was not filtered out")
		}
	}

	if _, ok, _ := claim.ReadEdgeEvent(50 * time.Millisecond); ok {
		t.Error("Unexpected extra event")
	}
}

func TestSimReleaseUnblocksRead(t *testing.T) {
	chip := NewChip("a", 4)

	claim := claimInput(t, chip, 0, gpiod.LineSettings{Edge: gpiod.EdgeBoth})

	done := make(chan (error), 1)
	go func() {
		_, _, err := claim.ReadEdgeEvent(10 * time.Second)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	claim.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrorClaimReleased) {
			t.Error("Blocked read did not observe the release:", err)
		}
	case <-time.After(time.Second):
		t.Error("Release did not unblock the pending read")
	}

	if err := claim.Close(); err != nil {
		t.Error("Second close failed:", err)
	}
}

func TestSimDebounceRetraction(t *testing.T) {
	chip := NewChip("a", 4)

	claim := claimInput(t, chip, 0, gpiod.LineSettings{
		Edge:           gpiod.EdgeBoth,
		DebouncePeriod: 50 * time.Millisecond,
	})
	defer claim.Close()

	// Stable transition: reported once after the debounce period.
	chip.SetPull(0, true)

	if _, ok, _ := claim.ReadEdgeEvent(20 * time.Millisecond); ok {
		t.Error("Event reported before the debounce period elapsed")
	}
	event, ok, err := claim.ReadEdgeEvent(time.Second)
	if err != nil || !ok || !event.Rising {
		t.Fatal("Debounced transition was not reported:", ok, err)
	}

	// Retracted transition: no event.
	chip.SetPull(0, false)
	time.Sleep(10 * time.Millisecond)
	chip.SetPull(0, true)

	if _, ok, _ := claim.ReadEdgeEvent(150 * time.Millisecond); ok {
		t.Error("Retracted transition was reported")
	}
}
