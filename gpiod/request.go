package gpiod

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BertoldVdb/go-gpiod/closeflag"
)

// Request is one atomic claim of a set of offsets with their resolved
// settings. It is created by BuildRequest and released exactly once,
// either by Release or by the rebuild of the owning line.
type Request struct {
	chip     *Chip
	claim    Claim
	offsets  []uint32
	resolved map[uint32]LineSettings

	released closeflag.CloseFlag
}

// RequestConsumer is the base of the consumer label requests carry. A
// unique suffix is appended so individual claims can be told apart in
// kernel line info.
const RequestConsumer = "go-gpiod"

// BuildRequest atomically claims the given offsets on a chip with the
// settings resolved from config. Offsets without an explicit config
// entry fall back to the entry of offset 0, then to the first
// configured entry, then to defaults; every non-explicit resolution is
// logged. Either all offsets are claimed or none.
func BuildRequest(chip *Chip, offsets []uint32, config *LineConfig) (*Request, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: no offsets given", ErrorValidation)
	}

	numLines := chip.NumLines()
	seen := make(map[uint32]struct{}, len(offsets))
	for _, offset := range offsets {
		if offset >= numLines {
			return nil, fmt.Errorf("%w: offset %d out of range", ErrorValidation, offset)
		}
		if _, dup := seen[offset]; dup {
			return nil, fmt.Errorf("%w: duplicate offset %d", ErrorValidation, offset)
		}
		seen[offset] = struct{}{}
	}

	if config == nil {
		config = NewLineConfig()
	}

	resolved := make(map[uint32]LineSettings, len(offsets))
	for _, offset := range offsets {
		settings, source := config.resolve(offset)
		switch source {
		case sourceOffsetZero, sourceFirstEntry:
			// Inheriting the settings of another offset is usually a
			// configuration mistake, make it visible.
			chip.log.Warnf("Offset %d has no explicit settings, using %s", offset, source)
		case sourceDefaults:
			chip.log.Debugf("Offset %d has no explicit settings, using defaults", offset)
		}
		resolved[offset] = settings
	}

	if err := chip.claimOffsets(offsets); err != nil {
		return nil, &RequestFailedError{Offsets: offsets, Cause: err}
	}

	claim, err := chip.dev.Claim(ClaimRequest{
		Consumer: fmt.Sprintf("%s-%.8s", RequestConsumer, uuid.NewString()),
		Offsets:  offsets,
		Settings: resolved,
	})
	if err != nil {
		chip.releaseOffsets(offsets)
		return nil, &RequestFailedError{Offsets: offsets, Cause: err}
	}

	r := &Request{
		chip:     chip,
		claim:    claim,
		offsets:  offsets,
		resolved: resolved,
	}

	r.released.CloseFunc = func() error {
		err := claim.Close()
		chip.releaseOffsets(offsets)
		return err
	}

	return r, nil
}

// Offsets returns the offsets this request claims.
func (r *Request) Offsets() []uint32 {
	out := make([]uint32, len(r.offsets))
	copy(out, r.offsets)
	return out
}

func (r *Request) checkOffset(offset uint32) (LineSettings, error) {
	if r.released.IsClosed() {
		return LineSettings{}, ErrorReleased
	}

	settings, ok := r.resolved[offset]
	if !ok {
		return LineSettings{}, fmt.Errorf("%w: offset %d is not part of this request", ErrorValidation, offset)
	}

	return settings, nil
}

// GetValue reads the logical value of one claimed offset.
func (r *Request) GetValue(offset uint32) (Value, error) {
	if _, err := r.checkOffset(offset); err != nil {
		return ValueLow, err
	}

	return r.claim.GetValue(offset)
}

// SetValue writes the logical value of one claimed offset. The offset
// must have been requested as output.
func (r *Request) SetValue(offset uint32, value Value) error {
	settings, err := r.checkOffset(offset)
	if err != nil {
		return err
	}

	if settings.Direction != DirectionOutput {
		return fmt.Errorf("%w: offset %d", ErrorDirection, offset)
	}

	return r.claim.SetValue(offset, value)
}

// readEdgeEvent is the blocking primitive the watcher loops on. The
// watcher is always stopped before the request is released, so a
// released request is never polled.
func (r *Request) readEdgeEvent(timeout time.Duration) (EdgeEvent, bool, error) {
	if r.released.IsClosed() {
		return EdgeEvent{}, false, ErrorReleased
	}

	return r.claim.ReadEdgeEvent(timeout)
}

// Release releases the claim. It may be called multiple times, every
// call after the first is a no-op.
func (r *Request) Release() error {
	err := r.released.Close()
	if err == closeflag.ErrorClosed {
		return nil
	}
	return err
}
