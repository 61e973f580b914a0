package gpiod

import "time"

// EdgeEvent is one detected transition on a claimed line. Rising and
// falling refer to the logical value, active-low inversion has already
// been applied by the device.
type EdgeEvent struct {
	Offset    uint32
	Rising    bool
	Timestamp time.Time
	Seqno     uint32
}

// LineInfo describes the externally visible state of one line.
type LineInfo struct {
	Offset    uint32
	Name      string
	Consumer  string
	Used      bool
	Direction Direction
	ActiveLow bool
}

// ClaimRequest is the resolved form of a line request handed to a
// device: every offset carries its final settings.
type ClaimRequest struct {
	Consumer string
	Offsets  []uint32
	Settings map[uint32]LineSettings
}

// Device abstracts one GPIO chip device. The real implementation talks
// to the character device, gpiosim provides an in-memory one.
type Device interface {
	// Path returns the device path or another stable identifier.
	Path() string

	// Label returns the hardware label of the chip.
	Label() string

	// NumLines returns the number of lines the chip exposes.
	NumLines() uint32

	// LineInfo describes one line of the chip.
	LineInfo(offset uint32) (LineInfo, error)

	// Claim atomically claims all requested lines with their resolved
	// settings. Either all lines are claimed or none.
	Claim(req ClaimRequest) (Claim, error)

	// Close releases the device.
	Close() error
}

// Claim is one live atomic line claim on a device. It grants value
// access and the blocking edge event primitive the watcher loops on.
type Claim interface {
	// GetValue reads the logical value of one claimed line.
	GetValue(offset uint32) (Value, error)

	// SetValue writes the logical value of one claimed line.
	SetValue(offset uint32, value Value) error

	// ReadEdgeEvent blocks until an edge event is available or the
	// timeout expires. The second return value is false on timeout.
	ReadEdgeEvent(timeout time.Duration) (EdgeEvent, bool, error)

	// Close releases the claim.
	Close() error
}
