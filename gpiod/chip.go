package gpiod

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiod/logconfig"
)

// Chip wraps one GPIO device and tracks which of its offsets are part
// of a live request. It hands out Line objects and enforces that an
// offset never belongs to two live requests at the same time.
type Chip struct {
	mutex sync.Mutex

	dev    Device
	log    *logrus.Entry
	closed bool

	claimed map[uint32]struct{}
	lines   map[uint32]*Line
}

// ChipOption modifies a chip during construction.
type ChipOption func(*Chip)

// WithLogger replaces the default chip logger.
func WithLogger(log *logrus.Entry) ChipOption {
	return func(c *Chip) {
		c.log = log
	}
}

// NewChip wraps an already open device. Most callers use OpenChip
// instead, tests pass a gpiosim chip here.
func NewChip(dev Device, options ...ChipOption) *Chip {
	c := &Chip{
		dev:     dev,
		claimed: make(map[uint32]struct{}),
		lines:   make(map[uint32]*Line),
	}

	for _, option := range options {
		option(c)
	}

	if c.log == nil {
		c.log = logconfig.GetLogger(logrus.WarnLevel)
	}
	c.log = c.log.WithField("prefix", "gpiod/"+dev.Path())

	return c
}

// Path returns the device path of the chip.
func (c *Chip) Path() string {
	return c.dev.Path()
}

// Label returns the hardware label of the chip.
func (c *Chip) Label() string {
	return c.dev.Label()
}

// NumLines returns the number of lines the chip exposes.
func (c *Chip) NumLines() uint32 {
	return c.dev.NumLines()
}

// LineInfo describes one line of the chip.
func (c *Chip) LineInfo(offset uint32) (LineInfo, error) {
	c.mutex.Lock()
	closed := c.closed
	c.mutex.Unlock()

	if closed {
		return LineInfo{}, ErrorChipClosed
	}
	if offset >= c.dev.NumLines() {
		return LineInfo{}, fmt.Errorf("%w: offset %d out of range", ErrorValidation, offset)
	}

	return c.dev.LineInfo(offset)
}

// GetLine returns the line handle for an offset. The handle is created
// on first use and cached, addressing the same offset twice yields the
// same Line.
func (c *Chip) GetLine(offset uint32) (*Line, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil, ErrorChipClosed
	}
	if offset >= c.dev.NumLines() {
		return nil, fmt.Errorf("%w: offset %d out of range", ErrorValidation, offset)
	}

	if line, ok := c.lines[offset]; ok {
		return line, nil
	}

	line := newLine(c, offset)
	c.lines[offset] = line

	return line, nil
}

// Close closes the chip device. It fails with ErrorChipBusy while any
// request on this chip is still live, so callers must unexport or
// release first. Closing twice is harmless.
func (c *Chip) Close() error {
	c.mutex.Lock()

	if c.closed {
		c.mutex.Unlock()
		return nil
	}

	if len(c.claimed) > 0 {
		n := len(c.claimed)
		c.mutex.Unlock()
		return fmt.Errorf("%w: %d lines still claimed", ErrorChipBusy, n)
	}

	c.closed = true
	c.mutex.Unlock()

	return c.dev.Close()
}

// claimOffsets reserves offsets in the registry. It fails without side
// effects if any offset is already claimed.
func (c *Chip) claimOffsets(offsets []uint32) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrorChipClosed
	}

	for _, offset := range offsets {
		if _, busy := c.claimed[offset]; busy {
			return fmt.Errorf("%w: offset %d", ErrorLineBusy, offset)
		}
	}

	for _, offset := range offsets {
		c.claimed[offset] = struct{}{}
	}

	return nil
}

func (c *Chip) releaseOffsets(offsets []uint32) {
	c.mutex.Lock()
	for _, offset := range offsets {
		delete(c.claimed, offset)
	}
	c.mutex.Unlock()
}
