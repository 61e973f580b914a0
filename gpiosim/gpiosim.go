// Package gpiosim provides an in-memory GPIO chip implementing the
// gpiod device interface. It models raw signal levels, per-line
// debounce, edge detection and active-low inversion, so the full line
// engine can be exercised without hardware.
package gpiosim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BertoldVdb/go-gpiod/closeflag"
	"github.com/BertoldVdb/go-gpiod/gpiod"
)

var (
	ErrorLineBusy      = errors.New("Line is already claimed")
	ErrorClaimReleased = errors.New("Claim was released")
	ErrorChipClosed    = errors.New("Simulated chip is closed")
)

// Chip is a simulated GPIO chip. The zero value is not usable, create
// one with NewChip. Raw pin levels are driven with SetPull.
type Chip struct {
	mutex sync.Mutex

	label    string
	numLines uint32
	pulls    []bool
	lines    map[uint32]*claimedLine
	closed   bool
}

// claimedLine is the per-offset state of a live claim.
type claimedLine struct {
	claim    *Claim
	offset   uint32
	settings gpiod.LineSettings

	output bool // logical value driven when configured as output

	debounced    bool // raw level after debounce filtering
	pendingTimer *time.Timer
	pendingLevel bool
}

// NewChip creates a simulated chip with the given number of lines. All
// raw levels start low.
func NewChip(label string, numLines uint32) *Chip {
	return &Chip{
		label:    label,
		numLines: numLines,
		pulls:    make([]bool, numLines),
		lines:    make(map[uint32]*claimedLine),
	}
}

// SetPull drives the raw physical level of one pin. Claimed input
// lines observe the change through their debounce filter and may emit
// an edge event.
func (c *Chip) SetPull(offset uint32, level bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if offset >= c.numLines {
		return fmt.Errorf("Offset %d out of range", offset)
	}

	if c.pulls[offset] == level {
		return nil
	}
	c.pulls[offset] = level

	line, ok := c.lines[offset]
	if !ok || line.settings.Direction == gpiod.DirectionOutput {
		return nil
	}

	if line.settings.DebouncePeriod == 0 {
		line.settle(level)
		return nil
	}

	// A transition only becomes visible after staying stable for the
	// debounce period. A retraction within the period cancels it.
	line.pendingLevel = level
	if line.pendingTimer != nil {
		line.pendingTimer.Stop()
	}
	target := line
	line.pendingTimer = time.AfterFunc(line.settings.DebouncePeriod, func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()

		current, ok := c.lines[offset]
		if !ok || current != target {
			return
		}
		if c.pulls[offset] != target.pendingLevel {
			return
		}
		target.settle(target.pendingLevel)
	})

	return nil
}

// Pull returns the current raw physical level of one pin.
func (c *Chip) Pull(offset uint32) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.pulls[offset]
}

// settle applies a debounced raw level. Caller holds the chip mutex.
func (l *claimedLine) settle(raw bool) {
	if raw == l.debounced {
		return
	}
	l.debounced = raw

	logical := raw != l.settings.ActiveLow
	emit := false
	switch l.settings.Edge {
	case gpiod.EdgeBoth:
		emit = true
	case gpiod.EdgeRising:
		emit = logical
	case gpiod.EdgeFalling:
		emit = !logical
	}

	if emit {
		l.claim.emit(l.offset, logical)
	}
}

// Path identifies the simulated device.
func (c *Chip) Path() string {
	return "gpiosim/" + c.label
}

// Label returns the chip label.
func (c *Chip) Label() string {
	return c.label
}

// NumLines returns the number of simulated lines.
func (c *Chip) NumLines() uint32 {
	return c.numLines
}

// LineInfo describes one simulated line.
func (c *Chip) LineInfo(offset uint32) (gpiod.LineInfo, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if offset >= c.numLines {
		return gpiod.LineInfo{}, fmt.Errorf("Offset %d out of range", offset)
	}

	info := gpiod.LineInfo{
		Offset: offset,
		Name:   fmt.Sprintf("%s-%d", c.label, offset),
	}

	if line, ok := c.lines[offset]; ok {
		info.Used = true
		info.Consumer = line.claim.consumer
		info.Direction = line.settings.Direction
		info.ActiveLow = line.settings.ActiveLow
	}

	return info, nil
}

// Claim atomically claims the requested lines. Either all offsets are
// free and become claimed, or the claim fails without side effects.
func (c *Chip) Claim(req gpiod.ClaimRequest) (gpiod.Claim, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil, ErrorChipClosed
	}

	for _, offset := range req.Offsets {
		if offset >= c.numLines {
			return nil, fmt.Errorf("Offset %d out of range", offset)
		}
		if _, busy := c.lines[offset]; busy {
			return nil, fmt.Errorf("%w: offset %d", ErrorLineBusy, offset)
		}
	}

	claim := &Claim{
		chip:     c,
		offsets:  req.Offsets,
		consumer: req.Consumer,
		events:   make(chan (gpiod.EdgeEvent), 64),
	}

	for _, offset := range req.Offsets {
		settings := req.Settings[offset]

		line := &claimedLine{
			claim:     claim,
			offset:    offset,
			settings:  settings,
			debounced: c.pulls[offset],
		}
		if settings.Direction == gpiod.DirectionOutput {
			line.output = settings.OutputValue == gpiod.ValueHigh
		}

		c.lines[offset] = line
	}

	claim.released.CloseFunc = func() error {
		c.mutex.Lock()
		for _, offset := range claim.offsets {
			if line, ok := c.lines[offset]; ok && line.claim == claim {
				if line.pendingTimer != nil {
					line.pendingTimer.Stop()
				}
				delete(c.lines, offset)
			}
		}
		c.mutex.Unlock()
		return nil
	}

	return claim, nil
}

// Close marks the chip closed. Live claims keep working until they are
// released, matching a removed device node with open handles.
func (c *Chip) Close() error {
	c.mutex.Lock()
	c.closed = true
	c.mutex.Unlock()
	return nil
}

// Claim is one live simulated line claim.
type Claim struct {
	chip     *Chip
	offsets  []uint32
	consumer string

	events   chan (gpiod.EdgeEvent)
	seqno    uint32
	released closeflag.CloseFlag
}

func (cl *Claim) emit(offset uint32, rising bool) {
	cl.seqno++

	event := gpiod.EdgeEvent{
		Offset:    offset,
		Rising:    rising,
		Timestamp: time.Now(),
		Seqno:     cl.seqno,
	}

	// Drop on overflow like the kernel event buffer does.
	select {
	case cl.events <- event:
	default:
	}
}

func (cl *Claim) line(offset uint32) (*claimedLine, error) {
	if cl.released.IsClosed() {
		return nil, ErrorClaimReleased
	}

	line, ok := cl.chip.lines[offset]
	if !ok || line.claim != cl {
		return nil, fmt.Errorf("Offset %d is not part of this claim", offset)
	}

	return line, nil
}

// GetValue returns the logical value of one claimed line. Outputs
// report the driven value, inputs the debounced raw level with
// active-low inversion applied.
func (cl *Claim) GetValue(offset uint32) (gpiod.Value, error) {
	cl.chip.mutex.Lock()
	defer cl.chip.mutex.Unlock()

	line, err := cl.line(offset)
	if err != nil {
		return gpiod.ValueLow, err
	}

	if line.settings.Direction == gpiod.DirectionOutput {
		if line.output {
			return gpiod.ValueHigh, nil
		}
		return gpiod.ValueLow, nil
	}

	if line.debounced != line.settings.ActiveLow {
		return gpiod.ValueHigh, nil
	}
	return gpiod.ValueLow, nil
}

// SetValue drives the logical value of one claimed output line.
func (cl *Claim) SetValue(offset uint32, value gpiod.Value) error {
	cl.chip.mutex.Lock()
	defer cl.chip.mutex.Unlock()

	line, err := cl.line(offset)
	if err != nil {
		return err
	}

	if line.settings.Direction != gpiod.DirectionOutput {
		return fmt.Errorf("Offset %d is not an output", offset)
	}

	line.output = value == gpiod.ValueHigh
	return nil
}

// ReadEdgeEvent blocks until an edge event is available or the timeout
// expires.
func (cl *Claim) ReadEdgeEvent(timeout time.Duration) (gpiod.EdgeEvent, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event := <-cl.events:
		return event, true, nil
	case <-timer.C:
		return gpiod.EdgeEvent{}, false, nil
	case <-cl.released.Chan():
		return gpiod.EdgeEvent{}, false, ErrorClaimReleased
	}
}

// Close releases the claim. Calling it multiple times is harmless.
func (cl *Claim) Close() error {
	err := cl.released.Close()
	if err == closeflag.ErrorClosed {
		return nil
	}
	return err
}
