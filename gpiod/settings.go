package gpiod

import (
	"fmt"
	"time"
)

// LineSettings holds the full set of configurable attributes of one
// line. The zero value is the default configuration: input, no edge
// detection, push-pull, unknown bias, active-high, no debounce, output
// value low.
type LineSettings struct {
	Direction      Direction
	Edge           Edge
	Drive          Drive
	Bias           Bias
	ActiveLow      bool
	DebouncePeriod time.Duration
	OutputValue    Value
}

// LineConfig stores per-offset line settings for a request. Offsets
// keep their insertion order, which matters for the fallback applied
// by BuildRequest to offsets without an explicit entry.
type LineConfig struct {
	order    []uint32
	settings map[uint32]*LineSettings
}

// OffsetSettings mutates the settings entry of a single offset. It is
// obtained from LineConfig.SetOffset, so every setter call names the
// offset it applies to through the handle it was called on.
type OffsetSettings struct {
	config   *LineConfig
	settings *LineSettings
}

// NewLineConfig creates an empty line configuration.
func NewLineConfig() *LineConfig {
	return &LineConfig{
		settings: make(map[uint32]*LineSettings),
	}
}

// SetOffset returns the settings handle for the given offset, creating
// a default entry if the offset was not referenced before.
func (c *LineConfig) SetOffset(offset uint32) *OffsetSettings {
	s, ok := c.settings[offset]
	if !ok {
		s = &LineSettings{}
		c.settings[offset] = s
		c.order = append(c.order, offset)
	}

	return &OffsetSettings{
		config:   c,
		settings: s,
	}
}

// Snapshot returns a copy of all configured settings keyed by offset.
func (c *LineConfig) Snapshot() map[uint32]LineSettings {
	out := make(map[uint32]LineSettings, len(c.settings))
	for offset, s := range c.settings {
		out[offset] = *s
	}
	return out
}

// Offsets returns the configured offsets in insertion order.
func (c *LineConfig) Offsets() []uint32 {
	out := make([]uint32, len(c.order))
	copy(out, c.order)
	return out
}

type settingsSource int

const (
	sourceExplicit settingsSource = iota
	sourceOffsetZero
	sourceFirstEntry
	sourceDefaults
)

func (s settingsSource) String() string {
	switch s {
	case sourceExplicit:
		return "explicit"
	case sourceOffsetZero:
		return "offset 0 fallback"
	case sourceFirstEntry:
		return "first entry fallback"
	}
	return "defaults"
}

// resolve returns the settings used for an offset in a request. An
// offset without an explicit entry falls back to the entry of offset
// 0, then to the first configured entry, then to defaults. The source
// is reported so BuildRequest can log non-explicit resolutions.
func (c *LineConfig) resolve(offset uint32) (LineSettings, settingsSource) {
	if s, ok := c.settings[offset]; ok {
		return *s, sourceExplicit
	}

	if s, ok := c.settings[0]; ok {
		return *s, sourceOffsetZero
	}

	if len(c.order) > 0 {
		return *c.settings[c.order[0]], sourceFirstEntry
	}

	return LineSettings{}, sourceDefaults
}

// SetDirection configures the line direction.
func (o *OffsetSettings) SetDirection(direction Direction) error {
	if err := direction.valid(); err != nil {
		return err
	}
	o.settings.Direction = direction
	return nil
}

// SetEdge configures edge detection.
func (o *OffsetSettings) SetEdge(edge Edge) error {
	if err := edge.valid(); err != nil {
		return err
	}
	o.settings.Edge = edge
	return nil
}

// SetDrive configures the output driver topology.
func (o *OffsetSettings) SetDrive(drive Drive) error {
	if err := drive.valid(); err != nil {
		return err
	}
	o.settings.Drive = drive
	return nil
}

// SetBias configures the pull resistor.
func (o *OffsetSettings) SetBias(bias Bias) error {
	if err := bias.valid(); err != nil {
		return err
	}
	o.settings.Bias = bias
	return nil
}

// SetActiveLow configures logical inversion of the line value.
func (o *OffsetSettings) SetActiveLow(activeLow bool) {
	o.settings.ActiveLow = activeLow
}

// SetOutputValue configures the value driven when the line is
// requested as output.
func (o *OffsetSettings) SetOutputValue(value Value) {
	if value != ValueLow {
		value = ValueHigh
	}
	o.settings.OutputValue = value
}

// SetDebouncePeriod configures the debounce period applied by the
// device before edges are reported.
func (o *OffsetSettings) SetDebouncePeriod(period time.Duration) error {
	if period < 0 {
		return fmt.Errorf("%w: negative debounce period %s", ErrorValidation, period)
	}
	o.settings.DebouncePeriod = period
	return nil
}

// Settings returns a copy of the current settings of this offset.
func (o *OffsetSettings) Settings() LineSettings {
	return *o.settings
}
