package gpiod

import "fmt"

// Direction configures whether a line drives or samples its pin.
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// Edge selects which logical transitions generate edge events.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// Drive selects the output driver topology.
type Drive int

const (
	DrivePushPull Drive = iota
	DriveOpenDrain
	DriveOpenSource
)

// Bias selects the pull resistor configuration.
type Bias int

const (
	BiasUnknown Bias = iota
	BiasDisabled
	BiasPullUp
	BiasPullDown
)

// Value is the logical level of a line. Active-low inversion is
// applied by the device layer, so HIGH always means "active".
type Value int

const (
	ValueLow  Value = 0
	ValueHigh Value = 1
)

func (d Direction) valid() error {
	if d != DirectionInput && d != DirectionOutput {
		return fmt.Errorf("%w: direction %d", ErrorValidation, d)
	}
	return nil
}

func (e Edge) valid() error {
	if e < EdgeNone || e > EdgeBoth {
		return fmt.Errorf("%w: edge %d", ErrorValidation, e)
	}
	return nil
}

func (d Drive) valid() error {
	if d < DrivePushPull || d > DriveOpenSource {
		return fmt.Errorf("%w: drive %d", ErrorValidation, d)
	}
	return nil
}

func (b Bias) valid() error {
	if b < BiasUnknown || b > BiasPullDown {
		return fmt.Errorf("%w: bias %d", ErrorValidation, b)
	}
	return nil
}

func (d Direction) String() string {
	if d == DirectionOutput {
		return "output"
	}
	return "input"
}

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	}
	return "none"
}

func (d Drive) String() string {
	switch d {
	case DriveOpenDrain:
		return "open_drain"
	case DriveOpenSource:
		return "open_source"
	}
	return "push_pull"
}

func (b Bias) String() string {
	switch b {
	case BiasDisabled:
		return "disabled"
	case BiasPullUp:
		return "pull_up"
	case BiasPullDown:
		return "pull_down"
	}
	return "unknown"
}

func (v Value) String() string {
	if v == ValueHigh {
		return "high"
	}
	return "low"
}

func boolToValue(b bool) Value {
	if b {
		return ValueHigh
	}
	return ValueLow
}
