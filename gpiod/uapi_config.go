package gpiod

import (
	"fmt"
	"math/bits"

	"github.com/BertoldVdb/go-gpiod/gpiouapi"
)

func settingsToFlags(s LineSettings) gpiouapi.LineFlag {
	var flags gpiouapi.LineFlag

	if s.Direction == DirectionOutput {
		flags |= gpiouapi.LineFlagOutput
	} else {
		flags |= gpiouapi.LineFlagInput
	}

	switch s.Edge {
	case EdgeRising:
		flags |= gpiouapi.LineFlagEdgeRising
	case EdgeFalling:
		flags |= gpiouapi.LineFlagEdgeFalling
	case EdgeBoth:
		flags |= gpiouapi.LineFlagEdgeRising | gpiouapi.LineFlagEdgeFalling
	}

	switch s.Drive {
	case DriveOpenDrain:
		flags |= gpiouapi.LineFlagOpenDrain
	case DriveOpenSource:
		flags |= gpiouapi.LineFlagOpenSource
	}

	switch s.Bias {
	case BiasDisabled:
		flags |= gpiouapi.LineFlagBiasDisabled
	case BiasPullUp:
		flags |= gpiouapi.LineFlagBiasPullUp
	case BiasPullDown:
		flags |= gpiouapi.LineFlagBiasPullDown
	}

	if s.ActiveLow {
		flags |= gpiouapi.LineFlagActiveLow
	}

	return flags
}

// encodeLineConfig translates resolved per-offset settings into a v2
// line config. The most common flag combination becomes the default
// flags of the request, deviating lines and debounce periods are
// expressed as attributes. The kernel caps attributes at
// gpiouapi.MaxConfigAttrs, requests needing more are rejected.
func encodeLineConfig(offsets []uint32, settings map[uint32]LineSettings) (gpiouapi.LineConfig, error) {
	var config gpiouapi.LineConfig

	flagMasks := make(map[gpiouapi.LineFlag]uint64)
	flagOrder := []gpiouapi.LineFlag{}
	debounceMasks := make(map[uint64]uint64)
	debounceOrder := []uint64{}
	var outputMask, outputBits uint64

	for i, offset := range offsets {
		s := settings[offset]

		flags := settingsToFlags(s)
		if _, ok := flagMasks[flags]; !ok {
			flagOrder = append(flagOrder, flags)
		}
		flagMasks[flags] |= 1 << uint(i)

		if s.DebouncePeriod > 0 {
			micros := uint64(s.DebouncePeriod.Microseconds())
			if _, ok := debounceMasks[micros]; !ok {
				debounceOrder = append(debounceOrder, micros)
			}
			debounceMasks[micros] |= 1 << uint(i)
		}

		if s.Direction == DirectionOutput {
			outputMask |= 1 << uint(i)
			if s.OutputValue == ValueHigh {
				outputBits |= 1 << uint(i)
			}
		}
	}

	// The flag set covering the most lines becomes the request default.
	defaultFlags := flagOrder[0]
	for _, flags := range flagOrder {
		if bits.OnesCount64(flagMasks[flags]) > bits.OnesCount64(flagMasks[defaultFlags]) {
			defaultFlags = flags
		}
	}
	config.Flags = defaultFlags

	addAttr := func(attr gpiouapi.LineAttribute, mask uint64) error {
		if config.NumAttrs >= gpiouapi.MaxConfigAttrs {
			return fmt.Errorf("Too many line config attributes (max %d)", gpiouapi.MaxConfigAttrs)
		}
		config.Attrs[config.NumAttrs] = gpiouapi.LineConfigAttribute{
			Attr: attr,
			Mask: mask,
		}
		config.NumAttrs++
		return nil
	}

	for _, flags := range flagOrder {
		if flags == defaultFlags {
			continue
		}
		err := addAttr(gpiouapi.LineAttribute{
			ID:    gpiouapi.LineAttrIDFlags,
			Value: uint64(flags),
		}, flagMasks[flags])
		if err != nil {
			return config, err
		}
	}

	if outputMask != 0 {
		err := addAttr(gpiouapi.LineAttribute{
			ID:    gpiouapi.LineAttrIDOutputValues,
			Value: outputBits,
		}, outputMask)
		if err != nil {
			return config, err
		}
	}

	for _, micros := range debounceOrder {
		err := addAttr(gpiouapi.LineAttribute{
			ID:    gpiouapi.LineAttrIDDebounce,
			Value: micros,
		}, debounceMasks[micros])
		if err != nil {
			return config, err
		}
	}

	return config, nil
}
