package gpiouapi

// The types below mirror the GPIO uAPI v2 structures byte for byte.
// They are passed to the kernel by pointer, so layout and padding must
// match <linux/gpio.h> exactly.

type ChipInfo struct {
	Name  [32]byte
	Label [32]byte
	Lines uint32
}

type LineAttribute struct {
	ID      LineAttrID
	Padding uint32
	Value   uint64
}

type LineConfigAttribute struct {
	Attr LineAttribute
	Mask uint64
}

type LineConfig struct {
	Flags    LineFlag
	NumAttrs uint32
	Padding  [5]uint32
	Attrs    [MaxConfigAttrs]LineConfigAttribute
}

type LineRequest struct {
	Offsets         [MaxLines]uint32
	Consumer        [32]byte
	Config          LineConfig
	NumLines        uint32
	EventBufferSize uint32
	Padding         [5]uint32
	Fd              int32
}

type LineValues struct {
	Bits uint64
	Mask uint64
}

type LineInfo struct {
	Name     [32]byte
	Consumer [32]byte
	Offset   uint32
	NumAttrs uint32
	Flags    LineFlag
	Attrs    [MaxConfigAttrs]LineAttribute
	Padding  [4]uint32
}

type LineEvent struct {
	TimestampNs uint64
	ID          LineEventID
	Offset      uint32
	Seqno       uint32
	LineSeqno   uint32
	Padding     [6]uint32
}
