package gpiod

import (
	"fmt"
	"os"
	"time"

	"github.com/BertoldVdb/go-gpiod/gpiouapi"
)

// OpenChip opens a GPIO character device such as /dev/gpiochip0 and
// wraps it in a Chip.
func OpenChip(path string, options ...ChipOption) (*Chip, error) {
	file, err := gpiouapi.OpenChip(path)
	if err != nil {
		return nil, err
	}

	info, err := gpiouapi.GetChipInfo(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	dev := &uapiDevice{
		file: file,
		path: path,
		info: info,
	}

	return NewChip(dev, options...), nil
}

// uapiDevice implements Device on top of the kernel GPIO uAPI v2.
type uapiDevice struct {
	file *os.File
	path string
	info gpiouapi.ChipInfo
}

func (d *uapiDevice) Path() string {
	return d.path
}

func (d *uapiDevice) Label() string {
	return d.info.ChipLabel()
}

func (d *uapiDevice) NumLines() uint32 {
	return d.info.Lines
}

func (d *uapiDevice) LineInfo(offset uint32) (LineInfo, error) {
	raw, err := gpiouapi.GetLineInfo(d.file, offset)
	if err != nil {
		return LineInfo{}, err
	}

	info := LineInfo{
		Offset:    raw.Offset,
		Name:      raw.LineName(),
		Consumer:  raw.LineConsumer(),
		Used:      raw.Flags&gpiouapi.LineFlagUsed != 0,
		ActiveLow: raw.Flags&gpiouapi.LineFlagActiveLow != 0,
	}
	if raw.Flags&gpiouapi.LineFlagOutput != 0 {
		info.Direction = DirectionOutput
	}

	return info, nil
}

func (d *uapiDevice) Claim(req ClaimRequest) (Claim, error) {
	if len(req.Offsets) > gpiouapi.MaxLines {
		return nil, fmt.Errorf("Too many lines in one request (max %d)", gpiouapi.MaxLines)
	}

	config, err := encodeLineConfig(req.Offsets, req.Settings)
	if err != nil {
		return nil, err
	}

	lr := gpiouapi.LineRequest{
		Config:          config,
		NumLines:        uint32(len(req.Offsets)),
		EventBufferSize: 0, // kernel default
	}
	lr.SetConsumer(req.Consumer)

	index := make(map[uint32]uint, len(req.Offsets))
	for i, offset := range req.Offsets {
		lr.Offsets[i] = offset
		index[offset] = uint(i)
	}

	if err := gpiouapi.GetLine(d.file, &lr); err != nil {
		return nil, err
	}

	return &uapiClaim{
		fd:    int(lr.Fd),
		index: index,
	}, nil
}

func (d *uapiDevice) Close() error {
	return d.file.Close()
}

// uapiClaim is one live kernel line handle.
type uapiClaim struct {
	fd    int
	index map[uint32]uint
}

func (c *uapiClaim) GetValue(offset uint32) (Value, error) {
	idx, ok := c.index[offset]
	if !ok {
		return ValueLow, fmt.Errorf("Offset %d is not part of this handle", offset)
	}

	lv := gpiouapi.LineValues{
		Mask: 1 << idx,
	}
	if err := gpiouapi.GetLineValues(c.fd, &lv); err != nil {
		return ValueLow, err
	}

	return boolToValue(lv.Bits&(1<<idx) != 0), nil
}

func (c *uapiClaim) SetValue(offset uint32, value Value) error {
	idx, ok := c.index[offset]
	if !ok {
		return fmt.Errorf("Offset %d is not part of this handle", offset)
	}

	lv := gpiouapi.LineValues{
		Mask: 1 << idx,
	}
	if value == ValueHigh {
		lv.Bits = 1 << idx
	}

	return gpiouapi.SetLineValues(c.fd, &lv)
}

func (c *uapiClaim) ReadEdgeEvent(timeout time.Duration) (EdgeEvent, bool, error) {
	ready, err := gpiouapi.WaitEvent(c.fd, int(timeout.Milliseconds()))
	if err != nil {
		return EdgeEvent{}, false, err
	}
	if !ready {
		return EdgeEvent{}, false, nil
	}

	raw, err := gpiouapi.ReadEvent(c.fd)
	if err != nil {
		return EdgeEvent{}, false, err
	}

	return EdgeEvent{
		Offset:    raw.Offset,
		Rising:    raw.ID == gpiouapi.LineEventRisingEdge,
		Timestamp: time.Unix(0, int64(raw.TimestampNs)),
		Seqno:     raw.Seqno,
	}, true, nil
}

func (c *uapiClaim) Close() error {
	return gpiouapi.CloseLine(c.fd)
}
