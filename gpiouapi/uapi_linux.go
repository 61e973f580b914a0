package gpiouapi

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

func ioctlPtr(fd uintptr, function uintptr, data unsafe.Pointer) error {
	_, _, errNo := unix.Syscall(
		unix.SYS_IOCTL,
		fd,
		function,
		uintptr(data),
	)
	if errNo != 0 {
		return fmt.Errorf("IOCTL failed: %s", errNo.Error())
	}

	return nil
}

func bytesToString(input []byte) string {
	return strings.TrimRight(string(input), "\x00")
}

func stringToBytes(input string, output []byte) {
	n := copy(output, input)

	if n >= len(output) {
		n = len(output) - 1
	}

	// Null terminate string
	output[n] = 0
}

// OpenChip opens a GPIO character device such as /dev/gpiochip0.
func OpenChip(path string) (*os.File, error) {
	return os.OpenFile(path, unix.O_RDWR|unix.O_NOCTTY, 0600)
}

// GetChipInfo reads the chip information of an open GPIO device.
func GetChipInfo(f *os.File) (ChipInfo, error) {
	var ci ChipInfo
	err := ioctlPtr(f.Fd(), gpioGetChipinfoIoctl, unsafe.Pointer(&ci))
	return ci, err
}

// GetLineInfo reads the line information of one offset on an open GPIO
// device.
func GetLineInfo(f *os.File, offset uint32) (LineInfo, error) {
	li := LineInfo{
		Offset: offset,
	}

	err := ioctlPtr(f.Fd(), gpioV2GetLineinfoIoctl, unsafe.Pointer(&li))
	return li, err
}

// GetLine submits a line request to the kernel. On success req.Fd holds
// the file descriptor of the new line handle.
func GetLine(f *os.File, req *LineRequest) error {
	err := ioctlPtr(f.Fd(), gpioV2GetLineIoctl, unsafe.Pointer(req))
	if err != nil {
		return err
	}

	if req.Fd <= 0 {
		return fmt.Errorf("Invalid file descriptor returned")
	}

	return nil
}

// SetLineConfig replaces the configuration of a live line handle.
func SetLineConfig(fd int, config *LineConfig) error {
	return ioctlPtr(uintptr(fd), gpioV2LineSetConfigIoctl, unsafe.Pointer(config))
}

// GetLineValues reads line values from a line handle. The mask in lv
// selects the lines, the result is stored in lv.Bits.
func GetLineValues(fd int, lv *LineValues) error {
	return ioctlPtr(uintptr(fd), gpioV2LineGetValuesIoctl, unsafe.Pointer(lv))
}

// SetLineValues writes line values through a line handle.
func SetLineValues(fd int, lv *LineValues) error {
	return ioctlPtr(uintptr(fd), gpioV2LineSetValuesIoctl, unsafe.Pointer(lv))
}

// WaitEvent polls a line handle for a pending edge event. It returns
// false if the timeout expired without an event becoming readable.
func WaitEvent(fd int, timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{
		Fd:     int32(fd),
		Events: unix.POLLIN,
	}}

	for {
		n, err := unix.Poll(fds, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}

		return n > 0, nil
	}
}

// ReadEvent reads exactly one buffered edge event from a line handle.
// It must only be called after WaitEvent reported readability.
func ReadEvent(fd int) (LineEvent, error) {
	var ev LineEvent

	buf := (*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:]
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return ev, err
		}
		if n != len(buf) {
			return ev, fmt.Errorf("Short event read: got %d bytes", n)
		}

		return ev, nil
	}
}

// CloseLine closes a line handle file descriptor.
func CloseLine(fd int) error {
	return unix.Close(fd)
}

// ChipName returns the kernel name stored in chip info.
func (ci ChipInfo) ChipName() string {
	return bytesToString(ci.Name[:])
}

// ChipLabel returns the hardware label stored in chip info.
func (ci ChipInfo) ChipLabel() string {
	return bytesToString(ci.Label[:])
}

// LineName returns the line name stored in line info.
func (li LineInfo) LineName() string {
	return bytesToString(li.Name[:])
}

// LineConsumer returns the consumer label stored in line info.
func (li LineInfo) LineConsumer() string {
	return bytesToString(li.Consumer[:])
}

// SetConsumer stores a consumer label in a line request.
func (req *LineRequest) SetConsumer(label string) {
	stringToBytes(label, req.Consumer[:])
}
