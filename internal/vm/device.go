package vm

// device.go defines the sized, mode-gated word array that a Bus multiplexes
// address space across.

import (
	"fmt"

	"rmachine/internal/log"
)

// Mode is a device's access mode: whether reads, writes, or both are
// permitted through the bus.
type Mode uint8

const (
	ReadWrite Mode = iota
	ReadOnly
	WriteOnly
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	default:
		return "read-write"
	}
}

// Device is a fixed-size ordered sequence of Words gated by a [Mode]. It
// implements no policy of its own about where it sits in address space;
// that is the Bus's job.
type Device struct {
	width uint8
	mode  Mode
	cells []Word

	log *log.Logger
}

// NewDevice creates a device of size words, each of the given bit-width, in
// the given mode. Initial content is zero.
func NewDevice(size int, width uint8, mode Mode) *Device {
	cells := make([]Word, size)
	for i := range cells {
		cells[i] = NewWord(width)
	}

	return &Device{
		width: width,
		mode:  mode,
		cells: cells,
		log:   log.DefaultLogger(),
	}
}

// NewROM returns a read-only device, sugar over [NewDevice].
func NewROM(size int, width uint8) *Device { return NewDevice(size, width, ReadOnly) }

// NewRAM returns a read-write device, sugar over [NewDevice].
func NewRAM(size int, width uint8) *Device { return NewDevice(size, width, ReadWrite) }

// NewFlash returns a read-write device conventionally placed on the device
// bus, sugar over [NewDevice].
func NewFlash(size int, width uint8) *Device { return NewDevice(size, width, ReadWrite) }

// Size returns the number of addressable words in the device.
func (d *Device) Size() int { return len(d.cells) }

// Width returns the device's word width.
func (d *Device) Width() uint8 { return d.width }

// Mode returns the device's access mode.
func (d *Device) Mode() Mode { return d.mode }

// Read returns the word at offset. A write-only device, or an offset beyond
// the device's size, is an error.
func (d *Device) Read(offset int) (Word, error) {
	if offset < 0 || offset >= len(d.cells) {
		return Word{}, &AddressError{Offset: uint64(offset), Size: uint64(len(d.cells))}
	}

	if d.mode == WriteOnly {
		return Word{}, &ModeError{Addr: uint64(offset), Mode: d.mode}
	}

	return d.cells[offset], nil
}

// Write stores word at offset. A read-only device, or an offset beyond the
// device's size, is an error.
func (d *Device) Write(offset int, word Word) error {
	if offset < 0 || offset >= len(d.cells) {
		return &AddressError{Offset: uint64(offset), Size: uint64(len(d.cells))}
	}

	if d.mode == ReadOnly {
		return &ModeError{Addr: uint64(offset), Mode: d.mode}
	}

	d.cells[offset] = word

	return nil
}

// ProgramWord stores word at offset, ignoring the device's mode. It is used
// to preload ROM and Flash contents before the machine starts running.
func (d *Device) ProgramWord(offset int, word Word) error {
	if offset < 0 || offset >= len(d.cells) {
		return &AddressError{Offset: uint64(offset), Size: uint64(len(d.cells))}
	}

	d.cells[offset] = word

	return nil
}

// Program calls ProgramWord for each word in words, starting at baseOffset.
func (d *Device) Program(words []Word, baseOffset int) error {
	for i, w := range words {
		if err := d.ProgramWord(baseOffset+i, w); err != nil {
			return fmt.Errorf("program: %w", err)
		}
	}

	return nil
}

func (d *Device) String() string {
	return fmt.Sprintf("device(size=%d, width=%d, mode=%s)", len(d.cells), d.width, d.mode)
}
