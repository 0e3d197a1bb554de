package vm

// bus.go implements the address-space multiplexer: it owns an ordered list
// of devices, assigns each a contiguous range in registration order, and
// routes word-addressed reads and writes to the device that owns the
// touched address.

import (
	"fmt"

	"rmachine/internal/log"
)

// segment records the half-open address range [start, start+size) a device
// occupies on a bus.
type segment struct {
	start  uint64
	size   uint64
	device *Device
}

// Bus owns a set of devices and dispatches word I/O to them by address.
// Devices are assigned contiguous, non-overlapping ranges in registration
// order starting at zero. Once the bus has served its first read or write it
// is locked: no further devices may be registered.
type Bus struct {
	width   uint8
	cursor  uint64
	segs    []segment
	locked  bool
	reads   uint64
	writes  uint64
	scratch Word // shared truncation word used to normalize dispatched values

	log *log.Logger
}

// NewBus creates a bus whose maximum addressable span is 2^width.
func NewBus(width uint8) *Bus {
	return &Bus{
		width:   width,
		scratch: NewWord(width),
		log:     log.DefaultLogger(),
	}
}

// Width returns the bus's configured address width.
func (b *Bus) Width() uint8 { return b.width }

// span is the maximum addressable span of the bus, 2^width.
func (b *Bus) span() uint64 {
	if b.width >= 64 {
		return ^uint64(0)
	}

	return uint64(1) << b.width
}

// RegisterDevice assigns the next contiguous range to d and returns its
// start address. Registering after the bus is locked, or growing the
// cursor past the bus's addressable span, is a setup error.
func (b *Bus) RegisterDevice(d *Device) (uint64, error) {
	if b.locked {
		return 0, &SetupError{Reason: "bus is locked: device registered after first use"}
	}

	size := uint64(d.Size())

	if b.cursor+size > b.span() {
		return 0, &SetupError{Reason: fmt.Sprintf(
			"device of size %d at cursor %#x exceeds address space 2^%d", size, b.cursor, b.width)}
	}

	start := b.cursor

	b.segs = append(b.segs, segment{start: start, size: size, device: d})
	b.cursor += size

	b.log.Debug("registered device", log.String("START", fmt.Sprintf("%#x", start)), "DEVICE", d)

	return start, nil
}

// DeviceCount returns the number of registered devices.
func (b *Bus) DeviceCount() int { return len(b.segs) }

// Reads returns the cumulative number of successful and failed read
// dispatches.
func (b *Bus) Reads() uint64 { return b.reads }

// Writes returns the cumulative number of successful and failed write
// dispatches.
func (b *Bus) Writes() uint64 { return b.writes }

// Locked reports whether the bus has served a read or write and therefore
// refuses further registration.
func (b *Bus) Locked() bool { return b.locked }

// find returns the segment containing addr, or nil if addr is beyond the
// cumulative device span.
func (b *Bus) find(addr uint64) *segment {
	if addr >= b.cursor {
		return nil
	}

	for i := range b.segs {
		s := &b.segs[i]
		if addr >= s.start && addr < s.start+s.size {
			return s
		}
	}

	return nil
}

// ReadWord reads the word at addr. An address beyond the cumulative device
// span is a bus error; a mode or offset violation on the owning device is
// returned wrapped with the bus address, and matches ErrMode or ErrAddress
// rather than ErrBus.
func (b *Bus) ReadWord(addr uint64) (Word, error) {
	b.locked = true
	b.reads++

	seg := b.find(addr)
	if seg == nil {
		return Word{}, &BusError{Addr: addr}
	}

	val, err := seg.device.Read(int(addr - seg.start))
	if err != nil {
		return Word{}, fmt.Errorf("bus: read %#x: %w", addr, err)
	}

	b.scratch.SetUnsigned(val.GetUnsigned())

	return b.scratch, nil
}

// WriteWord writes word to addr. See ReadWord for error semantics.
func (b *Bus) WriteWord(addr uint64, word Word) error {
	b.locked = true
	b.writes++

	seg := b.find(addr)
	if seg == nil {
		return &BusError{Addr: addr}
	}

	b.scratch.SetUnsigned(word.GetUnsigned())

	if err := seg.device.Write(int(addr-seg.start), b.scratch); err != nil {
		return fmt.Errorf("bus: write %#x: %w", addr, err)
	}

	return nil
}

// Device returns the i-th registered device, or nil if i is out of range.
// It is used by setup_done to identify the first memory device (ROM), the
// second (RAM), and by the device bus to identify the first device-bus
// device (Flash) per the bus conventions in §6.
func (b *Bus) Device(i int) *Device {
	if i < 0 || i >= len(b.segs) {
		return nil
	}

	return b.segs[i].device
}

// Start returns the start address of the i-th registered device.
func (b *Bus) Start(i int) (uint64, bool) {
	if i < 0 || i >= len(b.segs) {
		return 0, false
	}

	return b.segs[i].start, true
}
