package vm

// loader.go loads assembled program images into a processor's devices.

import (
	"fmt"

	"rmachine/internal/log"
)

// ObjectCode is a word-list plus the offset at which it belongs on a bus.
// It is the unit the assembler emits and the loader consumes.
type ObjectCode struct {
	Addr uint64
	Code []Word
}

// Loader loads one or more ObjectCode values into a bus's devices.
type Loader struct {
	bus *Bus
	log *log.Logger
}

// NewLoader creates a loader that programs devices on bus.
func NewLoader(bus *Bus) *Loader {
	return &Loader{bus: bus, log: log.DefaultLogger()}
}

// Load programs obj's words into the device occupying its start address,
// using the device's Program path (which ignores the device's mode, so
// read-only ROM can be preloaded). It returns the count of words loaded.
func (l *Loader) Load(obj ObjectCode) (int, error) {
	if len(obj.Code) == 0 {
		return 0, fmt.Errorf("%w: object code is empty", ErrSetup)
	}

	seg := l.bus.find(obj.Addr)
	if seg == nil {
		return 0, fmt.Errorf("%w: addr %#x", ErrBus, obj.Addr)
	}

	offset := int(obj.Addr - seg.start)

	if err := seg.device.Program(obj.Code, offset); err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}

	l.log.Debug("loaded object", "ADDR", fmt.Sprintf("%#x", obj.Addr), "WORDS", len(obj.Code))

	return len(obj.Code), nil
}
