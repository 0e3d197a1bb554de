package vm

// errors.go collects the error taxonomy shared by the bus, register file,
// and processor. Each sentinel is wrapped into a detail type that carries
// the offending address or name, so callers can match broadly with
// errors.Is against the sentinel or narrowly with errors.As against the
// detail type.

import (
	"errors"
	"fmt"
)

var (
	// ErrSetup covers registration-time failures: registering after lock,
	// duplicate names, address-space overflow, or a missing ROM or
	// instruction set at setup_done.
	ErrSetup = errors.New("setup error")

	// ErrBus is returned when an address falls outside the cumulative
	// span of a bus's registered devices.
	ErrBus = errors.New("bus error")

	// ErrMode is returned when an access conflicts with a device's
	// read-only/write-only mode.
	ErrMode = errors.New("mode violation")

	// ErrAddress is returned when an offset falls outside a single
	// device's size.
	ErrAddress = errors.New("address error")

	// ErrSegfault is returned when the opcode at PC has no entry in the
	// instruction table.
	ErrSegfault = errors.New("segmentation fault")

	// ErrArgument is returned for operand type mismatches or unresolved
	// symbols during assembly.
	ErrArgument = errors.New("argument error")

	// ErrReference is returned for duplicate labels in either pass-1
	// table.
	ErrReference = errors.New("reference error")

	// ErrAssemble covers unknown mnemonics or arity mismatches with no
	// default to fill.
	ErrAssemble = errors.New("assemble error")

	// ErrLookup is returned when a register name or index cannot be
	// resolved, or is addressed by the wrong key kind.
	ErrLookup = errors.New("lookup error")
)

// SetupError names the detail of a setup failure.
type SetupError struct {
	Reason string
}

func (e *SetupError) Error() string { return fmt.Sprintf("%s: %s", ErrSetup, e.Reason) }
func (e *SetupError) Is(target error) bool {
	return target == ErrSetup //nolint:errorlint
}
func (e *SetupError) Unwrap() error { return ErrSetup }

// BusError names the address that faulted.
type BusError struct {
	Addr uint64
}

func (e *BusError) Error() string { return fmt.Sprintf("%s: addr %#x", ErrBus, e.Addr) }
func (e *BusError) Is(target error) bool {
	return target == ErrBus //nolint:errorlint
}
func (e *BusError) Unwrap() error { return ErrBus }

// ModeError names the address and the mode that was violated.
type ModeError struct {
	Addr uint64
	Mode Mode
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("%s: addr %#x: device is %s", ErrMode, e.Addr, e.Mode)
}
func (e *ModeError) Is(target error) bool {
	return target == ErrMode //nolint:errorlint
}
func (e *ModeError) Unwrap() error { return ErrMode }

// AddressError names the offset that exceeded a device's size.
type AddressError struct {
	Offset uint64
	Size   uint64
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s: offset %#x exceeds size %#x", ErrAddress, e.Offset, e.Size)
}
func (e *AddressError) Is(target error) bool {
	return target == ErrAddress //nolint:errorlint
}
func (e *AddressError) Unwrap() error { return ErrAddress }

// SegfaultError names the PC and opcode that had no handler.
type SegfaultError struct {
	PC     uint64
	Opcode uint64
}

func (e *SegfaultError) Error() string {
	return fmt.Sprintf("%s: pc %#x: opcode %#x", ErrSegfault, e.PC, e.Opcode)
}
func (e *SegfaultError) Is(target error) bool {
	return target == ErrSegfault //nolint:errorlint
}
func (e *SegfaultError) Unwrap() error { return ErrSegfault }

// LookupError names the register key that failed to resolve.
type LookupError struct {
	Key any
}

func (e *LookupError) Error() string { return fmt.Sprintf("%s: %v", ErrLookup, e.Key) }
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup //nolint:errorlint
}
func (e *LookupError) Unwrap() error { return ErrLookup }
