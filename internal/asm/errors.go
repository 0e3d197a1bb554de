package asm

// errors.go wraps the assembler's share of the vm package's error
// taxonomy (argument, reference, assemble) in detail types that carry the
// offending source line, following the same Is/Unwrap pattern vm's own
// errors use.

import (
	"fmt"

	"rmachine/internal/vm"
)

// ArgumentError names the line and reason an operand failed to resolve: a
// register slot held an unknown name, a constant slot named a register, a
// literal was malformed, or a symbolic reference never resolved in the
// dereference pass.
type ArgumentError struct {
	Line   int
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: line %d: %s", vm.ErrArgument, e.Line, e.Reason)
}
func (e *ArgumentError) Is(target error) bool {
	return target == vm.ErrArgument //nolint:errorlint
}
func (e *ArgumentError) Unwrap() error { return vm.ErrArgument }

// ReferenceError names a label defined more than once, naming both the
// line of the first definition and the line of the collision.
type ReferenceError struct {
	Name      string
	FirstLine int
	Line      int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: label %q at line %d already defined at line %d", vm.ErrReference, e.Name, e.Line, e.FirstLine)
}
func (e *ReferenceError) Is(target error) bool {
	return target == vm.ErrReference //nolint:errorlint
}
func (e *ReferenceError) Unwrap() error { return vm.ErrReference }

// AssembleError names the line and reason a statement could not be turned
// into a command or directive record: an unknown mnemonic, a directive
// missing its label, or an arity mismatch with no default to fill.
type AssembleError struct {
	Line   int
	Reason string
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("%s: line %d: %s", vm.ErrAssemble, e.Line, e.Reason)
}
func (e *AssembleError) Is(target error) bool {
	return target == vm.ErrAssemble //nolint:errorlint
}
func (e *AssembleError) Unwrap() error { return vm.ErrAssemble }
