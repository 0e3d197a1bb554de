// Package vm implements a small register machine: a configurable-width [Word],
// a [Bus] that multiplexes address space across [Device] instances, a
// [RegisterFile] of named and indexed [Register] cells, a table-driven
// [InstructionSet], and a [Processor] that ties them together in a
// fetch/decode/execute cycle.
//
// The machine is deliberately generic. Word width, the instruction set, the
// devices on each bus, and the registers in the file are all supplied by the
// caller at construction time; nothing here hard-codes a particular
// architecture. The reference instruction set in this package ([NewInstructionSet])
// and the alternative accumulator set ([NewAccumulatorSet]) are two
// concrete instantiations of that machinery, not the only ones possible.
package vm
