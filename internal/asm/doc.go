// Package asm assembles line-oriented mnemonic source into a word-addressed
// program image for a [rmachine/internal/vm.Processor]. It runs a four-pass
// pipeline — split, argument, dereference, program — against a read-only
// [Target] view of the machine's instruction, register, and constant
// tables, so the same assembler works against any instruction set a
// Target exposes rather than one fixed opcode table.
//
// Grammar:
//
//	statement   = blank | comment | label | directive | command .
//	label       = identifier ":" [ directive | command ] .
//	directive   = "." identifier { token } .
//	command     = mnemonic { token } .
//	literal     = "0b" binary | "0x" hex | "0" octal | [ "-" ] decimal | "'" char "'" .
package asm
