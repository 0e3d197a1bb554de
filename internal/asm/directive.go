package asm

// directive.go defines the directive interface the split pass dispatches
// on and the built-in catalog: .zeros, .padd, .data, .string, and the
// special-cased .org. All but .org are static: the label that names them
// is registered in the assembler's static table, an absolute offset that
// the dereference pass never relocates.

import (
	"fmt"
	"strconv"
)

// Directive is a line-expanding statement kind: a name the split pass
// matches against the line's first token, a declared word count used to
// advance the word cursor without yet computing values, a word producer
// run in the argument pass, and a flag saying whether the directive's
// label belongs in the static table rather than the PC-relative one.
type Directive interface {
	Name() string
	GetWordCount(args []string) (int, error)
	GetWords(args []string) ([]int64, error)
	IsStatic() bool
}

// zerosDirective emits n zero words: ".zeros <label> <n>".
type zerosDirective struct{}

func (zerosDirective) Name() string   { return ".zeros" }
func (zerosDirective) IsStatic() bool { return true }

func (zerosDirective) GetWordCount(args []string) (int, error) {
	return parseCount(".zeros", args, 0)
}

func (zerosDirective) GetWords(args []string) ([]int64, error) {
	n, err := parseCount(".zeros", args, 0)
	if err != nil {
		return nil, err
	}

	return make([]int64, n), nil
}

// paddDirective emits n copies of v: ".padd <label> <n> <v>".
type paddDirective struct{}

func (paddDirective) Name() string   { return ".padd" }
func (paddDirective) IsStatic() bool { return true }

func (paddDirective) GetWordCount(args []string) (int, error) {
	return parseCount(".padd", args, 0)
}

func (paddDirective) GetWords(args []string) ([]int64, error) {
	n, err := parseCount(".padd", args, 0)
	if err != nil {
		return nil, err
	}

	if len(args) < 2 {
		return nil, fmt.Errorf(".padd: missing fill value")
	}

	v, ok := parseIntegerLiteral(args[1])
	if !ok {
		return nil, fmt.Errorf(".padd: %q is not an integer literal", args[1])
	}

	words := make([]int64, n)
	for i := range words {
		words[i] = v
	}

	return words, nil
}

// dataDirective emits one word per remaining argument, each parsed as an
// integer literal: ".data <label> <v0> <v1> ...".
type dataDirective struct{}

func (dataDirective) Name() string   { return ".data" }
func (dataDirective) IsStatic() bool { return true }

func (dataDirective) GetWordCount(args []string) (int, error) {
	return len(args), nil
}

func (dataDirective) GetWords(args []string) ([]int64, error) {
	words := make([]int64, len(args))

	for i, tok := range args {
		v, ok := parseIntegerLiteral(tok)
		if !ok {
			return nil, fmt.Errorf(".data: %q is not an integer literal", tok)
		}

		words[i] = v
	}

	return words, nil
}

// stringDirective packs each byte of a single quoted token into its own
// word: ".string <label> \"text\"". The closing word is not NUL-terminated;
// callers that need termination follow it with a 0 word of their own.
type stringDirective struct{}

func (stringDirective) Name() string   { return ".string" }
func (stringDirective) IsStatic() bool { return true }

func (stringDirective) GetWordCount(args []string) (int, error) {
	text, err := stringLiteral(args)
	if err != nil {
		return 0, err
	}

	return len(text), nil
}

func (stringDirective) GetWords(args []string) ([]int64, error) {
	text, err := stringLiteral(args)
	if err != nil {
		return nil, err
	}

	words := make([]int64, len(text))
	for i, b := range []byte(text) {
		words[i] = int64(b)
	}

	return words, nil
}

func stringLiteral(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf(".string: missing quoted text")
	}

	text := args[0]
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", fmt.Errorf(".string: %q is not a quoted string", text)
	}

	return text[1 : len(text)-1], nil
}

// .org resets the word cursor to an absolute value instead of emitting
// words, and is handled directly in split() rather than through the
// Directive interface: it takes no label, registers nothing in either
// symbol table, and its effect is a cursor reassignment rather than a
// word count or word list, which GetWordCount/GetWords have no way to
// express.

func parseCount(name string, args []string, idx int) (int, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("%s: missing word count", name)
	}

	n, err := strconv.ParseInt(args[idx], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: %q is not a non-negative count", name, args[idx])
	}

	return int(n), nil
}
