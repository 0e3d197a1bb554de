package asm

// assembler.go implements the four-pass pipeline: split, argument,
// dereference, program. Each pass is a full walk over the line list rather
// than a single fused loop, so label and constant references can be
// resolved after every line has already been classified and sized,
// against a generic Target's instruction, register, and constant tables.

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rmachine/internal/log"
	"rmachine/internal/vm"
)

// Target is the read-only view of a machine the assembler assembles
// against: its opcode catalog, its register names, and its named
// constants (interrupt indices, ROMEND/RAMEND/FLASH bounds). *vm.Processor
// satisfies this directly.
type Target interface {
	Instruction(mnemonic string) (*vm.Instruction, bool)
	RegisterIndex(name string) (int, bool)
	Constant(name string) (int64, bool)
	WordWidth() uint8
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithCommentStart overrides the default comment-start token set ({";"}).
func WithCommentStart(tokens []string) Option {
	return func(a *Assembler) { a.commentStart = tokens }
}

// WithDirective registers an additional directive, or replaces a built-in
// one of the same name.
func WithDirective(d Directive) Option {
	return func(a *Assembler) { a.directives[d.Name()] = d }
}

// WithLogger configures the assembler's logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Assembler) { a.log = l }
}

// Assembler turns mnemonic source into a vm.ObjectCode image for a single
// Target. It is stateless between calls to Assemble: each call runs its
// own four passes over freshly parsed lines.
type Assembler struct {
	target       Target
	directives   map[string]Directive
	commentStart []string
	log          *log.Logger
}

// New returns an Assembler for target with the built-in directive catalog
// (.zeros, .padd, .data, .string) and default comment-start set.
func New(target Target, opts ...Option) *Assembler {
	a := &Assembler{
		target:       target,
		directives:   make(map[string]Directive),
		commentStart: []string{";"},
		log:          log.DefaultLogger(),
	}

	for _, d := range []Directive{zerosDirective{}, paddDirective{}, dataDirective{}, stringDirective{}} {
		a.directives[d.Name()] = d
	}

	for _, fn := range opts {
		fn(a)
	}

	return a
}

// operand is a command's resolved or pending argument: known values carry
// an int64 directly; unresolved ones carry a symbol name for pass 3 to
// look up.
type operand struct {
	known bool
	value int64
	sym   string
}

// asmLine is a single recorded statement, produced by pass 1 and filled in
// by passes 2 and 3.
type asmLine struct {
	no int

	isData    bool
	directive Directive
	rawArgs   []string
	words     []int64 // data lines only, filled by pass 2

	instr *vm.Instruction
	ops   []operand // command lines only, filled by passes 2 and 3
}

// Assemble runs the four-pass pipeline over src and returns the resulting
// program image. On any error, no partial image is returned and the
// caller's device contents are left untouched — Assemble never mutates
// the target.
func (a *Assembler) Assemble(src io.Reader) (vm.ObjectCode, error) {
	lines, pcTable, staticTable, addr, err := a.split(src)
	if err != nil {
		return vm.ObjectCode{}, err
	}

	if err := a.argument(lines); err != nil {
		return vm.ObjectCode{}, err
	}

	if err := a.dereference(lines, pcTable, staticTable, addr); err != nil {
		return vm.ObjectCode{}, err
	}

	return a.program(lines, addr)
}

// split is pass 1: strip comments, register labels, classify each
// statement as data or command, validate arity, and advance the word
// cursor by each statement's declared word count.
func (a *Assembler) split(src io.Reader) ([]*asmLine, *SymbolTable, *SymbolTable, uint64, error) {
	pcTable := NewSymbolTable()
	staticTable := NewSymbolTable()
	seen := make(map[string]int)

	var lines []*asmLine

	wc := int64(0)
	addr := uint64(0)
	addrSet := false

	scanner := bufio.NewScanner(src)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		text := stripComment(scanner.Text(), a.commentStart)
		text = strings.TrimSpace(text)

		if text == "" {
			continue
		}

		tokens := strings.Fields(text)

		if label, ok := strings.CutSuffix(tokens[0], ":"); ok && label != "" {
			if err := registerLabel(seen, pcTable, label, wc, lineNo); err != nil {
				return nil, nil, nil, 0, err
			}

			tokens = tokens[1:]
			if len(tokens) == 0 {
				continue
			}
		}

		head, args := tokens[0], tokens[1:]

		if head == ".org" {
			if len(args) < 1 {
				return nil, nil, nil, 0, &AssembleError{Line: lineNo, Reason: ".org: missing address"}
			}

			n, err := strconv.ParseInt(args[0], 0, 64)
			if err != nil || n < 0 {
				return nil, nil, nil, 0, &AssembleError{Line: lineNo, Reason: fmt.Sprintf(".org: %q is not a non-negative address", args[0])}
			}

			if !addrSet {
				addr = uint64(n)
				addrSet = true
			}

			wc = n

			continue
		}

		if d, ok := a.directives[head]; ok {
			if len(args) < 1 {
				return nil, nil, nil, 0, &AssembleError{Line: lineNo, Reason: fmt.Sprintf("%s: missing label", head)}
			}

			label, directiveArgs := args[0], args[1:]

			table := pcTable
			if d.IsStatic() {
				table = staticTable
			}

			if err := registerLabel(seen, table, label, wc, lineNo); err != nil {
				return nil, nil, nil, 0, err
			}

			n, err := d.GetWordCount(directiveArgs)
			if err != nil {
				return nil, nil, nil, 0, &AssembleError{Line: lineNo, Reason: err.Error()}
			}

			lines = append(lines, &asmLine{no: lineNo, isData: true, directive: d, rawArgs: directiveArgs})
			wc += int64(n)

			continue
		}

		instr, ok := a.target.Instruction(head)
		if !ok {
			return nil, nil, nil, 0, &AssembleError{Line: lineNo, Reason: fmt.Sprintf("unknown mnemonic %q", head)}
		}

		if len(args) > len(instr.Args) {
			return nil, nil, nil, 0, &AssembleError{Line: lineNo, Reason: fmt.Sprintf("%s: too many operands", head)}
		}

		for len(args) < len(instr.Args) {
			at := instr.Args[len(args)]
			if !at.CanDefault {
				return nil, nil, nil, 0, &AssembleError{Line: lineNo, Reason: fmt.Sprintf("%s: missing operand %d with no default", head, len(args))}
			}

			args = append(args, strconv.FormatInt(at.Default, 10))
		}

		lines = append(lines, &asmLine{no: lineNo, isData: false, instr: instr, rawArgs: args})
		wc += int64(1 + len(instr.Args))
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, nil, 0, err
	}

	return lines, pcTable, staticTable, addr, nil
}

// argument is pass 2: data lines get their words from the directive;
// command lines get each operand resolved against the register file (for
// register slots) or the integer literal grammar, falling back to a
// symbolic reference left for pass 3.
func (a *Assembler) argument(lines []*asmLine) error {
	for _, ln := range lines {
		if ln.isData {
			words, err := ln.directive.GetWords(ln.rawArgs)
			if err != nil {
				return &AssembleError{Line: ln.no, Reason: err.Error()}
			}

			ln.words = words

			continue
		}

		ln.ops = make([]operand, len(ln.rawArgs))

		for i, tok := range ln.rawArgs {
			argType := ln.instr.Args[i]

			if argType.Kind == vm.ArgRegister {
				idx, ok := a.target.RegisterIndex(tok)
				if !ok {
					return &ArgumentError{Line: ln.no, Reason: fmt.Sprintf("%s: %q is not a register", ln.instr.Mnemonic, tok)}
				}

				ln.ops[i] = operand{known: true, value: int64(idx)}

				continue
			}

			if _, ok := a.target.RegisterIndex(tok); ok {
				return &ArgumentError{Line: ln.no, Reason: fmt.Sprintf("%s: %q names a register, want a constant", ln.instr.Mnemonic, tok)}
			}

			if v, ok := parseIntegerLiteral(tok); ok {
				ln.ops[i] = operand{known: true, value: v}
				continue
			}

			ln.ops[i] = operand{sym: tok}
		}
	}

	return nil
}

// dereference is pass 3: walk the lines tracking the word cursor, and
// substitute each pending symbolic operand with the static table's
// absolute offset, the PC-relative table's offset minus the cursor, or a
// named constant — in that order.
func (a *Assembler) dereference(lines []*asmLine, pcTable, staticTable *SymbolTable, addr uint64) error {
	wc := int64(addr)

	for _, ln := range lines {
		if ln.isData {
			wc += int64(len(ln.words))
			continue
		}

		for i := range ln.ops {
			if ln.ops[i].known {
				continue
			}

			name := ln.ops[i].sym

			if off, ok := staticTable.Offset(name); ok {
				ln.ops[i] = operand{known: true, value: off}
				continue
			}

			if off, ok := pcTable.Offset(name); ok {
				ln.ops[i] = operand{known: true, value: off - wc}
				continue
			}

			if v, ok := a.target.Constant(name); ok {
				ln.ops[i] = operand{known: true, value: v}
				continue
			}

			return &ArgumentError{Line: ln.no, Reason: fmt.Sprintf("unresolved reference %q", name)}
		}

		wc += int64(1 + len(ln.ops))
	}

	return nil
}

// program is pass 4: concatenate every line's resolved words, in source
// order, into a single image.
func (a *Assembler) program(lines []*asmLine, addr uint64) (vm.ObjectCode, error) {
	width := a.target.WordWidth()

	var code []vm.Word

	for _, ln := range lines {
		if ln.isData {
			for _, v := range ln.words {
				w := vm.NewWord(width)
				w.SetSigned(v)
				code = append(code, w)
			}

			continue
		}

		opWord := vm.NewWord(width)
		opWord.SetUnsigned(ln.instr.Opcode)
		code = append(code, opWord)

		for _, op := range ln.ops {
			w := vm.NewWord(width)
			w.SetSigned(op.value)
			code = append(code, w)
		}
	}

	return vm.ObjectCode{Addr: addr, Code: code}, nil
}

// registerLabel records name at offset in table, after checking it
// against every label defined anywhere, in either table, so far.
func registerLabel(seen map[string]int, table *SymbolTable, name string, offset int64, line int) error {
	if first, ok := seen[name]; ok {
		return &ReferenceError{Name: name, FirstLine: first, Line: line}
	}

	seen[name] = line
	table.add(name, offset)

	return nil
}

// stripComment removes everything from the first comment-start token
// onward.
func stripComment(line string, commentStart []string) string {
	cut := len(line)

	for _, tok := range commentStart {
		if tok == "" {
			continue
		}

		if i := strings.Index(line, tok); i >= 0 && i < cut {
			cut = i
		}
	}

	return line[:cut]
}
