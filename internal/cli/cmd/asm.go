package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"rmachine/internal/asm"
	"rmachine/internal/cli"
	"rmachine/internal/encoding"
	"rmachine/internal/log"
)

// Assembler is the command that translates mnemonic source into a
// program image.
//
//	rmachine assemble -o a.img file.asm
func Assembler() cli.Command {
	return &assembler{commandsName: "reference", section: "ROM", commentStart: ";", output: "a.img"}
}

type assembler struct {
	debug        bool
	commandsName string
	section      string
	commentStart string
	output       string
}

func (assembler) Description() string {
	return "assemble source code into a program image"
}

func (assembler) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `assemble [-o file.img] [-commands reference|accumulator] [-section tag] file.asm

Assemble mnemonic source into a program image.`)

	return err
}

func (a *assembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	fs.BoolVar(&a.debug, "debug", false, "enable debug logging")
	fs.StringVar(&a.commandsName, "commands", a.commandsName, "instruction-set `module`")
	fs.StringVar(&a.section, "section", a.section, "output section `tag`")
	fs.StringVar(&a.commentStart, "comment", a.commentStart, "comment-start `token`")
	fs.StringVar(&a.output, "o", a.output, "output `filename`")

	return fs
}

// Run assembles each source file's statements into a single program image
// written as one section to the output file.
func (a *assembler) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if a.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) == 0 {
		logger.Error("assemble: missing source file")
		return 1
	}

	machine, err := buildMachine(a.commandsName, io.Discard, nil)
	if err != nil {
		logger.Error("build machine", "err", err)
		return 1
	}

	assembler := asm.New(machine, asm.WithCommentStart([]string{a.commentStart}), asm.WithLogger(logger))

	var image encoding.Section
	image.Name = a.section

	for _, fn := range args {
		f, err := os.Open(fn)
		if err != nil {
			logger.Error("open", "file", fn, "err", err)
			return 1
		}

		obj, err := assembler.Assemble(f)
		_ = f.Close()

		if err != nil {
			logger.Error("assemble", "file", fn, "err", err)
			return 1
		}

		image.Code = append(image.Code, obj.Code...)

		logger.Debug("assembled", "file", fn, "words", len(obj.Code))
	}

	enc := encoding.NewImageEncoding(machine.WordWidth(), image)

	text, err := enc.MarshalText()
	if err != nil {
		logger.Error("marshal", "err", err)
		return 1
	}

	if err := os.WriteFile(a.output, text, 0o644); err != nil {
		logger.Error("write", "out", a.output, "err", err)
		return 1
	}

	logger.Debug("wrote image", "out", a.output, "words", len(image.Code))

	return 0
}
