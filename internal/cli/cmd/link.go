package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"rmachine/internal/cli"
	"rmachine/internal/encoding"
	"rmachine/internal/log"
)

// Linker is the command that combines several program images, assembled
// separately, into one: same-tagged sections are concatenated in argument
// order.
//
//	rmachine link -o out.img a.img b.img
func Linker() cli.Command {
	return &linker{output: "a.img", width: machineWidth}
}

type linker struct {
	debug  bool
	output string
	width  uint
}

func (linker) Description() string {
	return "combine program images into one"
}

func (linker) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `link [-o out.img] image...

Combine program images into one, concatenating same-tagged sections in
argument order.`)

	return err
}

func (l *linker) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	fs.BoolVar(&l.debug, "debug", false, "enable debug logging")
	fs.StringVar(&l.output, "o", l.output, "output `filename`")
	fs.UintVar(&l.width, "width", l.width, "word `width`, in bits")

	return fs
}

func (l *linker) Run(_ context.Context, args []string, _ io.Writer, logger *log.Logger) int {
	if l.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) == 0 {
		logger.Error("link: missing image file")
		return 1
	}

	order := []string{}
	combined := map[string]*encoding.Section{}

	for _, fn := range args {
		data, err := os.ReadFile(fn)
		if err != nil {
			logger.Error("read", "file", fn, "err", err)
			return 1
		}

		enc := encoding.NewImageEncoding(uint8(l.width))
		if err := enc.UnmarshalText(data); err != nil {
			logger.Error("decode", "file", fn, "err", err)
			return 1
		}

		for _, sec := range enc.Sections() {
			target, ok := combined[sec.Name]
			if !ok {
				order = append(order, sec.Name)
				target = &encoding.Section{Name: sec.Name}
				combined[sec.Name] = target
			}

			target.Code = append(target.Code, sec.Code...)
		}

		logger.Debug("linked", "file", fn, "sections", len(enc.Sections()))
	}

	sections := make([]encoding.Section, 0, len(order))
	for _, name := range order {
		sections = append(sections, *combined[name])
	}

	out := encoding.NewImageEncoding(uint8(l.width), sections...)

	text, err := out.MarshalText()
	if err != nil {
		logger.Error("marshal", "err", err)
		return 1
	}

	if err := os.WriteFile(l.output, text, 0o644); err != nil {
		logger.Error("write", "out", l.output, "err", err)
		return 1
	}

	logger.Debug("wrote image", "out", l.output, "sections", len(sections))

	return 0
}
