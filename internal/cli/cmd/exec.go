package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"rmachine/internal/cli"
	"rmachine/internal/encoding"
	"rmachine/internal/log"
	"rmachine/internal/tty"
	"rmachine/internal/vm"
)

// Executor is the command that loads a program image and runs it to
// completion.
//
//	rmachine execute program.img
func Executor() cli.Command {
	return &executor{commandsName: "reference", timeout: 10 * time.Second}
}

type executor struct {
	debug        bool
	commandsName string
	timeout      time.Duration
}

func (executor) Description() string {
	return "run a program image"
}

func (executor) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `execute [-commands reference|accumulator] program.img

Load a program image and run it to completion.`)

	return err
}

func (ex *executor) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("execute", flag.ExitOnError)
	fs.BoolVar(&ex.debug, "debug", false, "enable debug logging")
	fs.StringVar(&ex.commandsName, "commands", ex.commandsName, "instruction-set `module`")
	fs.DurationVar(&ex.timeout, "timeout", ex.timeout, "maximum run `duration`")

	return fs
}

// Run loads the named image, wiring the machine's console register to
// stdout, and runs it until it halts, the context's deadline elapses, or a
// cycle error occurs.
func (ex *executor) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if ex.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) == 0 {
		logger.Error("execute: missing program image")
		return 1
	}

	var in io.Reader

	console, err := tty.NewConsole(os.Stdin)
	switch {
	case err == nil:
		in, stdout = console, console
		defer func() {
			if err := console.Restore(); err != nil {
				logger.Warn("restore terminal", "err", err)
			}
		}()
	case errors.Is(err, tty.ErrNoTTY):
		logger.Debug("console: not a tty, running non-interactively")
	default:
		logger.Warn("console: raw mode unavailable", "err", err)
	}

	machine, err := buildMachine(ex.commandsName, stdout, in)
	if err != nil {
		logger.Error("build machine", "err", err)
		return 1
	}

	sections, err := ex.loadImage(machine, args[0])
	if err != nil {
		logger.Error("load image", "file", args[0], "err", err)
		return 1
	}

	logger.Debug("loaded image", "file", args[0], "sections", sections)

	ctx, cancel := context.WithTimeout(ctx, ex.timeout)
	defer cancel()

	logger.Info("running")

	err = machine.Run(ctx)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("execute: timed out", "cycles", machine.Cycles())
		return 2
	case err != nil:
		logger.Error("execute: halted on error", "err", err, "cycles", machine.Cycles())
		return 2
	default:
		logger.Info("execute: halted", "cycles", machine.Cycles())
		return 0
	}
}

func (ex *executor) loadImage(machine *vm.Processor, fn string) (int, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return 0, err
	}

	enc := encoding.NewImageEncoding(machine.WordWidth())
	if err := enc.UnmarshalText(data); err != nil {
		return 0, err
	}

	for _, sec := range enc.Sections() {
		bus, addr, err := sectionTarget(machine, sec.Name)
		if err != nil {
			return 0, err
		}

		loader := vm.NewLoader(bus)
		if _, err := loader.Load(vm.ObjectCode{Addr: addr, Code: sec.Code}); err != nil {
			return 0, err
		}
	}

	return len(enc.Sections()), nil
}
