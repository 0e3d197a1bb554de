package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"rmachine/internal/asm"
	"rmachine/internal/cli"
	"rmachine/internal/log"
	"rmachine/internal/vm"
)

// demoSource computes 5 + (-3) and halts — small enough to read in one
// glance, large enough to exercise the assembler's reference mnemonics,
// label-free register and immediate operands, and the halt convention in
// one run.
const demoSource = `
ldi 5 r0
ldi -3 r1
add r0 r1
ldi 1 ECR
`

// Demo is a demonstration command: it assembles and runs a small built-in
// program and reports the resulting register state.
func Demo() cli.Command {
	return new(demo)
}

type demo struct {
	debug bool
	quiet bool
}

func (demo) Description() string {
	return "assemble and run a small built-in demo program"
}

func (d demo) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `
demo [ -debug | -quiet ]

Assemble and run a small demo program, reporting its final register state.`)

	return err
}

func (d *demo) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)

	fs.BoolVar(&d.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&d.quiet, "quiet", false, "enable quiet output, result only")

	return fs
}

func (d demo) Run(ctx context.Context, args []string, out io.Writer, _ *log.Logger) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if d.quiet {
		log.LogLevel.Set(log.Error)
	}

	if d.debug {
		log.LogLevel.Set(log.Debug)
	}

	logger := log.NewFormattedLogger(os.Stdout)
	log.SetDefault(logger)

	logger.Info("initializing machine")

	machine, err := buildMachine("reference", io.Discard, nil)
	if err != nil {
		logger.Error("build machine", "err", err)
		return 2
	}

	assembler := asm.New(machine)

	obj, err := assembler.Assemble(strings.NewReader(demoSource))
	if err != nil {
		logger.Error("assemble demo", "err", err)
		return 2
	}

	bus, addr, err := sectionTarget(machine, "ROM")
	if err != nil {
		logger.Error("resolve rom section", "err", err)
		return 2
	}

	obj.Addr = addr
	loader := vm.NewLoader(bus)

	if _, err := loader.Load(obj); err != nil {
		logger.Error("load demo", "err", err)
		return 2
	}

	logger.Info("running demo")

	err = machine.Run(ctx)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("demo timed out")
		return 1
	case err != nil:
		logger.Error("demo failed", "err", err)
		return 1
	default:
		r0, _ := machine.Regs.Read("r0")
		r1, _ := machine.Regs.Read("r1")

		fmt.Fprintf(out, "r0=%d r1=%d cycles=%d\n", r0.GetSigned(), r1.GetSigned(), machine.Cycles())
		logger.Info("demo completed", "cycles", machine.Cycles())

		return 0
	}
}
