// Command rmachine is the command-line interface to the register-machine
// emulator and assembler: assemble mnemonic source into program images, run
// images against a configurable machine, or run the built-in demo.
package main

import (
	"context"
	"os"

	"rmachine/internal/cli"
	"rmachine/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Assembler(),
	cmd.Executor(),
	cmd.Linker(),
	cmd.Demo(),
}

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
