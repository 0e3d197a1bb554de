package cmd

import (
	"fmt"
	"io"

	"rmachine/internal/vm"
)

// instructionSets is the "commands module" registry the assemble and exec
// commands select from by name: a set of mnemonics and their semantics,
// independent of the machine's memory layout.
var instructionSets = map[string]func() *vm.InstructionSet{
	"reference":   vm.NewInstructionSet,
	"accumulator": vm.NewAccumulatorSet,
}

// machineWidth, machineROM, and machineRAM describe the one built-in
// "machine module": a 16-bit processor with a 256-word ROM, a 256-word
// RAM, and a 32-word flash device on the device bus. A deployment that
// wants a different memory layout supplies its own Target rather than
// reaching for a CLI flag — the registry exists for instruction sets,
// which is the axis that actually varies in practice.
const (
	machineWidth = 16
	machineROM   = 256
	machineRAM   = 256
	machineFlash = 32
)

// buildMachine constructs the named machine module: the shared memory
// layout above, wired with the named commands module's instruction set,
// eight general registers, and a console register whose writes go to out.
// If in is non-nil, the console register also reads from it (the console
// is interactive); otherwise the register is write-only.
func buildMachine(commandsName string, out io.Writer, in io.Reader) (*vm.Processor, error) {
	newSet, ok := instructionSets[commandsName]
	if !ok {
		return nil, fmt.Errorf("unknown commands module %q", commandsName)
	}

	p := vm.New(machineWidth, vm.WithInstructionSet(newSet()))

	if _, err := p.RegisterMemoryDevice(vm.NewROM(machineROM, machineWidth)); err != nil {
		return nil, err
	}

	if _, err := p.RegisterMemoryDevice(vm.NewRAM(machineRAM, machineWidth)); err != nil {
		return nil, err
	}

	if _, err := p.RegisterDevice(vm.NewFlash(machineFlash, machineWidth)); err != nil {
		return nil, err
	}

	for _, name := range []string{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7"} {
		if _, err := p.AddRegister(vm.NewPlainRegister(name, machineWidth)); err != nil {
			return nil, err
		}
	}

	var console vm.Register
	if in != nil {
		console = vm.NewStreamIORegister("console", machineWidth, in, out)
	} else {
		console = vm.NewStreamOutputRegister("console", machineWidth, out)
	}

	if _, err := p.AddRegister(console); err != nil {
		return nil, err
	}

	if err := p.SetupDone(); err != nil {
		return nil, err
	}

	return p, nil
}

// sectionTarget maps an image section tag to the bus and base address a
// loader should program it at, per the "memory bus devices are ROM-first
// then RAM; device bus devices are Flash-first" convention.
func sectionTarget(p *vm.Processor, name string) (bus *vm.Bus, addr uint64, err error) {
	switch name {
	case "ROM":
		bus = p.Mem
		addr, _ = p.Mem.Start(0)
	case "RAM":
		bus = p.Mem
		addr, _ = p.Mem.Start(1)
	case "FLASH":
		bus = p.Dev
		addr, _ = p.Dev.Start(0)
	default:
		return nil, 0, fmt.Errorf("unknown section tag %q", name)
	}

	return bus, addr, nil
}
