package vm

// processor.go ties together the memory bus, device bus, register file,
// and instruction table in a fetch/decode/execute loop driven by a
// context.Context and configured through functional options.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rmachine/internal/log"
)

// Barrier is satisfied by any rendezvous primitive a host uses to couple
// multiple processors deterministically (a *sync.WaitGroup, a *sync.Cond
// wrapper, a channel-backed gate). The processor only ever calls Wait.
type Barrier interface {
	Wait()
}

// Processor owns the buses, register file, instruction table, and the
// bookkeeping (cycle callbacks, interrupts, named constants) that the
// fetch/decode/execute loop and the assembler both depend on.
type Processor struct {
	Width uint8

	Mem   *Bus
	Dev   *Bus
	Regs  *RegisterFile
	Instr *InstructionSet

	callbacks  []func()
	interrupts []*Interrupt
	Constants  map[string]int64

	cycles uint64

	targetFreq float64 // Hz; zero means unset.
	barrier    Barrier
	epoch      time.Time
	pushPC     bool

	setupDone bool

	log *log.Logger
}

// OptionFn configures a Processor during construction.
type OptionFn func(*Processor)

// New creates a processor with the given word width and applies opts in
// order. Memory and device buses and an empty register file are created
// automatically; callers add devices, registers, and an instruction set
// before calling SetupDone.
func New(width uint8, opts ...OptionFn) *Processor {
	if width == 0 {
		width = DefaultWidth
	}

	p := &Processor{
		Width:     width,
		Mem:       NewBus(width),
		Dev:       NewBus(width),
		Regs:      NewRegisterFile(),
		Constants: make(map[string]int64),
		log:       log.DefaultLogger(),
	}

	// Indices 0/1/2 are reserved for PC/ECR/SP by convention; register them
	// now so they keep those indices regardless of what callers add next.
	_, _ = p.Regs.Add(NewPlainRegister("PC", width))
	_, _ = p.Regs.Add(NewPlainRegister("ECR", width))
	_, _ = p.Regs.Add(NewPlainRegister("SP", width))

	for _, fn := range opts {
		fn(p)
	}

	return p
}

// WithInstructionSet installs the opcode table the processor decodes
// against.
func WithInstructionSet(set *InstructionSet) OptionFn {
	return func(p *Processor) { p.Instr = set }
}

// WithLogger configures the processor's logger.
func WithLogger(l *log.Logger) OptionFn {
	return func(p *Processor) { p.log = l }
}

// WithTargetFrequency paces do_cycle to take at least 1/hz wall time.
// Mutually exclusive with [WithBarrier]: if a barrier is already
// configured, this option logs an error and is ignored. No setup error is
// returned for the conflict.
func WithTargetFrequency(hz float64) OptionFn {
	return func(p *Processor) {
		if p.barrier != nil {
			p.log.Error("target frequency conflicts with barrier pacing; ignoring")
			return
		}

		p.targetFreq = hz
	}
}

// WithBarrier paces do_cycle by waiting on b every cycle instead of
// sleeping. Mutually exclusive with [WithTargetFrequency]: if a target
// frequency is already configured, this option logs an error and is ignored.
func WithBarrier(b Barrier) OptionFn {
	return func(p *Processor) {
		if p.targetFreq != 0 {
			p.log.Error("barrier pacing conflicts with target frequency; ignoring")
			return
		}

		p.barrier = b
	}
}

// RegisterMemoryDevice adds d to the memory bus.
func (p *Processor) RegisterMemoryDevice(d *Device) (uint64, error) {
	return p.Mem.RegisterDevice(d)
}

// RegisterDevice adds d to the device bus.
func (p *Processor) RegisterDevice(d *Device) (uint64, error) {
	return p.Dev.RegisterDevice(d)
}

// AddRegister adds r to the register file.
func (p *Processor) AddRegister(r Register) (int, error) {
	return p.Regs.Add(r)
}

// RegisterCommand adds a single instruction to the processor's opcode
// table, creating the table on first use.
func (p *Processor) RegisterCommand(i *Instruction) error {
	if p.Instr == nil {
		set, err := NewInstructionSetFrom(nil)
		if err != nil {
			return err
		}

		p.Instr = set
	}

	return p.Instr.add(i)
}

// RegisterOnCycleCallback appends cb to the list invoked at the tail of
// every do_cycle, in registration order.
func (p *Processor) RegisterOnCycleCallback(cb func()) {
	p.callbacks = append(p.callbacks, cb)
}

// AddInterrupt registers ir, assigning it the next interrupt index (used
// by EnableDisableInterrupts's bitmask addressing).
func (p *Processor) AddInterrupt(ir *Interrupt) {
	p.interrupts = append(p.interrupts, ir)
}

// SetupDone finalizes construction: it requires at least one memory-bus
// device (the ROM), populates the named-constant table, and, if a second
// memory device (RAM) is present, initializes SP to the top of RAM and
// sets push_pc. The register file is locked against further registration.
func (p *Processor) SetupDone() error {
	if p.Mem.DeviceCount() < 1 {
		return &SetupError{Reason: "no ROM registered on the memory bus"}
	}

	if p.Instr == nil {
		return &SetupError{Reason: "no instruction set registered"}
	}

	romStart, _ := p.Mem.Start(0)
	romEnd := romStart + uint64(p.Mem.Device(0).Size())
	p.Constants["ROMEND_LOW"] = int64(romEnd & 0xff)
	p.Constants["ROMEND_HIGH"] = int64(romEnd >> 8)

	if p.Mem.DeviceCount() >= 2 {
		ramStart, _ := p.Mem.Start(1)
		ramEnd := ramStart + uint64(p.Mem.Device(1).Size())
		p.Constants["RAMEND_LOW"] = int64(ramEnd & 0xff)
		p.Constants["RAMEND_HIGH"] = int64(ramEnd >> 8)

		p.pushPC = true

		sp := NewWord(p.Width)
		sp.SetUnsigned(ramEnd - 1)
		_ = p.Regs.Write(SP, sp)
	}

	if p.Dev.DeviceCount() >= 1 {
		flashStart, _ := p.Dev.Start(0)
		flashEnd := flashStart + uint64(p.Dev.Device(0).Size())
		p.Constants["FLASH_START"] = int64(flashStart)
		p.Constants["FLASH_END"] = int64(flashEnd)
	}

	for i, ir := range p.interrupts {
		p.Constants[ir.Name] = int64(i)
	}

	p.Regs.Lock()
	p.setupDone = true

	return nil
}

// Reset reinitializes PC, ECR, and the cycle counter to zero, and SP to
// the top of RAM if RAM is present. Device contents are untouched.
func (p *Processor) Reset() {
	zero := NewWord(p.Width)
	_ = p.Regs.Write(PC, zero)
	_ = p.Regs.Write(ECR, zero)
	p.cycles = 0

	if p.Mem.DeviceCount() >= 2 {
		ramStart, _ := p.Mem.Start(1)
		ramEnd := ramStart + uint64(p.Mem.Device(1).Size())

		sp := NewWord(p.Width)
		sp.SetUnsigned(ramEnd - 1)
		_ = p.Regs.Write(SP, sp)
	}
}

// Cycles returns the number of cycles completed.
func (p *Processor) Cycles() uint64 { return p.cycles }

// halted reports whether the stop bit is set in ECR.
func (p *Processor) halted() bool {
	ecr, _ := p.Regs.Read(ECR)
	return ecr.GetUnsigned()&StopBit != 0
}

// DoCycle executes a single fetch/decode/execute cycle.
func (p *Processor) DoCycle() error {
	if p.targetFreq != 0 && p.cycles == 0 {
		p.epoch = time.Now()
	}

	start := time.Now()

	pcReg, _ := p.Regs.Read(PC)
	pcVal := pcReg.GetUnsigned()

	word, err := p.Mem.ReadWord(pcVal)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	pcReg.SetUnsigned(pcVal + 1)
	_ = p.Regs.Write(PC, pcReg)

	opcode := word.GetUnsigned()

	instr, ok := p.Instr.Decode(opcode)
	if !ok {
		return &SegfaultError{PC: pcVal, Opcode: opcode}
	}

	operands := make([]int64, instr.Arity())

	for i, arg := range instr.Args {
		pcReg, _ = p.Regs.Read(PC)
		pcVal = pcReg.GetUnsigned()

		opWord, err := p.Mem.ReadWord(pcVal)
		if err != nil {
			return fmt.Errorf("fetch operand %d of %s: %w", i, instr.Mnemonic, err)
		}

		pcReg.SetUnsigned(pcVal + 1)
		_ = p.Regs.Write(PC, pcReg)

		if arg.Kind == ArgRegister {
			operands[i] = int64(opWord.GetUnsigned())
		} else {
			operands[i] = opWord.GetSigned()
		}
	}

	if err := instr.Exec(p, operands); err != nil {
		return fmt.Errorf("exec %s: %w", instr.Mnemonic, err)
	}

	p.log.Debug("executed", "INSTR", instr, "CYCLES", p.cycles)

	// Step 6 (refresh cached PC/ECR/SP) is a no-op here: this
	// implementation reads PC/ECR/SP directly from the register file on
	// every access rather than maintaining mirrored copies, so there is
	// nothing to refresh.

	for _, cb := range p.callbacks {
		cb()
	}

	if p.targetFreq != 0 {
		budget := time.Duration(float64(time.Second) / p.targetFreq)
		if elapsed := time.Since(start); elapsed < budget {
			time.Sleep(budget - elapsed)
		}
	} else if p.barrier != nil {
		p.barrier.Wait()
	}

	p.cycles++

	return nil
}

// ErrHalted names a halted engine. Run does not return it: a run that ends
// because the engine-control register's stop bit is set returns nil.
var ErrHalted = errors.New("halted")

// Run repeatedly calls DoCycle until the stop bit is set, ctx is canceled,
// or a cycle returns a fatal error.
func (p *Processor) Run(ctx context.Context) error {
	p.log.Info("run: start")

	for !p.halted() {
		select {
		case <-ctx.Done():
			p.log.Warn("run: cancelled")
			return ctx.Err()
		default:
		}

		if err := p.DoCycle(); err != nil {
			p.log.Error("run: halted", "ERR", err, "CYCLES", p.cycles)
			return err
		}
	}

	p.log.Info("run: halted (stop bit)", "CYCLES", p.cycles)

	return nil
}

// Interrupt redirects control flow to addr. If push_pc is set (a second
// memory device was registered at setup_done), the current PC is first
// stored at SP and SP is decremented.
func (p *Processor) Interrupt(addr uint64) error {
	if p.pushPC {
		pcReg, _ := p.Regs.Read(PC)
		spReg, _ := p.Regs.Read(SP)

		if err := p.Mem.WriteWord(spReg.GetUnsigned(), pcReg); err != nil {
			return fmt.Errorf("interrupt: push pc: %w", err)
		}

		spReg.SetUnsigned(spReg.GetUnsigned() - 1)
		_ = p.Regs.Write(SP, spReg)
	}

	pc := NewWord(p.Width)
	pc.SetUnsigned(addr)
	_ = p.Regs.Write(PC, pc)

	return nil
}

// EnableDisableInterrupts sets the enable flag of the i-th registered
// interrupt to bit i of mask.
func (p *Processor) EnableDisableInterrupts(mask uint64) {
	for i, ir := range p.interrupts {
		ir.Enabled = mask&(1<<uint(i)) != 0
	}
}

// Instruction looks up mnemonic in the processor's instruction table. It
// satisfies asm.Target, giving the assembler a read-only view of the
// opcode catalog it assembles against.
func (p *Processor) Instruction(mnemonic string) (*Instruction, bool) {
	if p.Instr == nil {
		return nil, false
	}

	return p.Instr.Lookup(mnemonic)
}

// RegisterIndex looks up name in the register file. It satisfies
// asm.Target.
func (p *Processor) RegisterIndex(name string) (int, bool) {
	idx, err := p.Regs.resolve(name)
	if err != nil {
		return 0, false
	}

	return idx, true
}

// Constant looks up a named constant (an interrupt index, or one of the
// ROMEND/RAMEND/FLASH bounds populated by SetupDone). It satisfies
// asm.Target.
func (p *Processor) Constant(name string) (int64, bool) {
	v, ok := p.Constants[name]
	return v, ok
}

// WordWidth returns the processor's word width. It satisfies asm.Target;
// named distinctly from the Width field since Go forbids a method and a
// field from sharing an identifier.
func (p *Processor) WordWidth() uint8 { return p.Width }
