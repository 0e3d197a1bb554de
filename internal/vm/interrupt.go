package vm

// interrupt.go implements cycle-callback-driven interrupt triggers:
// Interrupt fires unconditionally when enabled and asked to; Counter and
// Autoreset trigger on a threshold reached via an injected cycle callback.

// Interrupt is a named address with an enable flag. Counters embed one and
// add threshold/counting behavior.
type Interrupt struct {
	Name    string
	Addr    uint64
	Enabled bool

	proc *Processor
}

// NewInterrupt creates a (disabled by default) interrupt bound to addr.
// Register it with [Processor.AddInterrupt] so EnableDisableInterrupts can
// address it by its registration-order bit.
func NewInterrupt(proc *Processor, name string, addr uint64) *Interrupt {
	return &Interrupt{Name: name, Addr: addr, proc: proc}
}

// Fire invokes Processor.Interrupt if the interrupt is enabled; otherwise
// it is a no-op.
func (ir *Interrupt) Fire() error {
	if !ir.Enabled {
		return nil
	}

	return ir.proc.Interrupt(ir.Addr)
}

// Counter fires its embedded interrupt every time its internal count
// reaches threshold, then resets the count. It injects its own increment
// callback into the processor at construction.
type Counter struct {
	*Interrupt
	Threshold uint64
	count     uint64
}

// NewCounter creates a counter interrupt and registers its cycle callback
// with proc.
func NewCounter(proc *Processor, name string, addr uint64, threshold uint64) *Counter {
	c := &Counter{
		Interrupt: NewInterrupt(proc, name, addr),
		Threshold: threshold,
	}

	proc.RegisterOnCycleCallback(c.tick)

	return c
}

func (c *Counter) tick() {
	c.count++

	if c.count >= c.Threshold {
		c.count = 0

		if err := c.Fire(); err != nil {
			c.proc.log.Error("counter: fire failed", "NAME", c.Name, "ERR", err)
		}
	}
}

// NewAutoreset creates a counter-shaped interrupt whose target address is
// always 0, as described in the design notes ("same as Counter but targets
// address 0").
func NewAutoreset(proc *Processor, name string, threshold uint64) *Counter {
	return NewCounter(proc, name, 0, threshold)
}
