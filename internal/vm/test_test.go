package vm

import (
	"bytes"
	"testing"

	"rmachine/internal/log"
)

// testHarness wires a buffer-backed logger into a test so assertions can
// inspect log output alongside return values.
type testHarness struct {
	*testing.T
	buf bytes.Buffer
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	return &testHarness{T: t}
}

func (th *testHarness) logger() *log.Logger {
	log.LogLevel.Set(log.Error)
	return log.NewFormattedLogger(&th.buf)
}

// machine builds a minimal processor: a ROM (when romWords > 0), a RAM
// (when ramWords > 0), general registers r0-r7, and the reference
// instruction set, ready for SetupDone.
func (th *testHarness) machine(romWords, ramWords int) *Processor {
	p := New(16, WithInstructionSet(NewInstructionSet()), WithLogger(th.logger()))

	if romWords > 0 {
		if _, err := p.RegisterMemoryDevice(NewROM(romWords, 16)); err != nil {
			th.Fatalf("register rom: %s", err)
		}
	}

	if ramWords > 0 {
		if _, err := p.RegisterMemoryDevice(NewRAM(ramWords, 16)); err != nil {
			th.Fatalf("register ram: %s", err)
		}
	}

	for _, name := range []string{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7"} {
		if _, err := p.AddRegister(NewPlainRegister(name, 16)); err != nil {
			th.Fatalf("register %s: %s", name, err)
		}
	}

	return p
}

// reg reads register key as a plain int64, failing the test on error.
func (th *testHarness) reg(p *Processor, key any) int64 {
	th.Helper()

	w, err := p.Regs.Read(key)
	if err != nil {
		th.Fatalf("read register %v: %s", key, err)
	}

	return w.GetSigned()
}
