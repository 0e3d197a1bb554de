package vm

import (
	"context"
	"errors"
	"testing"
)

// words is a small helper to build ROM content inline.
func words(width uint8, vs ...int64) []Word {
	out := make([]Word, len(vs))
	for i, v := range vs {
		out[i] = NewWord(width)
		out[i].SetSigned(v)
	}

	return out
}

func loadAndRun(t *testing.T, p *Processor, program []Word) error {
	t.Helper()

	if err := p.SetupDone(); err != nil {
		t.Fatalf("setup done: %s", err)
	}

	loader := NewLoader(p.Mem)
	if _, err := loader.Load(ObjectCode{Addr: 0, Code: program}); err != nil {
		t.Fatalf("load: %s", err)
	}

	return p.Run(context.Background())
}

// Scenario 1: immediate + halt.
func TestScenarioImmediateHalt(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := th.machine(3, 0)

	program := words(16, opLdi, 1, 1) // ldi 0b1 ECR

	if err := loadAndRun(t, p, program); err != nil {
		t.Fatalf("run: %s", err)
	}

	if p.Cycles() != 1 {
		t.Errorf("cycles = %d, want 1", p.Cycles())
	}
}

// Scenario 2: sum of 5 and -3.
func TestScenarioSum(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := th.machine(12, 0)

	r0, r1 := 3, 4

	program := words(16,
		opLdi, 5, int64(r0), // ldi 5 r0
		opLdi, -3, int64(r1), // ldi -3 r1
		opAdd, int64(r0), int64(r1), // add r0 r1
		opLdi, 1, 1, // ldi 1 ECR
	)

	if err := loadAndRun(t, p, program); err != nil {
		t.Fatalf("run: %s", err)
	}

	if got := th.reg(p, r1); got != 2 {
		t.Errorf("r1 = %d, want 2", got)
	}

	if p.Cycles() != 4 {
		t.Errorf("cycles = %d, want 4", p.Cycles())
	}
}

// Scenario 3: forward branch.
func TestScenarioForwardBranch(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := th.machine(12, 0)

	r0 := 3

	program := words(16,
		opLdi, 0, int64(r0), // addr 0: ldi 0 r0
		opJeq, int64(r0), 6, // addr 3: jeq r0 skip (pc+6-3 == 9)
		opLdi, 99, int64(r0), // addr 6: ldi 99 r0 (skipped)
		opLdi, 1, 1, // addr 9: skip: ldi 1 ECR
	)

	if err := loadAndRun(t, p, program); err != nil {
		t.Fatalf("run: %s", err)
	}

	if got := th.reg(p, r0); got != 0 {
		t.Errorf("r0 = %d, want 0 (ldi 99 must not have executed)", got)
	}
}

// Scenario 4: call/ret on a machine with RAM.
func TestScenarioCallRet(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := th.machine(11, 16)

	r0 := 3

	program := words(16,
		opLdi, 7, int64(r0), // addr 0: ldi 7 r0
		opCall, 5, // addr 3: call addone  (pc+5-2 == 8)
		opLdi, 1, 1, // addr 5: ldi 1 ECR
		opInc, int64(r0), // addr 8: addone: inc r0
		opRet, // addr 10: ret
	)

	if err := p.SetupDone(); err != nil {
		t.Fatalf("setup done: %s", err)
	}

	spAtCall, _ := p.Regs.Read(SP)

	loader := NewLoader(p.Mem)
	if _, err := loader.Load(ObjectCode{Addr: 0, Code: program}); err != nil {
		t.Fatalf("load: %s", err)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %s", err)
	}

	if got := th.reg(p, r0); got != 8 {
		t.Errorf("r0 = %d, want 8", got)
	}

	spAfter, _ := p.Regs.Read(SP)
	if spAfter.GetUnsigned() != spAtCall.GetUnsigned() {
		t.Errorf("sp after ret = %#x, want %#x (restored)", spAfter.GetUnsigned(), spAtCall.GetUnsigned())
	}
}

// Boundary: push at sp followed by pop restores identity.
func TestBoundaryPushPopIdentity(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := th.machine(2, 8)

	r0, r1 := 3, 4

	if err := p.SetupDone(); err != nil {
		t.Fatalf("setup done: %s", err)
	}

	spBefore, _ := p.Regs.Read(SP)

	setReg(p, int64(r0), 42)

	pushIns, _ := p.Instr.Decode(opPush)
	if err := pushIns.Exec(p, []int64{int64(r0)}); err != nil {
		t.Fatalf("push: %s", err)
	}

	popIns, _ := p.Instr.Decode(opPop)
	if err := popIns.Exec(p, []int64{int64(r1)}); err != nil {
		t.Fatalf("pop: %s", err)
	}

	spAfter, _ := p.Regs.Read(SP)
	if spAfter.GetUnsigned() != spBefore.GetUnsigned() {
		t.Errorf("sp after push/pop = %#x, want %#x", spAfter.GetUnsigned(), spBefore.GetUnsigned())
	}

	if got := th.reg(p, r1); got != 42 {
		t.Errorf("r1 after pop = %d, want 42", got)
	}
}

// Boundary: jmp c from word address p lands at p+c.
func TestBoundaryJmp(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := th.machine(20, 0)

	program := words(16,
		opJmp, 5, // addr 0: jmp 5  -> pc = (0+2) + 5 - 2 = 5
		opLdi, 99, 1, // addr 2..4: would set ECR=99 if executed
		opLdi, 1, 1, // addr 5: halt
	)

	if err := loadAndRun(t, p, program); err != nil {
		t.Fatalf("run: %s", err)
	}

	ecr, _ := p.Regs.Read(ECR)
	if got := ecr.GetSigned(); got != 1 {
		t.Errorf("ECR = %d, want 1 (jmp must have skipped the ldi at addr 2)", got)
	}
}

// Boundary: jne does not branch on zero, branches on any non-zero.
func TestBoundaryJne(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := th.machine(12, 0)

	r0 := 3

	program := words(16,
		opLdi, 0, int64(r0), // addr 0: r0 = 0
		opJne, int64(r0), 6, // addr 3: jne r0 skip; not taken since r0==0
		opLdi, 1, 1, // addr 6: ldi 1 ECR
	)

	if err := loadAndRun(t, p, program); err != nil {
		t.Fatalf("run: %s", err)
	}

	if p.Cycles() != 3 {
		t.Errorf("cycles = %d, want 3 (jne must fall through)", p.Cycles())
	}
}

// Boundary: ROM write via the bus is rejected; ProgramWord on the same
// device succeeds.
func TestBoundaryROMWrite(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := th.machine(4, 0)

	if err := p.SetupDone(); err != nil {
		t.Fatalf("setup done: %s", err)
	}

	if err := p.Mem.WriteWord(0, NewWord(16)); !errors.Is(err, ErrMode) {
		t.Errorf("write to rom via bus: err = %v, want ErrMode", err)
	}

	loader := NewLoader(p.Mem)
	if _, err := loader.Load(ObjectCode{Addr: 0, Code: words(16, 0x2a)}); err != nil {
		t.Errorf("program rom: unexpected error: %s", err)
	}
}
