package vm

import (
	"errors"
	"testing"
)

func TestInstructionSetDuplicateOpcode(t *testing.T) {
	t.Parallel()

	a := &Instruction{Mnemonic: "a", Opcode: 1}
	b := &Instruction{Mnemonic: "b", Opcode: 1}

	if _, err := NewInstructionSetFrom([]*Instruction{a, b}); !errors.Is(err, ErrSetup) {
		t.Errorf("duplicate opcode: err = %v, want ErrSetup", err)
	}
}

func TestInstructionSetLookupAndDecode(t *testing.T) {
	t.Parallel()

	set := NewInstructionSet()

	ins, ok := set.Lookup("add")
	if !ok {
		t.Fatal("lookup(add) not found")
	}

	if ins.Opcode != opAdd {
		t.Errorf("add opcode = %#x, want %#x", ins.Opcode, opAdd)
	}

	decoded, ok := set.Decode(opAdd)
	if !ok || decoded != ins {
		t.Error("decode(opAdd) did not return the same instruction looked up by mnemonic")
	}

	if _, ok := set.Decode(0xff); ok {
		t.Error("decode of unknown opcode should fail")
	}
}

// The accumulator set's jumps set PC directly, with no multiplication of
// the operand, per the REDESIGN FLAG.
func TestAccumulatorJumpNoMultiplication(t *testing.T) {
	t.Parallel()

	th := newTestHarness(t)
	p := New(16, WithInstructionSet(NewAccumulatorSet()), WithLogger(th.logger()))

	if _, err := p.RegisterMemoryDevice(NewROM(4, 16)); err != nil {
		t.Fatalf("register rom: %s", err)
	}

	if _, err := p.AddRegister(NewPlainRegister(accumulator, 16)); err != nil {
		t.Fatalf("register acc: %s", err)
	}

	if err := p.SetupDone(); err != nil {
		t.Fatalf("setup done: %s", err)
	}

	jumpIns, ok := p.Instr.Decode(accJump)
	if !ok {
		t.Fatal("accumulator set has no jump opcode")
	}

	if err := jumpIns.Exec(p, []int64{7}); err != nil {
		t.Fatalf("jump: %s", err)
	}

	pcReg, _ := p.Regs.Read(PC)
	if got := pcReg.GetUnsigned(); got != 7 {
		t.Errorf("pc after jump 7 = %#x, want 7 (unmultiplied)", got)
	}
}
