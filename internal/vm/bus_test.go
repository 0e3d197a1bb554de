package vm

import (
	"errors"
	"testing"
)

func TestBusAssignsContiguousRanges(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)

	rom := NewROM(8, 16)
	ram := NewRAM(16, 16)

	start1, err := bus.RegisterDevice(rom)
	if err != nil {
		t.Fatalf("register rom: %s", err)
	}

	start2, err := bus.RegisterDevice(ram)
	if err != nil {
		t.Fatalf("register ram: %s", err)
	}

	if start1 != 0 {
		t.Errorf("first device start = %#x, want 0", start1)
	}

	if start2 != 8 {
		t.Errorf("second device start = %#x, want 8", start2)
	}

	if bus.DeviceCount() != 2 {
		t.Errorf("device count = %d, want 2", bus.DeviceCount())
	}
}

func TestBusLocksAfterFirstUse(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)

	if _, err := bus.RegisterDevice(NewRAM(4, 16)); err != nil {
		t.Fatalf("register: %s", err)
	}

	if _, err := bus.ReadWord(0); err != nil {
		t.Fatalf("read: %s", err)
	}

	if !bus.Locked() {
		t.Error("bus not locked after first read")
	}

	if _, err := bus.RegisterDevice(NewRAM(4, 16)); !errors.Is(err, ErrSetup) {
		t.Errorf("register after lock: err = %v, want ErrSetup", err)
	}
}

func TestBusAddressingFault(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)

	if _, err := bus.RegisterDevice(NewRAM(4, 16)); err != nil {
		t.Fatalf("register: %s", err)
	}

	if _, err := bus.ReadWord(4); !errors.Is(err, ErrBus) {
		t.Errorf("read beyond cumulative size: err = %v, want ErrBus", err)
	}
}
