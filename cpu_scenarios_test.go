// cpu_scenarios_test.go - exercises the delay-slot/branch, interrupt
// masking and exception-frame behavior described for the CPU core.

package saturn

import "testing"

// TestDelaySlotBRAExecutesSlotThenJumps places a BRA 0x200 at 0x100 and
// a distinguishable instruction (not a nop) in its delay slot at
// 0x102: the first Step must only arm the delay slot and advance PC to
// the slot instruction, the second must execute that slot instruction
// (not whatever lives at the branch target) and land PC on 0x200, with
// no interrupt left pending.
func TestDelaySlotBRAExecutesSlotThenJumps(t *testing.T) {
	m := newTestMachine(t, nil)
	cpu := m.Master

	const from, to = 0x100, 0x200
	disp := uint16((to - from - 4) / 2) // BRA target = fetchPC+4+disp*2
	braOpcode := 0xA000 | disp
	cpu.Probe().WriteWord(from, braOpcode)
	cpu.Probe().WriteWord(from+2, 0xE105) // mov #5,r1 (delay slot)
	cpu.Probe().WriteWord(to, 0xE1FF)     // mov #-1,r1 (must NOT execute)

	cpu.Probe().SetPC(from)

	cpu.Step() // BRA: arms the delay slot, PC steps to the physical next instruction
	if cpu.PC != from+2 {
		t.Fatalf("PC after the BRA itself = 0x%X, want 0x%X (the delay-slot instruction's address)", cpu.PC, from+2)
	}
	if !cpu.delaySlot || cpu.delaySlotTarget != to {
		t.Fatalf("delay slot not armed for target 0x%X: delaySlot=%v target=0x%X", to, cpu.delaySlot, cpu.delaySlotTarget)
	}

	cpu.Step() // executes the slot instruction at 0x102, then the jump lands
	if cpu.PC != to {
		t.Fatalf("PC after delay slot = 0x%X, want 0x%X", cpu.PC, to)
	}
	if cpu.delaySlot {
		t.Fatalf("delay slot flag still set after the branch completed")
	}
	if got := cpu.R[1]; got != 5 {
		t.Fatalf("R1 = %d, want 5: the slot instruction at 0x102 must execute, not the one at the branch target", got)
	}
	if source, _, _ := cpu.OCP.INTC.Pending(); source != IntNone {
		t.Fatalf("unexpected interrupt pending after the branch: %v", source)
	}
}

// TestInterruptMaskingHoldsUntilNMI raises FRTOCI at the current mask
// level (pending but not admitted) and then NMI, which must be
// dispatched immediately regardless of SR.ILevel, landing on the
// hardware-fixed vector 11.
func TestInterruptMaskingHoldsUntilNMI(t *testing.T) {
	m := newTestMachine(t, nil)
	cpu := m.Master

	cpu.Probe().SetPC(0x1000) // filled with nop by newTestBootROM
	cpu.SR.SetILevel(4)
	cpu.OCP.INTC.SetPriority(IntFRTOCI, 4, 0x50)
	cpu.OCP.INTC.RaiseInterrupt(IntFRTOCI)

	beforePC := cpu.PC
	cpu.Step()
	if cpu.PC == 0 {
		t.Fatalf("unexpected dispatch to vector 0")
	}
	if cpu.PC != beforePC+2 {
		t.Fatalf("FRTOCI at the same level as SR.ILevel was taken; PC = 0x%X, want the nop at 0x%X", cpu.PC, beforePC+2)
	}
	if source, _, _ := cpu.OCP.INTC.Pending(); source != IntFRTOCI {
		t.Fatalf("FRTOCI no longer pending after being correctly masked: %v", source)
	}
	cpu.OCP.INTC.ClearInterrupt(IntFRTOCI)

	const nmiTarget = 0xCAFEBABE
	cpu.Probe().WriteLong(uint32(nmiVector)*4, nmiTarget)
	cpu.SetNMI()
	cpu.Step()

	if cpu.PC != nmiTarget {
		t.Fatalf("PC after NMI dispatch = 0x%X, want 0x%X (vector %d)", cpu.PC, uint32(nmiTarget), nmiVector)
	}
	if cpu.SR.ILevel() != nmiLevel&0xF {
		t.Fatalf("SR.ILevel after NMI entry = %d, want %d", cpu.SR.ILevel(), nmiLevel&0xF)
	}
	if source, _, _ := cpu.OCP.INTC.Pending(); source != IntNone {
		t.Fatalf("NMI still pending after being taken: %v", source)
	}
}

// TestExceptionFrameLayout checks the stack shape an interrupt entry
// leaves behind: SP decremented by 8, faulting PC at SP+0, prior SR at
// SP+4, matching the push order in enterExceptionAt (SR, then PC).
func TestExceptionFrameLayout(t *testing.T) {
	m := newTestMachine(t, nil)
	cpu := m.Master

	cpu.Probe().SetPC(0x1000)
	cpu.R[15] = 0x00200800
	cpu.SR.SetILevel(0)
	cpu.SR.SetT(true)
	priorSR := cpu.SR.Raw()
	priorPC := cpu.PC
	priorSP := cpu.R[15]

	cpu.OCP.INTC.SetPriority(IntFRTOCI, 1, 0x60)
	cpu.OCP.INTC.RaiseInterrupt(IntFRTOCI)
	cpu.Step()

	if cpu.R[15] != priorSP-8 {
		t.Fatalf("SP after exception entry = 0x%X, want 0x%X", cpu.R[15], priorSP-8)
	}
	if got := cpu.Probe().ReadLong(cpu.R[15]); got != priorPC {
		t.Fatalf("PC saved at SP+0 = 0x%X, want 0x%X", got, priorPC)
	}
	if got := cpu.Probe().ReadLong(cpu.R[15] + 4); got != priorSR {
		t.Fatalf("SR saved at SP+4 = 0x%X, want 0x%X", got, priorSR)
	}
}
