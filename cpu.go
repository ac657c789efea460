// cpu.go - [CPU] SH-2 fetch-decode-execute interpreter.
//
// Grounded on sh2.hpp/sh2_excpt.hpp for the register file, delay-slot
// flag, and exception dispatch shape, and on
// _examples/IntuitionAmiga-IntuitionEngine/cpu_m68k.go for the
// Advance/Step split and the mutex-guarded register-file idiom a
// debugger can peek without racing the run loop. Two instances share
// one Tables and one Bus but each owns a private OCP, matching
// spec.md section 3's CPU/OCP ownership rule.

package saturn

import "sync"

// CPU is one SH-2 processor core.
type CPU struct {
	mu sync.RWMutex

	R   [16]uint32
	PC  uint32
	PR  uint32
	GBR uint32
	VBR uint32
	MACH uint32
	MACL uint32
	SR  SR

	delaySlot       bool
	delaySlotTarget uint32
	jumped          bool // set by a non-delayed taken branch or trapa to suppress the default PC+2

	sleeping bool
	standby  bool

	name   string
	tables *Tables
	OCP    *OCP
	Bus    *Bus
	peer   *CPU // the other SH-2, for the cross-CPU FRT mirror window
}

// SetPeer records the other SH-2 sharing this machine's bus, used only
// to drive the FRT input-capture mirror at 0x100000/0x180000.
func (c *CPU) SetPeer(peer *CPU) { c.peer = peer }

// NewCPU builds a CPU with its own OCP block, sharing tables and bus
// with its sibling.
func NewCPU(name string, bus *Bus) *CPU {
	c := &CPU{
		name:   name,
		tables: sharedTables,
		OCP:    NewOCP(name),
		Bus:    bus,
	}
	c.Reset(true, false)
	return c
}

// Reset reinitializes the register file and on-chip peripherals. A
// soft reset (hard=false) still reloads PC/SP from the reset vector,
// matching real SH-2 behavior, but the bus (RAM contents) is left
// untouched by the caller.
func (c *CPU) Reset(hard bool, watchdogInitiated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.R = [16]uint32{}
	c.PR, c.GBR, c.VBR, c.MACH, c.MACL = 0, 0, 0, 0, 0
	c.SR = SR{}
	c.SR.SetILevel(0xF)
	c.delaySlot, c.delaySlotTarget = false, 0
	c.sleeping, c.standby = false, false
	c.OCP.Reset(hard)
	c.OCP.WDT.Reset(watchdogInitiated)
	c.PC = c.Bus.ReadLong(0)
	c.R[15] = c.Bus.ReadLong(4)
}

// SetNMI raises the non-maskable interrupt, which is always admitted
// as the new pending interrupt regardless of SR.ILevel.
func (c *CPU) SetNMI() {
	c.OCP.INTC.RaiseInterrupt(IntNMI)
}

// Probe returns a side-effect-free peek/poke view of this CPU for
// debuggers and the save-state path.
func (c *CPU) Probe() *Probe { return &Probe{cpu: c} }

// Advance runs instructions and peripheral ticks until at least
// cycles bus cycles have elapsed, returning the actual total.
func (c *CPU) Advance(cycles int) int {
	executed := 0
	for executed < cycles {
		n := c.Step()
		executed += n
		c.OCP.Advance(uint64(n))
		c.OCP.DMAC.Tick(c.Bus)
	}
	return executed
}

// Step executes exactly one dispatch step: either the pending
// interrupt's exception entry, or one fetched instruction (honoring
// the delay slot). It returns the bus cycles consumed.
func (c *CPU) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.standby {
		return 1
	}

	if !c.delaySlot {
		if source, level, vector := c.OCP.INTC.Pending(); source != IntNone && level > c.SR.ILevel() {
			c.enterException(vector, level, true)
			if source != IntNMI {
				c.OCP.INTC.ClearInterrupt(source)
			} else {
				c.OCP.INTC.ClearInterrupt(IntNMI)
			}
			c.sleeping = false
			return 5
		}
	}

	if c.sleeping {
		return 1
	}

	var opcode uint16
	var op Op
	var args Args
	fetchPC := c.PC

	// The delay-slot instruction is always the one physically following
	// the branch (fetchPC, already c.PC here), never the branch's
	// target: delaySlotTarget only supplies the post-slot PC below.
	opcode = c.fetch16(fetchPC)
	if c.delaySlot {
		op, args = c.tables.DecodeSlot(opcode)
	} else {
		op, args = c.tables.Decode(opcode)
	}

	if op == OpIllegal {
		c.delaySlot = false
		c.raiseIllegal(false)
		return 5
	}
	if op == OpIllegalSlot {
		c.raiseIllegal(true)
		return 5
	}

	wasDelaySlot := c.delaySlot
	c.delaySlot = false
	c.jumped = false

	cycles := c.execute(op, args, fetchPC)

	switch {
	case wasDelaySlot:
		c.PC = c.delaySlotTarget
	case c.jumped:
		// PC was already set directly by a non-delayed taken branch or
		// trapa.
	default:
		c.PC = fetchPC + 2
	}

	return cycles
}

func (c *CPU) fetch16(addr uint32) uint16 {
	return c.Read16(addr, true)
}

// raiseIllegal dispatches the general or slot-illegal exception. For
// the slot variant the faulting PC recorded is the delayed branch's
// address, not the slot's, per spec.md section 4.3.
func (c *CPU) raiseIllegal(slot bool) {
	const illegalInstrVector = 4
	const slotIllegalInstrVector = 6
	faultPC := c.PC
	if slot {
		faultPC -= 2 // the slot instruction directly follows its branch
		c.enterExceptionAt(slotIllegalInstrVector, c.SR.ILevel(), false, faultPC)
	} else {
		c.enterExceptionAt(illegalInstrVector, c.SR.ILevel(), false, faultPC)
	}
}
