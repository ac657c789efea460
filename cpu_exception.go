// cpu_exception.go - [CPU] unified exception/interrupt entry path.
//
// Grounded on spec.md section 4.3/7: every exception (illegal,
// illegal-slot, trapa, interrupt) pushes SR then PC at R15, loads PC
// from VBR+vector*4, and sets SR.ILevel to the interrupt's level for
// interrupt entries (non-interrupt exceptions leave ILevel
// unchanged, matching real SH-2 behavior: only interrupt acceptance
// raises the mask, not self-inflicted traps).

package saturn

// enterException pushes SR/PC for the instruction about to execute
// (i.e. c.PC, not yet advanced) and raises ILevel when isInterrupt.
func (c *CPU) enterException(vector uint8, level uint8, isInterrupt bool) {
	c.enterExceptionAt(vector, level, isInterrupt, c.PC)
}

func (c *CPU) enterExceptionAt(vector uint8, level uint8, isInterrupt bool, faultPC uint32) {
	c.R[15] -= 4
	c.Write32(c.R[15], c.SR.Raw())
	c.R[15] -= 4
	c.Write32(c.R[15], faultPC)

	if isInterrupt {
		c.SR.SetILevel(level)
	}
	c.delaySlot = false
	c.PC = c.Bus.ReadLong(c.VBR + uint32(vector)*4)
}

// execRTE pops PC then SR from the stack, per spec.md's "rte pops SR
// then PC" wording describing the logical values restored (the push
// order at entry is SR-then-PC, so the pop order reading back up the
// stack is PC-then-SR).
func (c *CPU) execRTE() {
	pc := c.Read32(c.R[15])
	c.R[15] += 4
	sr := c.Read32(c.R[15])
	c.R[15] += 4
	c.SR.SetRaw(sr)
	c.delaySlot = true
	c.delaySlotTarget = pc
}

// execTRAPA dispatches a software trap using vectors 32-63 per
// spec.md section 4.3.
func (c *CPU) execTRAPA(imm uint8) {
	c.R[15] -= 4
	c.Write32(c.R[15], c.SR.Raw())
	c.R[15] -= 4
	c.Write32(c.R[15], c.PC+2)
	c.PC = c.Bus.ReadLong(c.VBR + uint32(imm)*4)
	c.jumped = true
}
