// cpu_alu.go - [CPU] register/ALU, memory, MAC, and compare execution.
//
// Grounded on the documented SH-2 instruction semantics (register
// transfer, arithmetic/logic, multiply-accumulate, compare/test) that
// _examples/original_source/libs/satemu-core's sh2 core implements;
// expressed here as a plain Go switch over decode.go's Op enum rather
// than the original's opcode-handler-table indirection, matching
// cpu_m68k.go's single-dispatch execute loop shape more closely than
// a function-pointer table would.

package saturn

// execute dispatches one decoded instruction and returns the bus
// cycles it consumed. fetchPC is the address the instruction was
// fetched from (needed for PC-relative addressing and branch targets).
func (c *CPU) execute(op Op, a Args, fetchPC uint32) int {
	switch op {
	case OpNOP:
		return 1
	case OpSLEEP:
		c.sleeping = true
		return 3

	// --- data movement ---
	case OpMOV:
		c.R[a.Rn] = c.R[a.Rm]
		return 1
	case OpMOV_I:
		c.R[a.Rn] = uint32(int32(int8(uint8(a.Disp))))
		return 1
	case OpMOVW_I:
		addr := (fetchPC &^ 3) + 4 + uint32(a.Disp)*2
		c.R[a.Rn] = uint32(int32(int16(c.Read16(addr, false))))
		return 1
	case OpMOVL_I:
		addr := (fetchPC &^ 3) + 4 + uint32(a.Disp)*4
		c.R[a.Rn] = c.Read32(addr)
		return 1
	case OpMOVA:
		c.R[0] = (fetchPC &^ 3) + 4 + uint32(a.Disp)*4
		return 1
	case OpMOVT:
		c.R[a.Rn] = boolToU32(c.SR.T())
		return 1
	case OpCLRT:
		c.SR.SetT(false)
		return 1
	case OpSETT:
		c.SR.SetT(true)
		return 1

	case OpMOVB_L:
		c.R[a.Rn] = uint32(int32(int8(c.Read8(c.R[a.Rm], false))))
		return 1
	case OpMOVW_L:
		c.R[a.Rn] = uint32(int32(int16(c.Read16(c.R[a.Rm], false))))
		return 1
	case OpMOVL_L:
		c.R[a.Rn] = c.Read32(c.R[a.Rm])
		return 1
	case OpMOVB_S:
		c.Write8(c.R[a.Rn], uint8(c.R[a.Rm]))
		return 1
	case OpMOVW_S:
		c.Write16(c.R[a.Rn], uint16(c.R[a.Rm]))
		return 1
	case OpMOVL_S:
		c.Write32(c.R[a.Rn], c.R[a.Rm])
		return 1

	case OpMOVB_L0:
		c.R[a.Rn] = uint32(int32(int8(c.Read8(c.R[a.Rm]+c.R[0], false))))
		return 1
	case OpMOVW_L0:
		c.R[a.Rn] = uint32(int32(int16(c.Read16(c.R[a.Rm]+c.R[0], false))))
		return 1
	case OpMOVL_L0:
		c.R[a.Rn] = c.Read32(c.R[a.Rm] + c.R[0])
		return 1
	case OpMOVB_S0:
		c.Write8(c.R[a.Rn]+c.R[0], uint8(c.R[a.Rm]))
		return 1
	case OpMOVW_S0:
		c.Write16(c.R[a.Rn]+c.R[0], uint16(c.R[a.Rm]))
		return 1
	case OpMOVL_S0:
		c.Write32(c.R[a.Rn]+c.R[0], c.R[a.Rm])
		return 1

	case OpMOVB_L4:
		c.R[0] = uint32(int32(int8(c.Read8(c.R[a.Rm]+uint32(a.Disp), false))))
		return 1
	case OpMOVW_L4:
		c.R[0] = uint32(int32(int16(c.Read16(c.R[a.Rm]+uint32(a.Disp)*2, false))))
		return 1
	case OpMOVL_L4:
		c.R[a.Rn] = c.Read32(c.R[a.Rm] + uint32(a.Disp)*4)
		return 1
	case OpMOVB_S4:
		c.Write8(c.R[a.Rn]+uint32(a.Disp), uint8(c.R[0]))
		return 1
	case OpMOVW_S4:
		c.Write16(c.R[a.Rn]+uint32(a.Disp)*2, uint16(c.R[0]))
		return 1
	case OpMOVL_S4:
		c.Write32(c.R[a.Rn]+uint32(a.Disp)*4, c.R[a.Rm])
		return 1

	case OpMOVB_LG:
		c.R[0] = uint32(int32(int8(c.Read8(c.GBR+uint32(a.Disp), false))))
		return 1
	case OpMOVW_LG:
		c.R[0] = uint32(int32(int16(c.Read16(c.GBR+uint32(a.Disp)*2, false))))
		return 1
	case OpMOVL_LG:
		c.R[0] = c.Read32(c.GBR + uint32(a.Disp)*4)
		return 1
	case OpMOVB_SG:
		c.Write8(c.GBR+uint32(a.Disp), uint8(c.R[0]))
		return 1
	case OpMOVW_SG:
		c.Write16(c.GBR+uint32(a.Disp)*2, uint16(c.R[0]))
		return 1
	case OpMOVL_SG:
		c.Write32(c.GBR+uint32(a.Disp)*4, c.R[0])
		return 1

	// OpMOVx_M is the pre-decrement store "mov Rm,@-Rn" (opcodes
	// 0x2004-0x2006); OpMOVx_P is the post-increment load
	// "mov @Rm+,Rn" (opcodes 0x6004-0x6006). The "_M"/"_P" suffixes
	// name the address-register adjustment (minus/plus), not the
	// direction of the transfer.
	case OpMOVB_M:
		addr := c.R[a.Rn] - 1
		c.R[a.Rn] = addr
		c.Write8(addr, uint8(c.R[a.Rm]))
		return 1
	case OpMOVW_M:
		addr := c.R[a.Rn] - 2
		c.R[a.Rn] = addr
		c.Write16(addr, uint16(c.R[a.Rm]))
		return 1
	case OpMOVL_M:
		addr := c.R[a.Rn] - 4
		c.R[a.Rn] = addr
		c.Write32(addr, c.R[a.Rm])
		return 1
	case OpMOVB_P:
		addr := c.R[a.Rm]
		c.R[a.Rm] = addr + 1
		c.R[a.Rn] = uint32(int32(int8(c.Read8(addr, false))))
		return 1
	case OpMOVW_P:
		addr := c.R[a.Rm]
		c.R[a.Rm] = addr + 2
		c.R[a.Rn] = uint32(int32(int16(c.Read16(addr, false))))
		return 1
	case OpMOVL_P:
		addr := c.R[a.Rm]
		c.R[a.Rm] = addr + 4
		c.R[a.Rn] = c.Read32(addr)
		return 1

	case OpEXTUB:
		c.R[a.Rn] = c.R[a.Rm] & 0xFF
		return 1
	case OpEXTUW:
		c.R[a.Rn] = c.R[a.Rm] & 0xFFFF
		return 1
	case OpEXTSB:
		c.R[a.Rn] = uint32(int32(int8(c.R[a.Rm])))
		return 1
	case OpEXTSW:
		c.R[a.Rn] = uint32(int32(int16(c.R[a.Rm])))
		return 1
	case OpSWAPB:
		v := c.R[a.Rm]
		c.R[a.Rn] = (v &^ 0xFFFF) | (v&0xFF)<<8 | (v&0xFF00)>>8
		return 1
	case OpSWAPW:
		v := c.R[a.Rm]
		c.R[a.Rn] = v<<16 | v>>16
		return 1
	case OpXTRCT:
		c.R[a.Rn] = (c.R[a.Rm] << 16) | (c.R[a.Rn] >> 16)
		return 1

	// --- system registers ---
	case OpLDC_SR_R:
		c.SR.SetRaw(c.R[a.Rm])
		return 1
	case OpLDC_GBR_R:
		c.GBR = c.R[a.Rm]
		return 1
	case OpLDC_VBR_R:
		c.VBR = c.R[a.Rm]
		return 1
	case OpLDC_SR_M:
		c.SR.SetRaw(c.Read32(c.R[a.Rm]))
		c.R[a.Rm] += 4
		return 1
	case OpLDC_GBR_M:
		c.GBR = c.Read32(c.R[a.Rm])
		c.R[a.Rm] += 4
		return 1
	case OpLDC_VBR_M:
		c.VBR = c.Read32(c.R[a.Rm])
		c.R[a.Rm] += 4
		return 1
	case OpSTC_SR_R:
		c.R[a.Rn] = c.SR.Raw()
		return 1
	case OpSTC_GBR_R:
		c.R[a.Rn] = c.GBR
		return 1
	case OpSTC_VBR_R:
		c.R[a.Rn] = c.VBR
		return 1
	case OpSTC_SR_M:
		c.R[a.Rn] -= 4
		c.Write32(c.R[a.Rn], c.SR.Raw())
		return 1
	case OpSTC_GBR_M:
		c.R[a.Rn] -= 4
		c.Write32(c.R[a.Rn], c.GBR)
		return 1
	case OpSTC_VBR_M:
		c.R[a.Rn] -= 4
		c.Write32(c.R[a.Rn], c.VBR)
		return 1
	case OpLDS_MACH_R:
		c.MACH = c.R[a.Rm]
		return 1
	case OpLDS_MACL_R:
		c.MACL = c.R[a.Rm]
		return 1
	case OpLDS_PR_R:
		c.PR = c.R[a.Rm]
		return 1
	case OpLDS_MACH_M:
		c.MACH = c.Read32(c.R[a.Rm])
		c.R[a.Rm] += 4
		return 1
	case OpLDS_MACL_M:
		c.MACL = c.Read32(c.R[a.Rm])
		c.R[a.Rm] += 4
		return 1
	case OpLDS_PR_M:
		c.PR = c.Read32(c.R[a.Rm])
		c.R[a.Rm] += 4
		return 1
	case OpSTS_MACH_R:
		c.R[a.Rn] = c.MACH
		return 1
	case OpSTS_MACL_R:
		c.R[a.Rn] = c.MACL
		return 1
	case OpSTS_PR_R:
		c.R[a.Rn] = c.PR
		return 1
	case OpSTS_MACH_M:
		c.R[a.Rn] -= 4
		c.Write32(c.R[a.Rn], c.MACH)
		return 1
	case OpSTS_MACL_M:
		c.R[a.Rn] -= 4
		c.Write32(c.R[a.Rn], c.MACL)
		return 1
	case OpSTS_PR_M:
		c.R[a.Rn] -= 4
		c.Write32(c.R[a.Rn], c.PR)
		return 1

	// --- arithmetic ---
	case OpADD:
		c.R[a.Rn] += c.R[a.Rm]
		return 1
	case OpADD_I:
		c.R[a.Rn] += uint32(int32(int8(uint8(a.Disp))))
		return 1
	case OpADDC:
		sum := uint64(c.R[a.Rn]) + uint64(c.R[a.Rm]) + uint64(boolToU32(c.SR.T()))
		c.R[a.Rn] = uint32(sum)
		c.SR.SetT(sum>>32 != 0)
		return 1
	case OpADDV:
		rn, rm := int64(int32(c.R[a.Rn])), int64(int32(c.R[a.Rm]))
		sum := rn + rm
		c.R[a.Rn] = uint32(sum)
		c.SR.SetT(sum > 0x7FFFFFFF || sum < -0x80000000)
		return 1
	case OpSUB:
		c.R[a.Rn] -= c.R[a.Rm]
		return 1
	case OpSUBC:
		diff := int64(c.R[a.Rn]) - int64(c.R[a.Rm]) - int64(boolToU32(c.SR.T()))
		c.R[a.Rn] = uint32(diff)
		c.SR.SetT(diff < 0)
		return 1
	case OpSUBV:
		rn, rm := int64(int32(c.R[a.Rn])), int64(int32(c.R[a.Rm]))
		diff := rn - rm
		c.R[a.Rn] = uint32(diff)
		c.SR.SetT(diff > 0x7FFFFFFF || diff < -0x80000000)
		return 1
	case OpNEG:
		c.R[a.Rn] = -c.R[a.Rm]
		return 1
	case OpNEGC:
		diff := int64(0) - int64(c.R[a.Rm]) - int64(boolToU32(c.SR.T()))
		c.R[a.Rn] = uint32(diff)
		c.SR.SetT(diff < 0)
		return 1
	case OpDT:
		c.R[a.Rn]--
		c.SR.SetT(c.R[a.Rn] == 0)
		return 1

	case OpAND_R:
		c.R[a.Rn] &= c.R[a.Rm]
		return 1
	case OpAND_I:
		c.R[0] &= uint32(a.Disp)
		return 1
	case OpAND_M:
		addr := c.GBR + c.R[0]
		c.Write8(addr, c.Read8(addr, false)&uint8(a.Disp))
		return 1
	case OpOR_R:
		c.R[a.Rn] |= c.R[a.Rm]
		return 1
	case OpOR_I:
		c.R[0] |= uint32(a.Disp)
		return 1
	case OpOR_M:
		addr := c.GBR + c.R[0]
		c.Write8(addr, c.Read8(addr, false)|uint8(a.Disp))
		return 1
	case OpXOR_R:
		c.R[a.Rn] ^= c.R[a.Rm]
		return 1
	case OpXOR_I:
		c.R[0] ^= uint32(a.Disp)
		return 1
	case OpXOR_M:
		addr := c.GBR + c.R[0]
		c.Write8(addr, c.Read8(addr, false)^uint8(a.Disp))
		return 1
	case OpNOT:
		c.R[a.Rn] = ^c.R[a.Rm]
		return 1

	case OpROTL:
		v := c.R[a.Rn]
		c.SR.SetT(v&0x80000000 != 0)
		c.R[a.Rn] = v<<1 | v>>31
		return 1
	case OpROTR:
		v := c.R[a.Rn]
		c.SR.SetT(v&1 != 0)
		c.R[a.Rn] = v>>1 | v<<31
		return 1
	case OpROTCL:
		v := c.R[a.Rn]
		carry := v&0x80000000 != 0
		c.R[a.Rn] = v<<1 | boolToU32(c.SR.T())
		c.SR.SetT(carry)
		return 1
	case OpROTCR:
		v := c.R[a.Rn]
		carry := v&1 != 0
		c.R[a.Rn] = v>>1 | boolToU32(c.SR.T())<<31
		c.SR.SetT(carry)
		return 1
	case OpSHAL:
		v := c.R[a.Rn]
		c.SR.SetT(v&0x80000000 != 0)
		c.R[a.Rn] = v << 1
		return 1
	case OpSHAR:
		v := int32(c.R[a.Rn])
		c.SR.SetT(v&1 != 0)
		c.R[a.Rn] = uint32(v >> 1)
		return 1
	case OpSHLL:
		v := c.R[a.Rn]
		c.SR.SetT(v&0x80000000 != 0)
		c.R[a.Rn] = v << 1
		return 1
	case OpSHLR:
		v := c.R[a.Rn]
		c.SR.SetT(v&1 != 0)
		c.R[a.Rn] = v >> 1
		return 1
	case OpSHLL2:
		c.R[a.Rn] <<= 2
		return 1
	case OpSHLR2:
		c.R[a.Rn] >>= 2
		return 1
	case OpSHLL8:
		c.R[a.Rn] <<= 8
		return 1
	case OpSHLR8:
		c.R[a.Rn] >>= 8
		return 1
	case OpSHLL16:
		c.R[a.Rn] <<= 16
		return 1
	case OpSHLR16:
		c.R[a.Rn] >>= 16
		return 1

	// --- MAC / multiply / divide ---
	case OpCLRMAC:
		c.MACH, c.MACL = 0, 0
		return 1
	case OpMUL:
		c.MACL = c.R[a.Rn] * c.R[a.Rm]
		return 2
	case OpMULS:
		c.MACL = uint32(int32(int16(c.R[a.Rn])) * int32(int16(c.R[a.Rm])))
		return 1
	case OpMULU:
		c.MACL = uint32(uint16(c.R[a.Rn])) * uint32(uint16(c.R[a.Rm]))
		return 1
	case OpDMULS:
		prod := int64(int32(c.R[a.Rn])) * int64(int32(c.R[a.Rm]))
		c.MACH, c.MACL = uint32(uint64(prod)>>32), uint32(prod)
		return 2
	case OpDMULU:
		prod := uint64(c.R[a.Rn]) * uint64(c.R[a.Rm])
		c.MACH, c.MACL = uint32(prod>>32), uint32(prod)
		return 2
	case OpMACW:
		c.execMACW(a.Rm, a.Rn)
		return 2
	case OpMACL:
		c.execMACL(a.Rm, a.Rn)
		return 2
	case OpDIV0U:
		c.SR.SetQ(false)
		c.SR.SetM(false)
		c.SR.SetT(false)
		return 1
	case OpDIV0S:
		c.SR.SetQ(c.R[a.Rn]&0x80000000 != 0)
		c.SR.SetM(c.R[a.Rm]&0x80000000 != 0)
		c.SR.SetT(c.SR.Q() != c.SR.M())
		return 1
	case OpDIV1:
		c.execDIV1(a.Rm, a.Rn)
		return 1

	// --- compare / test ---
	case OpCMP_EQ_I:
		c.SR.SetT(int32(c.R[0]) == int32(int8(uint8(a.Disp))))
		return 1
	case OpCMP_EQ_R:
		c.SR.SetT(c.R[a.Rn] == c.R[a.Rm])
		return 1
	case OpCMP_GE:
		c.SR.SetT(int32(c.R[a.Rn]) >= int32(c.R[a.Rm]))
		return 1
	case OpCMP_GT:
		c.SR.SetT(int32(c.R[a.Rn]) > int32(c.R[a.Rm]))
		return 1
	case OpCMP_HI:
		c.SR.SetT(c.R[a.Rn] > c.R[a.Rm])
		return 1
	case OpCMP_HS:
		c.SR.SetT(c.R[a.Rn] >= c.R[a.Rm])
		return 1
	case OpCMP_PL:
		c.SR.SetT(int32(c.R[a.Rn]) > 0)
		return 1
	case OpCMP_PZ:
		c.SR.SetT(int32(c.R[a.Rn]) >= 0)
		return 1
	case OpCMP_STR:
		x := c.R[a.Rn] ^ c.R[a.Rm]
		t := x&0xFF == 0 || x&0xFF00 == 0 || x&0xFF0000 == 0 || x&0xFF000000 == 0
		c.SR.SetT(t)
		return 1
	case OpTAS:
		addr := c.R[a.Rn]
		v := c.Read8(addr, false)
		c.SR.SetT(v == 0)
		c.Write8(addr, v|0x80)
		return 4
	case OpTST_R:
		c.SR.SetT(c.R[a.Rn]&c.R[a.Rm] == 0)
		return 1
	case OpTST_I:
		c.SR.SetT(c.R[0]&uint32(a.Disp) == 0)
		return 1
	case OpTST_M:
		v := c.Read8(c.GBR+c.R[0], false)
		c.SR.SetT(uint32(v)&uint32(a.Disp) == 0)
		return 1

	default:
		return c.executeBranch(op, a, fetchPC)
	}
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// execMACW implements mac.w @Rm+,@Rn+: a 16x16 signed multiply. When
// SR.S is set it is accumulated into the 32-bit MACL, saturating to
// the signed 32-bit range, matching spec.md's "MAC-W saturates to
// 16.16 accumulator" wording; otherwise it is added to the 64-bit
// MACH:MACL pair.
func (c *CPU) execMACW(rm, rn uint8) {
	vm := int32(int16(c.Read16(c.R[rm], false)))
	c.R[rm] += 2
	vn := int32(int16(c.Read16(c.R[rn], false)))
	c.R[rn] += 2
	product := int64(vm) * int64(vn)
	sum := int64(int32(c.MACL)) + product
	if c.SR.Sat() {
		if sum > 0x7FFFFFFF {
			sum = 0x7FFFFFFF
			c.MACH |= 1
		} else if sum < -0x80000000 {
			sum = -0x80000000
			c.MACH |= 1
		}
		c.MACL = uint32(sum)
		return
	}
	full := int64(int32(c.MACH))<<32 | int64(uint32(c.MACL))
	full += product
	c.MACH, c.MACL = uint32(uint64(full)>>32), uint32(full)
}

// execMACL implements mac.l @Rm+,@Rn+: a 32x32 signed multiply
// accumulated into the 64-bit MACH:MACL pair, saturating to
// [-2^47, 2^47-1] when SR.S is set.
func (c *CPU) execMACL(rm, rn uint8) {
	vm := int64(int32(c.Read32(c.R[rm])))
	c.R[rm] += 4
	vn := int64(int32(c.Read32(c.R[rn])))
	c.R[rn] += 4
	product := vm * vn
	full := int64(int32(c.MACH))<<32 | int64(uint32(c.MACL))
	full += product
	if c.SR.Sat() {
		const maxV = int64(1) << 47
		if full > maxV-1 {
			full = maxV - 1
		} else if full < -maxV {
			full = -maxV
		}
	}
	c.MACH, c.MACL = uint32(uint64(full)>>32), uint32(full)
}

// execDIV1 performs one step of the iterative restoring-division
// algorithm used by the real hardware's div1 instruction.
func (c *CPU) execDIV1(rm, rn uint8) {
	Rn := c.R[rn]
	Rm := c.R[rm]
	oldQ := c.SR.Q()
	q := Rn&0x80000000 != 0
	Rn = Rn<<1 | boolToU32(c.SR.T())

	var tmp0 uint32
	var borrowOrCarry bool
	switch {
	case !oldQ && !c.SR.M():
		tmp0 = Rn
		Rn -= Rm
		borrowOrCarry = Rn > tmp0
		if !q {
			q = borrowOrCarry
		} else {
			q = !borrowOrCarry
		}
	case !oldQ && c.SR.M():
		tmp0 = Rn
		Rn += Rm
		borrowOrCarry = Rn < tmp0
		if !q {
			q = !borrowOrCarry
		} else {
			q = borrowOrCarry
		}
	case oldQ && !c.SR.M():
		tmp0 = Rn
		Rn += Rm
		borrowOrCarry = Rn < tmp0
		if !q {
			q = borrowOrCarry
		} else {
			q = !borrowOrCarry
		}
	default:
		tmp0 = Rn
		Rn -= Rm
		borrowOrCarry = Rn > tmp0
		if !q {
			q = !borrowOrCarry
		} else {
			q = borrowOrCarry
		}
	}
	c.R[rn] = Rn
	c.SR.SetQ(q)
	c.SR.SetT(q == c.SR.M())
}
