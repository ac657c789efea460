package saturn

import "testing"

func TestDecodeNOP(t *testing.T) {
	op, _ := sharedTables.Decode(0x0009)
	if op != OpNOP {
		t.Fatalf("0x0009: got %v, want OpNOP", op)
	}
}

func TestDecodeIllegalNotSlot(t *testing.T) {
	// 0100 1010 1111 1100 is not a legal SH-2 encoding; it must decode
	// to the ordinary illegal token, not the delay-slot variant, when
	// fetched from the primary instruction stream.
	op, _ := sharedTables.Decode(0x4AFC)
	if op != OpIllegal {
		t.Fatalf("0x4AFC: got %v, want OpIllegal", op)
	}
}

func TestDecodeSlotRejectsBranches(t *testing.T) {
	branches := []uint16{
		0xA000, // BRA
		0xB000, // BSR
		0x002B, // RTE
		0x000B, // RTS
		0xC300, // TRAPA
	}
	for _, opcode := range branches {
		op, _ := sharedTables.DecodeSlot(opcode)
		if op != OpIllegalSlot {
			t.Errorf("slot decode 0x%04X: got %v, want OpIllegalSlot", opcode, op)
		}
	}
}

func TestDecodeRegisterMove(t *testing.T) {
	// mov R2,R1 -> 0110 0001 0010 0011
	op, args := sharedTables.Decode(0x6123)
	if op != OpMOV {
		t.Fatalf("0x6123: got %v, want OpMOV", op)
	}
	if args.Rn != 1 || args.Rm != 2 {
		t.Fatalf("0x6123: got Rn=%d Rm=%d, want Rn=1 Rm=2", args.Rn, args.Rm)
	}
}

func TestDecodeMovLIndirect(t *testing.T) {
	// mov.l @R3,R4 -> 0110 0100 0011 0010
	op, args := sharedTables.Decode(0x6432)
	if op != OpMOVL_L {
		t.Fatalf("0x6432: got %v, want OpMOVL_L", op)
	}
	if args.Rn != 4 || args.Rm != 3 {
		t.Fatalf("0x6432: got Rn=%d Rm=%d, want Rn=4 Rm=3", args.Rn, args.Rm)
	}
}

func TestDecodeAddImmediate(t *testing.T) {
	// add #-1,R5 -> 0111 0101 1111 1111
	op, args := sharedTables.Decode(0x75FF)
	if op != OpADD_I {
		t.Fatalf("0x75FF: got %v, want OpADD_I", op)
	}
	if args.Rn != 5 || args.Disp != 0xFF {
		t.Fatalf("0x75FF: got Rn=%d Disp=%d", args.Rn, args.Disp)
	}
}

func TestDecodeBranchDisplacement(t *testing.T) {
	// bra with a negative 12-bit displacement
	op, args := sharedTables.Decode(0xAFFE)
	if op != OpBRA {
		t.Fatalf("0xAFFE: got %v, want OpBRA", op)
	}
	if args.Disp != -2 {
		t.Fatalf("0xAFFE: got Disp=%d, want -2", args.Disp)
	}
}

func TestDecodeDiv1AndDiv0(t *testing.T) {
	if op, _ := sharedTables.Decode(0x2007); op != OpDIV0S {
		t.Fatalf("0x2007: got %v, want OpDIV0S", op)
	}
	if op, _ := sharedTables.Decode(0x0019); op != OpDIV0U {
		t.Fatalf("0x0019: got %v, want OpDIV0U", op)
	}
	if op, _ := sharedTables.Decode(0x3004); op != OpDIV1 {
		t.Fatalf("0x3004: got %v, want OpDIV1", op)
	}
}

func TestDecodeLdcStcPairsDoNotCollide(t *testing.T) {
	if op, _ := sharedTables.Decode(0x400E); op != OpLDC_SR_R {
		t.Fatalf("0x400E: got %v, want OpLDC_SR_R", op)
	}
	if op, _ := sharedTables.Decode(0x4007); op != OpLDC_SR_M {
		t.Fatalf("0x4007: got %v, want OpLDC_SR_M", op)
	}
	if op, _ := sharedTables.Decode(0x0002); op != OpSTC_SR_R {
		t.Fatalf("0x0002: got %v, want OpSTC_SR_R", op)
	}
}

func TestMnemonicFallback(t *testing.T) {
	if m := sharedTables.Mnemonic(OpNOP); m != "nop" {
		t.Fatalf("Mnemonic(OpNOP) = %q, want nop", m)
	}
	if m := sharedTables.Mnemonic(opCount); m != "???" {
		t.Fatalf("Mnemonic(opCount) = %q, want ???", m)
	}
}

func TestAllOpcodesHaveEntries(t *testing.T) {
	// Every opcode must decode to something; BuildTables must not leave
	// any slot uninitialized (it defaults everything to Illegal first).
	for opcode := 0; opcode < 65536; opcode++ {
		op, _ := sharedTables.Decode(uint16(opcode))
		if op >= opCount {
			t.Fatalf("0x%04X: op value %d out of range", opcode, op)
		}
	}
}
