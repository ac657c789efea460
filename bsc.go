// bsc.go - [OCP] bus-state controller and standby/module-stop control.
//
// Grounded on sh2_bsc.hpp for the BCR1/BCR2/WCR/MCR/RTCSR/RTCNT/RTCOR
// register set (kept as raw passthrough storage: this core does not
// model DRAM refresh or wait-state insertion, so these registers only
// read back what was written, under each register's writable-bit mask)
// and sh2_power.hpp for SBYCR's
// SLEEP-vs-standby bit and the five module-stop bits, recovered from
// original_source since spec.md does not mention standby mode.

package saturn

// SBYCR models the standby control register, which decides what the
// SLEEP instruction does and which on-chip modules are halted.
type SBYCR struct {
	sby   bool // 0=SLEEP enters sleep mode, 1=SLEEP enters standby mode
	hiz   bool
	mstp0 bool // SCI
	mstp1 bool // FRT
	mstp2 bool // DIVU
	mstp3 bool // multiplier
	mstp4 bool // DMAC
}

func (s SBYCR) Read() uint8 {
	var v uint8
	if s.mstp0 {
		v |= 1 << 0
	}
	if s.mstp1 {
		v |= 1 << 1
	}
	if s.mstp2 {
		v |= 1 << 2
	}
	if s.mstp3 {
		v |= 1 << 3
	}
	if s.mstp4 {
		v |= 1 << 4
	}
	if s.hiz {
		v |= 1 << 6
	}
	if s.sby {
		v |= 1 << 7
	}
	return v
}

func (s *SBYCR) Write(v uint8) {
	s.mstp0 = v&(1<<0) != 0
	s.mstp1 = v&(1<<1) != 0
	s.mstp2 = v&(1<<2) != 0
	s.mstp3 = v&(1<<3) != 0
	s.mstp4 = v&(1<<4) != 0
	s.hiz = v&(1<<6) != 0
	s.sby = v&(1<<7) != 0
}

// EntersStandby reports whether SLEEP currently enters standby mode
// rather than ordinary sleep mode.
func (s SBYCR) EntersStandby() bool { return s.sby }

// BSC holds the bus-state-controller registers the CPU's MMIO window
// exposes. Timing effects (wait states, DRAM refresh) are outside this
// core's scope; the registers are modeled as plain read/write storage
// so firmware that probes or configures them observes consistent
// values.
type BSC struct {
	SBYCR SBYCR

	bcr1  uint16
	bcr2  uint16
	wcr   uint16
	mcr   uint16
	rtcsr uint16
	rtcnt uint8
	rtcor uint8
}

func NewBSC() *BSC {
	b := &BSC{}
	b.Reset()
	return b
}

func (b *BSC) Reset() {
	b.SBYCR = SBYCR{}
	b.bcr1 = 0x03F0
	b.bcr2 = 0x00FC
	b.wcr = 0xAAFF
	b.mcr = 0x0000
	b.rtcsr = 0x0000
	b.rtcnt = 0x00
	b.rtcor = 0x00
}

func (b *BSC) ReadBCR1() uint16 { return b.bcr1 }
func (b *BSC) WriteBCR1(v uint16) { b.bcr1 = v &^ (1 << 15) } // MASTER is read-only, fixed by wiring

func (b *BSC) ReadBCR2() uint16    { return b.bcr2 }
func (b *BSC) WriteBCR2(v uint16)  { b.bcr2 = v & 0x00FC }

func (b *BSC) ReadWCR() uint16   { return b.wcr }
func (b *BSC) WriteWCR(v uint16) { b.wcr = v }

func (b *BSC) ReadMCR() uint16   { return b.mcr }
func (b *BSC) WriteMCR(v uint16) { b.mcr = v }

func (b *BSC) ReadRTCSR() uint16 { return b.rtcsr }
func (b *BSC) WriteRTCSR(v uint16) { b.rtcsr = v & 0x00FF }

func (b *BSC) ReadRTCNT() uint8   { return b.rtcnt }
func (b *BSC) WriteRTCNT(v uint8) { b.rtcnt = v }

func (b *BSC) ReadRTCOR() uint8   { return b.rtcor }
func (b *BSC) WriteRTCOR(v uint8) { b.rtcor = v }
