// dmac.go - [OCP] DMA controller (two channels).
//
// Grounded on sh2_dmac.hpp for the CHCR/DMAOR bit layout, the
// DE&&!TE enablement check, and the read/clear-only-if-set semantics
// of TE/AE/NMIF; the burst-vs-cycle-steal unit-at-a-time transfer loop
// and channel-0-first / round-robin arbitration come from spec.md
// section 4.2.

package saturn

import "sync"

type dmaIncrementMode uint8

const (
	dmaFixed dmaIncrementMode = iota
	dmaIncrement
	dmaDecrement
	dmaIncrementReserved
)

type dmaTransferSize uint8

const (
	dmaByte dmaTransferSize = iota
	dmaWord
	dmaLongword
	dmaQuadLongword
)

// dmaBus is the subset of Bus a DMA channel needs to move data. bus.go
// implements it on *Bus.
type dmaBus interface {
	ReadByte(addr uint32) uint8
	WriteByte(addr uint32, v uint8)
	ReadWord(addr uint32) uint16
	WriteWord(addr uint32, v uint16)
	ReadLong(addr uint32) uint32
	WriteLong(addr uint32, v uint32)
}

// DMAChannel is one SH-2 DMAC channel (SAR/DAR/TCR/CHCR/DRCR).
type DMAChannel struct {
	SrcAddr  uint32
	DstAddr  uint32
	Count    uint32 // 24-bit transfer counter

	srcMode    dmaIncrementMode
	dstMode    dmaIncrementMode
	xferSize   dmaTransferSize
	autoReq    bool
	ackXfer    bool
	ackLevel   bool
	dreqEdge   bool
	dreqLevel  bool
	burst      bool
	singleAddr bool
	irqEnable  bool
	xferEnded  bool
	xferEnabled bool

	vector uint8 // VCRDMA, bits 7-0: this channel's end-of-transfer interrupt vector
}

func (c *DMAChannel) Reset() { *c = DMAChannel{} }

func (c *DMAChannel) ReadVCRDMA() uint32  { return uint32(c.vector) }
func (c *DMAChannel) WriteVCRDMA(v uint32) { c.vector = uint8(v) }

// ReadDRCR is a resource-select stub: the field exists on real
// hardware to pick the DMA channel's request-source module, which is
// the SCU's responsibility and out of scope here (spec.md section 1).
func (c *DMAChannel) ReadDRCR() uint8 { return 0 }

// IsEnabled reports DE=1 && TE=0. DMAOR-level DME/NMIF/AE must be
// checked by the caller, matching the split in the hardware.
func (c *DMAChannel) IsEnabled() bool { return c.xferEnabled && !c.xferEnded }

func (c *DMAChannel) ReadCHCR() uint32 {
	var v uint32
	v |= uint32(c.dstMode) << 14
	v |= uint32(c.srcMode) << 12
	v |= uint32(c.xferSize) << 10
	if c.autoReq {
		v |= 1 << 9
	}
	if c.ackXfer {
		v |= 1 << 8
	}
	if c.ackLevel {
		v |= 1 << 7
	}
	if c.dreqEdge {
		v |= 1 << 6
	}
	if c.dreqLevel {
		v |= 1 << 5
	}
	if c.burst {
		v |= 1 << 4
	}
	if c.singleAddr {
		v |= 1 << 3
	}
	if c.irqEnable {
		v |= 1 << 2
	}
	if c.xferEnded {
		v |= 1 << 1
	}
	if c.xferEnabled {
		v |= 1 << 0
	}
	return v
}

func (c *DMAChannel) WriteCHCR(v uint32, poke bool) {
	c.dstMode = dmaIncrementMode((v >> 14) & 3)
	c.srcMode = dmaIncrementMode((v >> 12) & 3)
	c.xferSize = dmaTransferSize((v >> 10) & 3)
	c.autoReq = v&(1<<9) != 0
	c.ackXfer = v&(1<<8) != 0
	c.ackLevel = v&(1<<7) != 0
	c.dreqEdge = v&(1<<6) != 0
	c.dreqLevel = v&(1<<5) != 0
	c.burst = v&(1<<4) != 0
	c.singleAddr = v&(1<<3) != 0
	c.irqEnable = v&(1<<2) != 0
	if poke {
		c.xferEnded = v&(1<<1) != 0
	} else {
		c.xferEnded = c.xferEnded && v&(1<<1) != 0
	}
	c.xferEnabled = v&(1<<0) != 0
}

// unitSize returns the byte width of one transfer unit. The 16-byte
// (4-longword) mode is handled by the caller issuing four longword
// units per Step call.
func (c *DMAChannel) unitSize() int {
	switch c.xferSize {
	case dmaByte:
		return 1
	case dmaWord:
		return 2
	default:
		return 4
	}
}

func advance(addr uint32, mode dmaIncrementMode, size uint32) uint32 {
	switch mode {
	case dmaIncrement:
		return addr + size
	case dmaDecrement:
		return addr - size
	default:
		return addr
	}
}

// step transfers one unit (or, for the quad-longword mode, four
// longwords) and reports whether the channel just reached TE.
func (c *DMAChannel) step(bus dmaBus) (completed bool) {
	if c.Count == 0 {
		c.xferEnded = true
		return true
	}
	units := 1
	unitSize := uint32(c.unitSize())
	if c.xferSize == dmaQuadLongword {
		units = 4
		unitSize = 4
	}
	for i := 0; i < units && c.Count > 0; i++ {
		switch unitSize {
		case 1:
			bus.WriteByte(c.DstAddr, bus.ReadByte(c.SrcAddr))
		case 2:
			bus.WriteWord(c.DstAddr, bus.ReadWord(c.SrcAddr))
		default:
			bus.WriteLong(c.DstAddr, bus.ReadLong(c.SrcAddr))
		}
		c.SrcAddr = advance(c.SrcAddr, c.srcMode, unitSize)
		c.DstAddr = advance(c.DstAddr, c.dstMode, unitSize)
		c.Count--
	}
	if c.Count == 0 {
		c.xferEnded = true
		return true
	}
	return false
}

// DMAOR is the shared two-channel operation register.
type DMAOR struct {
	RoundRobin bool
	AE         bool
	NMIF       bool
	DME        bool
}

func (o DMAOR) Read() uint32 {
	var v uint32
	if o.RoundRobin {
		v |= 1 << 3
	}
	if o.AE {
		v |= 1 << 2
	}
	if o.NMIF {
		v |= 1 << 1
	}
	if o.DME {
		v |= 1 << 0
	}
	return v
}

func (o *DMAOR) Write(v uint32, poke bool) {
	o.RoundRobin = v&(1<<3) != 0
	if poke {
		o.AE = v&(1<<2) != 0
		o.NMIF = v&(1<<1) != 0
	} else {
		o.AE = o.AE && v&(1<<2) != 0
		o.NMIF = o.NMIF && v&(1<<1) != 0
	}
	o.DME = v&(1<<0) != 0
}

// DMAC owns both channels and their shared operation register.
type DMAC struct {
	mu sync.Mutex

	Ch   [2]DMAChannel
	OR   DMAOR
	last uint8 // last channel serviced, for round-robin fairness

	onComplete func(channel int)
}

func NewDMAC(onComplete func(channel int)) *DMAC {
	d := &DMAC{onComplete: onComplete}
	d.Reset()
	return d
}

func (d *DMAC) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Ch[0].Reset()
	d.Ch[1].Reset()
	d.OR = DMAOR{}
	d.last = 0
}

// Tick services one eligible channel for one transfer unit, per the
// fixed (channel 0 first) or round-robin priority mode. It returns
// true if any work was performed.
func (d *DMAC) Tick(bus dmaBus) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.OR.DME || d.OR.AE || d.OR.NMIF {
		return false
	}

	order := [2]int{0, 1}
	if d.OR.RoundRobin && d.last == 0 {
		order = [2]int{1, 0}
	}

	for _, ch := range order {
		c := &d.Ch[ch]
		if !c.IsEnabled() {
			continue
		}
		completed := c.step(bus)
		d.last = uint8(ch)
		if completed && c.irqEnable && d.onComplete != nil {
			d.onComplete(ch)
		}
		return true
	}
	return false
}
