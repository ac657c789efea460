// cpu_mem.go - [CPU] virtual-address-bit translation and cache-backed
// memory access.
//
// Grounded on spec.md section 6's "SH-2 virtual address bits 31..29"
// table. All eight address classes are handled here rather than
// folded into bus.go, since the classification (cached, associative
// purge, address/data array, on-chip registers) is a CPU-local
// concept: the shared Bus only ever sees a 27-bit physical address.

package saturn

import "encoding/binary"

const associativePurgeSentinel = 0x2312

func (c *CPU) addrClass(addr uint32) uint8 { return uint8(addr >> 29) }
func (c *CPU) physAddr(addr uint32) uint32 { return addr & 0x1FFFFFFF }

func (c *CPU) Read8(addr uint32, instrFetch bool) uint8 {
	switch c.addrClass(addr) {
	case 0:
		return c.cachedReadByte(c.physAddr(addr), instrFetch)
	case 1, 5:
		return c.Bus.ReadByte(c.physAddr(addr))
	case 2:
		if addr&1 == 0 {
			return uint8(associativePurgeSentinel >> 8)
		}
		return uint8(associativePurgeSentinel)
	case 3:
		v := c.readAddressArray32(addr &^ 3)
		return uint8(v >> ((3 - addr&3) * 8))
	case 4, 6:
		return c.OCP.Cache.ReadDataArray(addr)
	default: // 7: on-chip registers
		return c.OCP.HandleRead8(addr & 0x1FF)
	}
}

func (c *CPU) Read16(addr uint32, instrFetch bool) uint16 {
	addr &^= 1
	switch c.addrClass(addr) {
	case 0:
		hi := c.cachedReadByte(c.physAddr(addr), instrFetch)
		lo := c.cachedReadByte(c.physAddr(addr)+1, instrFetch)
		return uint16(hi)<<8 | uint16(lo)
	case 1, 5:
		return c.Bus.ReadWord(c.physAddr(addr))
	case 2:
		return associativePurgeSentinel
	case 3:
		v := c.readAddressArray32(addr &^ 3)
		return uint16(v >> ((2 - addr&2) * 8))
	case 4, 6:
		hi := c.OCP.Cache.ReadDataArray(addr)
		lo := c.OCP.Cache.ReadDataArray(addr + 1)
		return uint16(hi)<<8 | uint16(lo)
	default:
		return c.OCP.HandleRead16(addr & 0x1FF)
	}
}

func (c *CPU) Read32(addr uint32) uint32 {
	addr &^= 3
	switch c.addrClass(addr) {
	case 0:
		a := c.physAddr(addr)
		return uint32(c.cachedReadByte(a, false))<<24 |
			uint32(c.cachedReadByte(a+1, false))<<16 |
			uint32(c.cachedReadByte(a+2, false))<<8 |
			uint32(c.cachedReadByte(a+3, false))
	case 1, 5:
		return c.Bus.ReadLong(c.physAddr(addr))
	case 2:
		return associativePurgeSentinel<<16 | associativePurgeSentinel
	case 3:
		return c.readAddressArray32(addr)
	case 4, 6:
		var b [4]byte
		for i := range b {
			b[i] = c.OCP.Cache.ReadDataArray(addr + uint32(i))
		}
		return binary.BigEndian.Uint32(b[:])
	default:
		return c.OCP.HandleRead32(addr & 0x1FF)
	}
}

func (c *CPU) Write8(addr uint32, v uint8) {
	switch c.addrClass(addr) {
	case 0:
		c.cachedWriteByte(c.physAddr(addr), v)
	case 1, 5:
		c.triggerFRTMirror(c.physAddr(addr))
		c.Bus.WriteByte(c.physAddr(addr), v)
	case 2:
		c.OCP.Cache.AssociativePurge(c.physAddr(addr))
	case 3:
		c.writeAddressArray8(addr, v)
	case 4, 6:
		c.OCP.Cache.WriteDataArray(addr, v)
	default:
		c.OCP.HandleWrite8(addr&0x1FF, v)
	}
}

func (c *CPU) Write16(addr uint32, v uint16) {
	addr &^= 1
	switch c.addrClass(addr) {
	case 0:
		a := c.physAddr(addr)
		c.cachedWriteByte(a, uint8(v>>8))
		c.cachedWriteByte(a+1, uint8(v))
	case 1, 5:
		c.triggerFRTMirror(c.physAddr(addr))
		c.Bus.WriteWord(c.physAddr(addr), v)
	case 2:
		c.OCP.Cache.AssociativePurge(c.physAddr(addr))
	case 3:
		c.writeAddressArray8(addr, uint8(v>>8))
		c.writeAddressArray8(addr+1, uint8(v))
	case 4, 6:
		c.OCP.Cache.WriteDataArray(addr, uint8(v>>8))
		c.OCP.Cache.WriteDataArray(addr+1, uint8(v))
	default:
		c.OCP.HandleWrite16(addr&0x1FF, v)
	}
}

func (c *CPU) Write32(addr uint32, v uint32) {
	addr &^= 3
	switch c.addrClass(addr) {
	case 0:
		a := c.physAddr(addr)
		c.cachedWriteByte(a, uint8(v>>24))
		c.cachedWriteByte(a+1, uint8(v>>16))
		c.cachedWriteByte(a+2, uint8(v>>8))
		c.cachedWriteByte(a+3, uint8(v))
	case 1, 5:
		c.triggerFRTMirror(c.physAddr(addr))
		c.Bus.WriteLong(c.physAddr(addr), v)
	case 2:
		c.OCP.Cache.AssociativePurge(c.physAddr(addr))
	case 3:
		c.writeAddressArray32(addr, v)
	case 4, 6:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		for i, by := range b {
			c.OCP.Cache.WriteDataArray(addr+uint32(i), by)
		}
	default:
		c.OCP.HandleWrite32(addr&0x1FF, v)
	}
}

// cachedReadByte serves one byte through the cache, filling the line
// from the bus on a miss. When replacement is disabled for this
// access class, the cache is bypassed entirely and the access goes
// straight to the bus, per spec.md's per-class CCR bits.
func (c *CPU) cachedReadByte(addr uint32, instrFetch bool) uint8 {
	way, hit := c.OCP.Cache.Lookup(addr)
	if !hit {
		sel := c.OCP.Cache.SelectWay(addr, instrFetch)
		if sel >= cacheWays {
			return c.Bus.ReadByte(addr)
		}
		way = sel
		lineAddr := addr &^ 0xF
		var buf [cacheLineSize]byte
		for i := 0; i < cacheLineSize; i += 4 {
			binary.BigEndian.PutUint32(buf[i:], c.Bus.ReadLong(lineAddr+uint32(i)))
		}
		c.OCP.Cache.FillLine(addr, way, buf)
	}
	c.OCP.Cache.UpdateLRU(addr, way)
	var line [cacheLineSize]byte
	c.OCP.Cache.ReadLine(addr, way, &line)
	return line[addr&0xF]
}

// cachedWriteByte is write-through, no-write-allocate: a cache hit
// keeps the line consistent, a miss touches only the bus.
func (c *CPU) cachedWriteByte(addr uint32, v uint8) {
	if way, hit := c.OCP.Cache.Lookup(addr); hit {
		var line [cacheLineSize]byte
		c.OCP.Cache.ReadLine(addr, way, &line)
		line[addr&0xF] = v
		c.OCP.Cache.FillLine(addr, way, line)
		c.OCP.Cache.UpdateLRU(addr, way)
	}
	c.Bus.WriteByte(addr, v)
}

// triggerFRTMirror drives the peer CPU's FRT input capture whenever
// this CPU writes into the 0x100000-0x1FFFFF megabyte (SMPC regs and
// backup RAM share it), per spec.md's cross-CPU FRT mirror window.
func (c *CPU) triggerFRTMirror(physAddr uint32) {
	if c.peer == nil || physAddr>>20 != 1 {
		return
	}
	if c.peer.OCP.FRT.TriggerInputCapture() {
		c.peer.OCP.INTC.RaiseInterrupt(IntFRTICI)
	}
}

func (c *CPU) readAddressArray32(addr uint32) uint32 { return c.OCP.Cache.ReadAddressArray(addr) }

func (c *CPU) writeAddressArray32(addr uint32, v uint32) { c.OCP.Cache.WriteAddressArray(addr, v) }

func (c *CPU) writeAddressArray8(addr uint32, v uint8) {
	word := c.readAddressArray32(addr &^ 3)
	shift := (3 - addr&3) * 8
	word = (word &^ (0xFF << shift)) | uint32(v)<<shift
	c.writeAddressArray32(addr&^3, word)
}
