// probe.go - [CPU] side-effect-free debug/save-state access.
//
// Grounded on _examples/IntuitionAmiga-IntuitionEngine/debug_interface.go's
// DebuggableCPU interface, scoped down to spec.md section 4.3's narrower
// requirement: register and memory peek/poke plus raise/lower interrupt
// helpers, rather than the teacher's full breakpoint/watchpoint surface
// (this core has no attached debugger UI to drive those).

package saturn

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardOK   bool
)

// Probe exposes a CPU's register file and memory through the run
// loop's own mutex, so a debugger or snapshot routine can read or
// write state between Steps without racing Advance.
type Probe struct {
	cpu *CPU
}

// registerNames lists the names accepted by GetRegister/SetRegister,
// in the order GetRegisters reports them.
var registerNames = [...]string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
	"PC", "PR", "GBR", "VBR", "MACH", "MACL", "SR",
}

// GetRegisters snapshots every named register.
func (p *Probe) GetRegisters() map[string]uint32 {
	p.cpu.mu.RLock()
	defer p.cpu.mu.RUnlock()
	regs := make(map[string]uint32, len(registerNames))
	for _, name := range registerNames {
		regs[name] = p.getRegisterLocked(name)
	}
	return regs
}

// GetRegister reads one register by name, reporting false for an
// unrecognized name.
func (p *Probe) GetRegister(name string) (uint32, bool) {
	p.cpu.mu.RLock()
	defer p.cpu.mu.RUnlock()
	for _, n := range registerNames {
		if n == name {
			return p.getRegisterLocked(name), true
		}
	}
	return 0, false
}

func (p *Probe) getRegisterLocked(name string) uint32 {
	c := p.cpu
	if len(name) > 1 && name[0] == 'R' {
		for i := 0; i < 16; i++ {
			if name == registerNames[i] {
				return c.R[i]
			}
		}
	}
	switch name {
	case "PC":
		return c.PC
	case "PR":
		return c.PR
	case "GBR":
		return c.GBR
	case "VBR":
		return c.VBR
	case "MACH":
		return c.MACH
	case "MACL":
		return c.MACL
	case "SR":
		return c.SR.Raw()
	}
	return 0
}

// SetRegister writes one register by name, reporting false for an
// unrecognized name.
func (p *Probe) SetRegister(name string, value uint32) bool {
	p.cpu.mu.Lock()
	defer p.cpu.mu.Unlock()
	c := p.cpu
	if len(name) > 1 && name[0] == 'R' {
		for i := 0; i < 16; i++ {
			if name == registerNames[i] {
				c.R[i] = value
				return true
			}
		}
	}
	switch name {
	case "PC":
		c.PC = value
	case "PR":
		c.PR = value
	case "GBR":
		c.GBR = value
	case "VBR":
		c.VBR = value
	case "MACH":
		c.MACH = value
	case "MACL":
		c.MACL = value
	case "SR":
		c.SR.SetRaw(value)
	default:
		return false
	}
	return true
}

// ReadByte/ReadWord/ReadLong peek memory through the same address
// translation the CPU itself uses, including cache fills, but without
// advancing any instruction state.
func (p *Probe) ReadByte(addr uint32) uint8 {
	p.cpu.mu.Lock()
	defer p.cpu.mu.Unlock()
	return p.cpu.Read8(addr, false)
}

func (p *Probe) ReadWord(addr uint32) uint16 {
	p.cpu.mu.Lock()
	defer p.cpu.mu.Unlock()
	return p.cpu.Read16(addr, false)
}

func (p *Probe) ReadLong(addr uint32) uint32 {
	p.cpu.mu.Lock()
	defer p.cpu.mu.Unlock()
	return p.cpu.Read32(addr)
}

func (p *Probe) WriteByte(addr uint32, v uint8) {
	p.cpu.mu.Lock()
	defer p.cpu.mu.Unlock()
	p.cpu.Write8(addr, v)
}

func (p *Probe) WriteWord(addr uint32, v uint16) {
	p.cpu.mu.Lock()
	defer p.cpu.mu.Unlock()
	p.cpu.Write16(addr, v)
}

func (p *Probe) WriteLong(addr uint32, v uint32) {
	p.cpu.mu.Lock()
	defer p.cpu.mu.Unlock()
	p.cpu.Write32(addr, v)
}

// RaiseInterrupt and LowerInterrupt let a debugger or a peer device
// model inject/withdraw an interrupt source without going through the
// normal peripheral register writes that would otherwise trigger it.
func (p *Probe) RaiseInterrupt(source IntSource) {
	p.cpu.OCP.INTC.RaiseInterrupt(source)
}

func (p *Probe) LowerInterrupt(source IntSource) {
	p.cpu.OCP.INTC.ClearInterrupt(source)
}

// PC reports the program counter without taking the write lock.
func (p *Probe) PC() uint32 {
	p.cpu.mu.RLock()
	defer p.cpu.mu.RUnlock()
	return p.cpu.PC
}

// SetPC redirects execution to addr, e.g. to resume from a save state.
func (p *Probe) SetPC(addr uint32) {
	p.cpu.mu.Lock()
	defer p.cpu.mu.Unlock()
	p.cpu.PC = addr
}

// CopyStateToClipboard formats every named register as "NAME=0x...."
// text and writes it to the system clipboard, so a bug report can
// paste a register dump without a screenshot. Grounded on
// video_backend_ebiten.go's clipboardOnce/clipboardOK lazy-Init guard.
func (p *Probe) CopyStateToClipboard() error {
	clipboardOnce.Do(func() {
		clipboardOK = clipboard.Init() == nil
	})
	if !clipboardOK {
		return fmt.Errorf("probe: clipboard unavailable")
	}
	regs := p.GetRegisters()
	var dump string
	for _, name := range registerNames {
		dump += fmt.Sprintf("%s=0x%08X\n", name, regs[name])
	}
	clipboard.Write(clipboard.FmtText, []byte(dump))
	return nil
}
