// machine.go - top-level scheduler tying both SH-2s, the Bus and the
// VDP together.
//
// Grounded on spec.md section 5's cooperative single-thread scheduler:
// CPU cores, OCP counters, the bus, and posted VDP events all advance
// on this goroutine in cycle-count order, while the VDP worker renders
// on its own thread (vdp.go/vdp_queue.go). NewMachine's "build every
// dependency, wire the callbacks, return ready-to-run" shape and its
// (*Machine, error) return follow video_chip.go's NewVideoChip(backend
// int) constructor rather than a functional-options idiom: nothing in
// the teacher or the rest of the example pack uses options structs,
// so this core doesn't invent one either.
package saturn

import (
	"fmt"
	"image"
)

const (
	// cyclesPerScanline approximates the NTSC SH-2 bus clock
	// (28.6364 MHz) divided by the NTSC horizontal rate (15.734 kHz).
	// spec.md's non-goals disclaim bug-for-bug timing beyond one
	// machine cycle of documented behavior; this constant exists only
	// to give the scheduler a scanline cadence; no SPEC_FULL component
	// depends on its exact value.
	cyclesPerScanline = 1820

	// scanlinesPerFrame is NTSC's total VCNT count, recovered from
	// original_source/'s vdp_state.hpp timing table (263 total lines,
	// VBLANK lowered during the last line's H-phase).
	scanlinesPerFrame = 263
)

// Machine owns both SH-2 cores, the shared Bus, and the VDP, and
// drives them through spec.md section 5's scheduler slice: advance
// both CPUs (and their OCP counters and DMA) by one scanline's worth
// of cycles, then post the VDP events that scanline boundary implies.
type Machine struct {
	Master *CPU
	Slave  *CPU
	Bus    *Bus
	VDP    *VDP

	scanline int

	masterWOVF bool
	slaveWOVF  bool
}

// NewMachine builds a fully wired Saturn core: two SH-2s sharing one
// Bus (cross-wired with SetPeer for the FRT input-capture mirror), the
// standard memory map plus VDP1/VDP2 windows, and a VDP whose
// frame-complete callback is frameCallback (nil discards frames, for
// headless test harnesses). VDP1/VDP2's external-interrupt-raise
// contract (spec.md section 1) is routed to the master CPU's INTC
// only: real hardware lets the SCU mask either SH-2 out of that
// routing independently, but this core's out-of-scope SCU bridge
// (spec.md section 1) never needs the slave to see it, so modeling
// the master-only path keeps INTExternal's consumer unambiguous.
func NewMachine(bootROM []byte, frameCallback func(*image.RGBA)) (*Machine, error) {
	bus := NewBus()
	bus.LoadBootROM(bootROM)
	WireStandardMap(bus)

	vdp := NewVDP(frameCallback)
	WireVDP(bus, vdp)

	master := NewCPU("master", bus)
	slave := NewCPU("slave", bus)
	master.SetPeer(slave)
	slave.SetPeer(master)

	m := &Machine{Master: master, Slave: slave, Bus: bus, VDP: vdp}

	vdp.SetExternalInterruptHandler(func() {
		master.OCP.INTC.RaiseInterrupt(IntExternal)
	})

	if err := vdp.Start(); err != nil {
		return nil, fmt.Errorf("failed to start VDP worker: %w", err)
	}
	return m, nil
}

// Reset performs a power-on reset: work RAM is cleared and both CPUs
// reload PC/R15 from the boot vector, matching a real Saturn cold
// boot. The VDP is reset in step so its first frame starts from a
// known state.
func (m *Machine) Reset() {
	m.Bus.Reset()
	m.Master.Reset(true, false)
	m.Slave.Reset(true, false)
	m.VDP.PostReset()
	m.scanline = 0
	m.masterWOVF, m.slaveWOVF = false, false
}

// Close stops the VDP worker goroutine. Callers should call this
// exactly once, when the machine is no longer needed.
func (m *Machine) Close() error {
	return m.VDP.Stop()
}

// AdvanceScanline runs one scheduler slice: both CPUs advance by
// cyclesPerScanline bus cycles (master's full slice before slave's;
// from the shared Bus's perspective the two slices are
// indistinguishable from a finer interleaving, since both CPUs only
// ever touch Bus through its own locking), then the scanline's VDP
// events are posted.
func (m *Machine) AdvanceScanline() {
	m.Master.Advance(cyclesPerScanline)
	m.checkWatchdogReset(m.Master, &m.masterWOVF)
	m.Slave.Advance(cyclesPerScanline)
	m.checkWatchdogReset(m.Slave, &m.slaveWOVF)

	_, height := m.VDP.VDP2.Displayed()
	switch {
	case m.scanline < height:
		m.VDP.PostDrawLine(m.scanline)
	case m.scanline == height:
		// VBlank-in: erase the display buffer (already shown), flip
		// VDP1's completed back buffer to display so the erased one
		// becomes the new back buffer, kick off the next command-list
		// pass during the blanking period, and hand the just-swapped
		// frame to the caller.
		m.VDP.PostVDP1Erase()
		m.VDP.PostVDP1Swap()
		m.VDP.PostVDP1BeginFrame()
		m.VDP.PostEndFrame()
	}

	m.scanline++
	if m.scanline >= scanlinesPerFrame {
		m.scanline = 0
	}
}

// RunFrame advances exactly one video frame and blocks until the VDP
// worker has finished compositing it, so callers see a fully rendered
// frame before proceeding.
func (m *Machine) RunFrame() {
	for i := 0; i < scanlinesPerFrame; i++ {
		m.AdvanceScanline()
	}
	m.VDP.WaitRenderFinished()
}

// checkWatchdogReset implements the handoff ocp.go documents: OCP has
// no reference back to its owning CPU, so the scheduler polls RSTCSR
// after every Advance and performs the watchdog-triggered reset
// itself. prevWOVF tracks the previous poll's WOVF bit so a reset
// fires exactly once per rising edge rather than once per scanline for
// as long as software leaves WOVF latched.
func (m *Machine) checkWatchdogReset(c *CPU, prevWOVF *bool) {
	rstcsr := c.OCP.WDT.ReadRSTCSR()
	wovf := rstcsr&0x80 != 0
	rste := rstcsr&0x40 != 0
	if wovf && !*prevWOVF && rste {
		c.Reset(false, true)
	}
	*prevWOVF = wovf
}
