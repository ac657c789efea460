package saturn

import (
	"image"
	"testing"
)

func putLong(b []byte, off int, v uint32) {
	b[off] = byte(v >> 24)
	b[off+1] = byte(v >> 16)
	b[off+2] = byte(v >> 8)
	b[off+3] = byte(v)
}

// newTestBootROM builds a boot ROM whose reset vectors point at
// 0x1000/0x200800 and whose program area, from 0x1000 to the end of
// the ROM, is filled with NOP (0x0009, big-endian) so the scheduler
// has something harmless to execute across many scanlines.
func newTestBootROM() []byte {
	rom := make([]byte, 512*1024)
	putLong(rom, 0x0, 0x00001000)
	putLong(rom, 0x4, 0x00200800)
	for off := 0x1000; off+1 < len(rom); off += 2 {
		rom[off], rom[off+1] = 0x00, 0x09
	}
	return rom
}

func newTestMachine(t *testing.T, frameCallback func(*image.RGBA)) *Machine {
	t.Helper()
	m, err := NewMachine(newTestBootROM(), frameCallback)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestNewMachineBootsFromResetVector(t *testing.T) {
	m := newTestMachine(t, nil)

	if m.Master.PC != 0x00001000 {
		t.Fatalf("master PC = 0x%X, want 0x1000", m.Master.PC)
	}
	if m.Master.R[15] != 0x00200800 {
		t.Fatalf("master R15 = 0x%X, want 0x200800", m.Master.R[15])
	}
	if m.Slave.PC != 0x00001000 {
		t.Fatalf("slave PC = 0x%X, want 0x1000", m.Slave.PC)
	}
	if m.Master.peer != m.Slave || m.Slave.peer != m.Master {
		t.Fatalf("SetPeer did not cross-wire the two CPUs")
	}
}

// TestAdvanceScanlineWrapsFrameCounter drives a full frame's worth of
// scanlines through the scheduler and checks the frame counter wraps,
// exercising the same CPU/OCP/VDP-event path RunFrame uses without
// depending on exactly what the NOP stream decodes into once it runs
// past the filled program area.
func TestAdvanceScanlineWrapsFrameCounter(t *testing.T) {
	m := newTestMachine(t, nil)

	for i := 0; i < scanlinesPerFrame; i++ {
		m.AdvanceScanline()
	}
	if m.scanline != 0 {
		t.Fatalf("scanline counter = %d, want wrap to 0 after one frame", m.scanline)
	}
}

func TestRunFrameDeliversFrameCallback(t *testing.T) {
	delivered := make(chan struct{}, 1)
	m := newTestMachine(t, func(*image.RGBA) {
		select {
		case delivered <- struct{}{}:
		default:
		}
	})

	m.RunFrame()

	select {
	case <-delivered:
	default:
		t.Fatalf("RunFrame did not deliver a frame callback within one frame")
	}
}

func TestExternalInterruptReachesMasterOnly(t *testing.T) {
	m := newTestMachine(t, nil)

	m.VDP.VDP1.onExternalInterrupt()

	if source, _, _ := m.Master.OCP.INTC.Pending(); source != IntExternal {
		t.Fatalf("master pending source = %v, want IntExternal", source)
	}
	if source, _, _ := m.Slave.OCP.INTC.Pending(); source == IntExternal {
		t.Fatalf("slave observed IntExternal; routing is master-only by design")
	}
}

// TestWatchdogResetReloadsPC arms the master's watchdog to overflow in
// watchdog mode (wtNIT set, RSTE set) and checks the scheduler's
// RSTCSR-polling handoff (checkWatchdogReset) performs the reload and
// then does not re-fire while WOVF stays latched.
func TestWatchdogResetReloadsPC(t *testing.T) {
	m := newTestMachine(t, nil)

	m.Master.OCP.WDT.tme = true
	m.Master.OCP.WDT.wtNIT = true
	m.Master.OCP.WDT.rste = true
	m.Master.OCP.WDT.wtcnt = 0xFF

	reset := false
	for i := 0; i < 64 && !reset; i++ {
		m.Master.Advance(cyclesPerScanline)
		before := m.Master.PC
		m.checkWatchdogReset(m.Master, &m.masterWOVF)
		if m.Master.PC != before {
			reset = true
		}
	}
	if !reset {
		t.Fatalf("watchdog never triggered a reset within 64 scanlines")
	}
	if m.Master.PC != 0x00001000 {
		t.Fatalf("PC after watchdog reset = 0x%X, want reload to 0x1000", m.Master.PC)
	}
	if m.Master.R[15] != 0x00200800 {
		t.Fatalf("R15 after watchdog reset = 0x%X, want reload to 0x200800", m.Master.R[15])
	}
	if !m.Master.OCP.WDT.wovf {
		t.Fatalf("WOVF must stay latched across a watchdog-initiated reset")
	}

	// A second poll with WOVF still latched must not re-fire: the
	// edge detector only fires on 0->1 transitions.
	m.Master.R[0] = 0xDEADBEEF
	m.checkWatchdogReset(m.Master, &m.masterWOVF)
	if m.Master.R[0] != 0xDEADBEEF {
		t.Fatalf("watchdog reset re-fired on an already-latched WOVF")
	}
}

func TestMachineResetReloadsBothCPUs(t *testing.T) {
	m := newTestMachine(t, nil)

	m.Master.PC = 0xDEADBEEF
	m.Slave.PC = 0xDEADBEEF
	m.scanline = 17

	m.Reset()

	if m.Master.PC != 0x00001000 || m.Slave.PC != 0x00001000 {
		t.Fatalf("Reset did not reload PC on both CPUs: master=0x%X slave=0x%X", m.Master.PC, m.Slave.PC)
	}
	if m.scanline != 0 {
		t.Fatalf("Reset did not clear the scanline counter: got %d", m.scanline)
	}
}
