// monitor.go - interactive raw-terminal monitor for saturncore.
//
// Grounded on terminal_host.go's raw-mode-stdin read loop: term.MakeRaw
// puts stdin into character-at-a-time mode so single keypresses drive
// the monitor without waiting on Enter, and term.Restore on Stop
// leaves the caller's terminal exactly as it found it.

package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"

	saturn "github.com/saturnsh2/satcore"
)

// Monitor drives a Machine from a raw-mode terminal: single-letter
// commands step one scanline or one frame, dump the master CPU's
// registers, or copy them to the clipboard for a bug report.
type Monitor struct {
	m        *saturn.Machine
	fd       int
	oldState *term.State
}

func NewMonitor(m *saturn.Machine) *Monitor {
	return &Monitor{m: m, fd: int(os.Stdin.Fd())}
}

func (mon *Monitor) Run() error {
	oldState, err := term.MakeRaw(mon.fd)
	if err != nil {
		return fmt.Errorf("monitor: failed to set raw mode: %w", err)
	}
	mon.oldState = oldState
	defer mon.Stop()

	fmt.Fprint(os.Stdout, "saturncore monitor -- s=step scanline, f=step frame, r=registers, c=copy registers, q=quit\r\n")
	reader := bufio.NewReader(os.Stdin)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case 's':
			mon.m.AdvanceScanline()
			fmt.Fprint(os.Stdout, "scanline stepped\r\n")
		case 'f':
			mon.m.RunFrame()
			fmt.Fprint(os.Stdout, "frame stepped\r\n")
		case 'r':
			mon.printRegisters()
		case 'c':
			if err := mon.m.Master.Probe().CopyStateToClipboard(); err != nil {
				fmt.Fprintf(os.Stdout, "clipboard copy failed: %v\r\n", err)
			} else {
				fmt.Fprint(os.Stdout, "registers copied to clipboard\r\n")
			}
		case 'q', 0x03: // q or Ctrl-C
			return nil
		}
	}
}

// Stop restores the terminal to whatever mode it was in before Run.
// Safe to call more than once.
func (mon *Monitor) Stop() {
	if mon.oldState != nil {
		_ = term.Restore(mon.fd, mon.oldState)
		mon.oldState = nil
	}
}

func (mon *Monitor) printRegisters() {
	p := mon.m.Master.Probe()
	fmt.Fprintf(os.Stdout, "PC=0x%08X PR=0x%08X SR=0x%08X\r\n", p.PC(), mon.regOr0(p, "PR"), mon.regOr0(p, "SR"))
	for i := 0; i < 16; i += 4 {
		fmt.Fprintf(os.Stdout, "R%-2d=0x%08X R%-2d=0x%08X R%-2d=0x%08X R%-2d=0x%08X\r\n",
			i, mon.regOr0(p, regName(i)),
			i+1, mon.regOr0(p, regName(i+1)),
			i+2, mon.regOr0(p, regName(i+2)),
			i+3, mon.regOr0(p, regName(i+3)))
	}
}

func (mon *Monitor) regOr0(p *saturn.Probe, name string) uint32 {
	v, _ := p.GetRegister(name)
	return v
}

func regName(i int) string {
	return fmt.Sprintf("R%d", i)
}
