// vdp.go - [VDP] video pipeline top level.
//
// Ties VDP1, VDP2 and the event queue together behind a single worker
// goroutine, grounded on video_chip.go's Start/Stop/refreshLoop triad
// (enabled flag behind a lock, a done-channel-driven loop, frame
// hand-off through a callback) adapted from a ticker-driven refresh to
// an event-driven one, since spec.md section 4.5.3 names the event
// stream rather than a fixed-rate ticker as VDP2's drive mechanism.
package saturn

import (
	"image"
	"image/color"
)

// VDP owns VDP1, VDP2 and the single consumer goroutine that drains
// their event queue. VRAM/CRAM/register writes reach VDP1/VDP2
// synchronously from the CPU thread through bus_map.go's mutex-guarded
// accessors (spec.md section 6's "registers read back by the CPU"
// applies just as much to VRAM, which real software reads back after
// writing); only the rendering and lifecycle events below (draw line,
// end frame, swap, reset) are queue-ordered through the worker.
type VDP struct {
	VDP1 *VDP1
	VDP2 *VDP2

	queue *vdpEventQueue
	stop  func() error

	frame         *image.RGBA
	frameCallback func(*image.RGBA)

	width, height int
}

func NewVDP(frameCallback func(*image.RGBA)) *VDP {
	v := &VDP{
		queue:         newVDPEventQueue(),
		frameCallback: frameCallback,
		width:         vdp2MaxWidth,
		height:        vdp2MaxHeight,
	}
	v.VDP2 = NewVDP2()
	v.VDP1 = NewVDP1(v.readCRAMWord)
	v.VDP1.onExternalInterrupt = func() { v.queue.post(VDPEvent{Kind: VDPEndFrame}) }
	v.frame = image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	return v
}

func (v *VDP) readCRAMWord(addr uint32) uint16 {
	return v.VDP2.ReadCRAMWord(addr)
}

// SetExternalInterruptHandler installs the callback driven whenever
// VDP1 finishes a command-list pass, standing in for the out-of-scope
// SCU interrupt bridge (spec.md section 1). VDP2 raises no external
// interrupt.
func (v *VDP) SetExternalInterruptHandler(fn func()) {
	prev := v.VDP1.onExternalInterrupt
	v.VDP1.onExternalInterrupt = func() {
		if prev != nil {
			prev()
		}
		if fn != nil {
			fn()
		}
	}
}

// Start launches the worker goroutine. Callers drive rendering by
// posting events (PostDrawLine, PostEndFrame, ...); Start only brings
// the consumer online.
func (v *VDP) Start() error {
	v.stop = v.queue.startWorker(v.handleEvent)
	return nil
}

// Stop signals shutdown and joins the worker.
func (v *VDP) Stop() error {
	if v.stop == nil {
		return nil
	}
	err := v.stop()
	v.stop = nil
	return err
}

func (v *VDP) PostVDP1Erase()            { v.queue.post(VDPEvent{Kind: VDPVDP1Erase}) }
func (v *VDP) PostVDP1Swap()             { v.queue.post(VDPEvent{Kind: VDPVDP1Swap}) }
func (v *VDP) PostVDP1BeginFrame()       { v.queue.post(VDPEvent{Kind: VDPVDP1BeginFrame}) }
func (v *VDP) PostDrawLine(y int)        { v.queue.post(VDPEvent{Kind: VDPDrawLine, Line: y}) }
func (v *VDP) PostEndFrame()             { v.queue.post(VDPEvent{Kind: VDPEndFrame}) }
func (v *VDP) PostOddField(odd bool)     { v.queue.post(VDPEvent{Kind: VDPOddField, Flag: odd}) }
func (v *VDP) PostReset()                { v.queue.post(VDPEvent{Kind: VDPReset}) }

func (v *VDP) WaitRenderFinished() { v.queue.waitRenderFinished() }
func (v *VDP) WaitBufferSwapped()  { v.queue.waitBufferSwapped() }

// handleEvent runs exclusively on the worker goroutine.
func (v *VDP) handleEvent(ev VDPEvent) {
	switch ev.Kind {
	case VDPReset:
		v.VDP1.Reset(true)
		v.VDP2.Reset(true)
	case VDPOddField:
		// Field parity only affects interlaced scanline addressing in
		// the frontend's presentation layer, which is out of scope
		// here (spec.md section 1): recorded for completeness, acted
		// on by nothing in this core.
	case VDPVDP1Erase:
		v.VDP1.EraseDisplay()
	case VDPVDP1Swap:
		v.VDP1.Swap()
		v.VDP2.SetVDP1Framebuffer(v.VDP1.DisplayFramebuffer())
		v.queue.signalBufferSwapped()
	case VDPVDP1BeginFrame:
		v.VDP1.ProcessCommandList()
	case VDPDrawLine:
		v.drawLine(ev.Line)
	case VDPEndFrame:
		if v.frameCallback != nil {
			v.frameCallback(v.frame)
		}
		v.queue.signalRenderFinished()
	case VDPPreSave, VDPPostLoad:
		// Save-state framing is an out-of-scope external collaborator
		// (spec.md section 1); these events exist only so a future
		// frontend has a queue-ordered sync point to hook.
	case VDPShutdown:
	}
}

// handlePTMRWrite implements PTMR's three modes, recovered from
// original_source/ (spec.md section 6 lists PTMR but not its mode
// semantics): a write of 1 (plot-trigger) or 2 (frame-change) runs
// the command list once, now; 0 (idle) and 3 start nothing. The
// command list also runs at every VBlank (machine.go's
// AdvanceScanline) whatever PTMR holds, so mode 0 does not stop
// drawing.
func (v *VDP) handlePTMRWrite(val uint16) {
	switch val & 0x3 {
	case 1, 2:
		v.queue.post(VDPEvent{Kind: VDPVDP1BeginFrame})
	}
}

// drawLine composes one VDP2 scanline and writes it into the output
// frame as opaque RGB555-decoded RGBA, the presentation-layer decode
// spec.md section 9 asks boundary types to perform once, at the edge.
func (v *VDP) drawLine(y int) {
	if y < 0 || y >= v.height {
		return
	}
	line := make([]uint16, v.width)
	v.VDP2.RenderLine(y, line)
	for x, packed := range line {
		v.frame.SetRGBA(x, y, decodeRGB555(packed))
	}
}

func decodeRGB555(packed uint16) color.RGBA {
	r := uint8(packed&0x1F) << 3
	g := uint8((packed>>5)&0x1F) << 3
	b := uint8((packed>>10)&0x1F) << 3
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
