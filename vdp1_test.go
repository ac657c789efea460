// vdp1_test.go - untextured polygon fill scenario.

package saturn

import (
	"encoding/binary"
	"testing"
)

func vdp1PutWord(vram []byte, addr uint32, v uint16) {
	binary.BigEndian.PutUint16(vram[addr:], v)
}

// TestVDP1UntexturedPolygonScenario is spec.md section 8 scenario 6: a
// single untextured polygon command spanning (10,10)-(20,20) with
// color 0x1234, followed by an end command. After one command-list
// pass, pixels inside the quad (clipped to the default system clip)
// must be 0x1234 and everything else must be untouched.
func TestVDP1UntexturedPolygonScenario(t *testing.T) {
	v := NewVDP1(nil)

	vdp1PutWord(v.VRAM[:], 0x00, cmdPolygon)
	vdp1PutWord(v.VRAM[:], 0x04, 0) // pmod: no gouraud, no user clip, spd=0
	vdp1PutWord(v.VRAM[:], 0x06, 0x1234)
	vdp1PutWord(v.VRAM[:], 0x0C, 10) // Ax,Ay
	vdp1PutWord(v.VRAM[:], 0x0E, 10)
	vdp1PutWord(v.VRAM[:], 0x10, 20) // Bx,By
	vdp1PutWord(v.VRAM[:], 0x12, 10)
	vdp1PutWord(v.VRAM[:], 0x14, 20) // Cx,Cy
	vdp1PutWord(v.VRAM[:], 0x16, 20)
	vdp1PutWord(v.VRAM[:], 0x18, 10) // Dx,Dy
	vdp1PutWord(v.VRAM[:], 0x1A, 20)
	vdp1PutWord(v.VRAM[:], 0x20, cmdEndFlag)

	const erase = uint16(0x0421)
	fb := v.fb[v.draw]
	for i := 0; i+1 < len(fb.Pix); i += 2 {
		binary.BigEndian.PutUint16(fb.Pix[i:], erase)
	}

	v.ProcessCommandList()

	for y := 0; y < vdp1FBHeight; y++ {
		for x := 0; x < vdp1FBWidth; x++ {
			off := fb.PixOffset(x, y)
			got := binary.BigEndian.Uint16(fb.Pix[off:])
			inside := x >= 10 && x <= 20 && y >= 10 && y <= 20
			switch {
			case inside && got != 0x1234:
				t.Fatalf("pixel (%d,%d) = 0x%X, want the polygon color 0x1234", x, y, got)
			case !inside && got != erase:
				t.Fatalf("pixel (%d,%d) = 0x%X, want the untouched erase color 0x%X", x, y, got, erase)
			}
		}
	}

	if v.ReadEDSR()&1 == 0 {
		t.Fatalf("EDSR.CEF not set after ProcessCommandList completed")
	}
}
