// divu_test.go - DIV32 overflow saturation, the quotient/remainder
// invariant, and the INT32_MIN/-1 boundary case.

package saturn

import (
	"math"
	"testing"
)

// TestDivu32OverflowSaturatesScenario is spec.md section 8 scenario 2:
// DVSR=0, DVDNTL=0x10 (positive), OVFIE clear -> DVDNT/DVDNTL saturate
// to 0x7FFFFFFF and DVCR.OVF is set, with no interrupt raised since
// OVFIE is clear.
func TestDivu32OverflowSaturatesScenario(t *testing.T) {
	raised := false
	d := NewDIVU(func() { raised = true })
	d.DVSR = 0
	d.DVDNTL = 0x10

	d.Calc32()

	if d.DVDNT != 0x7FFFFFFF || d.DVDNTL != 0x7FFFFFFF {
		t.Fatalf("DVDNT/DVDNTL = 0x%X/0x%X, want 0x7FFFFFFF/0x7FFFFFFF", d.DVDNT, d.DVDNTL)
	}
	if d.ReadDVCR()&1 == 0 {
		t.Fatalf("DVCR.OVF not set after the overflow")
	}
	if raised {
		t.Fatalf("IntDIVU must not fire while OVFIE is clear")
	}
}

// TestDivu32OverflowRaisesInterruptWhenEnabled is the same overflow
// with OVFIE set: onOverflow (wired to IntDIVU in ocp.go) must fire.
func TestDivu32OverflowRaisesInterruptWhenEnabled(t *testing.T) {
	raised := false
	d := NewDIVU(func() { raised = true })
	d.DVSR = 0
	d.DVDNTL = 0x10
	d.WriteDVCR(1 << 1) // OVFIE

	d.Calc32()

	if !raised {
		t.Fatalf("expected IntDIVU to fire when OVFIE is set and DVSR=0")
	}
}

// TestDivu32QuotientRemainderInvariant checks
// quotient*DVSR+remainder==dividend across sign combinations, plus
// the remainder's sign (matches the dividend, or zero) and magnitude
// (strictly less than |divisor|) constraints.
func TestDivu32QuotientRemainderInvariant(t *testing.T) {
	cases := []struct{ dividend, divisor int32 }{
		{100, 7}, {-100, 7}, {100, -7}, {-100, -7}, {7, 100}, {0, 5}, {-7, 3},
	}
	for _, tc := range cases {
		d := NewDIVU(nil)
		d.DVSR = uint32(tc.divisor)
		d.DVDNTL = uint32(tc.dividend)
		d.Calc32()

		quot := int32(d.DVDNTL)
		rem := int32(d.DVDNTH)
		if quot*tc.divisor+rem != tc.dividend {
			t.Errorf("%+v: quot*divisor+rem = %d, want %d", tc, quot*tc.divisor+rem, tc.dividend)
		}
		if rem != 0 && (rem < 0) != (tc.dividend < 0) {
			t.Errorf("%+v: remainder sign %d does not match dividend sign", tc, rem)
		}
		absRem, absDivisor := rem, tc.divisor
		if absRem < 0 {
			absRem = -absRem
		}
		if absDivisor < 0 {
			absDivisor = -absDivisor
		}
		if absRem >= absDivisor {
			t.Errorf("%+v: |remainder|=%d >= |divisor|=%d", tc, absRem, absDivisor)
		}
	}
}

// TestDivu32MinIntByNegOneBoundary is spec.md section 8's boundary
// case: INT32_MIN/-1 must yield INT32_MIN without setting the
// overflow flag (the saturating overflow path is for DVSR==0, not for
// this quotient-doesn't-fit case, which the real hardware also
// special-cases rather than flags).
func TestDivu32MinIntByNegOneBoundary(t *testing.T) {
	d := NewDIVU(nil)
	d.DVSR = uint32(int32(-1))
	d.DVDNTL = uint32(int32(math.MinInt32))

	d.Calc32()

	if int32(d.DVDNTL) != math.MinInt32 || int32(d.DVDNT) != math.MinInt32 {
		t.Fatalf("DVDNTL/DVDNT = 0x%X/0x%X, want INT32_MIN", d.DVDNTL, d.DVDNT)
	}
	if d.ovf {
		t.Fatalf("INT32_MIN/-1 must not set the overflow flag")
	}
}
