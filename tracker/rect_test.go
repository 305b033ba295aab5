package tracker

import (
	"math"
	"testing"
)

// almostEqual checks if two float32 values are approximately equal
func almostEqual(a, b, tolerance float32) bool {
	return float32(math.Abs(float64(a)-float64(b))) <= tolerance
}

func TestCalcIoU(t *testing.T) {

	const tolerance = 1e-5

	a := NewRect(0, 0, 100, 100)
	b := NewRect(50, 0, 100, 100)
	c := NewRect(200, 200, 50, 50)
	zero := NewRect(10, 10, 0, 0)

	t.Run("identical boxes", func(t *testing.T) {
		if iou := a.CalcIoU(a); !almostEqual(iou, 1.0, tolerance) {
			t.Errorf("expected IoU of 1.0, got %f", iou)
		}
	})

	t.Run("disjoint boxes", func(t *testing.T) {
		if iou := a.CalcIoU(c); iou != 0 {
			t.Errorf("expected IoU of 0, got %f", iou)
		}
	})

	t.Run("partial overlap", func(t *testing.T) {
		// intersection is 50x100=5000, union is 2*10000-5000=15000
		if iou := a.CalcIoU(b); !almostEqual(iou, 1.0/3.0, tolerance) {
			t.Errorf("expected IoU of 1/3, got %f", iou)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		if ab, ba := a.CalcIoU(b), b.CalcIoU(a); !almostEqual(ab, ba, tolerance) {
			t.Errorf("expected symmetric IoU, got %f and %f", ab, ba)
		}
	})

	t.Run("zero union area", func(t *testing.T) {
		if iou := zero.CalcIoU(zero); iou != 0 {
			t.Errorf("expected IoU of 0 for empty union, got %f", iou)
		}
	})

	t.Run("bounded", func(t *testing.T) {
		boxes := []Rect{a, b, c, zero}
		for _, r1 := range boxes {
			for _, r2 := range boxes {
				if iou := r1.CalcIoU(r2); iou < 0 || iou > 1 {
					t.Errorf("IoU %f outside of [0,1]", iou)
				}
			}
		}
	})
}

func TestRectConversions(t *testing.T) {

	const tolerance = 1e-5

	r := NewRect(10, 20, 30, 40)

	tlbr := r.GetTlbr()
	expectedTlbr := Tlbr{10, 20, 40, 60}

	for i := range tlbr {
		if !almostEqual(tlbr[i], expectedTlbr[i], tolerance) {
			t.Errorf("expected tlbr %v, got %v", expectedTlbr, tlbr)
			break
		}
	}

	xywh := r.GetXywh()
	expectedXywh := Xywh{25, 40, 30, 40}

	for i := range xywh {
		if !almostEqual(xywh[i], expectedXywh[i], tolerance) {
			t.Errorf("expected xywh %v, got %v", expectedXywh, xywh)
			break
		}
	}

	// conversion back must reproduce the original rectangle
	fromTlbr := GenerateRectByTlbr(tlbr)
	fromXywh := GenerateRectByXywh(xywh)

	for i := range r.Tlwh {
		if !almostEqual(fromTlbr.Tlwh[i], r.Tlwh[i], tolerance) {
			t.Errorf("tlbr round trip failed, expected %v, got %v", r, fromTlbr)
			break
		}

		if !almostEqual(fromXywh.Tlwh[i], r.Tlwh[i], tolerance) {
			t.Errorf("xywh round trip failed, expected %v, got %v", r, fromXywh)
			break
		}
	}
}

func TestRectIsFinite(t *testing.T) {

	finite := NewRect(0, 0, 10, 10)

	if !finite.IsFinite() {
		t.Errorf("expected rect %v to be finite", finite)
	}

	nan := NewRect(float32(math.NaN()), 0, 10, 10)

	if nan.IsFinite() {
		t.Errorf("expected rect with NaN coordinate to be non-finite")
	}

	inf := NewRect(0, 0, float32(math.Inf(1)), 10)

	if inf.IsFinite() {
		t.Errorf("expected rect with Inf coordinate to be non-finite")
	}
}
