package segcore

import "testing"

// TestRoundingS5 is spec.md §8 scenario S5.
func TestRoundingS5(t *testing.T) {
	dist := []float32{1.23456, 0.00049}
	roundSlice(3, dist)

	want := []float32{1.235, 0.000}
	for i := range dist {
		if dist[i] != want[i] {
			t.Errorf("dist[%d] = %v, want %v", i, dist[i], want[i])
		}
	}
}

func TestRoundingNoOpAtMinusOne(t *testing.T) {
	dist := []float32{1.23456789, -0.00049}
	orig := append([]float32(nil), dist...)
	roundSlice(-1, dist)
	for i := range dist {
		if dist[i] != orig[i] {
			t.Errorf("round_decimal=-1 should leave distances bit-exact, dist[%d] changed from %v to %v", i, orig[i], dist[i])
		}
	}
}

func TestRoundingIdempotent(t *testing.T) {
	dist := []float32{1.23456, 0.00049, -2.71828}
	roundSlice(3, dist)
	once := append([]float32(nil), dist...)
	roundSlice(3, dist)
	for i := range dist {
		if dist[i] != once[i] {
			t.Errorf("round(round(x)) != round(x) at index %d: %v vs %v", i, dist[i], once[i])
		}
	}
}

func TestRoundingPreservesInfinity(t *testing.T) {
	dist := []float32{L2.Sentinel(), IP.Sentinel()}
	roundSlice(2, dist)
	if dist[0] != L2.Sentinel() || dist[1] != IP.Sentinel() {
		t.Errorf("rounding should leave sentinel infinities untouched, got %v", dist)
	}
}
