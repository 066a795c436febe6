package segcore

import (
	"math"
	"testing"
)

func TestMetricOrder(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		want   Order
	}{
		{"L2 ascending", L2, AscendingBetter},
		{"Hamming ascending", Hamming, AscendingBetter},
		{"Jaccard ascending", Jaccard, AscendingBetter},
		{"Tanimoto ascending", Tanimoto, AscendingBetter},
		{"IP descending", IP, DescendingBetter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.metric.Order(); got != tt.want {
				t.Errorf("Order() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetricSentinel(t *testing.T) {
	if s := L2.Sentinel(); !math.IsInf(float64(s), 1) {
		t.Errorf("L2 sentinel = %v, want +Inf", s)
	}
	if s := IP.Sentinel(); !math.IsInf(float64(s), -1) {
		t.Errorf("IP sentinel = %v, want -Inf", s)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		name string
		want Metric
		ok   bool
	}{
		{"L2", L2, true},
		{"IP", IP, true},
		{"HAMMING", Hamming, true},
		{"JACCARD", Jaccard, true},
		{"TANIMOTO", Tanimoto, true},
		{"COSINE", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMetric(tt.name)
			if ok != tt.ok {
				t.Fatalf("ParseMetric(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseMetric(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestSquareBoundsForL2(t *testing.T) {
	low, high := L2.SquareBoundsForL2(1.0, 3.0)
	if low != 1.0 || high != 9.0 {
		t.Errorf("L2 SquareBoundsForL2(1,3) = (%v,%v), want (1,9)", low, high)
	}
	low, high = IP.SquareBoundsForL2(0.2, 0.9)
	if low != 0.2 || high != 0.9 {
		t.Errorf("IP SquareBoundsForL2 should pass through unchanged, got (%v,%v)", low, high)
	}
}

func TestDistanceL2IsSquared(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	if got := Distance(L2, a, b); got != 25.0 {
		t.Errorf("Distance(L2) = %v, want 25 (squared, not 5)", got)
	}
}

func TestDistanceIP(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{1, 2, 3}
	if got := Distance(IP, a, b); got != 14.0 {
		t.Errorf("Distance(IP) = %v, want 14", got)
	}
}

func TestBinaryDistanceBytes(t *testing.T) {
	a := []byte{0b1111_0000}
	b := []byte{0b1100_0000}

	if got := BinaryDistanceBytes(Hamming, a, b); got != 2 {
		t.Errorf("Hamming = %v, want 2", got)
	}

	// AND = 0b1100_0000 (2 bits), OR = 0b1111_0000 (4 bits) => jaccard dist = 1 - 2/4 = 0.5
	if got := BinaryDistanceBytes(Jaccard, a, b); got != 0.5 {
		t.Errorf("Jaccard = %v, want 0.5", got)
	}
}

func TestBinaryDistanceBytesIdentical(t *testing.T) {
	a := []byte{0b1010_1010}
	if got := BinaryDistanceBytes(Jaccard, a, a); got != 0 {
		t.Errorf("Jaccard(a,a) = %v, want 0", got)
	}
	if got := BinaryDistanceBytes(Tanimoto, a, a); got != 0 {
		t.Errorf("Tanimoto(a,a) = %v, want 0", got)
	}
}
