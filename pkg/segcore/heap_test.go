package segcore

import "testing"

func TestHeapifyAndReplaceTopAscending(t *testing.T) {
	dist := []float32{L2.Sentinel(), L2.Sentinel(), L2.Sentinel()}
	id := []int64{SentinelID, SentinelID, SentinelID}
	heapify(AscendingBetter, dist, id)

	candidates := []struct {
		d  float32
		id int64
	}{
		{4.0, 10}, {1.0, 11}, {9.0, 12}, {2.0, 13},
	}
	for _, c := range candidates {
		topD, _ := top(dist, id)
		if !worse(AscendingBetter, c.d, topD) {
			replaceTop(AscendingBetter, dist, id, c.d, c.id)
		}
	}

	n := reorder(AscendingBetter, L2, dist, id)
	if n != 3 {
		t.Fatalf("non-sentinel count = %d, want 3", n)
	}
	wantDist := []float32{1.0, 2.0, 4.0}
	wantID := []int64{11, 13, 10}
	for i := range dist {
		if dist[i] != wantDist[i] || id[i] != wantID[i] {
			t.Errorf("slot %d = (%v,%v), want (%v,%v)", i, dist[i], id[i], wantDist[i], wantID[i])
		}
	}
}

func TestReorderTieBreakSmallerID(t *testing.T) {
	dist := []float32{5.0, 5.0, 3.0}
	id := []int64{9, 2, 7}
	n := reorder(AscendingBetter, L2, dist, id)
	if n != 3 {
		t.Fatalf("non-sentinel count = %d, want 3", n)
	}
	wantID := []int64{7, 2, 9}
	for i := range id {
		if id[i] != wantID[i] {
			t.Errorf("slot %d id = %d, want %d", i, id[i], wantID[i])
		}
	}
}

func TestReorderSentinelsLast(t *testing.T) {
	dist := []float32{L2.Sentinel(), 3.0, L2.Sentinel()}
	id := []int64{SentinelID, 5, SentinelID}
	n := reorder(AscendingBetter, L2, dist, id)
	if n != 1 {
		t.Fatalf("non-sentinel count = %d, want 1", n)
	}
	if dist[0] != 3.0 || id[0] != 5 {
		t.Fatalf("first slot = (%v,%v), want (3, 5)", dist[0], id[0])
	}
	if id[1] != SentinelID || id[2] != SentinelID {
		t.Fatalf("trailing slots should be sentinel, got ids %v", id)
	}
}

func TestReorderDescending(t *testing.T) {
	dist := []float32{0.1, 0.9, 0.5}
	id := []int64{1, 2, 3}
	n := reorder(DescendingBetter, IP, dist, id)
	if n != 3 {
		t.Fatalf("non-sentinel count = %d, want 3", n)
	}
	wantDist := []float32{0.9, 0.5, 0.1}
	for i := range dist {
		if dist[i] != wantDist[i] {
			t.Errorf("slot %d = %v, want %v", i, dist[i], wantDist[i])
		}
	}
}

func TestInsertionSort(t *testing.T) {
	s := []int{5, 3, 4, 1, 2}
	insertionSort(s, func(a, b int) bool { return a < b })
	want := []int{1, 2, 3, 4, 5}
	for i := range s {
		if s[i] != want[i] {
			t.Errorf("insertionSort result[%d] = %d, want %d", i, s[i], want[i])
		}
	}
}
