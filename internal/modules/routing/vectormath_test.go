package routing

import (
	"errors"
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	v := []float32{0.5, 0.25, 0.8}
	neg := []float32{-0.5, -0.25, -0.8}

	got, err := Cosine(v, v)
	if err != nil {
		t.Fatalf("Cosine(v, v): %v", err)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("Cosine(v, v) = %v, want 1", got)
	}

	got, err = Cosine(v, neg)
	if err != nil {
		t.Fatalf("Cosine(v, -v): %v", err)
	}
	if math.Abs(got+1) > 1e-9 {
		t.Errorf("Cosine(v, -v) = %v, want -1", got)
	}

	w := []float32{0.1, 0.9, 0.3}
	ab, _ := Cosine(v, w)
	ba, _ := Cosine(w, v)
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("Cosine not symmetric: %v vs %v", ab, ba)
	}
}

func TestCosineZeroMagnitude(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}
	got, err := Cosine(zero, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("Cosine(zero, v) = %v, want 0", got)
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestDriftActionFor(t *testing.T) {
	const stay, newCluster = 0.47, 0.20

	tests := []struct {
		name string
		sim  float64
		want string
	}{
		{"above stay", 0.48, DriftActionStay},
		{"exactly stay goes lower", 0.47, DriftActionBranchSameCluster},
		{"between thresholds", 0.30, DriftActionBranchSameCluster},
		{"exactly new cluster goes lower", 0.20, DriftActionBranchNewCluster},
		{"below new cluster", 0.10, DriftActionBranchNewCluster},
		{"negative", -0.5, DriftActionBranchNewCluster},
		{"perfect match", 1.0, DriftActionStay},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DriftActionFor(tc.sim, stay, newCluster); got != tc.want {
				t.Errorf("DriftActionFor(%v) = %q, want %q", tc.sim, got, tc.want)
			}
		})
	}
}

func TestUpdateCentroidEmptyOld(t *testing.T) {
	e := []float32{0.1, 0.2, 0.3}
	got := UpdateCentroid(nil, e, 1, RoleUser)
	for i := range e {
		if got[i] != e[i] {
			t.Fatalf("empty centroid should adopt embedding, got %v", got)
		}
	}
	// must be a copy, not an alias
	got[0] = 99
	if e[0] == 99 {
		t.Error("UpdateCentroid aliased the input embedding")
	}
}

func TestUpdateCentroidAssistantMean(t *testing.T) {
	// With weight 1 and count 2 the formula reduces to the plain mean.
	old := []float32{0, 0}
	e := []float32{1, 1}
	got := UpdateCentroid(old, e, 2, RoleAssistant)
	for i := range got {
		if math.Abs(float64(got[i])-0.5) > 1e-6 {
			t.Fatalf("expected mean 0.5 at index %d, got %v", i, got[i])
		}
	}
}

func TestUpdateCentroidUserWeight(t *testing.T) {
	// old + w*(new-old)/(count+w-1) with w=3, count=2 → old + 3/4*(new-old)
	old := []float32{0, 0}
	e := []float32{1, 1}
	got := UpdateCentroid(old, e, 2, RoleUser)
	for i := range got {
		if math.Abs(float64(got[i])-0.75) > 1e-6 {
			t.Fatalf("expected 0.75 at index %d, got %v", i, got[i])
		}
	}
}
