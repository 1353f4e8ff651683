package routing

import (
	"errors"
	"math"
)

// ErrDimensionMismatch is returned by Cosine when the two vectors do not
// share a dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Cosine computes cosine similarity over float32 vectors in float64
// precision. Zero-magnitude vectors yield 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / math.Sqrt(normA*normB), nil
}

// DriftActionFor buckets a similarity score against the stay / new-cluster
// thresholds. Boundaries are strict: equality falls into the lower bucket.
func DriftActionFor(sim, stayThreshold, newClusterThreshold float64) string {
	switch {
	case sim > stayThreshold:
		return DriftActionStay
	case sim > newClusterThreshold:
		return DriftActionBranchSameCluster
	default:
		return DriftActionBranchNewCluster
	}
}

// UpdateCentroid folds a new embedding into a branch centroid as a
// role-weighted running average. messageCount is the branch's message count
// after the new message has been inserted. User turns carry triple the
// weight of assistant turns so the centroid tracks what the user is talking
// about rather than how the assistant elaborates.
func UpdateCentroid(old, embedding []float32, messageCount int64, role string) []float32 {
	if len(old) == 0 {
		out := make([]float32, len(embedding))
		copy(out, embedding)
		return out
	}
	w := AssistantCentroidWeight
	if role == RoleUser {
		w = UserCentroidWeight
	}
	denom := float64(messageCount) + w - 1
	if denom <= 0 {
		denom = 1
	}
	out := make([]float32, len(old))
	for i := range old {
		o := float64(old[i])
		n := float64(0)
		if i < len(embedding) {
			n = float64(embedding[i])
		}
		out[i] = float32(o + w*(n-o)/denom)
	}
	return out
}
