// Package vectorindex provides the profile embedding lookup used for the
// semantic compatibility signal. The index stores vectors; cosine similarity
// is computed here, not by the index.
package vectorindex

import (
	"context"
	"math"

	"github.com/confera/matching-service/internal/model"
)

// Index provides vector storage and retrieval for participant profiles.
type Index interface {
	// Vector returns the stored profile embedding for a participant, or
	// model.ErrNotFound when none exists.
	Vector(ctx context.Context, participantID string) ([]float32, error)

	// Upserts (best-effort; driven by the outbox relay).
	UpsertProfile(ctx context.Context, participantID string, vec []float32, payload map[string]interface{}) error

	// DeleteProfile removes a participant's vector on withdrawal.
	DeleteProfile(ctx context.Context, participantID string) error
}

// HealthPinger is optionally implemented by an Index to expose specialized
// health check logic. Returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// Cosine computes cosine similarity between two vectors, clamped to [0,1]:
// a negative cosine is treated as no similarity. Mismatched or empty vectors
// score zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}

// SemanticSource adapts an Index to the scorer's semantic input: it fetches
// both vectors and computes cosine similarity. A missing vector is similarity
// zero, not an error.
type SemanticSource struct {
	idx Index
}

// NewSemanticSource wraps idx. A nil idx yields a source that always
// reports zero.
func NewSemanticSource(idx Index) *SemanticSource {
	return &SemanticSource{idx: idx}
}

func (s *SemanticSource) Similarity(ctx context.Context, a, b string) (float64, error) {
	if s.idx == nil {
		return 0, nil
	}
	va, err := s.idx.Vector(ctx, a)
	if err != nil {
		if model.IsNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}
	vb, err := s.idx.Vector(ctx, b)
	if err != nil {
		if model.IsNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}
	return Cosine(va, vb), nil
}
