// Package embeddings defines the embedding provider contract used to index
// participant profiles for the semantic similarity signal.
package embeddings

import (
	"context"
	"strings"

	"github.com/confera/matching-service/internal/model"
)

// EmbeddingProvider produces vector representations for text.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProfileText flattens the searchable parts of a participant profile into
// the text that gets embedded.
func ProfileText(p *model.Participant) string {
	var parts []string
	if p.PrimaryIntent != "" {
		parts = append(parts, string(p.PrimaryIntent))
	}
	for _, in := range p.SecondaryIntents {
		parts = append(parts, string(in))
	}
	for _, n := range p.LookingFor {
		parts = append(parts, "looking for "+string(n))
	}
	for _, n := range p.Offering {
		parts = append(parts, "offering "+string(n))
	}
	parts = append(parts, p.Industries...)
	parts = append(parts, p.Tags...)
	return strings.Join(parts, ". ")
}
