// Package compat computes pairwise compatibility between participants from
// five weighted signals and builds the dense score matrix consumed by the
// match and clustering engines.
package compat

import (
	"math"
	"strings"

	"github.com/confera/matching-service/internal/model"
)

// Score computes the symmetric compatibility score between two participants.
// semantic is an externally supplied similarity in [0,1]; callers pass 0
// when the vector lookup failed or no vector exists.
func Score(a, b *model.Participant, semantic float64) model.CompatibilityScore {
	bd := model.ScoreBreakdown{
		Complementary: complementaryScore(a, b),
		Intent:        intentScore(a.PrimaryIntent, b.PrimaryIntent),
		Industry:      jaccard(a.Industries, b.Industries),
		Tags:          jaccard(a.Tags, b.Tags),
		Semantic:      clamp01(semantic),
	}

	total := WeightComplementary*bd.Complementary +
		WeightIntent*bd.Intent +
		WeightIndustry*bd.Industry +
		WeightTags*bd.Tags +
		WeightSemantic*bd.Semantic

	return model.CompatibilityScore{
		Total:     round2(total),
		Breakdown: bd,
		Reasons:   reasons(bd),
	}
}

// complementaryScore averages the weighted lookup table over both directions
// and adds the mutual bonus when each side satisfies the other.
func complementaryScore(a, b *model.Participant) float64 {
	ab := directionalNeeds(a.LookingFor, b.Offering)
	ba := directionalNeeds(b.LookingFor, a.Offering)

	score := (ab + ba) / 2
	if ab > 0 && ba > 0 {
		score += MutualComplementarityBonus
	}
	return clamp01(score)
}

// directionalNeeds scores how well offering satisfies lookingFor: the sum of
// table weights over all (needed, offered) combinations divided by the
// number of combinations. Zero when either set is empty.
func directionalNeeds(lookingFor, offering []model.Need) float64 {
	if len(lookingFor) == 0 || len(offering) == 0 {
		return 0
	}
	var sum float64
	for _, need := range lookingFor {
		satisfiers := needCompatibility[need]
		for _, offer := range offering {
			sum += satisfiers[offer]
		}
	}
	return sum / float64(len(lookingFor)*len(offering))
}

// intentScore takes the maximum of the forward and reverse table lookup,
// since the table is intentionally asymmetric. Zero when either is unset.
func intentScore(a, b model.Intent) float64 {
	if a == "" || b == "" {
		return 0
	}
	return math.Max(intentCompatibility[a][b], intentCompatibility[b][a])
}

// jaccard is the case-insensitive Jaccard similarity of two string sets.
// Zero when either set is empty.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, v := range a {
		setA[strings.ToLower(strings.TrimSpace(v))] = true
	}
	setB := make(map[string]bool, len(b))
	for _, v := range b {
		setB[strings.ToLower(strings.TrimSpace(v))] = true
	}
	var inter int
	for v := range setA {
		if setB[v] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// reasons derives the descriptive reason list from fixed thresholds, ordered
// by signal weight. Purely cosmetic, no effect on control flow.
func reasons(bd model.ScoreBreakdown) []string {
	var out []string
	if bd.Complementary > reasonComplementaryThreshold {
		out = append(out, "complementary needs")
	}
	if bd.Intent > reasonIntentThreshold {
		out = append(out, "aligned intents")
	}
	if bd.Industry > reasonIndustryThreshold {
		out = append(out, "shared industry")
	}
	if bd.Tags > reasonTagsThreshold {
		out = append(out, "shared interests")
	}
	if bd.Semantic > reasonSemanticThreshold {
		out = append(out, "similar profiles")
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
