package compat

import "github.com/confera/matching-service/internal/model"

// Signal weights, fixed. They sum to 1.0.
const (
	WeightComplementary = 0.40
	WeightIntent        = 0.25
	WeightIndustry      = 0.15
	WeightTags          = 0.10
	WeightSemantic      = 0.10
)

// MutualComplementarityBonus is added to the complementary sub-score when
// both directions are non-zero, capped at 1.0.
const MutualComplementarityBonus = 0.1

// MinMatchScore is the proposal threshold for the match lifecycle.
const MinMatchScore = 0.65

// MaxMatchesPerUser caps how many proposals a single participant receives
// per event.
const MaxMatchesPerUser = 10

// Reason emission thresholds on each sub-score.
const (
	reasonComplementaryThreshold = 0.5
	reasonIntentThreshold        = 0.5
	reasonIndustryThreshold      = 0.3
	reasonTagsThreshold          = 0.3
	reasonSemanticThreshold      = 0.6
)

// needCompatibility maps a needed role to the offered roles that satisfy it,
// with a weight in [0,1]. Absent entries score zero.
var needCompatibility = map[model.Need]map[model.Need]float64{
	model.NeedFunding: {
		model.NeedFunding:       1.0,
		model.NeedIntroductions: 0.5,
		model.NeedAdvice:        0.3,
	},
	model.NeedExpertise: {
		model.NeedExpertise:  1.0,
		model.NeedMentorship: 0.7,
		model.NeedAdvice:     0.6,
	},
	model.NeedCofounder: {
		model.NeedCofounder: 1.0,
		model.NeedTalent:    0.6,
		model.NeedExpertise: 0.5,
	},
	model.NeedTalent: {
		model.NeedTalent:        1.0,
		model.NeedIntroductions: 0.4,
	},
	model.NeedCustomers: {
		model.NeedCustomers:     1.0,
		model.NeedIntroductions: 0.6,
		model.NeedPartnership:   0.5,
	},
	model.NeedAdvice: {
		model.NeedAdvice:     1.0,
		model.NeedMentorship: 0.8,
		model.NeedExpertise:  0.6,
	},
	model.NeedIntroductions: {
		model.NeedIntroductions: 1.0,
		model.NeedAdvice:        0.4,
	},
	model.NeedMentorship: {
		model.NeedMentorship: 1.0,
		model.NeedAdvice:     0.7,
		model.NeedExpertise:  0.6,
	},
	model.NeedPartnership: {
		model.NeedPartnership: 1.0,
		model.NeedCustomers:   0.5,
		model.NeedIntroductions: 0.4,
	},
}

// intentCompatibility is intentionally asymmetric; lookups take the maximum
// of the forward and reverse direction.
var intentCompatibility = map[model.Intent]map[model.Intent]float64{
	model.IntentInvestment: {
		model.IntentMentorship:  1.0,
		model.IntentPartnership: 0.6,
		model.IntentNetworking:  0.5,
		model.IntentSales:       0.3,
	},
	model.IntentMentorship: {
		model.IntentLearning:   0.9,
		model.IntentJobSeeking: 0.5,
		model.IntentNetworking: 0.5,
	},
	model.IntentHiring: {
		model.IntentJobSeeking: 1.0,
		model.IntentNetworking: 0.4,
	},
	model.IntentJobSeeking: {
		model.IntentHiring:     1.0,
		model.IntentMentorship: 0.6,
	},
	model.IntentPartnership: {
		model.IntentPartnership: 0.9,
		model.IntentInvestment:  0.6,
		model.IntentSales:       0.5,
	},
	model.IntentSales: {
		model.IntentPartnership: 0.5,
		model.IntentNetworking:  0.4,
	},
	model.IntentLearning: {
		model.IntentMentorship: 0.9,
		model.IntentNetworking: 0.5,
	},
	model.IntentNetworking: {
		model.IntentNetworking: 0.6,
		model.IntentLearning:   0.4,
	},
}
