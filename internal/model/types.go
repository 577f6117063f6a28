package model

import (
	"fmt"
	"strings"
	"time"
)

// VisibilityMode controls who may observe a participant's presence at an event.
type VisibilityMode string

const (
	VisibilityPublic      VisibilityMode = "public"
	VisibilityFriendsOnly VisibilityMode = "friends_only"
	VisibilityPrivate     VisibilityMode = "private"
	VisibilityGhost       VisibilityMode = "ghost"
)

// Known reports whether m is one of the defined visibility modes.
// Unknown modes are treated as private by the gate (fail closed).
func (m VisibilityMode) Known() bool {
	switch m {
	case VisibilityPublic, VisibilityFriendsOnly, VisibilityPrivate, VisibilityGhost:
		return true
	}
	return false
}

// Intent is a participant's declared reason for attending.
type Intent string

const (
	IntentNetworking  Intent = "networking"
	IntentInvestment  Intent = "investment"
	IntentMentorship  Intent = "mentorship"
	IntentHiring      Intent = "hiring"
	IntentJobSeeking  Intent = "job_seeking"
	IntentPartnership Intent = "partnership"
	IntentSales       Intent = "sales"
	IntentLearning    Intent = "learning"
)

// Need names something a participant is looking for or offering.
// The same vocabulary is used on both sides of the complementarity table.
type Need string

const (
	NeedFunding       Need = "funding"
	NeedExpertise     Need = "expertise"
	NeedCofounder     Need = "cofounder"
	NeedTalent        Need = "talent"
	NeedCustomers     Need = "customers"
	NeedAdvice        Need = "advice"
	NeedIntroductions Need = "introductions"
	NeedMentorship    Need = "mentorship"
	NeedPartnership   Need = "partnership"
)

// Participant is one attendee of an event, as seen by the matching core.
type Participant struct {
	ParticipantID    string         `json:"participantId"`
	EventID          string         `json:"eventId"`
	DisplayName      string         `json:"displayName"`
	PrimaryIntent    Intent         `json:"primaryIntent,omitempty"`
	SecondaryIntents []Intent       `json:"secondaryIntents,omitempty"`
	LookingFor       []Need         `json:"lookingFor,omitempty"`
	Offering         []Need         `json:"offering,omitempty"`
	Industries       []string       `json:"industries,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
	Visibility       VisibilityMode `json:"visibility"`
	CreationTime     time.Time      `json:"creationTime"`
	LastUpdateTime   *time.Time     `json:"lastUpdateTime,omitempty"`
}

// Intents returns the primary intent followed by secondaries, skipping unset.
func (p *Participant) Intents() []Intent {
	var out []Intent
	if p.PrimaryIntent != "" {
		out = append(out, p.PrimaryIntent)
	}
	out = append(out, p.SecondaryIntents...)
	return out
}

// ScoreBreakdown holds the five weighted sub-scores, each in [0,1].
type ScoreBreakdown struct {
	Complementary float64 `json:"complementary"`
	Intent        float64 `json:"intent"`
	Industry      float64 `json:"industry"`
	Tags          float64 `json:"tags"`
	Semantic      float64 `json:"semantic"`
}

// CompatibilityScore is the derived pairwise score. It is computed on demand
// and never persisted as its own record.
type CompatibilityScore struct {
	Total     float64        `json:"total"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Reasons   []string       `json:"reasons,omitempty"`
}

// MatchStatus is the lifecycle state of a match. Accepted, Declined and
// Expired are terminal.
type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchAccepted MatchStatus = "accepted"
	MatchDeclined MatchStatus = "declined"
	MatchExpired  MatchStatus = "expired"
)

// Terminal reports whether no further transition may leave s.
func (s MatchStatus) Terminal() bool {
	return s == MatchAccepted || s == MatchDeclined || s == MatchExpired
}

// Match records a proposed pairing of two participants at one event.
// ParticipantA < ParticipantB lexicographically; PairKey is the dedup key.
type Match struct {
	MatchID        string      `json:"matchId"`
	EventID        string      `json:"eventId"`
	ParticipantA   string      `json:"participantA"`
	ParticipantB   string      `json:"participantB"`
	PairKey        string      `json:"pairKey"`
	Score          float64     `json:"score"`
	Reasons        []string    `json:"reasons,omitempty"`
	AcceptedA      bool        `json:"acceptedA"`
	AcceptedB      bool        `json:"acceptedB"`
	Status         MatchStatus `json:"status"`
	CreationTime   time.Time   `json:"creationTime"`
	AcceptanceTime *time.Time  `json:"acceptanceTime,omitempty"`
	ExpiresAt      time.Time   `json:"expiresAt"`
}

// Involves reports whether participantID is one side of the match.
func (m *Match) Involves(participantID string) bool {
	return m.ParticipantA == participantID || m.ParticipantB == participantID
}

// Counterpart returns the other side of the match relative to participantID.
func (m *Match) Counterpart(participantID string) string {
	if m.ParticipantA == participantID {
		return m.ParticipantB
	}
	return m.ParticipantA
}

// PairKey builds the canonical sorted-id dedup key for an unordered pair.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// SortPair orders an unordered pair into canonical (A, B) form.
func SortPair(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}

// HiddenCounterpartPlaceholder is shown in match projections until both
// sides have accepted.
const HiddenCounterpartPlaceholder = "hidden until mutual acceptance"

// MatchView is the caller-facing projection of a match for one side.
// Counterpart identity is withheld until the match is accepted.
type MatchView struct {
	MatchID         string      `json:"matchId"`
	EventID         string      `json:"eventId"`
	Score           float64     `json:"score"`
	Reasons         []string    `json:"reasons,omitempty"`
	Status          MatchStatus `json:"status"`
	Responded       bool        `json:"responded"`
	CounterpartID   string      `json:"counterpartId,omitempty"`
	CounterpartName string      `json:"counterpartName"`
	CreationTime    time.Time   `json:"creationTime"`
	AcceptanceTime  *time.Time  `json:"acceptanceTime,omitempty"`
	ExpiresAt       time.Time   `json:"expiresAt"`
}

// Cluster is a meeting zone: 3-5 mutually compatible participants from one
// clustering run, with derived shared characteristics.
type Cluster struct {
	ClusterID        string    `json:"clusterId"`
	EventID          string    `json:"eventId"`
	Name             string    `json:"name"`
	Members          []string  `json:"members"`
	Cohesion         float64   `json:"cohesion"`
	SharedIntents    []string  `json:"sharedIntents,omitempty"`
	SharedIndustries []string  `json:"sharedIndustries,omitempty"`
	CreationTime     time.Time `json:"creationTime"`
}

// FallbackZoneName is the deterministic cluster name used when the naming
// service is unavailable. n is 1-based.
func FallbackZoneName(n int) string {
	return fmt.Sprintf("Meeting Zone %d", n)
}

// Event is the attendee roster container. Tier feeds the feature gate.
type Event struct {
	EventID      string    `json:"eventId"`
	Title        string    `json:"title"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Tier         string    `json:"tier"`
	Status       string    `json:"status"`
	CreationTime time.Time `json:"creationTime"`
}
