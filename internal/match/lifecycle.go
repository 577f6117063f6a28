// Package match implements the pairwise match state machine: proposal,
// double opt-in acceptance, decline, and time-based expiry.
package match

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/confera/matching-service/internal/compat"
	"github.com/confera/matching-service/internal/model"
)

// ExpiryGrace is how long after event end a pending match stays open.
const ExpiryGrace = 48 * time.Hour

// Candidate is a scored pair being considered for proposal.
type Candidate struct {
	A, B    string
	Score   float64
	Reasons []string
}

// NewProposal creates a Pending match for a scored pair. Ids are stored in
// canonical sorted order; both acceptance flags start false.
func NewProposal(eventID string, c Candidate, eventEnd, now time.Time) *model.Match {
	a, b := model.SortPair(c.A, c.B)
	return &model.Match{
		MatchID:      uuid.New().String(),
		EventID:      eventID,
		ParticipantA: a,
		ParticipantB: b,
		PairKey:      model.PairKey(a, b),
		Score:        c.Score,
		Reasons:      c.Reasons,
		Status:       model.MatchPending,
		CreationTime: now,
		ExpiresAt:    eventEnd.Add(ExpiryGrace),
	}
}

// SelectCandidates filters scored pairs to those clearing the minimum match
// score and trims to the per-participant proposal cap. Candidates are ranked
// by score descending; ties keep the display ordering the caller passed in
// (stable sort over the input pair order). existingCounts carries proposals a
// participant already has from earlier runs.
func SelectCandidates(pairs []compat.Pair, existingCounts map[string]int) []Candidate {
	eligible := make([]compat.Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.Score.Total >= compat.MinMatchScore {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Score.Total > eligible[j].Score.Total
	})

	counts := make(map[string]int, len(existingCounts))
	for id, n := range existingCounts {
		counts[id] = n
	}

	var out []Candidate
	for _, p := range eligible {
		if counts[p.A] >= compat.MaxMatchesPerUser || counts[p.B] >= compat.MaxMatchesPerUser {
			continue
		}
		counts[p.A]++
		counts[p.B]++
		out = append(out, Candidate{A: p.A, B: p.B, Score: p.Score.Total, Reasons: p.Score.Reasons})
	}
	return out
}

// Respond applies one side's accept/decline to a match in place.
//   - decline transitions to Declined immediately (terminal)
//   - accept with the other side already accepted transitions to Accepted
//     and records the acceptance timestamp
//   - accept with the other side pending leaves the match Pending
//
// Responding to a non-pending match or by a non-member is a validation
// failure with no state change.
func Respond(m *model.Match, participantID string, accepted bool, now time.Time) error {
	if !m.Involves(participantID) {
		return model.NewValidationError("participantId", "participant is not part of this match")
	}
	if m.Status != model.MatchPending {
		return model.NewValidationError("status", "match is not pending")
	}

	if !accepted {
		m.Status = model.MatchDeclined
		return nil
	}

	if m.ParticipantA == participantID {
		m.AcceptedA = true
	} else {
		m.AcceptedB = true
	}
	// Decide from both flags as currently recorded, not a stale copy.
	if m.AcceptedA && m.AcceptedB {
		m.Status = model.MatchAccepted
		t := now
		m.AcceptanceTime = &t
	}
	return nil
}

// HasResponded reports whether participantID already set its acceptance flag.
func HasResponded(m *model.Match, participantID string) bool {
	if m.ParticipantA == participantID {
		return m.AcceptedA
	}
	if m.ParticipantB == participantID {
		return m.AcceptedB
	}
	return false
}

// ShouldExpire reports whether a pending match has passed its expiry time.
func ShouldExpire(m *model.Match, now time.Time) bool {
	return m.Status == model.MatchPending && now.After(m.ExpiresAt)
}

// View projects a match for one side. Counterpart identity stays hidden
// behind a placeholder until the match is accepted.
func View(m *model.Match, viewerID string, names map[string]string) model.MatchView {
	v := model.MatchView{
		MatchID:         m.MatchID,
		EventID:         m.EventID,
		Score:           m.Score,
		Reasons:         m.Reasons,
		Status:          m.Status,
		Responded:       HasResponded(m, viewerID),
		CounterpartName: model.HiddenCounterpartPlaceholder,
		CreationTime:    m.CreationTime,
		AcceptanceTime:  m.AcceptanceTime,
		ExpiresAt:       m.ExpiresAt,
	}
	if m.Status == model.MatchAccepted {
		other := m.Counterpart(viewerID)
		v.CounterpartID = other
		if name, ok := names[other]; ok && name != "" {
			v.CounterpartName = name
		} else {
			v.CounterpartName = other
		}
	}
	return v
}
