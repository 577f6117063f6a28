// Package visibility decides whether a participant's presence at an event is
// observable by a given viewer or by the matching algorithms. It is a pure
// filter with no side effects beyond anomaly logging; every component that
// needs a participant set builds it through this gate.
package visibility

import (
	"github.com/rs/zerolog/log"

	"github.com/confera/matching-service/internal/model"
)

// Context identifies who is asking: a human viewer or the matching/clustering
// algorithms.
type Context int

const (
	ContextHuman Context = iota
	ContextAlgorithm
)

// IsObservable applies the visibility rules in order, first match wins.
// viewerContacts is the viewer's connection set, keyed by participant id.
func IsObservable(viewerID string, viewerContacts map[string]bool, p *model.Participant, vctx Context) bool {
	if p.ParticipantID == viewerID {
		return true
	}
	switch p.Visibility {
	case model.VisibilityPublic:
		return true
	case model.VisibilityFriendsOnly:
		return viewerContacts[p.ParticipantID]
	case model.VisibilityPrivate:
		return false
	case model.VisibilityGhost:
		return vctx == ContextAlgorithm
	default:
		// Fail closed: an unrecognized mode behaves like private.
		log.Warn().
			Str("participantId", p.ParticipantID).
			Str("visibility", string(p.Visibility)).
			Msg("unknown visibility mode, treating as private")
		return false
	}
}

// EligibleForAlgorithm returns the subset of participants the scoring and
// clustering engines may process. Private participants (and unknown modes)
// are excluded; ghost participants are included.
func EligibleForAlgorithm(participants []*model.Participant) []*model.Participant {
	out := make([]*model.Participant, 0, len(participants))
	for _, p := range participants {
		if !p.Visibility.Known() {
			log.Warn().
				Str("participantId", p.ParticipantID).
				Str("visibility", string(p.Visibility)).
				Msg("unknown visibility mode, excluding from algorithm set")
			continue
		}
		if p.Visibility == model.VisibilityPrivate {
			continue
		}
		out = append(out, p)
	}
	return out
}

// HumanVisible returns the subset of participants a human viewer may see.
// Ghost participants are never included, friends-only participants only when
// connected to the viewer.
func HumanVisible(viewerID string, viewerContacts map[string]bool, participants []*model.Participant) []*model.Participant {
	out := make([]*model.Participant, 0, len(participants))
	for _, p := range participants {
		if IsObservable(viewerID, viewerContacts, p, ContextHuman) {
			out = append(out, p)
		}
	}
	return out
}
