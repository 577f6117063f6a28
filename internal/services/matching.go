package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/confera/matching-service/internal/compat"
	"github.com/confera/matching-service/internal/entitlements"
	"github.com/confera/matching-service/internal/match"
	"github.com/confera/matching-service/internal/metrics"
	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/outbox"
	"github.com/confera/matching-service/internal/store"
	"github.com/confera/matching-service/internal/visibility"
)

// MatchingService orchestrates scoring, proposal and the match lifecycle for
// one event at a time.
type MatchingService struct {
	store   store.Store
	gate    entitlements.Gate
	builder *compat.Builder
}

func NewMatchingService(s store.Store, g entitlements.Gate, sem compat.SemanticSource, workers int) *MatchingService {
	return &MatchingService{store: s, gate: g, builder: compat.NewBuilder(sem, workers)}
}

// RunMatching scores every eligible pair at the event and proposes matches
// above the threshold, capped per participant. Disabled matchmaking and
// capacity outcomes return empty results, not errors. Safe to invoke
// concurrently: the pair dedup key makes duplicate proposals no-ops.
func (s *MatchingService) RunMatching(ctx context.Context, eventID string) ([]*model.Match, error) {
	enabled, err := s.gate.MatchmakingEnabled(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !enabled {
		log.Info().Str("eventId", eventID).Msg("matchmaking disabled for event tier")
		return []*model.Match{}, nil
	}

	ev, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.Participants().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	eligible := visibility.EligibleForAlgorithm(roster)

	matrix, err := s.builder.Build(ctx, eligible)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.Matches().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	matched := make(map[string]bool, len(existing))
	counts := make(map[string]int)
	for _, m := range existing {
		matched[m.PairKey] = true
		counts[m.ParticipantA]++
		counts[m.ParticipantB]++
	}

	pairs := matrix.Pairs()
	fresh := pairs[:0]
	for _, p := range pairs {
		if !matched[model.PairKey(p.A, p.B)] {
			fresh = append(fresh, p)
		}
	}

	now := time.Now().UTC()
	var created []*model.Match
	for _, cand := range match.SelectCandidates(fresh, counts) {
		m := match.NewProposal(eventID, cand, ev.EndTime, now)
		inserted, err := s.store.Matches().Create(ctx, m)
		if err != nil {
			return nil, err
		}
		if !inserted {
			// A concurrent run won the pair; skip quietly.
			continue
		}
		created = append(created, m)
		s.enqueueMatchEvents(ctx, m, outbox.OpNotifyProposed)
	}

	metrics.RecordMatchesProposed(len(created))
	log.Info().Str("eventId", eventID).
		Int("eligible", len(eligible)).
		Int("created", len(created)).
		Msg("matching run complete")
	return created, nil
}

// Respond applies one side's accept or decline under the per-match lock.
// The status decision re-reads both acceptance flags inside the lock.
func (s *MatchingService) Respond(ctx context.Context, matchID, participantID string, accepted bool) (*model.Match, error) {
	now := time.Now().UTC()
	updated, err := s.store.Matches().UpdateLocked(ctx, matchID, func(m *model.Match) error {
		return match.Respond(m, participantID, accepted, now)
	})
	if err != nil {
		return nil, err
	}
	if updated.Status == model.MatchAccepted {
		metrics.RecordMatchAccepted()
		s.enqueueMatchEvents(ctx, updated, outbox.OpNotifyAccepted)
	}
	return updated, nil
}

// ExpireMatches sweeps pending matches past their expiry to Expired.
// Idempotent, safe to run repeatedly.
func (s *MatchingService) ExpireMatches(ctx context.Context, eventID string) (int64, error) {
	n, err := s.store.Matches().ExpirePending(ctx, eventID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.RecordMatchesExpired(n)
		log.Info().Str("eventId", eventID).Int64("expired", n).Msg("expiry sweep")
	}
	return n, nil
}

// MatchesFor projects a participant's matches, withholding counterpart
// identity until mutual acceptance.
func (s *MatchingService) MatchesFor(ctx context.Context, eventID, participantID string) ([]model.MatchView, error) {
	ms, err := s.store.Matches().ListForParticipant(ctx, eventID, participantID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.Participants().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(roster))
	for _, p := range roster {
		names[p.ParticipantID] = p.DisplayName
	}

	views := make([]model.MatchView, 0, len(ms))
	for _, m := range ms {
		views = append(views, match.View(m, participantID, names))
	}
	return views, nil
}

// enqueueMatchEvents records the notification and graph sync for a match in
// the outbox. Failures here are logged and dropped: secondary delivery must
// never fail the primary write that already happened.
func (s *MatchingService) enqueueMatchEvents(ctx context.Context, m *model.Match, notifyOp string) {
	payload := map[string]interface{}{
		"matchId":      m.MatchID,
		"eventId":      m.EventID,
		"participantA": m.ParticipantA,
		"participantB": m.ParticipantB,
		"score":        m.Score,
		"status":       string(m.Status),
	}
	if err := s.store.Outbox().Enqueue(ctx, notifyOp, m.MatchID, payload); err != nil {
		log.Error().Err(err).Str("matchId", m.MatchID).Str("op", notifyOp).Msg("outbox enqueue failed")
	}
	if err := s.store.Outbox().Enqueue(ctx, outbox.OpSyncMatch, m.MatchID, payload); err != nil {
		log.Error().Err(err).Str("matchId", m.MatchID).Msg("graph sync enqueue failed")
	}
}
