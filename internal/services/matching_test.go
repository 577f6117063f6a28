package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confera/matching-service/internal/compat"
	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/outbox"
)

func testEvent(id string) *model.Event {
	now := time.Now().UTC()
	return &model.Event{
		EventID:   id,
		Title:     "Founders Summit",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(6 * time.Hour),
		Tier:      "pro",
		Status:    "ACTIVE",
	}
}

// investor/founder pair that lands exactly on the proposal threshold:
// fully mutual needs plus a top intent pairing, nothing else shared.
func compatiblePair(eventID string) (*model.Participant, *model.Participant) {
	a := &model.Participant{
		ParticipantID: "p-investor",
		EventID:       eventID,
		DisplayName:   "Ava",
		PrimaryIntent: model.IntentInvestment,
		LookingFor:    []model.Need{model.NeedFunding},
		Offering:      []model.Need{model.NeedAdvice},
		Visibility:    model.VisibilityPublic,
	}
	b := &model.Participant{
		ParticipantID: "p-founder",
		EventID:       eventID,
		DisplayName:   "Ben",
		PrimaryIntent: model.IntentMentorship,
		LookingFor:    []model.Need{model.NeedAdvice},
		Offering:      []model.Need{model.NeedFunding},
		Visibility:    model.VisibilityPublic,
	}
	return a, b
}

func TestRunMatchingProposesAboveThreshold(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	a, b := compatiblePair(ev.EventID)
	st.addParticipant(a)
	st.addParticipant(b)

	svc := NewMatchingService(st, allowAllGate{}, compat.NoSemantic{}, 2)
	created, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	require.Len(t, created, 1)

	m := created[0]
	assert.Equal(t, model.MatchPending, m.Status)
	assert.Equal(t, model.PairKey(a.ParticipantID, b.ParticipantID), m.PairKey)
	assert.GreaterOrEqual(t, m.Score, compat.MinMatchScore)
	assert.Equal(t, ev.EndTime.Add(48*time.Hour), m.ExpiresAt)

	assert.Len(t, st.opsNamed(outbox.OpNotifyProposed), 1)
	assert.Len(t, st.opsNamed(outbox.OpSyncMatch), 1)
}

func TestRunMatchingIdempotentAcrossRuns(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	a, b := compatiblePair(ev.EventID)
	st.addParticipant(a)
	st.addParticipant(b)

	svc := NewMatchingService(st, allowAllGate{}, compat.NoSemantic{}, 2)
	first, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, st.opsNamed(outbox.OpNotifyProposed), 1)
}

func TestRunMatchingGateDisabled(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	a, b := compatiblePair(ev.EventID)
	st.addParticipant(a)
	st.addParticipant(b)

	svc := NewMatchingService(st, deniedGate{}, compat.NoSemantic{}, 2)
	created, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, st.enqueued)
}

func TestRunMatchingExcludesPrivateParticipants(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	a, b := compatiblePair(ev.EventID)
	b.Visibility = model.VisibilityPrivate
	st.addParticipant(a)
	st.addParticipant(b)

	svc := NewMatchingService(st, allowAllGate{}, compat.NoSemantic{}, 2)
	created, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestRunMatchingIncludesGhostParticipants(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	a, b := compatiblePair(ev.EventID)
	b.Visibility = model.VisibilityGhost
	st.addParticipant(a)
	st.addParticipant(b)

	svc := NewMatchingService(st, allowAllGate{}, compat.NoSemantic{}, 2)
	created, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestRespondDoubleOptIn(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	a, b := compatiblePair(ev.EventID)
	st.addParticipant(a)
	st.addParticipant(b)

	svc := NewMatchingService(st, allowAllGate{}, compat.NoSemantic{}, 2)
	created, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	require.Len(t, created, 1)
	matchID := created[0].MatchID

	m, err := svc.Respond(context.Background(), matchID, a.ParticipantID, true)
	require.NoError(t, err)
	assert.Equal(t, model.MatchPending, m.Status)
	assert.Empty(t, st.opsNamed(outbox.OpNotifyAccepted))

	m, err = svc.Respond(context.Background(), matchID, b.ParticipantID, true)
	require.NoError(t, err)
	assert.Equal(t, model.MatchAccepted, m.Status)
	require.NotNil(t, m.AcceptanceTime)
	assert.Len(t, st.opsNamed(outbox.OpNotifyAccepted), 1)
}

func TestRespondDeclineIsTerminal(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	a, b := compatiblePair(ev.EventID)
	st.addParticipant(a)
	st.addParticipant(b)

	svc := NewMatchingService(st, allowAllGate{}, compat.NoSemantic{}, 2)
	created, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	matchID := created[0].MatchID

	m, err := svc.Respond(context.Background(), matchID, a.ParticipantID, false)
	require.NoError(t, err)
	assert.Equal(t, model.MatchDeclined, m.Status)

	_, err = svc.Respond(context.Background(), matchID, b.ParticipantID, true)
	assert.True(t, model.IsValidationError(err))
}

func TestExpireMatchesSweep(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	st.matches["m1"] = &model.Match{
		MatchID: "m1", EventID: ev.EventID,
		ParticipantA: "a", ParticipantB: "b", PairKey: model.PairKey("a", "b"),
		Status:    model.MatchPending,
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	st.matches["m2"] = &model.Match{
		MatchID: "m2", EventID: ev.EventID,
		ParticipantA: "c", ParticipantB: "d", PairKey: model.PairKey("c", "d"),
		Status:    model.MatchPending,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	svc := NewMatchingService(st, allowAllGate{}, compat.NoSemantic{}, 2)
	n, err := svc.ExpireMatches(context.Background(), ev.EventID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, model.MatchExpired, st.matches["m1"].Status)
	assert.Equal(t, model.MatchPending, st.matches["m2"].Status)
}

func TestMatchesForHidesCounterpartUntilAccepted(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	a, b := compatiblePair(ev.EventID)
	st.addParticipant(a)
	st.addParticipant(b)

	svc := NewMatchingService(st, allowAllGate{}, compat.NoSemantic{}, 2)
	created, err := svc.RunMatching(context.Background(), ev.EventID)
	require.NoError(t, err)
	matchID := created[0].MatchID

	views, err := svc.MatchesFor(context.Background(), ev.EventID, a.ParticipantID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Empty(t, views[0].CounterpartID)
	assert.Equal(t, model.HiddenCounterpartPlaceholder, views[0].CounterpartName)

	_, err = svc.Respond(context.Background(), matchID, a.ParticipantID, true)
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), matchID, b.ParticipantID, true)
	require.NoError(t, err)

	views, err = svc.MatchesFor(context.Background(), ev.EventID, a.ParticipantID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, b.ParticipantID, views[0].CounterpartID)
	assert.Equal(t, b.DisplayName, views[0].CounterpartName)
}
