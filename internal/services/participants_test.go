package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/outbox"
)

func TestRegisterEnqueuesIndexAndGraphSync(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)

	svc := NewParticipantService(st)
	p := &model.Participant{
		ParticipantID: "p1",
		EventID:       ev.EventID,
		DisplayName:   "Ava",
		PrimaryIntent: model.IntentNetworking,
		LookingFor:    []model.Need{model.NeedAdvice},
		Offering:      []model.Need{model.NeedExpertise},
		Visibility:    model.VisibilityPublic,
	}
	out, err := svc.Register(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "p1", out.ParticipantID)

	upserts := st.opsNamed(outbox.OpUpsertProfile)
	require.Len(t, upserts, 1)
	assert.Equal(t, "p1", upserts[0].aggregateID)
	assert.Contains(t, upserts[0].payload["profileText"], "looking for advice")

	attends := st.opsNamed(outbox.OpSyncAttendance)
	require.Len(t, attends, 1)
	assert.Equal(t, ev.EventID, attends[0].payload["eventId"])
}

func TestRegisterValidation(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	svc := NewParticipantService(st)

	_, err := svc.Register(context.Background(), &model.Participant{EventID: ev.EventID})
	assert.True(t, model.IsValidationError(err))

	_, err = svc.Register(context.Background(), &model.Participant{
		ParticipantID: "p1", EventID: ev.EventID, Visibility: "invisible",
	})
	assert.True(t, model.IsValidationError(err))

	_, err = svc.Register(context.Background(), &model.Participant{
		ParticipantID: "p1", EventID: "no-such-event",
	})
	assert.True(t, model.IsNotFoundError(err))
}

func TestRegisterAfterEventEndRejected(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	ev.EndTime = time.Now().UTC().Add(-time.Hour)
	st.addEvent(ev)

	svc := NewParticipantService(st)
	_, err := svc.Register(context.Background(), &model.Participant{
		ParticipantID: "p1", EventID: ev.EventID,
	})
	assert.True(t, model.IsValidationError(err))
}

func TestUpdateReindexesProfile(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	st.addParticipant(&model.Participant{
		ParticipantID: "p1", EventID: ev.EventID, Visibility: model.VisibilityPublic,
	})

	svc := NewParticipantService(st)
	_, err := svc.Update(context.Background(), &model.Participant{
		ParticipantID: "p1",
		EventID:       ev.EventID,
		Visibility:    model.VisibilityGhost,
		LookingFor:    []model.Need{model.NeedCofounder},
	})
	require.NoError(t, err)

	assert.Len(t, st.opsNamed(outbox.OpUpsertProfile), 1)
	assert.Equal(t, model.VisibilityGhost, st.participants[ev.EventID]["p1"].Visibility)
}

func TestWithdrawEnqueuesProfileDelete(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	st.addParticipant(&model.Participant{
		ParticipantID: "p1", EventID: ev.EventID, Visibility: model.VisibilityPublic,
	})

	svc := NewParticipantService(st)
	require.NoError(t, svc.Withdraw(context.Background(), ev.EventID, "p1"))

	deletes := st.opsNamed(outbox.OpDeleteProfile)
	require.Len(t, deletes, 1)
	assert.Equal(t, "p1", deletes[0].aggregateID)
	assert.Empty(t, st.participants[ev.EventID])
}

func TestRosterAppliesVisibilityRules(t *testing.T) {
	st := newFakeStore()
	ev := testEvent("ev1")
	st.addEvent(ev)
	st.addParticipant(&model.Participant{ParticipantID: "viewer", EventID: ev.EventID, Visibility: model.VisibilityPublic})
	st.addParticipant(&model.Participant{ParticipantID: "pub", EventID: ev.EventID, Visibility: model.VisibilityPublic})
	st.addParticipant(&model.Participant{ParticipantID: "friend", EventID: ev.EventID, Visibility: model.VisibilityFriendsOnly})
	st.addParticipant(&model.Participant{ParticipantID: "stranger", EventID: ev.EventID, Visibility: model.VisibilityFriendsOnly})
	st.addParticipant(&model.Participant{ParticipantID: "hidden", EventID: ev.EventID, Visibility: model.VisibilityPrivate})
	st.addParticipant(&model.Participant{ParticipantID: "ghost", EventID: ev.EventID, Visibility: model.VisibilityGhost})
	st.connections["viewer"] = []string{"friend"}

	svc := NewParticipantService(st)
	roster, err := svc.Roster(context.Background(), ev.EventID, "viewer")
	require.NoError(t, err)

	ids := make([]string, 0, len(roster))
	for _, p := range roster {
		ids = append(ids, p.ParticipantID)
	}
	assert.ElementsMatch(t, []string{"viewer", "pub", "friend"}, ids)
}
