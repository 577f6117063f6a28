package outbox

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/confera/matching-service/internal/model"
)

func TestNewWorkerDefaults(t *testing.T) {
	w := NewWorker(nil, nil, nil, nil, nil, Config{}, zerolog.Nop())
	assert.Equal(t, 100, w.cfg.BatchSize)
	assert.Equal(t, 2*time.Second, w.cfg.Interval)
	assert.Equal(t, time.Minute, w.cfg.SweepInterval)
}

func TestMatchFromPayload(t *testing.T) {
	m := matchFromPayload(map[string]interface{}{
		"matchId":      "m1",
		"eventId":      "ev1",
		"participantA": "a",
		"participantB": "b",
		"score":        0.72,
		"status":       "pending",
	})
	assert.Equal(t, "m1", m.MatchID)
	assert.Equal(t, "ev1", m.EventID)
	assert.Equal(t, "a", m.ParticipantA)
	assert.Equal(t, "b", m.ParticipantB)
	assert.Equal(t, 0.72, m.Score)
	assert.Equal(t, model.MatchPending, m.Status)
}

func TestParticipantFromPayloadJSONRoundTrip(t *testing.T) {
	// JSON-decoded payloads carry []interface{} instead of []Need
	p := participantFromPayload(map[string]interface{}{
		"participantId": "p1",
		"eventId":       "ev1",
		"lookingFor":    []interface{}{"funding", "advice"},
		"offering":      []model.Need{model.NeedExpertise},
		"visibility":    "ghost",
	})
	assert.Equal(t, []model.Need{model.NeedFunding, model.NeedAdvice}, p.LookingFor)
	assert.Equal(t, []model.Need{model.NeedExpertise}, p.Offering)
	assert.Equal(t, model.VisibilityGhost, p.Visibility)
}

func TestPayloadFieldHelpers(t *testing.T) {
	m := map[string]interface{}{"s": "text", "f": 1.5, "n": 7}
	assert.Equal(t, "text", stringField(m, "s"))
	assert.Equal(t, "", stringField(m, "f"))
	assert.Equal(t, "", stringField(m, "missing"))
	assert.Equal(t, 1.5, floatField(m, "f"))
	assert.Equal(t, 0.0, floatField(m, "n")) // int, not float64
	assert.Nil(t, needSlice(m, "missing"))
}
