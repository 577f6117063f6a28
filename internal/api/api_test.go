package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confera/matching-service/internal/compat"
	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/services"
	"github.com/confera/matching-service/internal/store"
)

// --- Fakes ---

type memStore struct {
	events       map[string]*model.Event
	participants map[string]map[string]*model.Participant
	matches      map[string]*model.Match
	clusters     map[string][]*model.Cluster
}

func newMemStore() *memStore {
	return &memStore{
		events:       make(map[string]*model.Event),
		participants: make(map[string]map[string]*model.Participant),
		matches:      make(map[string]*model.Match),
		clusters:     make(map[string][]*model.Cluster),
	}
}

func (s *memStore) Events() store.Events             { return &memEvents{s} }
func (s *memStore) Participants() store.Participants { return &memParticipants{s} }
func (s *memStore) Matches() store.Matches           { return &memMatches{s} }
func (s *memStore) Clusters() store.Clusters         { return &memClusters{s} }
func (s *memStore) Outbox() store.Outbox             { return memOutbox{} }

type memEvents struct{ s *memStore }

func (e *memEvents) Create(_ context.Context, ev *model.Event) (*model.Event, error) {
	e.s.events[ev.EventID] = ev
	return ev, nil
}
func (e *memEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	ev, ok := e.s.events[id]
	if !ok {
		return nil, model.NewNotFoundError("eventId", "event not found")
	}
	return ev, nil
}

type memParticipants struct{ s *memStore }

func (p *memParticipants) Register(_ context.Context, m *model.Participant) (*model.Participant, error) {
	if p.s.participants[m.EventID] == nil {
		p.s.participants[m.EventID] = make(map[string]*model.Participant)
	}
	p.s.participants[m.EventID][m.ParticipantID] = m
	return m, nil
}
func (p *memParticipants) GetByID(_ context.Context, eventID, id string) (*model.Participant, error) {
	m, ok := p.s.participants[eventID][id]
	if !ok {
		return nil, model.NewNotFoundError("participantId", "participant not found")
	}
	return m, nil
}
func (p *memParticipants) ListByEvent(_ context.Context, eventID string) ([]*model.Participant, error) {
	var out []*model.Participant
	for _, m := range p.s.participants[eventID] {
		out = append(out, m)
	}
	return out, nil
}
func (p *memParticipants) Update(_ context.Context, m *model.Participant) (*model.Participant, error) {
	if _, ok := p.s.participants[m.EventID][m.ParticipantID]; !ok {
		return nil, model.NewNotFoundError("participantId", "participant not found")
	}
	p.s.participants[m.EventID][m.ParticipantID] = m
	return m, nil
}
func (p *memParticipants) Withdraw(_ context.Context, eventID, id string) error {
	if _, ok := p.s.participants[eventID][id]; !ok {
		return model.NewNotFoundError("participantId", "participant not found")
	}
	delete(p.s.participants[eventID], id)
	return nil
}
func (p *memParticipants) Connections(context.Context, string) ([]string, error) { return nil, nil }

type memMatches struct{ s *memStore }

func (m *memMatches) Create(_ context.Context, mt *model.Match) (bool, error) {
	for _, ex := range m.s.matches {
		if ex.EventID == mt.EventID && ex.PairKey == mt.PairKey {
			return false, nil
		}
	}
	m.s.matches[mt.MatchID] = mt
	return true, nil
}
func (m *memMatches) GetByID(_ context.Context, id string) (*model.Match, error) {
	mt, ok := m.s.matches[id]
	if !ok {
		return nil, model.NewNotFoundError("matchId", "match not found")
	}
	return mt, nil
}
func (m *memMatches) ListByEvent(_ context.Context, eventID string) ([]*model.Match, error) {
	var out []*model.Match
	for _, mt := range m.s.matches {
		if mt.EventID == eventID {
			out = append(out, mt)
		}
	}
	return out, nil
}
func (m *memMatches) ListForParticipant(_ context.Context, eventID, id string) ([]*model.Match, error) {
	var out []*model.Match
	for _, mt := range m.s.matches {
		if mt.EventID == eventID && mt.Involves(id) {
			out = append(out, mt)
		}
	}
	return out, nil
}
func (m *memMatches) UpdateLocked(_ context.Context, id string, fn func(*model.Match) error) (*model.Match, error) {
	mt, ok := m.s.matches[id]
	if !ok {
		return nil, model.NewNotFoundError("matchId", "match not found")
	}
	if err := fn(mt); err != nil {
		return nil, err
	}
	return mt, nil
}
func (m *memMatches) ExpirePending(_ context.Context, eventID string, now time.Time) (int64, error) {
	var n int64
	for _, mt := range m.s.matches {
		if mt.EventID == eventID && mt.Status == model.MatchPending && !now.Before(mt.ExpiresAt) {
			mt.Status = model.MatchExpired
			n++
		}
	}
	return n, nil
}

type memClusters struct{ s *memStore }

func (c *memClusters) ReplaceForEvent(_ context.Context, eventID string, cs []*model.Cluster) error {
	c.s.clusters[eventID] = cs
	return nil
}
func (c *memClusters) ListByEvent(_ context.Context, eventID string) ([]*model.Cluster, error) {
	return c.s.clusters[eventID], nil
}
func (c *memClusters) OldestCreation(_ context.Context, eventID string) (*time.Time, error) {
	var oldest *time.Time
	for _, cl := range c.s.clusters[eventID] {
		t := cl.CreationTime
		if oldest == nil || t.Before(*oldest) {
			oldest = &t
		}
	}
	return oldest, nil
}

type memOutbox struct{}

func (memOutbox) Enqueue(context.Context, string, string, map[string]interface{}) error { return nil }

type openGate struct{}

func (openGate) MatchmakingEnabled(context.Context, string) (bool, error) { return true, nil }

func newTestRouter(st *memStore) http.Handler {
	matching := services.NewMatchingService(st, openGate{}, compat.NoSemantic{}, 2)
	zones := services.NewZoneService(st, openGate{}, compat.NoSemantic{}, nil, 2)
	participants := services.NewParticipantService(st)
	return NewRouter(Deps{
		Store:        st,
		Matching:     matching,
		Zones:        zones,
		Participants: participants,
	})
}

func seedEvent(st *memStore, id string) *model.Event {
	now := time.Now().UTC()
	ev := &model.Event{
		EventID:   id,
		Title:     "Founders Summit",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(6 * time.Hour),
		Tier:      "pro",
	}
	st.events[id] = ev
	return ev
}

// --- Tests ---

func TestHealthEndpoint(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(newMemStore()).ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, []interface{}{"healthy", "unhealthy"}, body["status"])
}

func TestCreateEventValidation(t *testing.T) {
	router := newTestRouter(newMemStore())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/events", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/events",
		strings.NewReader(`{"title":"Summit","startTime":"2026-09-01T10:00:00Z","endTime":"2026-09-01T08:00:00Z"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/events",
		strings.NewReader(`{"title":"Summit","startTime":"2026-09-01T08:00:00Z","endTime":"2026-09-01T18:00:00Z"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var ev model.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ev))
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "free", ev.Tier)
}

func TestGetEventNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(newMemStore()).ServeHTTP(rr, httptest.NewRequest("GET", "/api/events/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRegisterAndRosterFlow(t *testing.T) {
	st := newMemStore()
	seedEvent(st, "ev1")
	router := newTestRouter(st)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/events/ev1/participants",
		strings.NewReader(`{"participantId":"p1","displayName":"Ava","visibility":"public"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/events/ev1/participants",
		strings.NewReader(`{"participantId":"p2","displayName":"Ben","visibility":"ghost"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	// viewerId is mandatory
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/events/ev1/participants", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// ghost participant never shows up for human viewers
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/events/ev1/participants?viewerId=p1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var roster struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &roster))
	assert.Equal(t, 1, roster.Count)
}

func TestMatchingRunAndRespondFlow(t *testing.T) {
	st := newMemStore()
	seedEvent(st, "ev1")
	router := newTestRouter(st)

	register := func(body string) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/events/ev1/participants", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	register(`{"participantId":"p1","displayName":"Ava","primaryIntent":"investment","lookingFor":["funding"],"offering":["advice"],"visibility":"public"}`)
	register(`{"participantId":"p2","displayName":"Ben","primaryIntent":"mentorship","lookingFor":["advice"],"offering":["funding"],"visibility":"public"}`)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/events/ev1/matching/run", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var run struct {
		MatchesCreated int `json:"matchesCreated"`
		Matches        []struct {
			MatchID string `json:"matchId"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	require.Equal(t, 1, run.MatchesCreated)
	matchID := run.Matches[0].MatchID

	// missing fields rejected
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/matches/"+matchID+"/respond",
		strings.NewReader(`{"participantId":"p1"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	respond := func(pid string) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/matches/"+matchID+"/respond",
			strings.NewReader(`{"participantId":"`+pid+`","accept":true}`)))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	respond("p1")
	respond("p2")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/events/ev1/matches?participantId=p1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Matches []model.MatchView `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Matches, 1)
	assert.Equal(t, model.MatchAccepted, list.Matches[0].Status)
	assert.Equal(t, "p2", list.Matches[0].CounterpartID)
}

func TestRespondUnknownMatch(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(newMemStore()).ServeHTTP(rr, httptest.NewRequest("POST", "/api/matches/nope/respond",
		strings.NewReader(`{"participantId":"p1","accept":true}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestZoneRoutes(t *testing.T) {
	st := newMemStore()
	seedEvent(st, "ev1")
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		st.participants["ev1"] = mergeParticipant(st.participants["ev1"], &model.Participant{
			ParticipantID: "p-" + id,
			EventID:       "ev1",
			PrimaryIntent: model.IntentNetworking,
			LookingFor:    []model.Need{model.NeedAdvice},
			Offering:      []model.Need{model.NeedAdvice},
			Industries:    []string{"tech"},
			Tags:          []string{"go"},
			Visibility:    model.VisibilityPublic,
		})
	}
	router := newTestRouter(st)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/events/ev1/zones/run", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var run struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, 1, run.Count)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/events/ev1/zones", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func mergeParticipant(m map[string]*model.Participant, p *model.Participant) map[string]*model.Participant {
	if m == nil {
		m = make(map[string]*model.Participant)
	}
	m[p.ParticipantID] = p
	return m
}
