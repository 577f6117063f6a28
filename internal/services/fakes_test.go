package services

import (
	"context"
	"sync"
	"time"

	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/store"
)

// --- Fakes ---

// fakeStore is an in-memory store.Store used across the service tests.
type fakeStore struct {
	mu           sync.Mutex
	events       map[string]*model.Event
	participants map[string]map[string]*model.Participant // eventID -> id -> p
	connections  map[string][]string
	matches      map[string]*model.Match // matchID -> m
	clusters     map[string][]*model.Cluster
	enqueued     []enqueuedOp
}

type enqueuedOp struct {
	op          string
	aggregateID string
	payload     map[string]interface{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       make(map[string]*model.Event),
		participants: make(map[string]map[string]*model.Participant),
		connections:  make(map[string][]string),
		matches:      make(map[string]*model.Match),
		clusters:     make(map[string][]*model.Cluster),
	}
}

func (f *fakeStore) Events() store.Events             { return &fakeEvents{f} }
func (f *fakeStore) Participants() store.Participants { return &fakeParticipants{f} }
func (f *fakeStore) Matches() store.Matches           { return &fakeMatches{f} }
func (f *fakeStore) Clusters() store.Clusters         { return &fakeClusters{f} }
func (f *fakeStore) Outbox() store.Outbox             { return &fakeOutbox{f} }

func (f *fakeStore) addEvent(e *model.Event) {
	f.events[e.EventID] = e
}

func (f *fakeStore) addParticipant(p *model.Participant) {
	if f.participants[p.EventID] == nil {
		f.participants[p.EventID] = make(map[string]*model.Participant)
	}
	f.participants[p.EventID][p.ParticipantID] = p
}

func (f *fakeStore) opsNamed(op string) []enqueuedOp {
	var out []enqueuedOp
	for _, e := range f.enqueued {
		if e.op == op {
			out = append(out, e)
		}
	}
	return out
}

type fakeEvents struct{ p *fakeStore }

func (e *fakeEvents) Create(_ context.Context, ev *model.Event) (*model.Event, error) {
	e.p.addEvent(ev)
	return ev, nil
}

func (e *fakeEvents) GetByID(_ context.Context, eventID string) (*model.Event, error) {
	ev, ok := e.p.events[eventID]
	if !ok {
		return nil, model.NewNotFoundError("eventId", "event not found")
	}
	return ev, nil
}

type fakeParticipants struct{ p *fakeStore }

func (fp *fakeParticipants) Register(_ context.Context, p *model.Participant) (*model.Participant, error) {
	p.CreationTime = time.Now().UTC()
	fp.p.addParticipant(p)
	return p, nil
}

func (fp *fakeParticipants) GetByID(_ context.Context, eventID, participantID string) (*model.Participant, error) {
	p, ok := fp.p.participants[eventID][participantID]
	if !ok {
		return nil, model.NewNotFoundError("participantId", "participant not found")
	}
	return p, nil
}

func (fp *fakeParticipants) ListByEvent(_ context.Context, eventID string) ([]*model.Participant, error) {
	var out []*model.Participant
	for _, p := range fp.p.participants[eventID] {
		out = append(out, p)
	}
	return out, nil
}

func (fp *fakeParticipants) Update(_ context.Context, p *model.Participant) (*model.Participant, error) {
	if _, ok := fp.p.participants[p.EventID][p.ParticipantID]; !ok {
		return nil, model.NewNotFoundError("participantId", "participant not found")
	}
	now := time.Now().UTC()
	p.LastUpdateTime = &now
	fp.p.addParticipant(p)
	return p, nil
}

func (fp *fakeParticipants) Withdraw(_ context.Context, eventID, participantID string) error {
	if _, ok := fp.p.participants[eventID][participantID]; !ok {
		return model.NewNotFoundError("participantId", "participant not found")
	}
	delete(fp.p.participants[eventID], participantID)
	return nil
}

func (fp *fakeParticipants) Connections(_ context.Context, participantID string) ([]string, error) {
	return fp.p.connections[participantID], nil
}

type fakeMatches struct{ p *fakeStore }

func (fm *fakeMatches) Create(_ context.Context, m *model.Match) (bool, error) {
	fm.p.mu.Lock()
	defer fm.p.mu.Unlock()
	for _, existing := range fm.p.matches {
		if existing.EventID == m.EventID && existing.PairKey == m.PairKey {
			return false, nil
		}
	}
	fm.p.matches[m.MatchID] = m
	return true, nil
}

func (fm *fakeMatches) GetByID(_ context.Context, matchID string) (*model.Match, error) {
	m, ok := fm.p.matches[matchID]
	if !ok {
		return nil, model.NewNotFoundError("matchId", "match not found")
	}
	return m, nil
}

func (fm *fakeMatches) ListByEvent(_ context.Context, eventID string) ([]*model.Match, error) {
	var out []*model.Match
	for _, m := range fm.p.matches {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (fm *fakeMatches) ListForParticipant(_ context.Context, eventID, participantID string) ([]*model.Match, error) {
	var out []*model.Match
	for _, m := range fm.p.matches {
		if m.EventID == eventID && m.Involves(participantID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (fm *fakeMatches) UpdateLocked(ctx context.Context, matchID string, fn func(*model.Match) error) (*model.Match, error) {
	fm.p.mu.Lock()
	defer fm.p.mu.Unlock()
	m, ok := fm.p.matches[matchID]
	if !ok {
		return nil, model.NewNotFoundError("matchId", "match not found")
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (fm *fakeMatches) ExpirePending(_ context.Context, eventID string, now time.Time) (int64, error) {
	var n int64
	for _, m := range fm.p.matches {
		if m.EventID == eventID && m.Status == model.MatchPending && !now.Before(m.ExpiresAt) {
			m.Status = model.MatchExpired
			n++
		}
	}
	return n, nil
}

type fakeClusters struct{ p *fakeStore }

func (fc *fakeClusters) ReplaceForEvent(_ context.Context, eventID string, cs []*model.Cluster) error {
	fc.p.clusters[eventID] = cs
	return nil
}

func (fc *fakeClusters) ListByEvent(_ context.Context, eventID string) ([]*model.Cluster, error) {
	return fc.p.clusters[eventID], nil
}

func (fc *fakeClusters) OldestCreation(_ context.Context, eventID string) (*time.Time, error) {
	var oldest *time.Time
	for _, c := range fc.p.clusters[eventID] {
		t := c.CreationTime
		if oldest == nil || t.Before(*oldest) {
			oldest = &t
		}
	}
	return oldest, nil
}

type fakeOutbox struct{ p *fakeStore }

func (fo *fakeOutbox) Enqueue(_ context.Context, op, aggregateID string, payload map[string]interface{}) error {
	fo.p.mu.Lock()
	defer fo.p.mu.Unlock()
	fo.p.enqueued = append(fo.p.enqueued, enqueuedOp{op: op, aggregateID: aggregateID, payload: payload})
	return nil
}

// allowAllGate enables matchmaking unconditionally.
type allowAllGate struct{}

func (allowAllGate) MatchmakingEnabled(context.Context, string) (bool, error) { return true, nil }

// deniedGate disables matchmaking unconditionally.
type deniedGate struct{}

func (deniedGate) MatchmakingEnabled(context.Context, string) (bool, error) { return false, nil }
