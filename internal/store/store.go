package store

import (
	"context"
	"time"

	"github.com/confera/matching-service/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres).
type Store interface {
	Events() Events
	Participants() Participants
	Matches() Matches
	Clusters() Clusters
	Outbox() Outbox
}

type Events interface {
	Create(ctx context.Context, e *model.Event) (*model.Event, error)
	GetByID(ctx context.Context, eventID string) (*model.Event, error)
}

type Participants interface {
	Register(ctx context.Context, p *model.Participant) (*model.Participant, error)
	GetByID(ctx context.Context, eventID, participantID string) (*model.Participant, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Participant, error)
	Update(ctx context.Context, p *model.Participant) (*model.Participant, error)
	Withdraw(ctx context.Context, eventID, participantID string) error
	// Connections returns the participant's connection set for the
	// friends-only visibility rule.
	Connections(ctx context.Context, participantID string) ([]string, error)
}

type Matches interface {
	// Create inserts a match unless one already exists for its pair key at
	// the event; created reports whether a row was inserted.
	Create(ctx context.Context, m *model.Match) (created bool, err error)
	GetByID(ctx context.Context, matchID string) (*model.Match, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Match, error)
	ListForParticipant(ctx context.Context, eventID, participantID string) ([]*model.Match, error)
	// UpdateLocked runs fn on the row under a per-match lock and persists the
	// result, serializing concurrent responses to the same match.
	UpdateLocked(ctx context.Context, matchID string, fn func(*model.Match) error) (*model.Match, error)
	// ExpirePending sweeps pending matches past their expiry to Expired.
	// Idempotent; returns how many rows transitioned.
	ExpirePending(ctx context.Context, eventID string, now time.Time) (int64, error)
}

type Clusters interface {
	// ReplaceForEvent atomically swaps the event's cluster set
	// (delete-then-insert in one transaction).
	ReplaceForEvent(ctx context.Context, eventID string, clusters []*model.Cluster) error
	ListByEvent(ctx context.Context, eventID string) ([]*model.Cluster, error)
	// OldestCreation returns the creation time of the oldest cluster for the
	// event, or nil when none exist. Drives the staleness policy.
	OldestCreation(ctx context.Context, eventID string) (*time.Time, error)
}

type Outbox interface {
	Enqueue(ctx context.Context, op, aggregateID string, payload map[string]interface{}) error
}
