// Package graph mirrors match and attendance relationships into an external
// graph store for traversal queries. Sync is fire-and-forget: failures are
// retried by the outbox relay and never roll back primary writes.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/confera/matching-service/internal/model"
)

// Syncer pushes relationship edges to the graph store.
type Syncer interface {
	SyncMatch(ctx context.Context, m *model.Match) error
	SyncAttendance(ctx context.Context, p *model.Participant) error
}

// httpSyncer talks to the graph store's HTTP edge API.
type httpSyncer struct {
	client *resty.Client
}

// NewHTTPSyncer builds a Syncer against baseURL.
func NewHTTPSyncer(baseURL string) Syncer {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	return &httpSyncer{client: c}
}

func (s *httpSyncer) SyncMatch(ctx context.Context, m *model.Match) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"type":    "MATCHED_WITH",
			"from":    m.ParticipantA,
			"to":      m.ParticipantB,
			"eventId": m.EventID,
			"properties": map[string]interface{}{
				"matchId": m.MatchID,
				"score":   m.Score,
				"status":  string(m.Status),
			},
		}).
		Post("/edges")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("graph edge sync status %d", resp.StatusCode())
	}
	return nil
}

func (s *httpSyncer) SyncAttendance(ctx context.Context, p *model.Participant) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"type": "ATTENDS",
			"from": p.ParticipantID,
			"to":   p.EventID,
			"properties": map[string]interface{}{
				// Raw values kept for index-only lookups; the weighted
				// complementarity table remains the canonical definition.
				"lookingFor": p.LookingFor,
				"offering":   p.Offering,
				"visibility": string(p.Visibility),
			},
		}).
		Post("/edges")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("graph edge sync status %d", resp.StatusCode())
	}
	return nil
}
