// Package entitlements answers capability checks consulted before running
// matchmaking or clustering. A disabled capability yields empty results
// upstream, never an error.
package entitlements

import (
	"context"

	"github.com/confera/matching-service/internal/store"
)

// Gate is the subscription/feature capability check.
type Gate interface {
	// MatchmakingEnabled reports whether AI matchmaking is available for the
	// event's subscription tier.
	MatchmakingEnabled(ctx context.Context, eventID string) (bool, error)
}

// matchmakingTiers lists tiers with AI matchmaking included.
var matchmakingTiers = map[string]bool{
	"pro":        true,
	"business":   true,
	"enterprise": true,
}

type tierGate struct {
	store    store.Store
	allowAll bool
}

// NewTierGate builds a Gate deciding from the event's stored tier. allowAll
// short-circuits to enabled, used in development and testing.
func NewTierGate(s store.Store, allowAll bool) Gate {
	return &tierGate{store: s, allowAll: allowAll}
}

func (g *tierGate) MatchmakingEnabled(ctx context.Context, eventID string) (bool, error) {
	if g.allowAll {
		return true, nil
	}
	ev, err := g.store.Events().GetByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	return matchmakingTiers[ev.Tier], nil
}
