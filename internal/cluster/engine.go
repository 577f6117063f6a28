// Package cluster greedily partitions an eligible participant set into
// cohesive meeting zones of bounded size, maximizing per-group average
// pairwise compatibility without requiring global optimality.
package cluster

import (
	"sort"
	"time"

	"github.com/confera/matching-service/internal/compat"
	"github.com/confera/matching-service/internal/model"
)

const (
	// MinZoneCompatibility is the admission bar for seeding and growing.
	MinZoneCompatibility = 0.6

	// RemainderCohesionFactor lowers the bar for the leftover fallback zone.
	RemainderCohesionFactor = 0.8

	MinClusterSize = 3
	MaxClusterSize = 5

	// MaxZonesPerEvent caps how many zones one run may seed.
	MaxZonesPerEvent = 10

	// RegenerationInterval is how long a cluster set stays fresh; older sets
	// are recomputed on request.
	RegenerationInterval = 30 * time.Minute

	// MaxSharedCharacteristics caps the derived majority intents/industries.
	MaxSharedCharacteristics = 3
)

// Zone is one computed cluster before persistence: members, cohesion, and
// majority characteristics. IDs and display names are assigned by the caller.
type Zone struct {
	Members          []string
	Cohesion         float64
	SharedIntents    []string
	SharedIndustries []string
}

// Engine runs the greedy clustering pass over a prebuilt score matrix.
type Engine struct {
	matrix       *compat.Matrix
	participants map[string]*model.Participant
}

// NewEngine builds an engine over the matrix and the participant set it was
// computed from.
func NewEngine(m *compat.Matrix, participants []*model.Participant) *Engine {
	byID := make(map[string]*model.Participant, len(participants))
	for _, p := range participants {
		byID[p.ParticipantID] = p
	}
	return &Engine{matrix: m, participants: byID}
}

// Run executes the full pass: seed, grow, discard undersized, remainder
// fallback, split oversized. Tie-breaking follows stable input ordering so
// identical inputs always produce identical zones.
func (e *Engine) Run() []Zone {
	if e.matrix.Len() < MinClusterSize {
		return nil
	}

	pairs := e.matrix.Pairs()
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Score.Total > pairs[j].Score.Total
	})

	assigned := make(map[string]bool)

	// Seed: highest-scoring unassigned pairs above the bar.
	var clusters [][]string
	for _, p := range pairs {
		if len(clusters) >= MaxZonesPerEvent {
			break
		}
		if assigned[p.A] || assigned[p.B] || p.Score.Total < MinZoneCompatibility {
			continue
		}
		clusters = append(clusters, []string{p.A, p.B})
		assigned[p.A] = true
		assigned[p.B] = true
	}

	// Grow each cluster greedily from the unassigned pool.
	for i := range clusters {
		clusters[i] = e.grow(clusters[i], assigned)
	}

	// Discard undersized clusters, releasing members.
	kept := clusters[:0]
	for _, c := range clusters {
		if len(c) < MinClusterSize {
			for _, id := range c {
				assigned[id] = false
			}
			continue
		}
		kept = append(kept, c)
	}
	clusters = kept

	// Remainder pass: one fallback zone from leftovers at a lower bar.
	if len(clusters) < MaxZonesPerEvent {
		var rest []string
		for _, id := range e.matrix.Participants() {
			if !assigned[id] {
				rest = append(rest, id)
			}
		}
		if len(rest) >= MinClusterSize {
			fallback := rest
			if len(fallback) > MaxClusterSize {
				fallback = fallback[:MaxClusterSize]
			}
			if e.cohesion(fallback) >= MinZoneCompatibility*RemainderCohesionFactor {
				clusters = append(clusters, fallback)
			}
		}
	}

	// Split any oversized cluster into consecutive chunks.
	var final [][]string
	for _, c := range clusters {
		final = append(final, splitOversized(c)...)
	}

	zones := make([]Zone, 0, len(final))
	for _, members := range final {
		zones = append(zones, Zone{
			Members:          members,
			Cohesion:         e.cohesion(members),
			SharedIntents:    e.majorityIntents(members),
			SharedIndustries: e.majorityIndustries(members),
		})
	}
	return zones
}

// grow admits the unassigned candidate with the highest average score
// against current members, while that average clears the bar and the
// cluster has room. First-encountered candidate wins ties.
func (e *Engine) grow(members []string, assigned map[string]bool) []string {
	for len(members) < MaxClusterSize {
		best := ""
		bestAvg := 0.0
		for _, id := range e.matrix.Participants() {
			if assigned[id] {
				continue
			}
			avg := e.avgAgainst(id, members)
			if avg >= MinZoneCompatibility && avg > bestAvg {
				best = id
				bestAvg = avg
			}
		}
		if best == "" {
			break
		}
		members = append(members, best)
		assigned[best] = true
	}
	return members
}

func (e *Engine) avgAgainst(id string, members []string) float64 {
	if len(members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range members {
		s, ok := e.matrix.Score(id, m)
		if !ok {
			return 0
		}
		sum += s.Total
	}
	return sum / float64(len(members))
}

// cohesion is the mean pairwise score across all members.
func (e *Engine) cohesion(members []string) float64 {
	if len(members) < 2 {
		return 0
	}
	var sum float64
	var n int
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			s, ok := e.matrix.Score(members[i], members[j])
			if !ok {
				continue
			}
			sum += s.Total
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// splitOversized slices a cluster into consecutive chunks of at most
// MaxClusterSize, dropping a trailing chunk below MinClusterSize.
func splitOversized(members []string) [][]string {
	if len(members) <= MaxClusterSize {
		return [][]string{members}
	}
	var out [][]string
	for start := 0; start < len(members); start += MaxClusterSize {
		end := start + MaxClusterSize
		if end > len(members) {
			end = len(members)
		}
		chunk := members[start:end]
		if len(chunk) < MinClusterSize {
			continue
		}
		out = append(out, chunk)
	}
	return out
}

func (e *Engine) majorityIntents(members []string) []string {
	var values [][]string
	for _, id := range members {
		p, ok := e.participants[id]
		if !ok {
			continue
		}
		var vs []string
		for _, in := range p.Intents() {
			vs = append(vs, string(in))
		}
		values = append(values, vs)
	}
	return majority(values, len(members))
}

func (e *Engine) majorityIndustries(members []string) []string {
	var values [][]string
	for _, id := range members {
		p, ok := e.participants[id]
		if !ok {
			continue
		}
		values = append(values, p.Industries)
	}
	return majority(values, len(members))
}

// majority returns values appearing in at least ceil(n/2) members, capped to
// the top MaxSharedCharacteristics by frequency. Frequency ties keep
// first-encountered order.
func majority(perMember [][]string, n int) []string {
	threshold := (n + 1) / 2
	counts := make(map[string]int)
	var order []string
	for _, vs := range perMember {
		seen := make(map[string]bool, len(vs))
		for _, v := range vs {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}
	}

	var hits []string
	for _, v := range order {
		if counts[v] >= threshold {
			hits = append(hits, v)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return counts[hits[i]] > counts[hits[j]] })
	if len(hits) > MaxSharedCharacteristics {
		hits = hits[:MaxSharedCharacteristics]
	}
	return hits
}

// Stale reports whether a cluster set needs recomputation, measured from the
// oldest cluster's creation time.
func Stale(oldest time.Time, now time.Time) bool {
	return now.Sub(oldest) > RegenerationInterval
}
