package compat

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/confera/matching-service/internal/model"
)

// SemanticSource supplies the externally computed semantic similarity for a
// participant pair. Implementations must return a value in [0,1]; a failed
// lookup degrades the pair's semantic contribution to zero, it never fails
// the matrix build.
type SemanticSource interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// NoSemantic is a SemanticSource that always reports zero similarity. Used
// when no vector index is configured.
type NoSemantic struct{}

func (NoSemantic) Similarity(context.Context, string, string) (float64, error) { return 0, nil }

// Pair is one unordered participant pair with its computed score.
type Pair struct {
	A, B  string
	Score model.CompatibilityScore
}

// Matrix holds the dense symmetric score table for one participant set.
// Row/column order follows the input participant order, which downstream
// tie-breaking depends on.
type Matrix struct {
	order []string
	index map[string]int
	cells [][]model.CompatibilityScore
}

// Participants returns participant ids in stable input order.
func (m *Matrix) Participants() []string { return m.order }

// Len returns the number of participants in the matrix.
func (m *Matrix) Len() int { return len(m.order) }

// Score returns the score for an unordered pair; ok is false when either id
// is unknown or a == b.
func (m *Matrix) Score(a, b string) (model.CompatibilityScore, bool) {
	ia, okA := m.index[a]
	ib, okB := m.index[b]
	if !okA || !okB || ia == ib {
		return model.CompatibilityScore{}, false
	}
	return m.cells[ia][ib], true
}

// Pairs enumerates all unordered pairs in stable (i < j) input order.
func (m *Matrix) Pairs() []Pair {
	var out []Pair
	for i := 0; i < len(m.order); i++ {
		for j := i + 1; j < len(m.order); j++ {
			out = append(out, Pair{A: m.order[i], B: m.order[j], Score: m.cells[i][j]})
		}
	}
	return out
}

// Builder computes compatibility matrices with a bounded worker pool. Pair
// computations are independent; the final matrix is assembled by the single
// Build goroutine so there are no concurrent writers to a cell.
type Builder struct {
	sem     SemanticSource
	workers int
}

// NewBuilder constructs a Builder. workers <= 0 falls back to 1.
func NewBuilder(sem SemanticSource, workers int) *Builder {
	if sem == nil {
		sem = NoSemantic{}
	}
	if workers <= 0 {
		workers = 1
	}
	return &Builder{sem: sem, workers: workers}
}

type pairJob struct{ i, j int }

type pairResult struct {
	i, j  int
	score model.CompatibilityScore
}

// Build computes score(i,j) for every unordered pair once and stores the
// result symmetrically. Zero or one participants yield an empty matrix
// without error.
func (b *Builder) Build(ctx context.Context, participants []*model.Participant) (*Matrix, error) {
	m := &Matrix{
		order: make([]string, len(participants)),
		index: make(map[string]int, len(participants)),
		cells: make([][]model.CompatibilityScore, len(participants)),
	}
	for i, p := range participants {
		m.order[i] = p.ParticipantID
		m.index[p.ParticipantID] = i
		m.cells[i] = make([]model.CompatibilityScore, len(participants))
	}
	if len(participants) < 2 {
		return m, nil
	}

	jobs := make(chan pairJob)
	results := make(chan pairResult, b.workers)

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				pa, pb := participants[job.i], participants[job.j]
				sem, err := b.sem.Similarity(ctx, pa.ParticipantID, pb.ParticipantID)
				if err != nil {
					// Collaborator unavailability degrades gracefully.
					log.Debug().Err(err).
						Str("a", pa.ParticipantID).
						Str("b", pb.ParticipantID).
						Msg("semantic lookup failed, scoring without it")
					sem = 0
				}
				results <- pairResult{i: job.i, j: job.j, score: Score(pa, pb, sem)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < len(participants); i++ {
			for j := i + 1; j < len(participants); j++ {
				select {
				case jobs <- pairJob{i, j}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		m.cells[r.i][r.j] = r.score
		m.cells[r.j][r.i] = r.score
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
