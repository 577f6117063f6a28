package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rs/zerolog"

	"github.com/confera/matching-service/internal/embeddings"
	"github.com/confera/matching-service/internal/graph"
	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/notify"
	"github.com/confera/matching-service/internal/vectorindex"
)

// SQL statements kept as constants for clarity and reuse
const (
	selectReadyRowsSQL = `
SELECT id, op, payload, aggregate_id
FROM outbox
WHERE status = 'pending' AND next_attempt_at <= now()
ORDER BY id ASC
FOR UPDATE SKIP LOCKED
LIMIT $1`

	markDoneSQL = `UPDATE outbox SET status='done', update_time=now() WHERE id=$1`

	markFailedSQL = `
UPDATE outbox
SET attempt_count = attempt_count + 1,
    next_attempt_at = now() + make_interval(secs => LEAST(POWER(2, attempt_count+1), 300)),
    update_time = now()
WHERE id=$1`

	expirePendingSQL = `
UPDATE matches
SET status='expired'
WHERE status='pending' AND expires_at <= now()`
)

// Config controls batch size, polling cadence and the expiry sweep cadence.
type Config struct {
	BatchSize     int           // number of rows to lease per cycle
	Interval      time.Duration // poll interval
	SweepInterval time.Duration // cadence of the pending-match expiry sweep
}

// Worker processes outbox rows, dispatching each op to its target: the
// graph store, the notification webhook, or the profile vector index. It
// also runs the periodic expiry sweep over pending matches.
type Worker struct {
	db       *sql.DB
	log      zerolog.Logger
	embedder embeddings.EmbeddingProvider
	index    vectorindex.Index
	syncer   graph.Syncer
	notifier notify.Dispatcher
	cfg      Config
}

// NewWorker constructs a Worker from dependencies. Any of embedder, index,
// syncer or notifier may be nil; ops targeting a nil dependency are skipped.
func NewWorker(db *sql.DB, emb embeddings.EmbeddingProvider, idx vectorindex.Index, sync graph.Syncer, ntf notify.Dispatcher, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Worker{db: db, log: log, embedder: emb, index: idx, syncer: sync, notifier: ntf, cfg: cfg}
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("relay worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	sweep := time.NewTicker(w.cfg.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("relay worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				// Log and continue; per-row backoff prevents hot-looping
				w.log.Error().Err(err).Msg("relay processOnce")
			}
		case <-sweep.C:
			if err := w.sweepExpired(ctx); err != nil {
				w.log.Error().Err(err).Msg("expiry sweep")
			}
		}
	}
}

type job struct {
	id          int64
	op          string
	aggregateID string
	payload     map[string]interface{}
}

func (w *Worker) processOnce(ctx context.Context) error {
	tx, err := w.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	jobs, err := w.leaseBatch(ctx, tx, w.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return tx.Commit()
	}

	for _, j := range jobs {
		if err := w.handle(ctx, j); err != nil {
			if e := w.markFailed(ctx, tx, j.id); e != nil {
				w.log.Error().Err(e).Int64("id", j.id).Msg("markFailed error")
			}
			continue
		}
		if e := w.markDone(ctx, tx, j.id); e != nil {
			w.log.Error().Err(e).Int64("id", j.id).Msg("markDone error")
		}
	}

	return tx.Commit()
}

// leaseBatch locks and returns up to batchSize ready outbox rows.
func (w *Worker) leaseBatch(ctx context.Context, tx *sql.Tx, batchSize int) ([]job, error) {
	rows, err := tx.QueryContext(ctx, selectReadyRowsSQL, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []job
	for rows.Next() {
		var j job
		var raw []byte
		if err := rows.Scan(&j.id, &j.op, &raw, &j.aggregateID); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &j.payload); err != nil {
			// Poison pill: mark failed so it backs off and won’t hot-loop
			if e := w.markFailed(ctx, tx, j.id); e != nil {
				w.log.Error().Err(e).Int64("id", j.id).Msg("markFailed error")
			}
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// handle executes the outbox operation.
func (w *Worker) handle(ctx context.Context, j job) error {
	switch j.op {
	case OpSyncMatch:
		if w.syncer == nil {
			return nil
		}
		return w.syncer.SyncMatch(ctx, matchFromPayload(j.payload))
	case OpSyncAttendance:
		if w.syncer == nil {
			return nil
		}
		return w.syncer.SyncAttendance(ctx, participantFromPayload(j.payload))
	case OpNotifyProposed:
		return w.dispatch(ctx, notify.KindMatchProposed, j.payload)
	case OpNotifyAccepted:
		return w.dispatch(ctx, notify.KindMatchAccepted, j.payload)
	case OpUpsertProfile:
		if w.index == nil {
			return nil
		}
		text := stringField(j.payload, "profileText")
		vec, err := w.embed(ctx, text)
		if err != nil {
			return err
		}
		return w.index.UpsertProfile(ctx, stringField(j.payload, "participantId"), vec, j.payload)
	case OpDeleteProfile:
		if w.index == nil {
			return nil
		}
		return w.index.DeleteProfile(ctx, stringField(j.payload, "participantId"))
	default:
		return fmt.Errorf("unknown op: %s", j.op)
	}
}

func (w *Worker) dispatch(ctx context.Context, kind string, p map[string]interface{}) error {
	if w.notifier == nil {
		return nil
	}
	return w.notifier.Dispatch(ctx, notify.Notification{
		Kind:         kind,
		EventID:      stringField(p, "eventId"),
		MatchID:      stringField(p, "matchId"),
		Participants: []string{stringField(p, "participantA"), stringField(p, "participantB")},
		Score:        floatField(p, "score"),
	})
}

// sweepExpired transitions pending matches past their deadline to expired.
// Idempotent across worker instances.
func (w *Worker) sweepExpired(ctx context.Context) error {
	res, err := w.db.ExecContext(ctx, expirePendingSQL)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		w.log.Info().Int64("expired", n).Msg("pending matches expired")
	}
	return nil
}

func (w *Worker) markDone(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, markDoneSQL, id)
	return err
}

func (w *Worker) markFailed(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, markFailedSQL, id)
	return err
}

// embed guards nil embedder usage; profiles without vectors still land in
// the index payload store and simply contribute zero semantic signal.
func (w *Worker) embed(ctx context.Context, text string) ([]float32, error) {
	if w.embedder == nil || text == "" {
		return nil, nil
	}
	return w.embedder.Embed(ctx, text)
}

func matchFromPayload(p map[string]interface{}) *model.Match {
	return &model.Match{
		MatchID:      stringField(p, "matchId"),
		EventID:      stringField(p, "eventId"),
		ParticipantA: stringField(p, "participantA"),
		ParticipantB: stringField(p, "participantB"),
		Score:        floatField(p, "score"),
		Status:       model.MatchStatus(stringField(p, "status")),
	}
}

func participantFromPayload(p map[string]interface{}) *model.Participant {
	return &model.Participant{
		ParticipantID: stringField(p, "participantId"),
		EventID:       stringField(p, "eventId"),
		LookingFor:    needSlice(p, "lookingFor"),
		Offering:      needSlice(p, "offering"),
		Visibility:    model.VisibilityMode(stringField(p, "visibility")),
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case string:
			return t
		}
	}
	return ""
}

func floatField(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return t
		}
	}
	return 0
}

// needSlice tolerates both []Need (enqueued in-process) and []interface{}
// (round-tripped through JSON).
func needSlice(m map[string]interface{}, key string) []model.Need {
	v, ok := m[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []model.Need:
		return t
	case []interface{}:
		out := make([]model.Need, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, model.Need(s))
			}
		}
		return out
	}
	return nil
}
