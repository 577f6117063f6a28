package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/confera/matching-service/internal/model"
	"github.com/confera/matching-service/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Events() store.Events             { return &events{db: s.db} }
func (s *pgStore) Participants() store.Participants { return &participants{db: s.db} }
func (s *pgStore) Matches() store.Matches           { return &matches{db: s.db} }
func (s *pgStore) Clusters() store.Clusters         { return &clusters{db: s.db} }
func (s *pgStore) Outbox() store.Outbox             { return &outbox{db: s.db} }

// HealthPing reports database reachability for the deep health probe.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema applies the DDL for dev environments that bootstrap a bare
// database. Production schemas come from compose migrations.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}

// Bootstrap performs a connectivity check to ensure Postgres is reachable.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.PingContext(ctx)
}

func marshalJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func unmarshalInto(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// --- Events ---

type events struct{ db *sql.DB }

func (e *events) Create(ctx context.Context, m *model.Event) (*model.Event, error) {
	id := m.EventID
	if id == "" {
		id = uuid.New().String()
	}
	tier := m.Tier
	if tier == "" {
		tier = "free"
	}
	var created time.Time
	row := e.db.QueryRowContext(ctx, `
        INSERT INTO events (event_id, title, start_time, end_time, tier, status)
        VALUES ($1,$2,$3,$4,$5,'ACTIVE')
        RETURNING creation_time
    `, id, m.Title, m.StartTime, m.EndTime, tier)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.EventID = id
	out.Tier = tier
	out.Status = "ACTIVE"
	out.CreationTime = created
	return &out, nil
}

func (e *events) GetByID(ctx context.Context, eventID string) (*model.Event, error) {
	var out model.Event
	row := e.db.QueryRowContext(ctx, `
        SELECT event_id, title, start_time, end_time, tier, status, creation_time
        FROM events WHERE event_id=$1
    `, eventID)
	if err := row.Scan(&out.EventID, &out.Title, &out.StartTime, &out.EndTime, &out.Tier, &out.Status, &out.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("eventId", eventID)
		}
		return nil, err
	}
	return &out, nil
}

// --- Participants ---

type participants struct{ db *sql.DB }

func (p *participants) Register(ctx context.Context, m *model.Participant) (*model.Participant, error) {
	secondary, _ := marshalJSON(m.SecondaryIntents)
	lookingFor, _ := marshalJSON(m.LookingFor)
	offering, _ := marshalJSON(m.Offering)
	industries, _ := marshalJSON(m.Industries)
	tags, _ := marshalJSON(m.Tags)

	visibility := m.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	var created time.Time
	row := p.db.QueryRowContext(ctx, `
        INSERT INTO participants
            (event_id, participant_id, display_name, primary_intent,
             secondary_intents, looking_for, offering, industries, tags, visibility)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING creation_time
    `, m.EventID, m.ParticipantID, m.DisplayName, string(m.PrimaryIntent),
		secondary, lookingFor, offering, industries, tags, string(visibility))
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.Visibility = visibility
	out.CreationTime = created
	return &out, nil
}

const participantColumns = `
    event_id, participant_id, display_name, primary_intent,
    secondary_intents, looking_for, offering, industries, tags,
    visibility, creation_time, last_update_time`

func scanParticipant(row interface{ Scan(...interface{}) error }) (*model.Participant, error) {
	var out model.Participant
	var primary, visibility string
	var secondary, lookingFor, offering, industries, tags []byte
	if err := row.Scan(
		&out.EventID, &out.ParticipantID, &out.DisplayName, &primary,
		&secondary, &lookingFor, &offering, &industries, &tags,
		&visibility, &out.CreationTime, &out.LastUpdateTime,
	); err != nil {
		return nil, err
	}
	out.PrimaryIntent = model.Intent(primary)
	out.Visibility = model.VisibilityMode(visibility)
	if err := unmarshalInto(secondary, &out.SecondaryIntents); err != nil {
		return nil, err
	}
	if err := unmarshalInto(lookingFor, &out.LookingFor); err != nil {
		return nil, err
	}
	if err := unmarshalInto(offering, &out.Offering); err != nil {
		return nil, err
	}
	if err := unmarshalInto(industries, &out.Industries); err != nil {
		return nil, err
	}
	if err := unmarshalInto(tags, &out.Tags); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *participants) GetByID(ctx context.Context, eventID, participantID string) (*model.Participant, error) {
	row := p.db.QueryRowContext(ctx, `
        SELECT `+participantColumns+`
        FROM participants WHERE event_id=$1 AND participant_id=$2
    `, eventID, participantID)
	out, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("participantId", participantID)
	}
	return out, err
}

func (p *participants) ListByEvent(ctx context.Context, eventID string) ([]*model.Participant, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT `+participantColumns+`
        FROM participants WHERE event_id=$1
        ORDER BY creation_time, participant_id
    `, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Participant
	for rows.Next() {
		m, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *participants) Update(ctx context.Context, m *model.Participant) (*model.Participant, error) {
	secondary, _ := marshalJSON(m.SecondaryIntents)
	lookingFor, _ := marshalJSON(m.LookingFor)
	offering, _ := marshalJSON(m.Offering)
	industries, _ := marshalJSON(m.Industries)
	tags, _ := marshalJSON(m.Tags)

	res, err := p.db.ExecContext(ctx, `
        UPDATE participants SET
            display_name=$3, primary_intent=$4, secondary_intents=$5,
            looking_for=$6, offering=$7, industries=$8, tags=$9,
            visibility=$10, last_update_time=now()
        WHERE event_id=$1 AND participant_id=$2
    `, m.EventID, m.ParticipantID, m.DisplayName, string(m.PrimaryIntent),
		secondary, lookingFor, offering, industries, tags, string(m.Visibility))
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.NewNotFoundError("participantId", m.ParticipantID)
	}
	return p.GetByID(ctx, m.EventID, m.ParticipantID)
}

func (p *participants) Withdraw(ctx context.Context, eventID, participantID string) error {
	res, err := p.db.ExecContext(ctx, `
        DELETE FROM participants WHERE event_id=$1 AND participant_id=$2
    `, eventID, participantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewNotFoundError("participantId", participantID)
	}
	return nil
}

func (p *participants) Connections(ctx context.Context, participantID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT contact_id FROM connections WHERE participant_id=$1
    `, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// --- Matches ---

type matches struct{ db *sql.DB }

// Create relies on the (event_id, pair_key) uniqueness constraint so two
// concurrent matching runs cannot insert duplicate pairs.
func (m *matches) Create(ctx context.Context, mt *model.Match) (bool, error) {
	reasons, _ := marshalJSON(mt.Reasons)
	res, err := m.db.ExecContext(ctx, `
        INSERT INTO matches
            (match_id, event_id, participant_a, participant_b, pair_key,
             score, reasons, accepted_a, accepted_b, status, creation_time, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (event_id, pair_key) DO NOTHING
    `, mt.MatchID, mt.EventID, mt.ParticipantA, mt.ParticipantB, mt.PairKey,
		mt.Score, reasons, mt.AcceptedA, mt.AcceptedB, string(mt.Status),
		mt.CreationTime, mt.ExpiresAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

const matchColumns = `
    match_id, event_id, participant_a, participant_b, pair_key, score,
    reasons, accepted_a, accepted_b, status, creation_time, acceptance_time, expires_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*model.Match, error) {
	var out model.Match
	var status string
	var reasons []byte
	if err := row.Scan(
		&out.MatchID, &out.EventID, &out.ParticipantA, &out.ParticipantB,
		&out.PairKey, &out.Score, &reasons, &out.AcceptedA, &out.AcceptedB,
		&status, &out.CreationTime, &out.AcceptanceTime, &out.ExpiresAt,
	); err != nil {
		return nil, err
	}
	out.Status = model.MatchStatus(status)
	if err := unmarshalInto(reasons, &out.Reasons); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *matches) GetByID(ctx context.Context, matchID string) (*model.Match, error) {
	row := m.db.QueryRowContext(ctx, `
        SELECT `+matchColumns+` FROM matches WHERE match_id=$1
    `, matchID)
	out, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("matchId", matchID)
	}
	return out, err
}

func (m *matches) ListByEvent(ctx context.Context, eventID string) ([]*model.Match, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT `+matchColumns+` FROM matches WHERE event_id=$1
        ORDER BY score DESC, creation_time
    `, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMatches(rows)
}

func (m *matches) ListForParticipant(ctx context.Context, eventID, participantID string) ([]*model.Match, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT `+matchColumns+` FROM matches
        WHERE event_id=$1 AND (participant_a=$2 OR participant_b=$2)
        ORDER BY score DESC, creation_time
    `, eventID, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMatches(rows)
}

func collectMatches(rows *sql.Rows) ([]*model.Match, error) {
	var out []*model.Match
	for rows.Next() {
		mt, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

// UpdateLocked serializes concurrent responses to the same match with a
// row-level lock; the status decision always sees both acceptance flags as
// currently persisted.
func (m *matches) UpdateLocked(ctx context.Context, matchID string, fn func(*model.Match) error) (*model.Match, error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
        SELECT `+matchColumns+` FROM matches WHERE match_id=$1 FOR UPDATE
    `, matchID)
	mt, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("matchId", matchID)
		}
		return nil, err
	}

	if err := fn(mt); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
        UPDATE matches SET accepted_a=$2, accepted_b=$3, status=$4, acceptance_time=$5
        WHERE match_id=$1
    `, mt.MatchID, mt.AcceptedA, mt.AcceptedB, string(mt.Status), mt.AcceptanceTime); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return mt, nil
}

func (m *matches) ExpirePending(ctx context.Context, eventID string, now time.Time) (int64, error) {
	res, err := m.db.ExecContext(ctx, `
        UPDATE matches SET status='expired'
        WHERE event_id=$1 AND status='pending' AND expires_at < $2
    `, eventID, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Clusters ---

type clusters struct{ db *sql.DB }

// ReplaceForEvent swaps the whole cluster set inside one transaction so
// readers never observe a mixed old/new state.
func (c *clusters) ReplaceForEvent(ctx context.Context, eventID string, cs []*model.Cluster) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM clusters WHERE event_id=$1`, eventID); err != nil {
		return err
	}
	for _, cl := range cs {
		members, _ := marshalJSON(cl.Members)
		intents, _ := marshalJSON(cl.SharedIntents)
		industries, _ := marshalJSON(cl.SharedIndustries)
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO clusters
                (cluster_id, event_id, name, members, cohesion,
                 shared_intents, shared_industries, creation_time)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        `, cl.ClusterID, eventID, cl.Name, members, cl.Cohesion,
			intents, industries, cl.CreationTime); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (c *clusters) ListByEvent(ctx context.Context, eventID string) ([]*model.Cluster, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT cluster_id, event_id, name, members, cohesion,
               shared_intents, shared_industries, creation_time
        FROM clusters WHERE event_id=$1
        ORDER BY cohesion DESC, cluster_id
    `, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Cluster
	for rows.Next() {
		var cl model.Cluster
		var members, intents, industries []byte
		if err := rows.Scan(&cl.ClusterID, &cl.EventID, &cl.Name, &members,
			&cl.Cohesion, &intents, &industries, &cl.CreationTime); err != nil {
			return nil, err
		}
		if err := unmarshalInto(members, &cl.Members); err != nil {
			return nil, err
		}
		if err := unmarshalInto(intents, &cl.SharedIntents); err != nil {
			return nil, err
		}
		if err := unmarshalInto(industries, &cl.SharedIndustries); err != nil {
			return nil, err
		}
		out = append(out, &cl)
	}
	return out, rows.Err()
}

func (c *clusters) OldestCreation(ctx context.Context, eventID string) (*time.Time, error) {
	var oldest *time.Time
	row := c.db.QueryRowContext(ctx, `
        SELECT MIN(creation_time) FROM clusters WHERE event_id=$1
    `, eventID)
	if err := row.Scan(&oldest); err != nil {
		return nil, err
	}
	return oldest, nil
}

// --- Outbox ---

type outbox struct{ db *sql.DB }

func (o *outbox) Enqueue(ctx context.Context, op, aggregateID string, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = o.db.ExecContext(ctx, `
        INSERT INTO outbox (op, aggregate_id, payload) VALUES ($1,$2,$3)
    `, op, aggregateID, raw)
	return err
}
