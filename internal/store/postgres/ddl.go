package postgres

// Schema statements are normally applied by compose migrations; EnsureSchema
// exists for dev environments and tooling that bootstrap a bare database.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS events (
    event_id      TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    start_time    TIMESTAMPTZ NOT NULL,
    end_time      TIMESTAMPTZ NOT NULL,
    tier          TEXT NOT NULL DEFAULT 'free',
    status        TEXT NOT NULL DEFAULT 'ACTIVE',
    creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS participants (
    event_id          TEXT NOT NULL REFERENCES events(event_id),
    participant_id    TEXT NOT NULL,
    display_name      TEXT NOT NULL DEFAULT '',
    primary_intent    TEXT NOT NULL DEFAULT '',
    secondary_intents JSONB,
    looking_for       JSONB,
    offering          JSONB,
    industries        JSONB,
    tags              JSONB,
    visibility        TEXT NOT NULL DEFAULT 'public',
    creation_time     TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_update_time  TIMESTAMPTZ,
    PRIMARY KEY (event_id, participant_id)
);

CREATE TABLE IF NOT EXISTS connections (
    participant_id TEXT NOT NULL,
    contact_id     TEXT NOT NULL,
    PRIMARY KEY (participant_id, contact_id)
);

CREATE TABLE IF NOT EXISTS matches (
    match_id        TEXT PRIMARY KEY,
    event_id        TEXT NOT NULL REFERENCES events(event_id),
    participant_a   TEXT NOT NULL,
    participant_b   TEXT NOT NULL,
    pair_key        TEXT NOT NULL,
    score           DOUBLE PRECISION NOT NULL,
    reasons         JSONB,
    accepted_a      BOOLEAN NOT NULL DEFAULT FALSE,
    accepted_b      BOOLEAN NOT NULL DEFAULT FALSE,
    status          TEXT NOT NULL DEFAULT 'pending',
    creation_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
    acceptance_time TIMESTAMPTZ,
    expires_at      TIMESTAMPTZ NOT NULL,
    UNIQUE (event_id, pair_key)
);

CREATE TABLE IF NOT EXISTS clusters (
    cluster_id        TEXT PRIMARY KEY,
    event_id          TEXT NOT NULL REFERENCES events(event_id),
    name              TEXT NOT NULL,
    members           JSONB NOT NULL,
    cohesion          DOUBLE PRECISION NOT NULL,
    shared_intents    JSONB,
    shared_industries JSONB,
    creation_time     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS outbox (
    id              BIGSERIAL PRIMARY KEY,
    op              TEXT NOT NULL,
    aggregate_id    TEXT NOT NULL,
    payload         JSONB NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempt_count   INT NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    creation_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
    update_time     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_matches_event ON matches(event_id);
CREATE INDEX IF NOT EXISTS idx_clusters_event ON clusters(event_id);
CREATE INDEX IF NOT EXISTS idx_outbox_ready ON outbox(status, next_attempt_at);
`
