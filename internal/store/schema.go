package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id               TEXT PRIMARY KEY,
    input_path           TEXT NOT NULL,
    input_size           INTEGER NOT NULL,
    input_mtime          TEXT,
    conversations        INTEGER NOT NULL,
    messages             INTEGER NOT NULL,
    skipped_entries      INTEGER NOT NULL DEFAULT 0,
    generated_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    conversation_index   INTEGER NOT NULL,
    conversation_id      TEXT NOT NULL,
    message_id           TEXT NOT NULL,
    role                 TEXT NOT NULL,
    create_time          TEXT,
    content_type         TEXT NOT NULL,
    word_count           INTEGER NOT NULL,
    char_count           INTEGER NOT NULL,
    has_code             INTEGER NOT NULL DEFAULT 0,
    is_multimodal        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS conversations (
    run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    conversation_index   INTEGER NOT NULL,
    conversation_id      TEXT NOT NULL,
    title                TEXT NOT NULL,
    first_time           TEXT,
    last_time            TEXT,
    duration_minutes     REAL,
    messages             INTEGER NOT NULL,
    user_messages        INTEGER NOT NULL,
    assistant_messages   INTEGER NOT NULL,
    tool_messages        INTEGER NOT NULL,
    category             TEXT NOT NULL,
    PRIMARY KEY (run_id, conversation_index)
);

CREATE TABLE IF NOT EXISTS daily_counts (
    run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    date                 TEXT NOT NULL,
    messages             INTEGER NOT NULL,
    PRIMARY KEY (run_id, date)
);

CREATE INDEX IF NOT EXISTS idx_messages_run ON messages(run_id, conversation_index);
CREATE INDEX IF NOT EXISTS idx_runs_generated ON runs(generated_at);
`
