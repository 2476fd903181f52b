package sqlite

// infraSchema holds the grant and identity tables. Record tables are
// generated from the schema registry.
const infraSchema = `
CREATE TABLE IF NOT EXISTS role_grants (
    role_level INTEGER NOT NULL,
    capability TEXT NOT NULL,
    PRIMARY KEY (role_level, capability)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS department_grants (
    department_id TEXT NOT NULL,
    capability TEXT NOT NULL,
    PRIMARY KEY (department_id, capability)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS user_grants (
    user_id TEXT NOT NULL,
    capability TEXT NOT NULL,
    PRIMARY KEY (user_id, capability)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    has_system_access INTEGER NOT NULL DEFAULT 1,
    mfa_secret TEXT,
    last_login INTEGER            -- Unix timestamp
);

CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    session_hash TEXT NOT NULL,
    expires_at INTEGER NOT NULL,  -- Unix timestamp
    revoked_at INTEGER,
    FOREIGN KEY(user_id) REFERENCES users(user_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sessions_lookup ON sessions(user_id, session_hash);
CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at);
`
