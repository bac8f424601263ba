package store

// Schema provisioning is idempotent: every statement is CREATE IF NOT
// EXISTS. The (company, text) pair on mentions carries a database-level
// uniqueness constraint so the writer's pre-check is backstopped under
// concurrent writers.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS mentions (
	id SERIAL PRIMARY KEY,
	company TEXT NOT NULL,
	source TEXT,
	type TEXT,
	sentiment TEXT,
	keywords TEXT,
	text TEXT NOT NULL,
	translated TEXT,
	rating DOUBLE PRECISION,
	UNIQUE (company, text)
);

CREATE INDEX IF NOT EXISTS idx_mentions_company ON mentions(company);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id SERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	company TEXT NOT NULL,
	role TEXT NOT NULL,
	message TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_sessions_lookup ON chat_sessions(session_id, company, timestamp);

CREATE TABLE IF NOT EXISTS companies (
	name TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS mentions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company TEXT NOT NULL,
	source TEXT,
	type TEXT,
	sentiment TEXT,
	keywords TEXT,
	text TEXT NOT NULL,
	translated TEXT,
	rating REAL,
	UNIQUE (company, text)
);

CREATE INDEX IF NOT EXISTS idx_mentions_company ON mentions(company);

CREATE TABLE IF NOT EXISTS chat_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	company TEXT NOT NULL,
	role TEXT NOT NULL,
	message TEXT NOT NULL,
	timestamp DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_sessions_lookup ON chat_sessions(session_id, company, timestamp);

CREATE TABLE IF NOT EXISTS companies (
	name TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

func (s *Store) migrate() error {
	schema := sqliteSchema
	if s.driver == "postgres" {
		schema = postgresSchema
	}
	_, err := s.db.Exec(schema)
	return err
}
