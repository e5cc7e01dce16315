package sqlite

import "database/sql"

// schema sets up the database tables. It runs on startup to ensure tables exist.
// Child tables cascade on session deletion; positions preserve entry order.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    step TEXT NOT NULL,
    loading INTEGER NOT NULL DEFAULT 0,
    error TEXT NOT NULL DEFAULT '',
    has_receipt INTEGER NOT NULL DEFAULT 0,
    total_price REAL NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT '',
    currency_symbol TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS receipt_items (
    session_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    price REAL NOT NULL,
    PRIMARY KEY (session_id, position),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS additional_costs (
    session_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    amount REAL NOT NULL,
    additional_cost INTEGER NOT NULL,
    PRIMARY KEY (session_id, position),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS participants (
    session_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (session_id, id),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS assignments (
    session_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    charge_id TEXT NOT NULL,
    PRIMARY KEY (session_id, charge_id),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS assignment_members (
    session_id TEXT NOT NULL,
    charge_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    participant_id TEXT NOT NULL,
    PRIMARY KEY (session_id, charge_id, participant_id),
    FOREIGN KEY (session_id, charge_id) REFERENCES assignments(session_id, charge_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_receipt_items_session_id ON receipt_items(session_id);
CREATE INDEX IF NOT EXISTS idx_additional_costs_session_id ON additional_costs(session_id);
CREATE INDEX IF NOT EXISTS idx_participants_session_id ON participants(session_id);
CREATE INDEX IF NOT EXISTS idx_assignments_session_id ON assignments(session_id);
CREATE INDEX IF NOT EXISTS idx_assignment_members_charge ON assignment_members(session_id, charge_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
