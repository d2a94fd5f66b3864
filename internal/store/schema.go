package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS payments (
    id                   TEXT PRIMARY KEY,
    tax_year             INTEGER NOT NULL,
    quarter              INTEGER NOT NULL,
    due_date             TEXT NOT NULL,
    estimated_amount     TEXT NOT NULL,
    estimated_federal    TEXT NOT NULL,
    estimated_state      TEXT NOT NULL,
    paid_amount          TEXT NOT NULL DEFAULT '0',
    is_paid              INTEGER NOT NULL DEFAULT 0,
    notes                TEXT NOT NULL DEFAULT '',
    payment_date         TEXT,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL,
    UNIQUE (tax_year, quarter)
);

CREATE TABLE IF NOT EXISTS reminders (
    id                   TEXT PRIMARY KEY,
    payment_id           TEXT NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
    title                TEXT NOT NULL,
    body                 TEXT NOT NULL,
    fire_at              INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payments_year ON payments(tax_year);
CREATE INDEX IF NOT EXISTS idx_reminders_fire_at ON reminders(fire_at);
`
