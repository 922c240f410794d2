package kvstore

// Schema contains the SQL statements to create the key-value table.
const Schema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// maxKeyLength is the longest key the store accepts.
const maxKeyLength = 255
