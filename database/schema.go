package database

// schemaSQL is the DDL for the venue table. Attributes are kept as a JSON
// column and matched with json_extract, so every domain shares one table.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS venues (
    domain   TEXT NOT NULL,
    venue_id TEXT NOT NULL,
    attrs    JSON NOT NULL,
    PRIMARY KEY (domain, venue_id)
);

CREATE INDEX IF NOT EXISTS idx_venues_domain ON venues(domain);
`
