package imagestore

// SchemaVersion is the current index schema version.
const SchemaVersion = 1

// Schema creates the SQLite index tables.
const Schema = `
CREATE TABLE IF NOT EXISTS images (
    path TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    capture_time TEXT NOT NULL, -- UTC, fixed-width so it sorts lexically
    file_size INTEGER NOT NULL,
    width INTEGER,
    height INTEGER,

    -- Exposure settings
    period TEXT,
    exposure INTEGER,
    gain INTEGER,

    -- JSON snapshots
    weather_data TEXT,
    astronomy_data TEXT
);

CREATE INDEX IF NOT EXISTS idx_images_capture_time ON images(capture_time);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
