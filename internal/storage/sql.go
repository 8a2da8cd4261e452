package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      capture_interface,
                      target,
                      bandwidth,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    capture_interface,
    target,
    bandwidth,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    capture_interface,
    target,
    bandwidth,
    config
FROM sessions
ORDER BY start_time`

	selectAmplitudesSQL = `
SELECT
    timestamp,
    subcarrier,
    amplitude
FROM amplitudes
WHERE
    session_id = ?
    AND (? IS NULL OR timestamp >= ?)
    AND (? IS NULL OR timestamp <= ?)
ORDER BY timestamp, subcarrier`

	// Indexes are created on Close, after bulk inserts are done.
	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_amplitudes_session_time ON amplitudes (session_id, timestamp)`
)

//go:embed schema.sql
var initSchemaSQL string
