package joblog

import (
	"context"
	"database/sql"
	"encoding/json"

	"shadow7-backend/internal/shared/telemetry"
)

// PGLog writes entries to the shadow7_logs table. Append swallows database
// errors after reporting them to telemetry.
type PGLog struct {
	DB *sql.DB
}

func (l *PGLog) Append(ctx context.Context, e Entry) {
	const query = `
INSERT INTO shadow7_logs (request_id, level, module, message, details)
VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5::jsonb)`

	level := e.Level
	if level == "" {
		level = LevelInfo
	}

	var details any
	if e.Details != nil {
		payload, err := json.Marshal(e.Details)
		if err != nil {
			telemetry.Warn("joblog marshal failed", map[string]any{"error": err.Error(), "module": e.Module})
		} else {
			details = payload
		}
	}

	if _, err := l.DB.ExecContext(ctx, query, e.RequestID, level, e.Module, e.Message, details); err != nil {
		telemetry.Warn("joblog append failed", map[string]any{
			"error":      err.Error(),
			"module":     e.Module,
			"request_id": e.RequestID,
		})
	}
}

var _ Appender = (*PGLog)(nil)
