package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/extractlab/idgen"
)

// ProcessingEvent describes one extraction run.
type ProcessingEvent struct {
	Library     string
	FileName    string
	MIMEType    string
	FileSize    int64
	Transport   string
	TraceID     string
	Success     bool
	Error       string
	ResultChars int
	Attachments int
	Duration    time.Duration
}

// EventLogger writes processing events and answers summary queries.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given observability database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogProcessing records a processing run. Non-blocking: errors are logged via
// slog but do not propagate, so a failing store never fails an extraction.
func (l *EventLogger) LogProcessing(ctx context.Context, ev ProcessingEvent) {
	if l == nil {
		return
	}
	transport := ev.Transport
	if transport == "" {
		transport = "http"
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO processing_events (
			event_id, library, file_name, mime_type, file_size, transport, trace_id,
			success, error_message, result_chars, attachments, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.newID(), ev.Library, ev.FileName, ev.MIMEType, ev.FileSize, transport, ev.TraceID,
		ev.Success, ev.Error, ev.ResultChars, ev.Attachments, ev.Duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		slog.Error("observability processing log failed", "error", err, "library", ev.Library)
	}
}

// LibraryStats summarises the runs of one library.
type LibraryStats struct {
	Library   string  `json:"library"`
	Runs      int     `json:"runs"`
	Failures  int     `json:"failures"`
	AvgMillis float64 `json:"avg_ms"`
	LastRunAt int64   `json:"last_run_at"`
}

// Stats returns per-library counters, most used library first.
func (l *EventLogger) Stats(ctx context.Context) ([]LibraryStats, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT library, COUNT(*), SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
		       AVG(duration_ms), MAX(created_at)
		FROM processing_events
		GROUP BY library
		ORDER BY COUNT(*) DESC, library`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []LibraryStats
	for rows.Next() {
		var s LibraryStats
		if err := rows.Scan(&s.Library, &s.Runs, &s.Failures, &s.AvgMillis, &s.LastRunAt); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RetentionConfig specifies per-table retention in days. Zero means no cleanup.
type RetentionConfig struct {
	EventsDays     int
	MetricsDays    int
	RunVacuumAfter bool
}

// Cleanup deletes records exceeding the retention thresholds.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) error {
	now := time.Now().Unix()

	// Table and column names are interpolated; keep them to this whitelist.
	allowedTables := map[string]bool{
		"processing_events":  true,
		"metrics_timeseries": true,
	}
	allowedColumns := map[string]bool{
		"created_at": true,
		"timestamp":  true,
	}

	type cleanupTarget struct {
		table  string
		column string
		days   int
	}
	targets := []cleanupTarget{
		{"processing_events", "created_at", cfg.EventsDays},
		{"metrics_timeseries", "timestamp", cfg.MetricsDays},
	}

	for _, t := range targets {
		if t.days <= 0 {
			continue
		}
		if !allowedTables[t.table] || !allowedColumns[t.column] {
			return fmt.Errorf("cleanup: invalid table/column %s/%s", t.table, t.column)
		}
		cutoff := now - int64(t.days*86400)
		q := fmt.Sprintf("DELETE FROM %s WHERE %s < ?", t.table, t.column)
		if _, err := db.ExecContext(ctx, q, cutoff); err != nil {
			return fmt.Errorf("cleanup %s: %w", t.table, err)
		}
	}

	if cfg.RunVacuumAfter {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
	}
	return nil
}
