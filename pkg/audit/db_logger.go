package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the query side of the audit trail.
type Store interface {
	Query(ctx context.Context, filter Filter) ([]*Event, error)
}

// DBLogger writes events through database/sql and serves queries over the
// same table. The SQL is portable between PostgreSQL and SQLite.
type DBLogger struct {
	db     *sql.DB
	driver string
}

// NewDBLogger wraps an open database handle. driver is "postgres" or
// "sqlite3" and must match the handle's driver.
func NewDBLogger(db *sql.DB, driver string) *DBLogger {
	return &DBLogger{db: db, driver: driver}
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id            TEXT PRIMARY KEY,
	time          TIMESTAMP NOT NULL,
	action        TEXT NOT NULL,
	actor         TEXT NOT NULL DEFAULT '',
	outcome       TEXT NOT NULL,
	entity_counts TEXT NOT NULL DEFAULT '',
	strategy      TEXT NOT NULL DEFAULT '',
	job_id        TEXT NOT NULL DEFAULT '',
	details       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_events_time ON audit_events (time);
CREATE INDEX IF NOT EXISTS idx_audit_events_action ON audit_events (action);
`

// EnsureSchema creates the audit table and indexes if absent.
func (l *DBLogger) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(auditSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure audit schema: %w", err)
		}
	}
	return nil
}

func (l *DBLogger) rebind(query string) string {
	if l.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Log implements Logger.
func (l *DBLogger) Log(ctx context.Context, event *Event) error {
	counts, err := marshalOrEmpty(event.EntityCounts)
	if err != nil {
		return fmt.Errorf("failed to encode entity counts: %w", err)
	}
	details, err := marshalOrEmpty(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}

	_, err = l.db.ExecContext(ctx, l.rebind(`
		INSERT INTO audit_events (id, time, action, actor, outcome, entity_counts, strategy, job_id, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		event.ID.String(), event.Time, string(event.Action), event.Actor,
		string(event.Outcome), counts, event.Strategy, event.JobID, details,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// Close implements Logger. The database handle belongs to the caller.
func (l *DBLogger) Close() error { return nil }

// PurgeBefore deletes events older than cutoff and returns how many rows
// went. The janitor calls this on its daily retention sweep.
func (l *DBLogger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, l.rebind(`DELETE FROM audit_events WHERE time < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Query implements Store.
func (l *DBLogger) Query(ctx context.Context, filter Filter) ([]*Event, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Action != "" {
		where = append(where, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, filter.Actor)
	}
	if filter.JobID != "" {
		where = append(where, "job_id = ?")
		args = append(args, filter.JobID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "time >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		where = append(where, "time < ?")
		args = append(args, filter.Until)
	}

	query := "SELECT id, time, action, actor, outcome, entity_counts, strategy, job_id, details FROM audit_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY time DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query += " LIMIT " + strconv.Itoa(limit)
	if filter.Offset > 0 {
		query += " OFFSET " + strconv.Itoa(filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, l.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (*Event, error) {
	var (
		event           Event
		id              string
		action, outcome string
		counts, details string
	)
	if err := rows.Scan(&id, &event.Time, &action, &event.Actor, &outcome,
		&counts, &event.Strategy, &event.JobID, &details); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("malformed event id %q: %w", id, err)
	}
	event.ID = parsed
	event.Action = Action(action)
	event.Outcome = Outcome(outcome)

	if counts != "" {
		if err := json.Unmarshal([]byte(counts), &event.EntityCounts); err != nil {
			return nil, fmt.Errorf("malformed entity counts: %w", err)
		}
	}
	if details != "" {
		if err := json.Unmarshal([]byte(details), &event.Details); err != nil {
			return nil, fmt.Errorf("malformed details: %w", err)
		}
	}
	return &event, nil
}

func marshalOrEmpty(v interface{}) (string, error) {
	switch value := v.(type) {
	case map[string]int:
		if len(value) == 0 {
			return "", nil
		}
	case map[string]interface{}:
		if len(value) == 0 {
			return "", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
