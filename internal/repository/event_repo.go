package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pulse_generator/internal/models"

	"github.com/google/uuid"
)

// timestampLayout sorts lexicographically, so range filters work on the TEXT column.
const timestampLayout = "2006-01-02 15:04:05.000"

const (
	insertEventSQL = `
		INSERT INTO pulse_events (id, occurred_at, type, channel, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	pruneEventsSQL = `DELETE FROM pulse_events WHERE seq <= ?`
	selectEventSQL = `SELECT id, occurred_at, type, channel, message, meta FROM pulse_events`
)

type EventSQLite struct {
	db     *sql.DB
	retain int64
}

var _ EventRepo = (*EventSQLite)(nil)

func NewEventSQLite(db *sql.DB, retain int) *EventSQLite {
	return &EventSQLite{db: db, retain: int64(retain)}
}

// Append inserts an event, filling EventID and OccurredAt when empty, then drops
// the oldest rows beyond the retention limit.
func (r *EventSQLite) Append(ctx context.Context, e models.PulseEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var metaPtr *string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	res, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(timestampLayout),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		e.Channel,
		e.Description,
		metaPtr,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.EventID, err)
	}
	if r.retain <= 0 {
		return nil
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	if seq > r.retain {
		if _, err := r.db.ExecContext(ctx, pruneEventsSQL, seq-r.retain); err != nil {
			return fmt.Errorf("prune events: %w", err)
		}
	}
	return nil
}

// List returns events in insertion order filtered by [from, to] (inclusive), type
// and channel. Zero times and empty strings disable the corresponding filter.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ, channel string) ([]models.PulseEvent, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(timestampLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(timestampLayout))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if channel = strings.TrimSpace(channel); channel != "" {
		conds = append(conds, "channel = ?")
		args = append(args, channel)
	}

	q := selectEventSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY seq ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]models.PulseEvent, 0, 64)
	for rows.Next() {
		var (
			ev       models.PulseEvent
			occurred string
			metaStr  sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &occurred, &ev.Type, &ev.Channel, &ev.Description, &metaStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt, err = time.ParseInLocation(timestampLayout, occurred, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurred, err)
		}
		if metaStr.Valid && metaStr.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaStr.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = metaStr.String
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
