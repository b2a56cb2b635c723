package repository

import (
	"context"
	"database/sql"
	"time"

	"pulse_generator/internal/models"
)

// EventRepo stores the structured pulse event history.
type EventRepo interface {
	Append(ctx context.Context, e models.PulseEvent) error
	List(ctx context.Context, from, to time.Time, typ, channel string) ([]models.PulseEvent, error)
}

type Repository struct {
	EventRepo EventRepo
}

// NewRepository wires the SQLite-backed repositories. retain bounds the number of
// events kept; zero keeps everything.
func NewRepository(db *sql.DB, retain int) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db, retain),
	}
}
