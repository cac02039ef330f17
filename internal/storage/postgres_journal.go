package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/dispatch-agent/internal/models"
)

type PostgresJournal struct {
	db *sql.DB
}

func NewPostgresJournal(dsn string) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresJournal{db: db}, nil
}

func (p *PostgresJournal) RecordOutcome(ctx context.Context, req models.ServiceRequest, outcome string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO trip_outcomes(trip_id, kind, outcome, requester, recorded_at) VALUES($1,$2,$3,$4,$5)`,
		req.ID, string(req.Kind), outcome, req.RequesterName, time.Now())
	return err
}

func (p *PostgresJournal) Close() error { return p.db.Close() }
