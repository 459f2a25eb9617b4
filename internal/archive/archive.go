package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Match is the record kept for one completed game. Live session state is
// never persisted; only the final outcome lands here.
type Match struct {
	Code     string        `db:"code"`
	Winner   string        `db:"winner"`
	Rounds   int           `db:"rounds"`
	Players  int           `db:"players"`
	Duration time.Duration `db:"-"`
}

// Store archives completed matches.
type Store interface {
	RecordMatch(ctx context.Context, m Match) error
	Close() error
}

// Open connects to the archive database and runs migrations. An empty DSN
// disables archiving and returns a noop store.
func Open(dsn string) (Store, error) {
	if dsn == "" {
		log.Println("match archive disabled: empty dsn")
		return noopStore{}, nil
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect archive db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run archive migrations: %w", err)
	}
	return &pgStore{db: db}, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS matches (
            id SERIAL PRIMARY KEY,
            code TEXT NOT NULL,
            winner TEXT NOT NULL,
            rounds INT NOT NULL,
            players INT NOT NULL,
            duration_seconds INT NOT NULL,
            finished_at TIMESTAMPTZ DEFAULT NOW()
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("archive migrations applied")
	return nil
}

type pgStore struct {
	db *sqlx.DB
}

func (s *pgStore) RecordMatch(ctx context.Context, m Match) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (code, winner, rounds, players, duration_seconds)
         VALUES ($1, $2, $3, $4, $5)`,
		m.Code, m.Winner, m.Rounds, m.Players, int(m.Duration.Seconds()))
	if err != nil {
		log.Printf("archive match failed: %v", err)
	}
	return err
}

func (s *pgStore) Close() error {
	return s.db.Close()
}

type noopStore struct{}

func (noopStore) RecordMatch(ctx context.Context, m Match) error {
	log.Printf("archive noop: code=%s winner=%s rounds=%d", m.Code, m.Winner, m.Rounds)
	return nil
}

func (noopStore) Close() error { return nil }
