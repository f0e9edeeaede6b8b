package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/connectus/newcon-mock/internal/ledger"
)

// Store keeps consultation records in PostgreSQL. The payload column holds the
// JSON form of the consultation so bureau snapshots round-trip untouched.
type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Append(ctx context.Context, rec ledger.Record) error {
	if rec.Key == "" {
		return ledger.ErrEmptyKey
	}
	payload, err := json.Marshal(rec.Consultation)
	if err != nil {
		return fmt.Errorf("encode consultation: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into consultations(id, subject_key, recorded_at, payload)
		values ($1, $2, $3, $4)
	`, rec.ID, string(rec.Key), rec.RecordedAt.UTC(), payload)
	return err
}

func (s *Store) Latest(ctx context.Context, key ledger.Key) (ledger.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, recorded_at, payload from consultations
		where subject_key = $1
		order by recorded_at desc, id desc
		limit 1
	`, string(key))
	rec, err := scanRecord(row, key)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Record{}, ledger.ErrNotFound
	}
	return rec, err
}

func (s *Store) History(ctx context.Context, key ledger.Key) ([]ledger.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, recorded_at, payload from consultations
		where subject_key = $1
		order by recorded_at asc, id asc
	`, string(key))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows, key)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Prune(ctx context.Context, key ledger.Key, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, `delete from consultations where subject_key = $1 and recorded_at < $2`,
		string(key), cutoff.UTC())
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner, key ledger.Key) (ledger.Record, error) {
	var (
		rec     ledger.Record
		payload []byte
	)
	if err := sc.Scan(&rec.ID, &rec.RecordedAt, &payload); err != nil {
		return ledger.Record{}, err
	}
	if err := json.Unmarshal(payload, &rec.Consultation); err != nil {
		return ledger.Record{}, fmt.Errorf("decode consultation %s: %w", rec.ID, err)
	}
	rec.Key = key
	rec.RecordedAt = rec.RecordedAt.UTC()
	rec.Timestamp = nil
	return rec, nil
}
