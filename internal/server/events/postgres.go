package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skylog-app/skylog/internal/dbx"
)

// PostgresRepository implements Repository over database/sql with the pgx
// stdlib driver.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts with seq = max+1 for the address inside a transaction.
// An advisory xact lock on the address serializes concurrent appenders for
// the same identity without blocking anyone else.
func (r *PostgresRepository) Append(ctx context.Context, addr string, ciphertext []byte) (StoredEvent, error) {
	var ev StoredEvent
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, addr); err != nil {
			return fmt.Errorf("taking append lock: %w", err)
		}

		row := tx.QueryRowContext(ctx, `
			INSERT INTO events (public_key, seq, ciphertext)
			VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE public_key = $1), $2)
			RETURNING seq, created_at`,
			addr, ciphertext)
		if err := row.Scan(&ev.Seq, &ev.CreatedAt); err != nil {
			return fmt.Errorf("inserting event: %w", err)
		}
		ev.Ciphertext = ciphertext
		return nil
	})
	if err != nil {
		return StoredEvent{}, err
	}
	return ev, nil
}

func (r *PostgresRepository) List(ctx context.Context, addr string, after int64, limit int) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, ciphertext, created_at FROM events
		WHERE public_key = $1 AND seq > $2
		ORDER BY seq ASC
		LIMIT $3`,
		addr, after, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting events: %w", err)
	}
	defer rows.Close()

	var result []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		if err := rows.Scan(&ev.Seq, &ev.Ciphertext, &ev.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Head(ctx context.Context, addr string) (count, latest int64, err error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(seq), 0) FROM events WHERE public_key = $1`, addr)
	if err := row.Scan(&count, &latest); err != nil {
		return 0, 0, fmt.Errorf("selecting head: %w", err)
	}
	return count, latest, nil
}
