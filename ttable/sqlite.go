package ttable

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS transpositions (
	fingerprint TEXT PRIMARY KEY,
	score REAL NOT NULL
)`

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// SaveSQLite upserts every entry into the transpositions table at path.
func (t *TranspositionTable) SaveSQLite(ctx context.Context, path string) error {
	db, err := openDB(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO transpositions (fingerprint, score) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	var execErr error
	t.Range(func(k uint64, v float64) bool {
		_, execErr = stmt.ExecContext(ctx, strconv.FormatUint(k, 10), v)
		return execErr == nil
	})
	if execErr != nil {
		tx.Rollback()
		return execErr
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("entries", t.Len()).Msg("saved-transposition-table-sqlite")
	return nil
}

// LoadSQLite merges the stored entries into the table.
func (t *TranspositionTable) LoadSQLite(ctx context.Context, path string) error {
	db, err := openDB(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT fingerprint, score FROM transpositions`)
	if err != nil {
		return err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var key string
		var score float64
		if err := rows.Scan(&key, &score); err != nil {
			return err
		}
		k, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return fmt.Errorf("bad fingerprint %q: %w", key, err)
		}
		t.Put(k, score)
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	log.Info().Str("path", path).Int("rows", n).Msg("loaded-transposition-table-sqlite")
	return nil
}
