package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"dataweb/internal/model"
	"dataweb/internal/store"
)

// Fixed-width timestamps keep text ordering chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveRun(ctx context.Context, run model.Run, outcomes []model.Outcome) (err error) {
	if run.ID == "" {
		return fmt.Errorf("sqlite: run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, halted, error)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			halted = excluded.halted,
			error = excluded.error
	`, run.ID, formatTime(run.StartedAt), nullableTime(run.FinishedAt), run.Halted, run.Error)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM point_outcomes WHERE run_id = ?`, run.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO point_outcomes (
			run_id, point_index, point, state, kind, attempts, tables, records, reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, outcome := range outcomes {
		record := store.OutcomeRecordFrom(outcome)
		_, err = stmt.ExecContext(ctx,
			run.ID,
			record.Index,
			record.Point,
			string(record.State),
			string(record.Kind),
			record.Attempts,
			record.Tables,
			record.Records,
			record.Reason,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) SaveDataset(ctx context.Context, runID string, table store.Table) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		err = fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
		return err
	}

	for _, statement := range []string{
		`DELETE FROM dataset_columns WHERE run_id = ?`,
		`DELETE FROM dataset_rows WHERE run_id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, statement, runID); err != nil {
			return err
		}
	}

	columnStmt, err := tx.PrepareContext(ctx, `INSERT INTO dataset_columns (run_id, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer columnStmt.Close()
	for i, name := range table.Header {
		if _, err = columnStmt.ExecContext(ctx, runID, i, name); err != nil {
			return err
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO dataset_rows (run_id, row_index, vals) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer rowStmt.Close()
	for i, record := range table.Records {
		encoded, encodeErr := json.Marshal(record)
		if encodeErr != nil {
			err = fmt.Errorf("sqlite: encode row %d: %w", i, encodeErr)
			return err
		}
		if _, err = rowStmt.ExecContext(ctx, runID, i, string(encoded)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrRunNotFound
	}
	return id, err
}

func (s *Store) LoadRun(ctx context.Context, runID string) (model.Run, []store.OutcomeRecord, error) {
	var (
		run        model.Run
		startedAt  string
		finishedAt sql.NullString
		runErr     sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, halted, error FROM runs WHERE id = ?`, runID,
	).Scan(&run.ID, &startedAt, &finishedAt, &run.Halted, &runErr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runID)
	}
	if err != nil {
		return model.Run{}, nil, err
	}
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	run.Error = runErr.String

	rows, err := s.db.QueryContext(ctx, `
		SELECT point_index, point, state, kind, attempts, tables, records, reason
		FROM point_outcomes WHERE run_id = ? ORDER BY point_index
	`, runID)
	if err != nil {
		return model.Run{}, nil, err
	}
	defer rows.Close()

	var outcomes []store.OutcomeRecord
	for rows.Next() {
		var (
			record store.OutcomeRecord
			state  string
			kind   string
		)
		if err := rows.Scan(&record.Index, &record.Point, &state, &kind, &record.Attempts, &record.Tables, &record.Records, &record.Reason); err != nil {
			return model.Run{}, nil, err
		}
		record.State = model.PointState(state)
		record.Kind = model.FailureKind(kind)
		outcomes = append(outcomes, record)
	}
	return run, outcomes, rows.Err()
}

func (s *Store) LoadDataset(ctx context.Context, runID string) (store.Table, error) {
	if _, _, err := s.LoadRun(ctx, runID); err != nil {
		return store.Table{}, err
	}

	table := store.Table{Header: []string{}, Records: [][]any{}}
	columns, err := s.db.QueryContext(ctx, `SELECT name FROM dataset_columns WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return store.Table{}, err
	}
	defer columns.Close()
	for columns.Next() {
		var name string
		if err := columns.Scan(&name); err != nil {
			return store.Table{}, err
		}
		table.Header = append(table.Header, name)
	}
	if err := columns.Err(); err != nil {
		return store.Table{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT vals FROM dataset_rows WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return store.Table{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return store.Table{}, err
		}
		var record []any
		if err := json.Unmarshal([]byte(encoded), &record); err != nil {
			return store.Table{}, fmt.Errorf("sqlite: decode row: %w", err)
		}
		table.Records = append(table.Records, record)
	}
	return table, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

var _ store.Store = (*Store)(nil)
