package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore guarda cada conversación como JSON en una tabla sqlite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre la base y crea la tabla si no existe
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error abriendo sqlite: %w", err)
	}
	// Con :memory: cada conexión es una base distinta
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrando sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadState(ctx context.Context, q querier, id string) (State, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT state FROM conversations WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("error leyendo conversación %s: %w", id, err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("estado corrupto para %s: %w", id, err)
	}
	return state, nil
}

func saveState(ctx context.Context, q querier, id string, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error serializando estado: %w", err)
	}
	_, err = q.ExecContext(ctx, `INSERT INTO conversations (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		id, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error guardando conversación %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (State, error) {
	return loadState(ctx, s.db, id)
}

func (s *SQLiteStore) Save(ctx context.Context, id string, state State) error {
	return saveState(ctx, s.db, id, state)
}

func (s *SQLiteStore) Update(ctx context.Context, id string, fn func(*State)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error iniciando transacción: %w", err)
	}
	defer tx.Rollback()

	state, err := loadState(ctx, tx, id)
	if err != nil {
		return err
	}
	fn(&state)
	if err := saveState(ctx, tx, id, state); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Clear(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("error limpiando conversación %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
