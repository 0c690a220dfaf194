package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/observability"
	"github.com/xkilldash9x/scribe/internal/recorder"
)

// ErrSessionNotFound is returned by LoadSession for an unknown session id.
var ErrSessionNotFound = errors.New("recording session not found")

// Schema creates the tables SaveSession writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS recording_sessions (
    id          UUID PRIMARY KEY,
    start_url   TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    stopped_at  TIMESTAMPTZ NOT NULL,
    script      TEXT NOT NULL,
    stats       JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS recorded_actions (
    session_id  UUID NOT NULL REFERENCES recording_sessions(id) ON DELETE CASCADE,
    seq         INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    payload     JSONB NOT NULL,
    PRIMARY KEY (session_id, seq)
);`

const (
	sqlInsertSession = `
        INSERT INTO recording_sessions (id, start_url, started_at, stopped_at, script, stats)
        VALUES ($1, $2, $3, $4, $5, $6);
    `
	sqlSelectSession = `
        SELECT start_url, started_at
        FROM recording_sessions
        WHERE id = $1;
    `
	sqlSelectActions = `
        SELECT payload
        FROM recorded_actions
        WHERE session_id = $1
        ORDER BY seq ASC;
    `
)

var actionColumns = []string{"session_id", "seq", "kind", "payload"}

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recording is a finished session as persisted.
type Recording struct {
	Log       action.SavedLog
	Script    string
	Stats     recorder.Stats
	StoppedAt time.Time
}

// Store persists recording sessions to PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// Connect opens a pool for url. The caller owns the returned pool.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the recording tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SaveSession writes the session row and its ordered actions in one transaction.
func (s *Store) SaveSession(ctx context.Context, rec Recording) error {
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	rows, err := actionRows(rec.Log)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	_, err = tx.Exec(ctx, sqlInsertSession,
		rec.Log.SessionID,
		rec.Log.StartURL,
		rec.Log.StartedAt.UTC(),
		rec.StoppedAt.UTC(),
		rec.Script,
		string(stats),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if len(rows) > 0 {
		copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"recorded_actions"}, actionColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy actions: %w", err)
		}
		if int(copyCount) != len(rows) {
			return fmt.Errorf("mismatch in copied actions count: expected %d, got %d", len(rows), copyCount)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Recording session saved",
		observability.SessionField(rec.Log.SessionID),
		zap.Int("actions", len(rows)))
	return nil
}

func actionRows(l action.SavedLog) ([][]any, error) {
	rows := make([][]any, 0, len(l.Actions))
	for i, a := range l.Actions {
		payload, err := action.MarshalAction(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		rows = append(rows, []any{l.SessionID, i, string(a.Kind()), string(payload)})
	}
	return rows, nil
}

// LoadSession reads a saved session back into its log form.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (action.SavedLog, error) {
	saved := action.SavedLog{SessionID: sessionID}
	err := s.pool.QueryRow(ctx, sqlSelectSession, sessionID).Scan(&saved.StartURL, &saved.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return action.SavedLog{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return action.SavedLog{}, fmt.Errorf("failed to query session: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlSelectActions, sessionID)
	if err != nil {
		return action.SavedLog{}, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return action.SavedLog{}, fmt.Errorf("failed to scan action row: %w", err)
		}
		a, err := action.UnmarshalAction(payload)
		if err != nil {
			return action.SavedLog{}, fmt.Errorf("action %d: %w", len(saved.Actions), err)
		}
		saved.Actions = append(saved.Actions, a)
	}
	if err := rows.Err(); err != nil {
		return action.SavedLog{}, fmt.Errorf("error during row iteration: %w", err)
	}
	return saved, nil
}
