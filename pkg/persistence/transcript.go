package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gupta362/pm-agent-v2/pkg/orchestrator"
)

// ErrSessionNotFound is returned when a requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// timeLayout is used for every timestamp column.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// SessionSummary is one row of the session list.
type SessionSummary struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Model     string    `json:"model"`
	Turns     int       `json:"turns"`
}

// TurnRow is a logged turn.
//
//nolint:govet // fieldalignment: mirrors the table column order
type TurnRow struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Turn        int       `json:"turn"`
	UserMessage string    `json:"user_message"`
	Reply       string    `json:"reply"`
	Outcome     string    `json:"outcome"`
	Rounds      int       `json:"rounds"`
	Phase       string    `json:"phase"`
	ActiveMode  string    `json:"active_mode"`
	CreatedAt   time.Time `json:"created_at"`
}

// OperationRow is a logged operation.
type OperationRow struct {
	Seq       int    `json:"seq"`
	Round     int    `json:"round"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
	IsError   bool   `json:"is_error"`
}

// RecordTurn writes one turn, its operations and any generated brief in a single transaction.
// It implements orchestrator.TurnRecorder.
func (s *Store) RecordTurn(ctx context.Context, rec *orchestrator.TurnRecord) error {
	if rec == nil {
		return nil
	}
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	stamp := at.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, started_at, model) VALUES (?, ?, ?)`,
		rec.SessionID, stamp, rec.Model,
	); err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO turns (session_id, turn, user_message, reply, outcome, rounds, phase, active_mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.SessionID, rec.Turn, rec.UserMessage, rec.Reply, rec.Outcome, rec.Rounds, rec.Phase, rec.ActiveMode, stamp)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	turnID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get turn id: %w", err)
	}

	for i := range rec.Operations {
		op := &rec.Operations[i]
		args, err := json.Marshal(op.Arguments)
		if err != nil {
			return fmt.Errorf("failed to encode arguments of %s: %w", op.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO operations (turn_id, session_id, turn, seq, round, name, arguments, result, is_error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, turnID, rec.SessionID, rec.Turn, op.Seq, op.Round, op.Name, string(args), op.Result, op.IsError); err != nil {
			return fmt.Errorf("failed to insert operation %s: %w", op.Name, err)
		}
	}

	if rec.Artifact != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO artifacts (session_id, turn, content, created_at) VALUES (?, ?, ?, ?)
		`, rec.SessionID, rec.Turn, rec.Artifact, stamp); err != nil {
			return fmt.Errorf("failed to insert artifact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turn: %w", err)
	}
	s.logger.Debug("💾 Logged turn %d of session %s (%d operations)", rec.Turn, rec.SessionID, len(rec.Operations))
	return nil
}

// Sessions lists logged sessions, most recent first.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.started_at, s.model, COUNT(t.id)
		FROM sessions s LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var started string
		if err := rows.Scan(&sum.ID, &started, &sum.Model, &sum.Turns); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sum.StartedAt = parseTime(started)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return out, nil
}

// Turns returns the logged turns of a session in insertion order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]TurnRow, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, turn, user_message, reply, outcome, rounds, phase, active_mode, created_at
		FROM turns WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRow
	for rows.Next() {
		var t TurnRow
		var created string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Turn, &t.UserMessage, &t.Reply, &t.Outcome,
			&t.Rounds, &t.Phase, &t.ActiveMode, &created); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.CreatedAt = parseTime(created)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}
	return out, nil
}

// Operations returns the operations logged for one turn row.
func (s *Store) Operations(ctx context.Context, turnID int64) ([]OperationRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, round, name, arguments, result, is_error
		FROM operations WHERE turn_id = ? ORDER BY seq
	`, turnID)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var out []OperationRow
	for rows.Next() {
		var op OperationRow
		if err := rows.Scan(&op.Seq, &op.Round, &op.Name, &op.Arguments, &op.Result, &op.IsError); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}
	return out, nil
}

// LatestArtifact returns the most recent brief logged for a session and its turn.
func (s *Store) LatestArtifact(ctx context.Context, sessionID string) (content string, turn int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT content, turn FROM artifacts WHERE session_id = ? ORDER BY turn DESC LIMIT 1
	`, sessionID).Scan(&content, &turn)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("%w: no brief logged for %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to query artifact: %w", err)
	}
	return content, turn, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
