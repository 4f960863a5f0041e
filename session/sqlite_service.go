// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowforge/workflowcore/types"
)

// SQLiteService is a durable [types.SessionService] backed by a single
// SQLite file (runtime.session_service: sqlite, spec §4.7). Sessions and
// their event logs are stored as JSON blobs: this core has no need for a
// queryable event schema, only durability across process restarts.
type SQLiteService struct {
	db *sql.DB
}

var _ types.SessionService = (*SQLiteService)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	app_name         TEXT NOT NULL,
	user_id          TEXT NOT NULL,
	session_id       TEXT NOT NULL,
	state            TEXT NOT NULL,
	events           TEXT NOT NULL,
	last_update_time INTEGER NOT NULL,
	PRIMARY KEY (app_name, user_id, session_id)
);`

// NewSQLiteService opens (creating if necessary) a SQLite-backed session
// store at path.
func NewSQLiteService(path string) (*SQLiteService, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite session store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite session store: %w", err)
	}
	return &SQLiteService{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteService) Close() error {
	return s.db.Close()
}

type storedEvent struct {
	InvocationID string               `json:"invocation_id"`
	Author       string               `json:"author"`
	Actions      *types.EventActions  `json:"actions"`
	Timestamp    time.Time            `json:"timestamp"`
	ErrorCode    string               `json:"error_code,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

func encodeEvents(events []*types.Event) (string, error) {
	stored := make([]storedEvent, 0, len(events))
	for _, e := range events {
		se := storedEvent{
			InvocationID: e.InvocationID,
			Author:       e.Author,
			Actions:      e.Actions,
			Timestamp:    e.Timestamp,
		}
		if e.LLMResponse != nil {
			se.ErrorCode = e.ErrorCode
			se.ErrorMessage = e.ErrorMessage
		}
		stored = append(stored, se)
	}
	b, err := json.Marshal(stored)
	return string(b), err
}

func decodeEvents(blob string) ([]*types.Event, error) {
	var stored []storedEvent
	if err := json.Unmarshal([]byte(blob), &stored); err != nil {
		return nil, err
	}
	events := make([]*types.Event, 0, len(stored))
	for _, se := range stored {
		ev := types.NewEvent().
			WithInvocationID(se.InvocationID).
			WithAuthor(se.Author).
			WithActions(se.Actions)
		ev.Timestamp = se.Timestamp
		if se.ErrorCode != "" || se.ErrorMessage != "" {
			ev.LLMResponse = &types.LLMResponse{ErrorCode: se.ErrorCode, ErrorMessage: se.ErrorMessage}
		}
		events = append(events, ev)
	}
	return events, nil
}

// CreateSession implements [types.SessionService].
func (s *SQLiteService) CreateSession(ctx context.Context, appName, userID, sessionID string, state map[string]any) (types.Session, error) {
	if sessionID == "" {
		sessionID = types.NewEventID()
	}
	if state == nil {
		state = make(map[string]any)
	}

	ses := NewSession(appName, userID, sessionID, state, time.Now())

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	eventsJSON, err := encodeEvents(nil)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (app_name, user_id, session_id, state, events, last_update_time) VALUES (?, ?, ?, ?, ?, ?)`,
		appName, userID, sessionID, string(stateJSON), eventsJSON, ses.LastUpdateTime().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return ses, nil
}

// GetSession implements [types.SessionService].
func (s *SQLiteService) GetSession(ctx context.Context, appName, userID, sessionID string, config *types.GetSessionConfig) (types.Session, error) {
	var stateJSON, eventsJSON string
	var lastUpdateNano int64

	row := s.db.QueryRowContext(ctx,
		`SELECT state, events, last_update_time FROM sessions WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		appName, userID, sessionID,
	)
	if err := row.Scan(&stateJSON, &eventsJSON, &lastUpdateNano); err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, err
	}
	events, err := decodeEvents(eventsJSON)
	if err != nil {
		return nil, err
	}

	ses := NewSession(appName, userID, sessionID, state, time.Unix(0, lastUpdateNano))
	if config != nil && config.NumRecentEvents > 0 && config.NumRecentEvents < len(events) {
		events = events[len(events)-config.NumRecentEvents:]
	}
	ses.AddEvent(events...)

	return ses, nil
}

// ListSessions implements [types.SessionService].
func (s *SQLiteService) ListSessions(ctx context.Context, appName, userID string) ([]types.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, last_update_time FROM sessions WHERE app_name = ? AND user_id = ?`,
		appName, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Session
	for rows.Next() {
		var sessionID string
		var lastUpdateNano int64
		if err := rows.Scan(&sessionID, &lastUpdateNano); err != nil {
			return nil, err
		}
		out = append(out, NewSession(appName, userID, sessionID, nil, time.Unix(0, lastUpdateNano)))
	}
	return out, rows.Err()
}

// DeleteSession implements [types.SessionService].
func (s *SQLiteService) DeleteSession(ctx context.Context, appName, userID, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		appName, userID, sessionID,
	)
	return err
}

// AppendEvent implements [types.SessionService]: reconciles event into the
// in-process session (state_delta merge) and persists the resulting state
// and event log in one statement.
func (s *SQLiteService) AppendEvent(ctx context.Context, ses types.Session, event *types.Event) (*types.Event, error) {
	ses.AddEvent(event)
	ses.SetLastUpdateTime(event.Timestamp)

	stateJSON, err := json.Marshal(ses.State())
	if err != nil {
		return nil, err
	}
	eventsJSON, err := encodeEvents(ses.Events())
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, events = ?, last_update_time = ? WHERE app_name = ? AND user_id = ? AND session_id = ?`,
		string(stateJSON), eventsJSON, event.Timestamp.UnixNano(), ses.AppName(), ses.UserID(), ses.ID(),
	)
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	return event, nil
}

// ListEvents implements [types.SessionService].
func (s *SQLiteService) ListEvents(ctx context.Context, appName, userID, sessionID string, maxEvents int, since *time.Time) ([]types.Event, error) {
	ses, err := s.GetSession(ctx, appName, userID, sessionID, nil)
	if err != nil {
		return nil, err
	}

	events := ses.Events()
	if since != nil {
		filtered := events[:0:0]
		for _, e := range events {
			if e.Timestamp.After(*since) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if maxEvents > 0 && maxEvents < len(events) {
		events = events[len(events)-maxEvents:]
	}

	out := make([]types.Event, len(events))
	for i, e := range events {
		out[i] = *e
	}
	return out, nil
}
