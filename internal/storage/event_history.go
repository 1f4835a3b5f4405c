package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

var ErrNotFound = errors.New("event record not found")

// EventRecord is a mesh event as kept in the history
type EventRecord struct {
	ID         string          `json:"id"`
	AlertID    string          `json:"alert_id,omitempty"`
	Type       string          `json:"type"`
	From       string          `json:"from"`
	To         string          `json:"to,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Color      string          `json:"color"`
	Timestamp  time.Time       `json:"timestamp"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewEventRecord builds a record for an event seen during the given alert
func NewEventRecord(ev model.Event, alertID string) *EventRecord {
	return &EventRecord{
		ID:         ev.ID,
		AlertID:    alertID,
		Type:       ev.Type,
		From:       ev.From,
		To:         ev.To,
		Data:       ev.Data,
		Color:      ev.Color,
		Timestamp:  ev.Time(),
		RecordedAt: time.Now(),
	}
}

// Event converts the record back to its wire form
func (r *EventRecord) Event() model.Event {
	return model.Event{
		ID:        r.ID,
		Timestamp: r.Timestamp.UnixMilli(),
		Type:      r.Type,
		From:      r.From,
		To:        r.To,
		Data:      r.Data,
		Color:     r.Color,
	}
}

// Filter narrows history queries. Empty fields match everything.
type Filter struct {
	Type    string
	AlertID string
	From    string
}

func (f Filter) where() (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	for _, c := range []struct {
		column string
		value  string
	}{
		{"type", f.Type},
		{"alert_id", f.AlertID},
		{"from_agent", f.From},
	} {
		if c.value != "" {
			clauses = append(clauses, c.column+" = ?")
			args = append(args, c.value)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// EventHistoryStorage defines the interface for event history storage
type EventHistoryStorage interface {
	// Store stores an event record
	Store(ctx context.Context, record *EventRecord) error

	// Get retrieves an event record by event ID
	Get(ctx context.Context, id string) (*EventRecord, error)

	// List retrieves event records newest first with pagination and filters
	List(ctx context.Context, filter Filter, offset, limit int) ([]*EventRecord, error)

	// Count returns the total number of records matching the filter
	Count(ctx context.Context, filter Filter) (int, error)

	// DeleteBefore deletes records older than the specified time
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)

	// DeleteAll empties the history
	DeleteAll(ctx context.Context) error
}

// SQLiteEventHistory implements EventHistoryStorage using SQLite
type SQLiteEventHistory struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteEventHistory creates a new SQLite-based event history. An
// existing database file is removed so each run starts empty.
func NewSQLiteEventHistory(logger *zap.Logger, dbPath string) (*SQLiteEventHistory, error) {
	if dbPath != ":memory:" {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove old database: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	storage := &SQLiteEventHistory{
		logger: logger.Named("history"),
		db:     db,
	}

	if err := storage.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

func (s *SQLiteEventHistory) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS event_history (
			id TEXT PRIMARY KEY,
			alert_id TEXT,
			type TEXT NOT NULL,
			from_agent TEXT,
			to_agent TEXT,
			data TEXT,
			color TEXT,
			timestamp DATETIME NOT NULL,
			recorded_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_event_history_alert_id ON event_history(alert_id);
		CREATE INDEX IF NOT EXISTS idx_event_history_type ON event_history(type);
		CREATE INDEX IF NOT EXISTS idx_event_history_timestamp ON event_history(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Store implements EventHistoryStorage.Store. Storing an event id twice
// keeps the first record.
func (s *SQLiteEventHistory) Store(ctx context.Context, record *EventRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO event_history (
			id, alert_id, type, from_agent, to_agent, data, color, timestamp, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		sql.NullString{String: record.AlertID, Valid: record.AlertID != ""},
		record.Type,
		record.From,
		sql.NullString{String: record.To, Valid: record.To != ""},
		sql.NullString{String: string(record.Data), Valid: len(record.Data) > 0},
		record.Color,
		record.Timestamp.UTC(),
		record.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store event history: %w", err)
	}
	return nil
}

const selectColumns = "SELECT id, alert_id, type, from_agent, to_agent, data, color, timestamp, recorded_at FROM event_history"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*EventRecord, error) {
	var (
		record                  EventRecord
		alertID, from, to, data sql.NullString
		color                   sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&alertID,
		&record.Type,
		&from,
		&to,
		&data,
		&color,
		&record.Timestamp,
		&record.RecordedAt,
	)
	if err != nil {
		return nil, err
	}
	record.AlertID = alertID.String
	record.From = from.String
	record.To = to.String
	record.Color = color.String
	if data.Valid && data.String != "" {
		record.Data = json.RawMessage(data.String)
	}
	return &record, nil
}

// Get implements EventHistoryStorage.Get
func (s *SQLiteEventHistory) Get(ctx context.Context, id string) (*EventRecord, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to scan event history: %w", err)
	}
	return record, nil
}

// List implements EventHistoryStorage.List
func (s *SQLiteEventHistory) List(ctx context.Context, filter Filter, offset, limit int) ([]*EventRecord, error) {
	where, args := filter.where()
	query := selectColumns + where + " ORDER BY timestamp DESC, recorded_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list event history: %w", err)
	}
	defer rows.Close()

	records := make([]*EventRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event history: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return records, nil
}

// Count implements EventHistoryStorage.Count
func (s *SQLiteEventHistory) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.where()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event_history"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count event history: %w", err)
	}
	return count, nil
}

// DeleteBefore implements EventHistoryStorage.DeleteBefore
func (s *SQLiteEventHistory) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM event_history WHERE timestamp < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete event history: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	s.logger.Info("Deleted old event history records",
		zap.Time("before", before),
		zap.Int64("deleted", affected))

	return affected, nil
}

// DeleteAll implements EventHistoryStorage.DeleteAll
func (s *SQLiteEventHistory) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM event_history"); err != nil {
		return fmt.Errorf("failed to clear event history: %w", err)
	}
	s.logger.Info("Event history cleared")
	return nil
}

// Close closes the database connection
func (s *SQLiteEventHistory) Close() error {
	return s.db.Close()
}
