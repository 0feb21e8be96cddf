package state

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	conversation_id TEXT PRIMARY KEY,
	version         INTEGER NOT NULL,
	payload         TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS turns (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	turn_id         TEXT NOT NULL,
	role            TEXT NOT NULL,
	text            TEXT NOT NULL,
	meta_json       TEXT,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_conversation
ON turns(conversation_id, id);

CREATE TABLE IF NOT EXISTS decision_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	turn_id         TEXT NOT NULL,
	decision        TEXT NOT NULL,
	gate_mode       TEXT NOT NULL,
	anchor_status   TEXT NOT NULL,
	reason          TEXT,
	signals_json    TEXT,
	created_at      TEXT NOT NULL
);
`

// #endregion schema

// #region errors

// ErrVersionConflict is returned when an optimistic snapshot update loses a
// race: another writer committed a newer version first.
var ErrVersionConflict = errors.New("snapshot version conflict")

// #endregion errors

// #region store

// Store persists conversation snapshots, turn history, and the decision log
// in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region snapshot-ops

// LoadSnapshot reads a conversation's snapshot, normalizing the loose stored
// payload into the canonical type. A missing row yields a fresh snapshot.
func (s *Store) LoadSnapshot(conversationID string) (Snapshot, error) {
	var version int64
	var payload string
	err := s.db.QueryRow(
		`SELECT version, payload FROM snapshots WHERE conversation_id = ?`,
		conversationID,
	).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return NewSnapshot(conversationID), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", conversationID, err)
	}
	return decodeSnapshotPayload(conversationID, version, []byte(payload)), nil
}

// SaveSnapshot writes the next snapshot with a single-row optimistic update
// keyed by (conversation_id, expected version). The stored version becomes
// expected+1. Returns ErrVersionConflict when a concurrent turn won.
func (s *Store) SaveSnapshot(snap Snapshot, expectedVersion int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	next := snap
	next.Version = expectedVersion + 1
	payload := string(encodeSnapshotPayload(next))

	if expectedVersion == 0 {
		res, err := s.db.Exec(
			`INSERT INTO snapshots (conversation_id, version, payload, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(conversation_id) DO NOTHING`,
			snap.ConversationID, next.Version, payload, now,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	res, err := s.db.Exec(
		`UPDATE snapshots SET version = ?, payload = ?, updated_at = ?
		 WHERE conversation_id = ? AND version = ?`,
		next.Version, payload, now, snap.ConversationID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// #endregion snapshot-ops

// #region turn-ops

// AppendTurn stores one exchange in the conversation history.
func (s *Store) AppendTurn(conversationID string, rec TurnRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO turns (conversation_id, turn_id, role, text, meta_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conversationID, rec.TurnID, rec.Role, rec.Text,
		nullIfEmpty(rec.MetaJSON), created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit most-recent turns, oldest first.
func (s *Store) RecentTurns(conversationID string, limit int) ([]TurnRecord, error) {
	rows, err := s.db.Query(
		`SELECT turn_id, role, text, meta_json, created_at FROM turns
		 WHERE conversation_id = ? ORDER BY id DESC LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	defer rows.Close()

	records, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// SearchTurns returns turns whose text matches the recall keyword,
// most recent first. Tokens are matched independently so a multi-word
// keyword still hits partial phrasings.
func (s *Store) SearchTurns(conversationID, keyword string, limit int) ([]TurnRecord, error) {
	tokens := searchTokens(keyword)
	if len(tokens) == 0 {
		return nil, nil
	}

	query := `SELECT turn_id, role, text, meta_json, created_at FROM turns
	 WHERE conversation_id = ?`
	args := []interface{}{conversationID}
	for _, tok := range tokens {
		query += ` AND text LIKE ?`
		args = append(args, "%"+tok+"%")
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

func scanTurns(rows *sql.Rows) ([]TurnRecord, error) {
	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var metaJSON sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.TurnID, &rec.Role, &rec.Text, &metaJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if metaJSON.Valid {
			rec.MetaJSON = metaJSON.String
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion turn-ops

// #region helpers

// searchTokens splits a recall keyword into match tokens. Unsegmented
// (non-ASCII) keywords are matched whole.
func searchTokens(keyword string) []string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	ascii := true
	for _, r := range keyword {
		if r > unicode.MaxASCII {
			ascii = false
			break
		}
	}
	if !ascii {
		return []string{keyword}
	}
	fields := strings.Fields(keyword)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return fields
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
