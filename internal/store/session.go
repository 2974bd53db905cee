package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyFinished is returned when finishing a session twice.
var ErrAlreadyFinished = errors.New("session already finished")

// Reasons a run ends.
const (
	ReasonStopped     = "stopped"
	ReasonExitGesture = "exit-gesture"
	ReasonCameraLost  = "camera-lost"
	ReasonFailed      = "failed"
)

// Session is one run of a mode.
type Session struct {
	ID        string
	Mode      string
	StartedAt time.Time
	// EndedAt is zero while the run is still going.
	EndedAt   time.Time
	EndReason string
}

// Running reports whether the session has not been finished.
func (s *Session) Running() bool {
	return s.EndedAt.IsZero()
}

// Duration returns how long the run lasted, or zero while running.
func (s *Session) Duration() time.Duration {
	if s.Running() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// ActionCount is the number of times one kind of action was carried out.
type ActionCount struct {
	Kind  string
	Count int
}

// SessionRepository records mode runs.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start records a new running session for mode with a fresh id.
func (r *SessionRepository) Start(mode string) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		Mode:      mode,
		StartedAt: time.Now(),
	}
	if err := r.Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Create inserts sess. StartedAt defaults to now.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, mode, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Mode, sess.StartedAt.UTC(),
	)
	return err
}

// Finish marks session id as ended for reason and stores its action counts.
func (r *SessionRepository) Finish(id, reason string, counts map[string]int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE sessions SET ended_at = ?, end_reason = ? WHERE id = ? AND ended_at IS NULL`,
		time.Now().UTC(), reason, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		if _, err := r.getByID(tx, id); err != nil {
			return err
		}
		return ErrAlreadyFinished
	}

	for kind, n := range counts {
		if n == 0 {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO session_actions (session_id, kind, count) VALUES (?, ?, ?)`,
			id, kind, n,
		); err != nil {
			return fmt.Errorf("record %s count: %w", kind, err)
		}
	}

	return tx.Commit()
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	return r.getByID(r.db, id)
}

func (r *SessionRepository) getByID(q queryRower, id string) (*Session, error) {
	sess := &Session{}
	var endedAt sql.NullTime

	err := q.QueryRow(
		`SELECT id, mode, started_at, ended_at, end_reason FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Mode, &sess.StartedAt, &endedAt, &sess.EndReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if endedAt.Valid {
		sess.EndedAt = endedAt.Time
	}
	return sess, nil
}

// List returns up to limit sessions, newest first. A limit <= 0 returns all.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT id, mode, started_at, ended_at, end_reason
		 FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		var endedAt sql.NullTime

		if err := rows.Scan(&sess.ID, &sess.Mode, &sess.StartedAt, &endedAt, &sess.EndReason); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			sess.EndedAt = endedAt.Time
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Counts returns the action totals of session id, sorted by kind.
func (r *SessionRepository) Counts(id string) ([]ActionCount, error) {
	rows, err := r.db.Query(
		`SELECT kind, count FROM session_actions WHERE session_id = ?`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ActionCount
	for rows.Next() {
		var c ActionCount
		if err := rows.Scan(&c.Kind, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i].Kind < counts[j].Kind })
	return counts, nil
}

// Delete removes a session and its counts.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
