package db

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one browser using the form.  The ID is stored in the
// session cookie and keys the session's widget.
type Session struct {
	// Session ID (stored in the cookie)
	ID string `xorm:"pk"`
	// Time when the session was created
	Created time.Time
	// Time of the last request made with the session
	LastSeen time.Time
}

// NewSession creates a new session with a new unique ID.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:       uuid.New().String(),
		Created:  now,
		LastSeen: now,
	}
}

// InsertSession inserts a new Session into the database.
func (conn *Connection) InsertSession(sess *Session) error {
	_, err := conn.engine.Insert(sess)
	return err
}

// GetSession retrieves a session from the database given its ID.
func (conn *Connection) GetSession(id string) (*Session, error) {
	sess := &Session{ID: id}
	if has, err := conn.engine.Get(sess); err != nil {
		return nil, err
	} else if !has {
		return nil, ErrNotFound
	}
	return sess, nil
}

// TouchSession updates the session's LastSeen time.
func (conn *Connection) TouchSession(id string, t time.Time) error {
	n, err := conn.engine.ID(id).Cols("last_seen").Update(&Session{LastSeen: t})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes the session with the given ID.
func (conn *Connection) DeleteSession(id string) error {
	_, err := conn.engine.ID(id).Delete(new(Session))
	return err
}

// DeleteSessionsBefore removes every session last seen before t and returns
// how many were removed.
func (conn *Connection) DeleteSessionsBefore(t time.Time) (int64, error) {
	cutoff := t.In(conn.engine.TZLocation).Format(timeFormat)
	return conn.engine.Where("last_seen < ?", cutoff).Delete(new(Session))
}
