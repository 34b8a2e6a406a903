package db

import (
	"time"
)

// Submission records the outcome of one form submission.  It never holds the
// submitted values.
type Submission struct {
	// Submission ID (auto)
	ID int64 `xorm:"pk autoincr"`
	// Session the submission was made from
	SessionID string `xorm:"index"`
	// Whether every field passed validation
	Accepted bool
	// Names of the fields that failed validation
	FailedFields []string
	// Message returned from the submit action
	Message string
	// Time when the form was submitted
	SubmitTime time.Time
	// Time when the submit action finished (0 if pending or rejected)
	EndTime time.Time
}

// IsFinished returns true if the submit action has run (has an EndTime).
func (s *Submission) IsFinished() bool {
	return !s.EndTime.IsZero()
}

// InsertSubmission inserts a new Submission into the database.  Upon
// successful return, the Submission has a new unique ID.
func (conn *Connection) InsertSubmission(s *Submission) error {
	_, err := conn.engine.Insert(s) // ID is assigned on insertion
	return err
}

// UpdateSubmission updates an existing Submission entry in the database.
func (conn *Connection) UpdateSubmission(s *Submission) error {
	_, err := conn.engine.ID(s.ID).AllCols().Update(s)
	return err
}

// GetSubmission retrieves a Submission from the database given its ID.
func (conn *Connection) GetSubmission(id int64) (*Submission, error) {
	s := new(Submission)
	if has, err := conn.engine.ID(id).Get(s); err != nil {
		return nil, err
	} else if !has {
		return nil, ErrNotFound
	}
	return s, nil
}

// SessionSubmissions retrieves all the Submissions made from a session.
func (conn *Connection) SessionSubmissions(sessionID string) ([]Submission, error) {
	subs := make([]Submission, 0)
	if err := conn.engine.Where("session_id = ?", sessionID).Asc("id").Find(&subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// AllSubmissions returns all Submission entries in the database, newest first.
func (conn *Connection) AllSubmissions() ([]Submission, error) {
	subs := make([]Submission, 0)
	if err := conn.engine.Desc("id").Find(&subs); err != nil {
		return nil, err
	}
	return subs, nil
}
