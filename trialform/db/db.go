package db

import (
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"xorm.io/xorm"
	"xorm.io/xorm/log"
	"xorm.io/xorm/names"
)

// timeFormat is the layout xorm uses for DATETIME columns on sqlite.
const timeFormat = "2006-01-02 15:04:05"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

type Connection struct {
	engine *xorm.Engine
}

// Close the database.
func (conn *Connection) Close() error {
	return conn.engine.Close()
}

// New returns a database connection for the sqlite db file at the given path.
// If it does not exist it is created.  Use ":memory:" for a throwaway store.
func New(path string) (*Connection, error) {
	db, err := xorm.NewEngine("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	db.Logger().SetLevel(log.LOG_WARNING)
	db.SetMapper(names.GonicMapper{})
	// sqlite allows a single writer; the worker and the web handlers share it.
	db.SetMaxOpenConns(1)

	if err := db.Sync2(new(Submission), new(Session)); err != nil {
		db.Close()
		return nil, fmt.Errorf("sync schema: %w", err)
	}
	return &Connection{db}, nil
}
