// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db stores the measurements of an upload batch between the
// upload step and the comparison step.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"golang.org/x/netperf/iperf"
)

// ErrNotFound is returned for an unknown upload ID.
var ErrNotFound = errors.New("upload not found")

// DB is a high-level interface to a database for the comparison
// store. It's safe for concurrent use by multiple goroutines.
type DB struct {
	sql    *sql.DB // underlying database connection
	driver string
	// prepared statements
	insertUpload      *sql.Stmt
	insertMeasurement *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. The sqlite3, mysql, and
// postgres drivers are supported; other database engines will
// receive MySQL query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			return nil, err
		}
	}
	d := &DB{sql: db, driver: driverName}
	if err := d.createTables(); err != nil {
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Uploads (
	UploadID CHAR(36) PRIMARY KEY,
	Created BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS Measurements (
	UploadID CHAR(36),
	Position INT,
	SourceID VARCHAR(255),
	Protocol VARCHAR(8),
	Content {{if .postgres}}BYTEA{{else if .sqlite3}}BLOB{{else}}LONGBLOB{{end}},
	PRIMARY KEY (UploadID, Position),
	FOREIGN KEY (UploadID) REFERENCES Uploads(UploadID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE INDEX {{if not .mysql}}IF NOT EXISTS {{end}}UploadsCreated ON Uploads(Created)
`))

// createTables creates any missing tables on the connection in
// db.sql, using the syntax of db.driver.
func (db *DB) createTables() error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{db.driver: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			if db.driver == "mysql" && strings.Contains(err.Error(), "Duplicate key name") {
				// MySQL has no CREATE INDEX IF NOT EXISTS.
				continue
			}
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders in q for the driver.
func (db *DB) rebind(q string) string {
	if db.driver != "postgres" {
		return q
	}
	var buf strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			buf.WriteString("$" + strconv.Itoa(n))
			continue
		}
		buf.WriteRune(c)
	}
	return buf.String()
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertUpload, err = db.sql.Prepare(db.rebind("INSERT INTO Uploads(UploadID, Created) VALUES (?, ?)"))
	if err != nil {
		return err
	}
	db.insertMeasurement, err = db.sql.Prepare(db.rebind("INSERT INTO Measurements(UploadID, Position, SourceID, Protocol, Content) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing
var now = time.Now

// An Upload is a batch of measurements that share an upload ID.
// Measurements are visible to readers once Commit returns.
type Upload struct {
	// ID is the public identifier of the upload, a random UUID.
	// IDs cannot be guessed from one another.
	ID string

	// pos is the position of the next measurement to insert.
	pos int
	// db is the underlying database that this upload is going to.
	db *DB
	// tx is the transaction used by the upload.
	tx *sql.Tx

	// aborted indicates Abort was called.
	aborted bool
}

// NewUpload returns an upload for storing a new batch.
func (db *DB) NewUpload(ctx context.Context) (*Upload, error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	u := &Upload{ID: uuid.NewString(), db: db, tx: tx}
	if _, err := tx.StmtContext(ctx, db.insertUpload).ExecContext(ctx, u.ID, now().Unix()); err != nil {
		tx.Rollback()
		return nil, err
	}
	return u, nil
}

// Insert appends m to the upload. Measurements are kept in the order
// they are inserted.
func (u *Upload) Insert(m *iperf.Measurement) error {
	content, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := u.tx.Stmt(u.db.insertMeasurement).Exec(u.ID, u.pos, m.Summary.SourceID, string(m.Summary.Protocol), content); err != nil {
		return err
	}
	u.pos++
	return nil
}

// Commit attempts to commit the upload.
func (u *Upload) Commit() error {
	if u.aborted {
		return errors.New("upload aborted")
	}
	return u.tx.Commit()
}

// Abort cleans up resources associated with the upload.
// It does not attempt to clean up partial database state.
func (u *Upload) Abort() error {
	u.aborted = true
	return u.tx.Rollback()
}

// parseID returns id in the canonical form it is stored in.
func parseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}
	return u.String(), nil
}

// Measurements returns the measurements of the upload with the given
// ID, in insertion order. It returns ErrNotFound if there is no such
// upload.
func (db *DB) Measurements(ctx context.Context, id string) ([]*iperf.Measurement, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var created int64
	err = db.sql.QueryRowContext(ctx, db.rebind("SELECT Created FROM Uploads WHERE UploadID = ?"), n).Scan(&created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	rows, err := db.sql.QueryContext(ctx, db.rebind("SELECT Content FROM Measurements WHERE UploadID = ? ORDER BY Position"), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ms := []*iperf.Measurement{}
	for rows.Next() {
		var content []byte
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		m := new(iperf.Measurement)
		if err := json.Unmarshal(content, m); err != nil {
			return nil, fmt.Errorf("upload %s: decoding measurement: %v", id, err)
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

// DeleteUpload removes the upload with the given ID and its
// measurements.
func (db *DB) DeleteUpload(ctx context.Context, id string) (err error) {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err := tx.ExecContext(ctx, db.rebind("DELETE FROM Measurements WHERE UploadID = ?"), n); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, db.rebind("DELETE FROM Uploads WHERE UploadID = ?"), n)
	if err != nil {
		return err
	}
	if c, err := res.RowsAffected(); err == nil && c == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireBefore removes every upload created before t and returns the
// number of uploads removed.
func (db *DB) ExpireBefore(ctx context.Context, t time.Time) (n int64, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	cutoff := t.Unix()
	if _, err := tx.ExecContext(ctx, db.rebind("DELETE FROM Measurements WHERE UploadID IN (SELECT UploadID FROM Uploads WHERE Created < ?)"), cutoff); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, db.rebind("DELETE FROM Uploads WHERE Created < ?"), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUploads returns the number of uploads in the database.
func (db *DB) CountUploads() (int, error) {
	var uploads int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Uploads").Scan(&uploads)
	return uploads, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertUpload, db.insertMeasurement} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
