// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens empty comparison stores for tests.
package dbtest

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"flag"
	"fmt"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/lib/pq"

	"golang.org/x/netperf/storage/db"
	_ "golang.org/x/netperf/storage/db/sqlite3"
)

var cloud = flag.Bool("cloud", false, "connect to Cloud SQL database instead of in-memory SQLite")
var cloudsql = flag.String("cloudsql", "golang-org:us-central1:golang-org", "name of Cloud SQL instance to run tests on")
var postgres = flag.String("postgres", "", "connect to the PostgreSQL server at key=value `dsn` instead of in-memory SQLite")

// createEmptyCloudDB makes a new, empty database for the test.
func createEmptyCloudDB(t *testing.T) (dsn string, cleanup func()) {
	name := "netperf-test-" + randomSuffix(t)
	prefix := fmt.Sprintf("root:@cloudsql(%s)/", *cloudsql)

	db, err := sql.Open("mysql", prefix)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE `%s`", name)); err != nil {
		db.Close()
		t.Fatal(err)
	}

	t.Logf("Using database %q", name)

	return prefix + name, func() {
		if _, err := db.Exec(fmt.Sprintf("DROP DATABASE `%s`", name)); err != nil {
			t.Error(err)
		}
		db.Close()
	}
}

// createEmptyPostgresSchema makes a new, empty schema for the test
// and returns a DSN whose search path selects it.
func createEmptyPostgresSchema(t *testing.T) (dsn string, cleanup func()) {
	name := "netperf_test_" + randomSuffix(t)

	db, err := sql.Open("postgres", *postgres)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(fmt.Sprintf(`CREATE SCHEMA "%s"`, name)); err != nil {
		db.Close()
		t.Fatal(err)
	}

	t.Logf("Using schema %q", name)

	return fmt.Sprintf("%s search_path=%s", *postgres, name), func() {
		if _, err := db.Exec(fmt.Sprintf(`DROP SCHEMA "%s" CASCADE`, name)); err != nil {
			t.Error(err)
		}
		db.Close()
	}
}

func randomSuffix(t *testing.T) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		t.Fatal(err)
	}
	// Schema names may not contain '-'.
	s := base64.RawURLEncoding.EncodeToString(buf)
	out := []byte(s)
	for i, c := range out {
		if c == '-' || c == '_' {
			out[i] = 'x'
		}
	}
	return string(out)
}

// NewDB makes a connection to a testing database: in-memory sqlite3
// by default, Cloud SQL with -cloud, or PostgreSQL with -postgres.
// cleanup must be called when done with the testing database,
// instead of calling db.Close()
func NewDB(t *testing.T) (*db.DB, func()) {
	driverName, dataSourceName := "sqlite3", ":memory:"
	var remoteCleanup func()
	switch {
	case *cloud:
		driverName = "mysql"
		dataSourceName, remoteCleanup = createEmptyCloudDB(t)
	case *postgres != "":
		driverName = "postgres"
		dataSourceName, remoteCleanup = createEmptyPostgresSchema(t)
	}
	d, err := db.OpenSQL(driverName, dataSourceName)
	if err != nil {
		if remoteCleanup != nil {
			remoteCleanup()
		}
		t.Fatalf("open database: %v", err)
	}

	cleanup := func() {
		d.Close()
		if remoteCleanup != nil {
			remoteCleanup()
		}
	}
	// Make sure the database really is empty.
	uploads, err := d.CountUploads()
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	if uploads != 0 {
		cleanup()
		t.Fatalf("found %d row(s) in Uploads, want 0", uploads)
	}
	return d, cleanup
}
