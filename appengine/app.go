// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package appengine contains an App Engine app serving the
// measurement comparison service.
package appengine

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	_ "github.com/go-sql-driver/mysql"
	"google.golang.org/appengine"
	aelog "google.golang.org/appengine/log"

	"golang.org/x/netperf/server"
	"golang.org/x/netperf/storage/db"
	"golang.org/x/netperf/storage/fs/gcs"
)

// connectDB returns a DB initialized from the environment variables
// set in app.yaml. CLOUDSQL_CONNECTION_NAME, CLOUDSQL_USER, and
// CLOUDSQL_DATABASE must be set to point to the Cloud SQL instance.
// CLOUDSQL_PASSWORD can be set if needed.
func connectDB() (*db.DB, error) {
	var (
		connectionName = mustGetenv("CLOUDSQL_CONNECTION_NAME")
		user           = mustGetenv("CLOUDSQL_USER")
		password       = os.Getenv("CLOUDSQL_PASSWORD") // NOTE: password may be empty
		dbName         = mustGetenv("CLOUDSQL_DATABASE")
	)

	return db.OpenSQL("mysql", dsn(user, password, connectionName, dbName))
}

func dsn(user, password, connectionName, dbName string) string {
	return fmt.Sprintf("%s:%s@cloudsql(%s)/%s", user, password, connectionName, dbName)
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Panicf("%s environment variable not set.", k)
	}
	return v
}

// maxFiles returns the per-upload file limit from MAX_FILES, or 0
// for the server default.
func maxFiles() int {
	n, err := strconv.Atoi(os.Getenv("MAX_FILES"))
	if err != nil {
		return 0
	}
	return n
}

// appHandler is the default handler, registered to serve "/".
// It creates a new App instance using the appengine Context and then
// dispatches the request to the App. The environment variable
// GCS_BUCKET must be set in app.yaml with the name of the bucket
// used to stage uploads.
func appHandler(w http.ResponseWriter, r *http.Request) {
	ctx := appengine.NewContext(r)
	// GCS clients need to be constructed with an AppEngine
	// context, so we can't actually make the App until the
	// request comes in.
	db, err := connectDB()
	if err != nil {
		aelog.Errorf(ctx, "connectDB: %v", err)
		http.Error(w, err.Error(), 500)
		return
	}
	defer db.Close()

	fs, err := gcs.NewFS(ctx, mustGetenv("GCS_BUCKET"))
	if err != nil {
		aelog.Errorf(ctx, "gcs.NewFS: %v", err)
		http.Error(w, err.Error(), 500)
		return
	}
	app := &server.App{
		DB:       db,
		FS:       fs,
		Logger:   slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		MaxFiles: maxFiles(),
	}
	app.Handler().ServeHTTP(w, r.WithContext(ctx))
}

func init() {
	http.HandleFunc("/", appHandler)
}
