// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"bytes"
	"fmt"
	"image/color"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"golang.org/x/netperf/chart"
	"golang.org/x/netperf/compare"
	"golang.org/x/netperf/report"
)

// comparisonResponse is the response to GET /compare/{uploadID}.
type comparisonResponse struct {
	UploadID string `json:"uploadId"`
	*compare.Comparison
	// Layout lists chart IDs two per row. A null entry is an
	// empty cell.
	Layout [][2]*string `json:"layout"`
}

// comparison loads the upload named in the request and builds its
// comparison. On failure it writes the error response and returns nil.
func (a *App) comparison(w http.ResponseWriter, r *http.Request) *compare.Comparison {
	ms, err := a.DB.Measurements(r.Context(), chi.URLParam(r, "uploadID"))
	if err != nil {
		a.writeError(w, r, statusOf(err), err)
		return nil
	}
	return compare.Build(ms)
}

func (a *App) serveComparison(w http.ResponseWriter, r *http.Request) {
	c := a.comparison(w, r)
	if c == nil {
		return
	}
	resp := comparisonResponse{
		UploadID:   chi.URLParam(r, "uploadID"),
		Comparison: c,
		Layout:     [][2]*string{},
	}
	slots := c.Layout()
	for i := 0; i+1 < len(slots); i += 2 {
		var row [2]*string
		for j, s := range slots[i : i+2] {
			if !s.Placeholder {
				id := s.Item.ID
				row[j] = &id
			}
		}
		resp.Layout = append(resp.Layout, row)
	}
	a.writeJSON(w, r, http.StatusOK, resp)
}

func (a *App) deleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := a.DB.DeleteUpload(r.Context(), chi.URLParam(r, "uploadID")); err != nil {
		a.writeError(w, r, statusOf(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serveChart serves /chart/{uploadID}/{chart}.{format}.
func (a *App) serveChart(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "chart")
	i := strings.LastIndexByte(param, '.')
	if i < 0 {
		a.writeError(w, r, http.StatusNotFound, fmt.Errorf("chart %q has no format", param))
		return
	}
	id := param[:i]
	format, err := chart.ParseFormat(param[i+1:])
	if err != nil {
		a.writeError(w, r, http.StatusNotFound, err)
		return
	}

	c := a.comparison(w, r)
	if c == nil {
		return
	}
	ch := c.Chart(id)
	if ch == nil {
		a.writeError(w, r, http.StatusNotFound, fmt.Errorf("no chart %q", id))
		return
	}
	pl, err := chart.Render(ch, func(src string) color.Color { return c.Color(src) })
	if err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	var buf bytes.Buffer
	if err := chart.Write(&buf, pl, format, chart.Width, chart.Height); err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(buf.Bytes())
}

func (a *App) serveView(w http.ResponseWriter, r *http.Request) {
	c := a.comparison(w, r)
	if c == nil {
		return
	}
	id := chi.URLParam(r, "uploadID")
	chartURL := func(ch *compare.Chart) string {
		return fmt.Sprintf("/chart/%s/%s.%s", id, ch.ID, chart.SVG)
	}
	var buf bytes.Buffer
	if err := report.HTML(&buf, "Comparison "+id, c, chartURL, nil); err != nil {
		a.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
