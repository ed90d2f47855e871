// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"io"

	"github.com/google/safehtml/template"

	"golang.org/x/netperf/align"
	"golang.org/x/netperf/compare"
)

var htmlTemplate = template.Must(template.New("comparison").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.row { display: flex; gap: 2em; margin-bottom: 2em; }
.cell { flex: 1; }
.cell img { max-width: 100%; }
table.summary { border-collapse: collapse; }
table.summary th { text-align: left; padding-right: 1em; }
.failures { color: #b00; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- if .Failures}}
<ul class="failures">
{{- range .Failures}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Rows}}
<h2>Charts</h2>
{{- range .Rows}}
<div class="row">
{{- range .}}
<div class="cell">
{{- if not .Placeholder}}
<h3>{{.Item.Title}}</h3>
{{- if .Item.URL}}
<img src="{{.Item.URL}}" alt="{{.Item.Title}}">
{{- end}}
{{- end}}
</div>
{{- end}}
</div>
{{- end}}
{{- end}}
{{- if .Summaries}}
<h2>Tables</h2>
{{- range .Summaries}}
<h4>{{.Source}}</h4>
<table class="summary">
{{- range .Rows}}
<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- end}}
</body>
</html>
`))

type htmlChart struct {
	Title string
	URL   string
}

type htmlSummary struct {
	Source string
	Rows   []SummaryRow
}

type htmlPage struct {
	Title     string
	Failures  []string
	Rows      [][2]align.Slot[htmlChart]
	Summaries []htmlSummary
}

// HTML writes c as a standalone HTML page. chartURL returns the image
// URL of a chart, or "" to show only its title. failures lists
// sources that could not be read and are shown above the charts.
func HTML(w io.Writer, title string, c *compare.Comparison, chartURL func(*compare.Chart) string, failures []string) error {
	page := htmlPage{Title: title, Failures: failures}
	var charts []htmlChart
	for _, ch := range c.Charts {
		charts = append(charts, htmlChart{Title: ch.Title, URL: chartURL(ch)})
	}
	page.Rows = align.Pairs(align.Slots(charts))
	for i := range c.Summaries {
		s := &c.Summaries[i]
		page.Summaries = append(page.Summaries, htmlSummary{Source: s.SourceID, Rows: SummaryRows(s)})
	}
	return htmlTemplate.Execute(w, page)
}
