// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Iperfstat compares the results of iperf3 test runs.
//
// Usage:
//
//	iperfstat [flags] file...
//
// Each input file should contain the JSON output of one iperf3 run,
// as written by "iperf3 --json". Between one and six files may be
// compared; TCP and UDP runs may be mixed. A file may be given as
// label=file to name it label in the output. Files that appear more
// than once are distinguished by a "#N" suffix.
//
// Iperfstat reduces each run to a point at time 0 and one point per
// even second, aligns the runs on a common time axis, and prints the
// resulting comparison: a summary of each run, one table per time
// series (throughput, and for TCP runs latency), and one table per
// final metric (sent packets, lost packets or retransmits, jitter,
// sent bytes). Tables that would be empty are omitted.
//
// Files that cannot be read or are not iperf3 results are reported
// on standard error and left out of the comparison. Iperfstat exits
// with status 1 only if no file could be read.
//
// The -format flag selects the output format: text (the default),
// csv, or html. The -stats flag adds per-run statistics of each time
// series. The -png, -svg, and -pdf flags write one image per chart
// into the named directory; in HTML output the charts link to the
// images written with -svg, or failing that -png.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/netperf/align"
	"golang.org/x/netperf/chart"
	"golang.org/x/netperf/compare"
	"golang.org/x/netperf/iperf"
	"golang.org/x/netperf/report"
	"golang.org/x/netperf/units"
)

var exit = os.Exit // replaced during testing

func usage(w io.Writer, flags *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(w, "Usage: iperfstat [flags] file...\n")
		flags.PrintDefaults()
	}
}

func main() {
	log.SetPrefix("iperfstat: ")
	log.SetFlags(0)
	if err := iperfstat(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			exit(2)
			return
		}
		log.Print(err)
		exit(1)
	}
}

// A series is a time series that -stats describes.
type series struct {
	title     string
	unit      string
	extract   align.PointExtractor
	transform align.Transform
}

var statSeries = []series{
	{"Throughput", "Mbps", align.Throughput, align.Megabits},
	{"Latency/RTT (TCP)", "ms", align.Latency, align.Round2},
	{"Jitter (UDP)", "ms", align.Jitter, align.Identity},
	{"Retransmits (TCP)", "", align.Retransmits, align.Identity},
}

func iperfstat(w, wErr io.Writer, args []string) error {
	flags := flag.NewFlagSet("iperfstat", flag.ContinueOnError)
	flags.SetOutput(wErr)
	flags.Usage = usage(wErr, flags)
	flagFormat := flags.String("format", "text", "print results in `format`:\n  text - plain text tables\n  csv  - comma-separated values\n  html - HTML page")
	flagStats := flags.Bool("stats", false, "print statistics of each time series")
	flagPNG := flags.String("png", "", "write PNG charts to `dir`")
	flagSVG := flags.String("svg", "", "write SVG charts to `dir`")
	flagPDF := flags.String("pdf", "", "write PDF charts to `dir`")
	if err := flags.Parse(args); err != nil {
		return err
	}

	switch *flagFormat {
	case "text", "csv", "html":
	default:
		return fmt.Errorf("unknown output format %q", *flagFormat)
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return flag.ErrHelp
	}
	if flags.NArg() > compare.MaxSources {
		return fmt.Errorf("at most %d files can be compared, got %d", compare.MaxSources, flags.NArg())
	}

	files := iperf.Files{Paths: flags.Args(), AllowLabels: true}
	var measurements []*iperf.Measurement
	var failures []string
	for _, res := range files.Read() {
		if res.Err != nil {
			fmt.Fprintf(wErr, "%v\n", res.Err)
			failures = append(failures, res.Err.Error())
			continue
		}
		measurements = append(measurements, res.Measurement)
	}
	if len(measurements) == 0 {
		return errors.New("no input file could be read")
	}
	c := compare.Build(measurements)

	charts := []struct {
		dir    string
		format chart.Format
	}{
		{*flagSVG, chart.SVG},
		{*flagPNG, chart.PNG},
		{*flagPDF, chart.PDF},
	}
	var chartURL func(*compare.Chart) string
	for _, ch := range charts {
		if ch.dir == "" {
			continue
		}
		if _, err := chart.WriteDir(ch.dir, c, ch.format); err != nil {
			return err
		}
		if chartURL == nil && ch.format != chart.PDF {
			dir, format := ch.dir, ch.format
			chartURL = func(ch *compare.Chart) string {
				return filepath.ToSlash(filepath.Join(dir, ch.ID+"."+string(format)))
			}
		}
	}
	if chartURL == nil {
		chartURL = func(*compare.Chart) string { return "" }
	}

	switch *flagFormat {
	case "text":
		return writeText(w, c, measurements, *flagStats)
	case "csv":
		return writeCSV(w, c)
	}
	return report.HTML(w, "iperfstat", c, chartURL, failures)
}

func writeText(w io.Writer, c *compare.Comparison, measurements []*iperf.Measurement, stats bool) error {
	if err := report.WriteSummaries(w, c.Summaries); err != nil {
		return err
	}

	heading := func(title string) error {
		_, err := fmt.Fprintf(w, "\n%s\n", title)
		return err
	}

	if err := heading("Final throughput"); err != nil {
		return err
	}
	bars := align.Summarize(measurements, align.FinalThroughput)
	var vals []float64
	for _, b := range bars {
		vals = append(vals, b.Value)
	}
	scale := units.CommonScale(vals)
	if err := report.WriteBars(w, bars, func(v float64) string { return scale.Format(v) + "bit/s" }); err != nil {
		return err
	}

	for _, ch := range c.Charts {
		if err := heading(ch.Title); err != nil {
			return err
		}
		var err error
		switch ch.Kind {
		case compare.Line:
			err = report.WriteAlignment(w, ch.Rows)
		case compare.Bar:
			format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
			if ch.ID == "sent-bytes" {
				format = func(v float64) string { return units.Bytes(int64(v), 2) }
			}
			err = report.WriteBars(w, ch.Bars, format)
		}
		if err != nil {
			return err
		}
	}

	if !stats {
		return nil
	}
	for _, s := range statSeries {
		var all []report.SeriesStats
		for _, m := range measurements {
			if st, ok := report.Describe(m, s.extract, s.transform); ok {
				all = append(all, st)
			}
		}
		if len(all) == 0 {
			continue
		}
		if err := heading(s.title + " statistics"); err != nil {
			return err
		}
		if err := report.WriteStats(w, s.unit, all); err != nil {
			return err
		}
	}
	return nil
}

// writeCSV writes each chart as a CSV table. Tables are separated by
// a blank line and introduced by a row naming the chart.
func writeCSV(w io.Writer, c *compare.Comparison) error {
	for i, ch := range c.Charts {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"chart", ch.ID}); err != nil {
			return err
		}
		switch ch.Kind {
		case compare.Line:
			cw.Flush()
			if err := report.WriteCSV(w, ch.Rows); err != nil {
				return err
			}
			continue
		case compare.Bar:
			cw.Write([]string{"source", ch.YLabel})
			for _, b := range ch.Bars {
				cw.Write([]string{b.Name, strconv.FormatFloat(b.Value, 'f', -1, 64)})
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
	}
	return nil
}
