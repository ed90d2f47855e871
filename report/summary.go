// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report renders normalized measurements and comparison
// datasets as text tables, CSV, and HTML.
package report

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/netperf/iperf"
	"golang.org/x/netperf/units"
)

// NA is shown in place of an absent value.
const NA = "N/A"

// SummaryRow is one labeled line of a source's summary.
type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows returns the display rows of s. Which rows are present
// depends on the protocol: UDP sources show lost packets, jitter, and
// sent packets, TCP sources show retransmits, latency, and sent
// bytes.
func SummaryRows(s *iperf.Summary) []SummaryRow {
	lost := "Total lost packets"
	if s.Protocol == iperf.TCP {
		lost = "Retransmits"
	}
	rows := []SummaryRow{
		{"Protocol", string(s.Protocol)},
		{"Date", orNA(s.Timestamp)},
		{"Duration", strconv.FormatFloat(s.DurationSeconds, 'f', -1, 64) + "s"},
		{lost, count(s.TotalLostOrRetransmitted)},
		{"Throughput", fmt.Sprintf("%.2f Mbps", s.FinalThroughput/1e6)},
	}
	switch s.Protocol {
	case iperf.UDP:
		rows = append(rows,
			SummaryRow{"Jitter", ms(s.FinalJitter)},
			SummaryRow{"Sent packets", count(s.TotalSentPackets)})
	case iperf.TCP:
		rows = append(rows,
			SummaryRow{"Latency (RTT)", ms(s.FinalLatency)})
		if s.TotalSentBytes != nil {
			rows = append(rows, SummaryRow{"Sent bytes", units.Bytes(*s.TotalSentBytes, 2)})
		} else {
			rows = append(rows, SummaryRow{"Sent bytes", NA})
		}
	}
	return rows
}

// WriteSummaries writes one summary block per source to w.
func WriteSummaries(w io.Writer, summaries []iperf.Summary) error {
	for i := range summaries {
		s := &summaries[i]
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", s.SourceID); err != nil {
			return err
		}
		var t table
		for _, r := range SummaryRows(s) {
			t.row("  "+r.Label, r.Value)
		}
		if err := t.format(w); err != nil {
			return err
		}
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return NA
	}
	return s
}

func count(v *int64) string {
	if v == nil {
		return NA
	}
	return strconv.FormatInt(*v, 10)
}

func ms(v *float64) string {
	if v == nil {
		return NA
	}
	return fmt.Sprintf("%.2f ms", *v)
}
