// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"golang.org/x/netperf/align"
	"golang.org/x/netperf/compare"
	"golang.org/x/netperf/iperf"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

var (
	udpSummary = iperf.Summary{
		SourceID:                 "udp.json",
		Protocol:                 iperf.UDP,
		Timestamp:                "Tue, 04 Jun 2024 12:05:00 GMT",
		DurationSeconds:          10,
		TotalLostOrRetransmitted: i64(3),
		FinalThroughput:          1051200,
		FinalJitter:              f64(0.021),
		TotalSentPackets:         i64(900),
		TotalSentBytes:           i64(1314000),
	}
	tcpSummary = iperf.Summary{
		SourceID:                 "tcp.json",
		Protocol:                 iperf.TCP,
		DurationSeconds:          10,
		TotalLostOrRetransmitted: i64(9),
		FinalThroughput:          9055000000,
		TotalSentBytes:           i64(11250000000),
	}
)

func TestWriteSummaries(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummaries(&buf, []iperf.Summary{udpSummary, tcpSummary}); err != nil {
		t.Fatal(err)
	}
	want := "udp.json\n" +
		"  Protocol                                      UDP\n" +
		"  Date                Tue, 04 Jun 2024 12:05:00 GMT\n" +
		"  Duration                                      10s\n" +
		"  Total lost packets                              3\n" +
		"  Throughput                              1.05 Mbps\n" +
		"  Jitter                                    0.02 ms\n" +
		"  Sent packets                                  900\n" +
		"\n" +
		"tcp.json\n" +
		"  Protocol                TCP\n" +
		"  Date                    N/A\n" +
		"  Duration                10s\n" +
		"  Retransmits               9\n" +
		"  Throughput     9055.00 Mbps\n" +
		"  Latency (RTT)           N/A\n" +
		"  Sent bytes         10.48 GB\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func testAlignment() *align.Alignment {
	return &align.Alignment{
		Sources: []string{"a", "b"},
		Rows: []align.Row{
			{Time: 0, Values: []*float64{f64(1.5), f64(900)}},
			{Time: 2, Values: []*float64{nil, f64(901.25)}},
		},
	}
}

func TestWriteAlignment(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAlignment(&buf, testAlignment()); err != nil {
		t.Fatal(err)
	}
	want := "time     a       b\n" +
		"0s    1.50  900.00\n" +
		"2s     N/A  901.25\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testAlignment()); err != nil {
		t.Fatal(err)
	}
	want := "time,a,b\n0,1.5,900\n2,,901.25\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBars(t *testing.T) {
	var buf bytes.Buffer
	bars := []align.Bar{{Name: "a", Value: 3}, {Name: "longer", Value: 12.5}}
	if err := WriteBars(&buf, bars, nil); err != nil {
		t.Fatal(err)
	}
	want := "a          3\nlonger  12.5\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribe(t *testing.T) {
	m := &iperf.Measurement{
		Summary: iperf.Summary{SourceID: "s"},
		Series: []iperf.Point{
			{Time: 0, Throughput: 2e6, Latency: f64(1)},
			{Time: 2, Throughput: 4e6},
			{Time: 4, Throughput: 6e6, Latency: f64(3)},
		},
	}
	st, ok := Describe(m, align.Throughput, align.Megabits)
	if !ok {
		t.Fatal("no stats")
	}
	if st.N != 3 || st.Min != 2 || st.Max != 6 || st.Mean != 4 || math.Abs(st.Median-4) > 1e-9 {
		t.Errorf("unexpected throughput stats %+v", st)
	}
	if st.StdDev != 2 {
		t.Errorf("stddev = %v, want 2", st.StdDev)
	}

	st, ok = Describe(m, align.Latency, nil)
	if !ok || st.N != 2 || st.Mean != 2 {
		t.Errorf("unexpected latency stats %+v", st)
	}
	if _, ok := Describe(m, align.Jitter, nil); ok {
		t.Errorf("got stats for an absent metric")
	}

	var buf bytes.Buffer
	if err := WriteStats(&buf, " Mbps", []SeriesStats{{Source: "s", N: 3, Min: 2, Median: 4, Mean: 4, Max: 6, StdDev: 2}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "±2.00 Mbps") {
		t.Errorf("unexpected stats table:\n%s", buf.String())
	}
}

func TestHTML(t *testing.T) {
	tcp := &iperf.Measurement{Summary: tcpSummary, Series: []iperf.Point{{Time: 0, Throughput: 1e9}}}
	c := compare.Build([]*iperf.Measurement{tcp})
	var buf bytes.Buffer
	err := HTML(&buf, "Run <1>", c, func(ch *compare.Chart) string {
		return "/chart/42/" + ch.ID + ".png"
	}, []string{"bad.json: missing or invalid intervals"})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>Run &lt;1&gt;</title>",
		`<img src="/chart/42/throughput.png" alt="Throughput (Mbps)">`,
		`<img src="/chart/42/sent-bytes.png"`,
		"<li>bad.json: missing or invalid intervals</li>",
		"<th>Retransmits</th><td>9</td>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Three charts fill two rows.
	if n := strings.Count(out, `<div class="row">`); n != 2 {
		t.Errorf("got %d chart rows, want 2", n)
	}
}
