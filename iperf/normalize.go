// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iperf

import (
	"fmt"
	"math"
	"sort"
)

// A Summary holds the headline metrics of one test run.
//
// For UDP runs FinalLatency is always nil. For TCP runs FinalJitter
// and TotalSentPackets are always nil. Nil fields encode as JSON null
// so consumers can tell "not applicable" from zero.
type Summary struct {
	SourceID        string   `json:"sourceId"`
	Protocol        Protocol `json:"protocol"`
	Timestamp       string   `json:"timestamp"`
	DurationSeconds float64  `json:"durationSeconds"`

	// TotalLostOrRetransmitted is the lost packet count for UDP
	// and the sender retransmit count for TCP.
	TotalLostOrRetransmitted *int64 `json:"totalLostOrRetransmitted"`

	// FinalThroughput is in bits per second. It is 0 if the
	// record's terminal aggregate is missing.
	FinalThroughput float64 `json:"finalThroughput"`

	FinalJitter      *float64 `json:"finalJitter"`  // ms, UDP
	FinalLatency     *float64 `json:"finalLatency"` // ms, TCP
	TotalSentPackets *int64   `json:"totalSentPackets"`
	TotalSentBytes   *int64   `json:"totalSentBytes"`
}

// A Point is one retained sample of a reduced series.
type Point struct {
	Time        int      `json:"timeSeconds"` // TimeKey
	Throughput  float64  `json:"throughput"` // bits per second
	Jitter      *float64 `json:"jitter"`     // ms, UDP
	Latency     *float64 `json:"latency"`    // ms, TCP
	Retransmits *int64   `json:"retransmits"`
}

// A Measurement is the normalized form of one record.
type Measurement struct {
	Summary Summary `json:"summary"`

	// Series holds the reduced time series, sorted by Time.
	// Times are unique.
	Series []Point `json:"reducedSeries"`
}

// Normalize converts rec into a Measurement identified by sourceID.
//
// It returns a *MalformedInputError if the protocol, duration,
// interval list, or terminal block is missing or of the wrong type,
// if the protocol is neither TCP nor UDP, or if an interval lacks its
// aggregate. Any other absent field yields a nil value in the result.
//
// The series is reduced to a point at time 0 taken from the first
// interval, followed by at most one point per even second up to the
// test duration. Interval end times are rounded half up to whole
// seconds, and the first interval to land on a given second wins.
func Normalize(rec *Record, sourceID string) (*Measurement, error) {
	if rec == nil {
		return nil, malformed(sourceID, "record")
	}
	if rec.Start == nil || rec.Start.TestStart == nil {
		return nil, malformed(sourceID, "start.test_start")
	}
	ts := rec.Start.TestStart
	if ts.Protocol == nil {
		return nil, malformed(sourceID, "start.test_start.protocol")
	}
	proto := *ts.Protocol
	if proto != TCP && proto != UDP {
		return nil, &MalformedInputError{Source: sourceID, Field: "start.test_start.protocol", Err: unknownProtocolError(proto)}
	}
	if ts.Duration == nil {
		return nil, malformed(sourceID, "start.test_start.duration")
	}
	if rec.Intervals == nil {
		return nil, malformed(sourceID, "intervals")
	}
	for i := range rec.Intervals {
		if rec.Intervals[i].Sum == nil {
			return nil, malformed(sourceID, fmt.Sprintf("intervals[%d].sum", i))
		}
	}
	if rec.End == nil {
		return nil, malformed(sourceID, "end")
	}

	m := &Measurement{
		Summary: summarize(rec, proto, sourceID),
		Series:  reduce(rec.Intervals, proto, *ts.Duration),
	}
	return m, nil
}

func summarize(rec *Record, proto Protocol, sourceID string) Summary {
	s := Summary{
		SourceID:        sourceID,
		Protocol:        proto,
		DurationSeconds: *rec.Start.TestStart.Duration,
	}
	if rec.Start.Timestamp != nil {
		s.Timestamp = rec.Start.Timestamp.Time
	}

	end := rec.End
	switch proto {
	case UDP:
		if sum := end.Sum; sum != nil {
			s.FinalThroughput = valueOr(sum.BitsPerSecond, 0)
			s.FinalJitter = sum.JitterMs
			s.TotalLostOrRetransmitted = sum.LostPackets
			s.TotalSentPackets = sum.Packets
			s.TotalSentBytes = sum.Bytes
		}
	case TCP:
		if sum := end.SumSent; sum != nil {
			s.FinalThroughput = valueOr(sum.BitsPerSecond, 0)
			s.TotalLostOrRetransmitted = sum.Retransmits
			s.TotalSentBytes = sum.Bytes
		}
		if len(end.Streams) > 0 && end.Streams[0].Sender != nil {
			s.FinalLatency = usToMs(end.Streams[0].Sender.MeanRTT)
		}
	}
	return s
}

func reduce(intervals []Interval, proto Protocol, duration float64) []Point {
	if len(intervals) == 0 {
		return []Point{}
	}
	points := []Point{point(&intervals[0], proto, 0)}
	seen := map[int]bool{0: true}
	for i := range intervals {
		iv := &intervals[i]
		if iv.Sum.End == nil {
			continue
		}
		t := roundHalfUp(*iv.Sum.End)
		if t <= 0 || t > duration || math.Mod(t, 2) != 0 {
			continue
		}
		sec := int(t)
		if seen[sec] {
			continue
		}
		seen[sec] = true
		points = append(points, point(iv, proto, sec))
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time < points[j].Time
	})
	return points
}

func point(iv *Interval, proto Protocol, t int) Point {
	p := Point{Time: t, Throughput: iv.Sum.BitsPerSecond}
	switch proto {
	case UDP:
		p.Jitter = iv.Sum.JitterMs
	case TCP:
		p.Latency = usToMs(first(iv, rttLookups))
		p.Retransmits = first(iv, retransmitLookups)
	}
	return p
}

// roundHalfUp rounds x to the nearest integer, with halves rounding
// toward positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// usToMs converts a round-trip time as reported by iperf3 to
// milliseconds. The conversion is a fixed division by 1000.
func usToMs(v *float64) *float64 {
	if v == nil {
		return nil
	}
	ms := *v / 1000
	return &ms
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
