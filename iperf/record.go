// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iperf reads iperf3 JSON test records and normalizes them
// into a protocol-independent summary plus a reduced time series
// suitable for charting.
//
// A record is the output of a single "iperf3 --json" run. Its shape
// differs between TCP and UDP tests and between iperf3 versions, so
// every optional field is represented as a pointer and a nil pointer
// means the field was absent from the input. A field holding a value
// of the wrong JSON type is treated as absent too.
package iperf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// A Protocol is the transport protocol of a test run.
type Protocol string

const (
	TCP Protocol = "TCP"
	UDP Protocol = "UDP"
)

// A Record is one raw iperf3 test record.
//
// Only the fields consumed by Normalize are decoded; everything else
// in the input is ignored.
type Record struct {
	Start *Start `json:"start"`

	// Intervals is nil if the record has no "intervals" list.
	// An empty list decodes as a non-nil, zero-length slice.
	Intervals []Interval `json:"intervals"`

	End *End `json:"end"`
}

type Start struct {
	Timestamp *Timestamp `json:"timestamp"`
	TestStart *TestStart `json:"test_start"`
}

type Timestamp struct {
	Time     string `json:"time"`
	Timesecs int64  `json:"timesecs"`
}

type TestStart struct {
	Protocol *Protocol `json:"protocol"`
	Duration *float64  `json:"duration"`
}

// An Interval is one sampling window of a test run.
type Interval struct {
	Streams []IntervalStream `json:"streams"`
	Sum     *IntervalSum     `json:"sum"`
}

// IntervalSum is the aggregate over all streams of an interval.
type IntervalSum struct {
	Start         float64  `json:"start"`
	End           *float64 `json:"end"`
	BitsPerSecond float64  `json:"bits_per_second"`
	JitterMs      *float64 `json:"jitter_ms"`
	Retransmits   *int64   `json:"retransmits"`
}

func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	return unmarshalFields(data, (*plain)(r))
}

func (s *Start) UnmarshalJSON(data []byte) error {
	type plain Start
	return unmarshalFields(data, (*plain)(s))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	type plain Timestamp
	return unmarshalFields(data, (*plain)(ts))
}

func (ts *TestStart) UnmarshalJSON(data []byte) error {
	type plain TestStart
	return unmarshalFields(data, (*plain)(ts))
}

func (iv *Interval) UnmarshalJSON(data []byte) error {
	type plain Interval
	return unmarshalFields(data, (*plain)(iv))
}

func (s *IntervalSum) UnmarshalJSON(data []byte) error {
	type plain IntervalSum
	return unmarshalFields(data, (*plain)(s))
}

// IntervalStream is a single stream's share of an interval.
type IntervalStream struct {
	RTT         *float64     `json:"rtt"`
	Retransmits *int64       `json:"retransmits"`
	Sender      *SenderStats `json:"sender"`
}

// SenderStats holds sender-side statistics of a stream.
//
// Current iperf3 releases write "sender": true in interval streams,
// while older releases and the end block write an object. A
// non-object value is treated as an absent sender.
type SenderStats struct {
	RTT         *float64 `json:"rtt"`
	MeanRTT     *float64 `json:"mean_rtt"`
	Retransmits *int64   `json:"retransmits"`
}

func (s *IntervalStream) UnmarshalJSON(data []byte) error {
	type plain IntervalStream
	return unmarshalFields(data, (*plain)(s))
}

func (s *SenderStats) UnmarshalJSON(data []byte) error {
	type plain SenderStats
	return unmarshalFields(data, (*plain)(s))
}

// End is the terminal summary block of a record.
type End struct {
	Streams     []EndStream `json:"streams"`
	SumSent     *EndSum     `json:"sum_sent"`
	SumReceived *EndSum     `json:"sum_received"`

	// Sum is the UDP aggregate.
	Sum *EndSum `json:"sum"`
}

func (e *End) UnmarshalJSON(data []byte) error {
	type plain End
	return unmarshalFields(data, (*plain)(e))
}

type EndStream struct {
	Sender *SenderStats `json:"sender"`
}

func (s *EndStream) UnmarshalJSON(data []byte) error {
	type plain EndStream
	return unmarshalFields(data, (*plain)(s))
}

// EndSum is a terminal aggregate. Which fields are present depends
// on the protocol and on which aggregate it is.
type EndSum struct {
	BitsPerSecond *float64 `json:"bits_per_second"`
	JitterMs      *float64 `json:"jitter_ms"`
	LostPackets   *int64   `json:"lost_packets"`
	Packets       *int64   `json:"packets"`
	Bytes         *int64   `json:"bytes"`
	Retransmits   *int64   `json:"retransmits"`
}

func (s *EndSum) UnmarshalJSON(data []byte) error {
	type plain EndSum
	return unmarshalFields(data, (*plain)(s))
}

// unmarshalFields decodes the JSON object in data into the struct v
// points to, one field at a time. A field whose value does not decode
// into the field's type is left at its zero value. If data is not an
// object, every field is left at its zero value.
func unmarshalFields(data []byte, v any) error {
	rv := reflect.ValueOf(v).Elem()
	rv.SetZero()
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return nil
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		raw, ok := fields[name]
		if !ok || !fits(raw, sf.Type) {
			continue
		}
		fv := reflect.New(sf.Type)
		if json.Unmarshal(raw, fv.Interface()) == nil {
			rv.Field(i).Set(fv.Elem())
		}
	}
	return nil
}

// fits reports whether raw has the JSON kind required by composite
// types. Scalars are checked by decoding them.
func fits(raw json.RawMessage, t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	raw = bytes.TrimSpace(raw)
	switch t.Kind() {
	case reflect.Struct:
		return len(raw) > 0 && raw[0] == '{'
	case reflect.Slice:
		return len(raw) > 0 && raw[0] == '['
	}
	return true
}

// Decode reads a single JSON record from r.
//
// Syntax errors are reported as a *MalformedInputError. Values of the
// wrong JSON type decode as absent fields; Normalize reports the
// required ones. I/O errors from r are returned as is.
func Decode(r io.Reader) (*Record, error) {
	var rec Record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rec); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &MalformedInputError{Field: "record", Err: err}
		}
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return &rec, nil
}
