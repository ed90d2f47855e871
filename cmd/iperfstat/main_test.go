// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	if err := os.Chdir("testdata"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	t.Logf("iperfstat %s", strings.Join(args, " "))
	err = iperfstat(&out, &errOut, args)
	return out.String(), errOut.String(), err
}

func mustContain(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("output does not contain %q:\n%s", want, got)
		}
	}
}

func TestText(t *testing.T) {
	out, errOut, err := run(t, "tcp.json", "udp.json")
	if err != nil {
		t.Fatal(err)
	}
	if errOut != "" {
		t.Errorf("unexpected stderr:\n%s", errOut)
	}
	mustContain(t, out,
		"tcp.json\n",
		"udp.json\n",
		"Final throughput\n",
		"9055.000Mbit/s",
		"1.051Mbit/s",
		"Throughput (Mbps)\n",
		"Latency/RTT (ms) (TCP)\n",
		"Sent packets (UDP)\n",
		"Lost packets / retransmits\n",
		"Jitter (ms) (UDP)\n",
		"Sent bytes (TCP)\n",
	)
	if strings.Contains(out, "statistics") {
		t.Errorf("statistics printed without -stats")
	}
}

func TestStats(t *testing.T) {
	out, _, err := run(t, "-stats", "tcp.json", "udp.json")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "Throughput statistics\n", "Latency/RTT (TCP) statistics\n", "Jitter (UDP) statistics\n", "median")
}

func TestPartialFailure(t *testing.T) {
	out, errOut, err := run(t, "tcp.json", "truncated.json", "missing.json")
	if err != nil {
		t.Fatalf("got error %v, want success with the readable file", err)
	}
	mustContain(t, errOut, "truncated.json", "missing.json")
	mustContain(t, out, "tcp.json\n")
	if strings.Contains(out, "truncated.json") {
		t.Errorf("failed file appears in the comparison:\n%s", out)
	}
}

func TestNoReadableFiles(t *testing.T) {
	if _, _, err := run(t, "truncated.json", "missing.json"); err == nil {
		t.Fatal("want error when no file can be read")
	}
}

func TestArgs(t *testing.T) {
	if _, _, err := run(t); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("no files: got %v, want flag.ErrHelp", err)
	}
	seven := strings.Fields(strings.Repeat("tcp.json ", 7))
	if _, _, err := run(t, seven...); err == nil {
		t.Errorf("seven files: want error")
	}
	if _, _, err := run(t, "-format", "xml", "tcp.json"); err == nil {
		t.Errorf("-format xml: want error")
	}
}

func TestCSV(t *testing.T) {
	out, _, err := run(t, "-format", "csv", "tcp.json", "tcp.json", "udp.json")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) < 3 {
		t.Fatalf("short output:\n%s", out)
	}
	if lines[0] != "chart,throughput" {
		t.Errorf("line 1 = %q, want chart,throughput", lines[0])
	}
	if want := "time,tcp.json#0,tcp.json#1,udp.json"; lines[1] != want {
		t.Errorf("line 2 = %q, want %q", lines[1], want)
	}
	if !strings.HasPrefix(lines[2], "0,") {
		t.Errorf("first row %q is not time 0", lines[2])
	}
	mustContain(t, out, "\nchart,sent-bytes\nsource,bytes\n")
}

func TestLabels(t *testing.T) {
	out, _, err := run(t, "-format", "csv", "old=tcp.json", "new=tcp.json")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "time,old,new\n")

	out, _, err = run(t, "-format", "csv", "a=tcp.json", "a=udp.json")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "time,a#0,a#1\n")
}

func TestCharts(t *testing.T) {
	svg, png := t.TempDir(), t.TempDir()
	out, _, err := run(t, "-format", "html", "-svg", svg, "-png", png, "tcp.json", "udp.json")
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{
		filepath.Join(svg, "throughput.svg"),
		filepath.Join(svg, "sent-bytes.svg"),
		filepath.Join(png, "latency.png"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("chart not written: %v", err)
		}
	}
	mustContain(t, out, "<!DOCTYPE html>", "<img", "throughput.svg")
	if strings.Contains(out, ".png") {
		t.Errorf("HTML links PNG charts when SVG charts were written")
	}
}

func TestHTMLWithoutCharts(t *testing.T) {
	out, _, err := run(t, "-format", "html", "udp.json", "truncated.json")
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out, "Throughput (Mbps)", "truncated.json")
	if strings.Contains(out, "<img") {
		t.Errorf("HTML has images but no charts were written")
	}
}
