// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart renders comparison charts with gonum/plot.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"golang.org/x/netperf/compare"
)

// A Format is an output image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
	PDF Format = "pdf"
)

// ParseFormat returns the Format named by s, such as "png".
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case PNG, SVG, PDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown chart format %q", s)
}

// ContentType returns the MIME type of images in format f.
func (f Format) ContentType() string {
	switch f {
	case SVG:
		return "image/svg+xml"
	case PDF:
		return "application/pdf"
	}
	return "image/png"
}

// Default chart dimensions.
const (
	Width  = 16 * vg.Centimeter
	Height = 10 * vg.Centimeter
	dpi    = 96
)

// Render builds the plot for ch, drawing each source in the color
// returned by colors.
//
// Line charts connect consecutive present values only; a missing
// value breaks the line. Bar charts draw one bar per source.
func Render(ch *compare.Chart, colors func(source string) color.Color) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = ch.Title
	pl.X.Label.Text = ch.XLabel
	pl.Y.Label.Text = ch.YLabel
	pl.Legend.Top = true

	switch ch.Kind {
	case compare.Line:
		pl.Add(plotter.NewGrid())
		if err := addLines(pl, ch, colors); err != nil {
			return nil, err
		}
	case compare.Bar:
		if err := addBars(pl, ch, colors); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("chart %s: unknown kind %q", ch.ID, ch.Kind)
	}
	return pl, nil
}

func addLines(pl *plot.Plot, ch *compare.Chart, colors func(string) color.Color) error {
	a := ch.Rows
	if a == nil {
		return nil
	}
	for i, src := range a.Sources {
		clr := colors(src)
		var all plotter.XYs
		for _, seg := range segments(a.Column(i), func(r int) float64 { return float64(a.Rows[r].Time) }) {
			l, err := plotter.NewLine(seg)
			if err != nil {
				return fmt.Errorf("chart %s: source %s: %w", ch.ID, src, err)
			}
			l.LineStyle.Color = clr
			l.LineStyle.Width = vg.Points(1.5)
			pl.Add(l)
			all = append(all, seg...)
		}
		if len(all) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(all)
		if err != nil {
			return fmt.Errorf("chart %s: source %s: %w", ch.ID, src, err)
		}
		sc.GlyphStyle.Color = clr
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		pl.Add(sc)
		pl.Legend.Add(src, sc)
	}
	return nil
}

// segments splits a column into runs of consecutive present values.
func segments(col []*float64, x func(row int) float64) []plotter.XYs {
	var segs []plotter.XYs
	var cur plotter.XYs
	for r, v := range col {
		if v == nil {
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x(r), Y: *v})
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}

func addBars(pl *plot.Plot, ch *compare.Chart, colors func(string) color.Color) error {
	names := make([]string, len(ch.Bars))
	for i, b := range ch.Bars {
		names[i] = b.Name
		bar, err := plotter.NewBarChart(plotter.Values{b.Value}, vg.Points(30))
		if err != nil {
			return fmt.Errorf("chart %s: source %s: %w", ch.ID, b.Name, err)
		}
		bar.XMin = float64(i)
		bar.Color = colors(b.Name)
		bar.LineStyle.Width = 0
		pl.Add(bar)
	}
	pl.NominalX(names...)
	return nil
}

// Write draws pl in format f with the given size and writes it to w.
func Write(w io.Writer, pl *plot.Plot, f Format, width, height vg.Length) error {
	var can vg.CanvasWriterTo
	switch f {
	case PNG:
		can = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height),
			vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
	case SVG:
		can = vgsvg.New(width, height)
	case PDF:
		can = vgpdf.New(width, height)
	default:
		return fmt.Errorf("unknown chart format %q", f)
	}
	pl.Draw(draw.New(can))
	_, err := can.WriteTo(w)
	return err
}

// WriteDir renders every chart of c into dir as <chart id>.<format>
// and returns the paths written.
func WriteDir(dir string, c *compare.Comparison, f Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, err
	}
	colors := func(src string) color.Color { return c.Color(src) }
	var paths []string
	for _, ch := range c.Charts {
		pl, err := Render(ch, colors)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, ch.ID+"."+string(f))
		file, err := os.Create(path)
		if err != nil {
			return paths, err
		}
		err = Write(file, pl, f, Width, Height)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
