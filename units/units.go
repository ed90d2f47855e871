// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package units formats network measurement values for display.
package units

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// A Scaler represents a scaling factor for a number and
// its scientific representation.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Unscaled value of 1 Prefix (e.g., 1 k => 1000)
	Prefix string  // Unit prefix ("k", "M", etc)
}

// Format formats val and appends the unit prefix according to the
// given scale. For example, the Scaler CommonScale returns for
// 9055000000 formats that value as "9.055G".
func (s Scaler) Format(val float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, val/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Prefix...)
	return string(buf)
}

type factor struct {
	factor float64
	prefix string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

var siFactors = mkSIFactors()

func mkSIFactors() []factor {
	// Thresholds are parsed from their printed form so they agree
	// exactly with how AppendFloat rounds.
	var factors []factor
	exp := 12
	for _, p := range []string{"T", "G", "M", "k", ""} {
		t100, _ := strconv.ParseFloat(fmt.Sprintf("99.995e%d", exp), 64)
		t10, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		t1, _ := strconv.ParseFloat(fmt.Sprintf(".99995e%d", exp), 64)
		factors = append(factors, factor{math.Pow(10, float64(exp)), p, t100, t10, t1})
		exp -= 3
	}
	return factors
}

// CommonScale returns a decimal Scaler that shows at least three
// significant digits for every value in vals. Values below 1 are
// printed unscaled with three decimals.
func CommonScale(vals []float64) Scaler {
	// The common scale is determined by the non-zero value
	// closest to zero.
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if v != 0 && (min == 0 || v < min) {
			min = v
		}
	}
	for _, f := range siFactors {
		switch {
		case min >= f.t100:
			return Scaler{1, f.factor, f.prefix}
		case min >= f.t10:
			return Scaler{2, f.factor, f.prefix}
		case min >= f.t1:
			return Scaler{3, f.factor, f.prefix}
		}
	}
	return Scaler{3, 1, ""}
}

// BitRate formats a rate in bits per second, such as "9.055Gbit/s".
func BitRate(bps float64) string {
	return CommonScale([]float64{bps}).Format(bps) + "bit/s"
}

var byteSizes = []string{"Bytes", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// Bytes formats a byte count using powers of 1024 and at most
// decimals digits after the point, dropping trailing zeros. For
// example, Bytes(1536, 2) is "1.5 KB". Zero is "0 Bytes".
func Bytes(b int64, decimals int) string {
	if b == 0 {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}
	v := math.Abs(float64(b))
	i := int(math.Floor(math.Log(v) / math.Log(1024)))
	if i >= len(byteSizes) {
		i = len(byteSizes) - 1
	}
	scaled := Round(v/math.Pow(1024, float64(i)), decimals)
	s := strconv.FormatFloat(scaled, 'f', -1, 64) + " " + byteSizes[i]
	if b < 0 {
		s = "-" + s
	}
	return s
}

// Round rounds v to the given number of decimal places. The exact
// binary value of v is rounded, with halves rounding away from zero,
// so Round(1.125, 2) is 1.13 while Round(1.005, 2) is 1, since the
// float64 nearest 1.005 lies below it.
func Round(v float64, decimals int) float64 {
	if decimals < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	x := new(big.Rat).SetFloat64(math.Abs(v))
	x.Mul(x, new(big.Rat).SetInt(scale))
	n, rem := new(big.Int).QuoRem(x.Num(), x.Denom(), new(big.Int))
	if rem.Lsh(rem, 1).Cmp(x.Denom()) >= 0 {
		n.Add(n, big.NewInt(1))
	}
	r, _ := new(big.Rat).SetFrac(n, scale).Float64()
	return math.Copysign(r, v)
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return Round(v, 2)
}

// Megabits converts bits per second to megabits per second, rounded
// to two decimal places.
func Megabits(bps float64) float64 {
	return Round2(bps / 1e6)
}
