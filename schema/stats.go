package schema

import (
	"math"

	"github.com/arloliu/sas7bdat/batch"
	"github.com/arloliu/sas7bdat/format"
)

// NumericStats summarizes the non-missing values of one numeric column.
type NumericStats struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Count    int64   `json:"count"`
	Nulls    int64   `json:"nulls"`
	Integral bool    `json:"integral"`
	ZeroOne  bool    `json:"zero_one"`
}

// NewNumericStats returns empty statistics ready for Observe.
func NewNumericStats() NumericStats {
	return NumericStats{
		Min:      math.Inf(1),
		Max:      math.Inf(-1),
		Integral: true,
		ZeroOne:  true,
	}
}

// Observe adds one non-missing value.
func (s *NumericStats) Observe(v float64) {
	s.Count++
	if v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
	if s.Integral && (v != math.Trunc(v) || v < minInt64 || v >= maxUint64) {
		s.Integral = false
	}
	if s.ZeroOne && v != 0 && v != 1 {
		s.ZeroOne = false
	}
}

// ObserveColumn adds every value of a Float64 column. Nulls are counted but do not
// affect the range. Columns of any other type are ignored.
func (s *NumericStats) ObserveColumn(c *batch.Column) {
	if c.Type() != format.TypeFloat64 {
		return
	}

	for i, v := range c.Float64s() {
		if c.IsNull(i) {
			s.Nulls++
			continue
		}
		s.Observe(v)
	}
}

// Merge folds o into s.
func (s *NumericStats) Merge(o NumericStats) {
	s.Count += o.Count
	s.Nulls += o.Nulls
	s.Min = math.Min(s.Min, o.Min)
	s.Max = math.Max(s.Max, o.Max)
	s.Integral = s.Integral && o.Integral
	s.ZeroOne = s.ZeroOne && o.ZeroOne
}

const (
	minInt64  = -(1 << 63)
	maxInt64  = 1 << 63 // exclusive
	maxUint64 = 1 << 64 // exclusive
)

// Decide picks the narrowest type for a Float64 column with stats s.
//
// The rules apply in order:
//  1. every value is 0 or 1 and inferBoolean is set: Boolean
//  2. every value is integral and Min >= 0: the smallest unsigned type covering Max
//  3. every value is integral: the smallest signed type covering [Min, Max]
//  4. otherwise: Float64
//
// A column with no observed values stays Float64.
func Decide(s NumericStats, inferBoolean bool) format.DataType {
	switch {
	case s.Count == 0:
		return format.TypeFloat64
	case s.ZeroOne && inferBoolean:
		return format.TypeBoolean
	case !s.Integral:
		return format.TypeFloat64
	case s.Min >= 0:
		return smallestUnsigned(s.Max)
	default:
		return smallestSigned(s.Min, s.Max)
	}
}

func smallestUnsigned(hi float64) format.DataType {
	switch {
	case hi <= math.MaxUint8:
		return format.TypeUint8
	case hi <= math.MaxUint16:
		return format.TypeUint16
	case hi <= math.MaxUint32:
		return format.TypeUint32
	default:
		return format.TypeUint64
	}
}

func smallestSigned(lo, hi float64) format.DataType {
	switch {
	case lo >= math.MinInt8 && hi <= math.MaxInt8:
		return format.TypeInt8
	case lo >= math.MinInt16 && hi <= math.MaxInt16:
		return format.TypeInt16
	case lo >= math.MinInt32 && hi <= math.MaxInt32:
		return format.TypeInt32
	case hi < maxInt64:
		return format.TypeInt64
	default:
		// integral but wider than int64 on the positive side
		return format.TypeFloat64
	}
}

// bounds returns the inclusive value range of an integer type.
func bounds(t format.DataType) (lo, hi float64) {
	switch t {
	case format.TypeBoolean:
		return 0, 1
	case format.TypeInt8:
		return math.MinInt8, math.MaxInt8
	case format.TypeInt16:
		return math.MinInt16, math.MaxInt16
	case format.TypeInt32:
		return math.MinInt32, math.MaxInt32
	case format.TypeInt64:
		return minInt64, math.Nextafter(maxInt64, 0)
	case format.TypeUint8:
		return 0, math.MaxUint8
	case format.TypeUint16:
		return 0, math.MaxUint16
	case format.TypeUint32:
		return 0, math.MaxUint32
	case format.TypeUint64:
		return 0, math.Nextafter(maxUint64, 0)
	default:
		return math.Inf(-1), math.Inf(1)
	}
}
