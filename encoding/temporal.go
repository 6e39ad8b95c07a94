package encoding

import (
	"math"
	"strings"

	"github.com/arloliu/sas7bdat/format"
)

const (
	epochOffsetDays   = 3653
	secondsPerDay     = 86400
	epochOffsetSecond = epochOffsetDays * secondsPerDay

	// Day values outside this window (Unix days) are stored as seconds by some writers.
	minPlausibleDay = -135080
	maxPlausibleDay = 156935
)

// Datetime formats are checked first: "DATETIME" also starts with "DATE".
var datetimeFormats = []string{
	"DATETIME", "DTWKDATX", "B8601DN", "B8601DT", "B8601DX", "B8601DZ", "B8601LX",
	"E8601DN", "E8601DT", "E8601DX", "E8601DZ", "E8601LX", "DATEAMPM", "DTDATE",
	"DTMONYY", "DTYEAR", "TOD", "MDYAMPM",
}

var dateFormats = []string{
	"DATE", "DAY", "DDMMYY", "JULDAY", "JULIAN", "MMDDYY", "MMYY", "MONNAME", "MONTH",
	"MONYY", "QTR", "NENGO", "WEEKDATE", "WEEKDATX", "WEEKDAY", "WEEKV", "WORDDATE",
	"WORDDATX", "YEAR", "YYMM", "YYMON", "YYQ",
}

var timeFormats = []string{"TIME", "HHMM"}

// KindOf maps a column's type and display format to its value kind. Character columns
// are always strings; numeric columns become temporal when their format belongs to a
// date, datetime or time family.
func KindOf(colType format.ColumnType, displayFormat string) format.ColumnKind {
	if colType == format.ColumnCharacter {
		return format.KindString
	}
	if displayFormat == "" {
		return format.KindNumber
	}

	upper := strings.ToUpper(displayFormat)
	switch {
	case hasAnyPrefix(upper, datetimeFormats):
		return format.KindDatetime
	case hasAnyPrefix(upper, dateFormats):
		return format.KindDate
	case hasAnyPrefix(upper, timeFormats):
		return format.KindTime
	default:
		return format.KindNumber
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}

// DateDays converts a stored date (days since 1960-01-01) to days since the Unix epoch.
// Values that are not a plausible day count are treated as seconds.
func DateDays(v float64) int32 {
	days := int64(v) - epochOffsetDays
	if days >= minPlausibleDay && days <= maxPlausibleDay {
		return int32(days)
	}

	return int32(int64(v/secondsPerDay) - epochOffsetDays)
}

// DatetimeMicros converts stored seconds since 1960-01-01 to microseconds since the Unix
// epoch.
func DatetimeMicros(v float64) int64 {
	return int64(math.Round((v - epochOffsetSecond) * 1e6))
}

// TimeNanos converts stored seconds since midnight to nanoseconds.
func TimeNanos(v float64) int64 {
	return int64(math.Round(v * 1e9))
}
