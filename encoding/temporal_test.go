package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/format"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		colType format.ColumnType
		format  string
		want    format.ColumnKind
	}{
		{format.ColumnNumeric, "", format.KindNumber},
		{format.ColumnNumeric, "BEST12", format.KindNumber},
		{format.ColumnNumeric, "DATETIME", format.KindDatetime},
		{format.ColumnNumeric, "datetime", format.KindDatetime},
		{format.ColumnNumeric, "E8601DT", format.KindDatetime},
		{format.ColumnNumeric, "DATE", format.KindDate},
		{format.ColumnNumeric, "MMDDYY", format.KindDate},
		{format.ColumnNumeric, "YYMMDDN", format.KindDate},
		{format.ColumnNumeric, "TIME", format.KindTime},
		{format.ColumnNumeric, "HHMM", format.KindTime},
		{format.ColumnCharacter, "DATE", format.KindString},
		{format.ColumnCharacter, "$CHAR", format.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.colType.String()+"/"+tt.format, func(t *testing.T) {
			require.Equal(t, tt.want, KindOf(tt.colType, tt.format))
		})
	}
}

func TestTemporalConversions(t *testing.T) {
	require.Equal(t, int32(0), DateDays(3653))
	require.Equal(t, int32(-3653), DateDays(0))
	require.Equal(t, int32(1), DateDays(3654.9))

	// a day count stored as seconds
	require.Equal(t, int32(10), DateDays(float64((3653+10)*86400)))

	require.Equal(t, int64(0), DatetimeMicros(3653*86400))
	require.Equal(t, int64(1_500_000), DatetimeMicros(3653*86400+1.5))
	require.Equal(t, int64(-3653*86400*1_000_000), DatetimeMicros(0))

	require.Equal(t, int64(1_500_000_000), TimeNanos(1.5))
	require.Equal(t, int64(0), TimeNanos(0))
}
