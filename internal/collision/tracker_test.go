package collision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/errs"
)

func TestNewIndex(t *testing.T) {
	ix := NewIndex([]string{"NAME", "AGE", "Height"})

	require.NotNil(t, ix)
	require.Equal(t, 3, ix.Count())
	require.False(t, ix.HasCollision())
	require.Equal(t, []string{"NAME", "AGE", "Height"}, ix.Names())
}

func TestIndex_Lookup(t *testing.T) {
	ix := NewIndex([]string{"NAME", "AGE", "Height"})

	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"NAME", 0, true},
		{"age", 1, true},
		{"HEIGHT", 2, true},
		{"height", 2, true},
		{"WEIGHT", -1, false},
		{"", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ix.Lookup(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIndex_LookupPrefersExactCase(t *testing.T) {
	ix := NewIndex([]string{"x", "X"})

	got, ok := ix.Lookup("X")
	require.True(t, ok)
	require.Equal(t, 1, got)

	got, ok = ix.Lookup("x")
	require.True(t, ok)
	require.Equal(t, 0, got)

	// case variants share a key but are not a collision
	require.False(t, ix.HasCollision())
}

func TestIndex_Resolve(t *testing.T) {
	ix := NewIndex([]string{"A", "B", "C", "D"})

	t.Run("keeps request order", func(t *testing.T) {
		got, err := ix.Resolve([]string{"d", "A", "c"})
		require.NoError(t, err)
		require.Equal(t, []int{3, 0, 2}, got)
	})

	t.Run("empty projection", func(t *testing.T) {
		got, err := ix.Resolve(nil)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ix.Resolve([]string{"A", "MISSING"})
		require.ErrorIs(t, err, errs.ErrUnknownColumn)

		var e *errs.Error
		require.ErrorAs(t, err, &e)
		require.Equal(t, "MISSING", e.Column)
	})

	t.Run("duplicate column", func(t *testing.T) {
		_, err := ix.Resolve([]string{"B", "b"})
		require.ErrorIs(t, err, errs.ErrDuplicateColumn)
	})
}
