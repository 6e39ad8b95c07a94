package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sas7bdat/errs"
)

type testConfig struct {
	BatchSize int
	Name      string
	Ordered   bool
	LastCall  string
}

func withBatchSize(n int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if err := Positive("batch size", n); err != nil {
			return err
		}
		c.BatchSize = n
		c.LastCall = "withBatchSize"

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.Name = name
		c.LastCall = "withName"
	})
}

func withOrdered(ordered bool) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.Ordered = ordered
		c.LastCall = "withOrdered"
	})
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withBatchSize(16), withName("x"), withOrdered(true))
		require.NoError(t, err)
		require.Equal(t, &testConfig{BatchSize: 16, Name: "x", Ordered: true, LastCall: "withOrdered"}, cfg)
	})

	t.Run("later options win", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, withName("a"), withName("b")))
		require.Equal(t, "b", cfg.Name)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &testConfig{BatchSize: 3}
		require.NoError(t, Apply(cfg))
		require.Equal(t, 3, cfg.BatchSize)
	})

	t.Run("nil option is skipped", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, nil, withName("n")))
		require.Equal(t, "n", cfg.Name)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withName("first"), withBatchSize(0), withOrdered(true))
		require.ErrorIs(t, err, errs.ErrInvalidOption)
		require.Equal(t, "withName", cfg.LastCall)
		require.False(t, cfg.Ordered)
	})

	t.Run("foreign errors are wrapped", func(t *testing.T) {
		cfg := &testConfig{}
		boom := New(func(*testConfig) error { return errors.New("boom") })
		err := Apply[*testConfig](cfg, boom)
		require.ErrorIs(t, err, errs.ErrInvalidOption)
		require.Contains(t, err.Error(), "boom")
	})
}

func TestPositive(t *testing.T) {
	require.NoError(t, Positive("workers", 1))
	require.ErrorIs(t, Positive("workers", 0), errs.ErrInvalidOption)
	require.ErrorIs(t, Positive("workers", -4), errs.ErrInvalidOption)
}
