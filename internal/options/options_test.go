package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errNegative = errors.New("size cannot be negative")

type arenaConfig struct {
	size     int
	label    string
	pooled   bool
	lastCall string
}

func withSize(n int) Option[*arenaConfig] {
	return New(func(c *arenaConfig) error {
		if n < 0 {
			return errNegative
		}
		c.size = n
		c.lastCall = "size"

		return nil
	})
}

func withLabel(label string) Option[*arenaConfig] {
	return NoError(func(c *arenaConfig) {
		c.label = label
		c.lastCall = "label"
	})
}

func withPooled() Option[*arenaConfig] {
	return NoError(func(c *arenaConfig) {
		c.pooled = true
		c.lastCall = "pooled"
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &arenaConfig{}

		err := Apply(cfg, withSize(64), withLabel("event"), withPooled())
		require.NoError(t, err)
		require.Equal(t, 64, cfg.size)
		require.Equal(t, "event", cfg.label)
		require.True(t, cfg.pooled)
		require.Equal(t, "pooled", cfg.lastCall)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &arenaConfig{}

		err := Apply(cfg, withSize(8), withSize(-1), withLabel("never"))
		require.ErrorIs(t, err, errNegative)
		require.Contains(t, err.Error(), "option 1")
		require.Equal(t, 8, cfg.size)
		require.Empty(t, cfg.label)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &arenaConfig{}

		err := Apply(cfg, nil, withLabel("x"), nil)
		require.NoError(t, err)
		require.Equal(t, "x", cfg.label)
	})

	t.Run("empty options", func(t *testing.T) {
		cfg := &arenaConfig{}
		require.NoError(t, Apply(cfg))
		require.Equal(t, arenaConfig{}, *cfg)
	})
}

func TestOption_PrimitiveTarget(t *testing.T) {
	var n int
	opt := NoError(func(p *int) { *p = 42 })

	require.NoError(t, opt.apply(&n))
	require.Equal(t, 42, n)
}
