package colakv

// Rebuild needs the real OS filesystem (os.CreateTemp + atomic replace),
// unlike cola_test.go's scenario tests, which exercise the in-memory
// vfs.FS to stay fast and deterministic.

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRebuildTestCOLA(t *testing.T) (*COLA, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rebuild.cola")
	opts := DefaultOptions()
	opts.L0Size = 5 * opts.layoutConfig().ItemSize
	opts.MaxLevel = 4
	opts.ExpectedKeys = 64
	c, err := Open(path, opts)
	require.NoError(t, err)
	return c, path
}

func TestRebuildPreservesEveryLiveKey(t *testing.T) {
	c, path := newRebuildTestCOLA(t)
	defer c.Close()

	keys := []string{"m", "a", "z", "b", "y", "c", "x", "d"}
	for i, k := range keys {
		require.NoError(t, c.Add(put(k, uint64(i), 1)))
	}
	require.NoError(t, c.Add(del("b")))

	require.NoError(t, c.Rebuild())

	res, err := c.Get([]byte("b"))
	require.NoError(t, err)
	require.NotEqual(t, Found, res.Status, "b was tombstoned before rebuild")

	for i, k := range keys {
		if k == "b" {
			continue
		}
		res, err := c.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, GetResult{Status: Found, Offset: uint64(i), VLen: 1}, res, "key %q lost across rebuild", k)
	}

	require.False(t, c.Willfull())

	counts := c.LevelCounts()
	deepest := c.cfg.MaxLevel - 1
	for lvl := 0; lvl < deepest; lvl++ {
		require.Zero(t, counts[lvl], "rebuild should place every live item at the deepest level, level %d is not empty", lvl)
	}
	require.NotZero(t, counts[deepest])

	// A fresh Open against the same path sees the rebuilt file, not
	// leftover state from before the rebuild.
	opts := c.opts
	require.NoError(t, c.Close())
	c2, err := Open(path, opts)
	require.NoError(t, err)
	defer c2.Close()
	require.Equal(t, counts, c2.LevelCounts())
}

// TestRebuildCompactsModerateActivity inserts enough distinct keys to
// force several cascades — comfortably below the deepest level's own
// capacity, since packing every live key into one level only works while
// the live set still fits there; a structure driven to full Willfull
// saturation across every level can hold close to twice the deepest
// level's capacity in live, still-distinct keys (each shallower level
// very nearly doubles the one before it), which Rebuild's single-level
// placement cannot absorb. That is a capacity property of this layout,
// not a bug to paper over here — see DESIGN.md.
func TestRebuildCompactsModerateActivity(t *testing.T) {
	c, _ := newRebuildTestCOLA(t)
	defer c.Close()

	const n = 25 // well under LevelMax(MaxLevel-1, 0) = 40 for this layout
	for i := 0; i < n; i++ {
		require.NoError(t, c.Add(put(randomLikeKey(i), uint64(i), 1)))
	}

	require.NoError(t, c.Rebuild())
	require.False(t, c.Willfull())

	counts := c.LevelCounts()
	deepest := c.cfg.MaxLevel - 1
	sum := 0
	for _, cnt := range counts {
		sum += cnt
	}
	require.Equal(t, sum, counts[deepest], "every live item should land at the deepest level")

	for i := 0; i < n; i++ {
		res, err := c.Get([]byte(randomLikeKey(i)))
		require.NoError(t, err)
		require.Equal(t, Found, res.Status, "key %q lost across rebuild", randomLikeKey(i))
	}
}
