package rrdinfo

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rrdgo/internal/rrdcreate"
)

// TestCollectRoundTripsCreateOptions is spec.md §8's create->info round
// trip: every value recoverable from info equals the value provided on the
// command line.
func TestCollectRoundTripsCreateOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 1000,
		Specs: []string{
			"DS:g:GAUGE:600:0:100",
			"RRA:AVERAGE:0.5:1:10",
			"RRA:MAX:0.1:12:5",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	entries, err := Collect(f)
	require.NoError(t, err)

	byKey := make(map[string]any, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}

	require.Equal(t, path, byKey["filename"])
	require.Equal(t, uint64(300), byKey["step"])
	require.Equal(t, int64(1000), byKey["last_update"])
	require.Equal(t, "GAUGE", byKey["ds[g].type"])
	require.Equal(t, "U", byKey["ds[g].last_ds"])
	require.InDelta(t, 0, byKey["ds[g].min"].(float64), 1e-9)
	require.InDelta(t, 100, byKey["ds[g].max"].(float64), 1e-9)
	require.Equal(t, uint64(600), byKey["ds[g].minimal_heartbeat"])
	require.Equal(t, "AVERAGE", byKey["rra[0].cf"])
	require.Equal(t, uint64(10), byKey["rra[0].rows"])
	require.Equal(t, uint64(1), byKey["rra[0].pdp_per_row"])
	require.InDelta(t, 0.5, byKey["rra[0].xff"].(float64), 1e-9)
	require.Equal(t, "MAX", byKey["rra[1].cf"])
	require.Equal(t, uint64(5), byKey["rra[1].rows"])
	require.Equal(t, uint64(12), byKey["rra[1].pdp_per_row"])
}

// TestCollectUnknownFields exercises a fresh COMPUTE DS (no min/max/
// heartbeat keys) alongside a non-COMPUTE one.
func TestCollectUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compute.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  60,
		Start: 0,
		Specs: []string{
			"DS:a:GAUGE:600:U:U",
			"DS:sum:COMPUTE:a,a,ADD",
			"RRA:LAST:0.5:1:1",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	entries, err := Collect(f)
	require.NoError(t, err)

	byKey := make(map[string]any, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}

	require.Equal(t, "COMPUTE", byKey["ds[sum].type"])
	_, hasMin := byKey["ds[sum].min"]
	require.False(t, hasMin, "COMPUTE DS has no min/max/heartbeat")
}
