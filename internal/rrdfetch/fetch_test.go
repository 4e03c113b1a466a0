package rrdfetch

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rrdgo/internal/rrdcreate"
	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// floatRowsEqual treats NaN as equal to NaN, unlike cmp's default float
// comparison, since boundary rows are expected to be NaN on both sides.
var floatRowsEqual = cmp.Comparer(func(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}

	return math.Abs(a-b) < 1e-9
})

// TestFetchRoundTrip writes a fully deterministic ring directly (bypassing
// Update's PDP/CDP accumulation) and confirms Fetch reads it back at the
// expected cadence-aligned offsets with correct ring-wrap and boundary-NaN
// behavior: the write row -> fetch property from spec.md §8.
func TestFetchRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 0,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:5",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.SetLiveHead(rrdfile.LiveHead{LastUp: 3000}))
	require.NoError(t, f.SetRRAPtr(0, 2))

	// Ring index -> virtual row, given cur=2, row_cnt=5:
	// idx3=virtual0(t=1800,v=100) idx4=virtual1(t=2100,v=200)
	// idx0=virtual2(t=2400,v=300) idx1=virtual3(t=2700,v=400)
	// idx2=virtual4(t=3000,v=500, == cur, the most recent write)
	require.NoError(t, f.SetRow(0, 3, []float64{100}))
	require.NoError(t, f.SetRow(0, 4, []float64{200}))
	require.NoError(t, f.SetRow(0, 0, []float64{300}))
	require.NoError(t, f.SetRow(0, 1, []float64{400}))
	require.NoError(t, f.SetRow(0, 2, []float64{500}))
	require.NoError(t, f.Sync())

	res, err := Fetch(f, Options{
		CF:         rrdfile.CFAverage,
		Start:      "2100",
		End:        "2700",
		Resolution: 300,
		Now:        fixedNow(time.Unix(3000, 0)),
	})
	require.NoError(t, err)

	require.Equal(t, int64(2100), res.Start)
	require.Equal(t, int64(3000), res.End)
	require.Equal(t, int64(300), res.Step)
	require.Equal(t, []string{"g"}, res.DSNames)

	want := [][]float64{{300}, {400}, {500}, {math.NaN()}}
	if diff := cmp.Diff(want, res.Rows, floatRowsEqual); diff != "" {
		t.Fatalf("fetched rows mismatch (-want +got):\n%s", diff)
	}
}

// TestFetchArchiveSelection is spec.md §8 scenario 6: given two AVERAGE
// RRAs of different cadence, a request whose window both fully retain picks
// whichever cadence is closest to the requested step.
func TestFetchArchiveSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "select.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 0,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:100",
			"RRA:AVERAGE:0.5:12:100",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	lastUp := int64(360000)
	require.NoError(t, f.SetLiveHead(rrdfile.LiveHead{LastUp: lastUp}))
	require.NoError(t, f.Sync())

	res, err := Fetch(f, Options{
		CF:         rrdfile.CFAverage,
		Start:      "356400", // one hour before lastUp
		End:        "360000",
		Resolution: 3000,
		Now:        fixedNow(time.Unix(lastUp, 0)),
	})
	require.NoError(t, err)

	require.Equal(t, int64(3600), res.Step, "picks the 3600s-cadence rra over the 300s one")
}

// TestFetchNoMatchingArchive exercises the no-CF-match error path.
func TestFetchNoMatchingArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nomatch.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 0,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:10",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.SetLiveHead(rrdfile.LiveHead{LastUp: 3000}))
	require.NoError(t, f.Sync())

	_, err = Fetch(f, Options{
		CF:    rrdfile.CFMaximum,
		Start: "0",
		End:   "3000",
		Now:   fixedNow(time.Unix(3000, 0)),
	})
	require.ErrorIs(t, err, ErrNoMatchingArchive)
}

// TestFetchInvalidRange exercises the start>=end validation error.
func TestFetchInvalidRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 0,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:10",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	_, err = Fetch(f, Options{
		CF:    rrdfile.CFAverage,
		Start: "3000",
		End:   "1000",
		Now:   fixedNow(time.Unix(3000, 0)),
	})
	require.ErrorIs(t, err, ErrInvalidRange)
}
