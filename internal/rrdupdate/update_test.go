package rrdupdate

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rrdgo/internal/rrdcreate"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestUpdateCounterAverageAcrossWrap is spec.md §8 scenario 2: a COUNTER
// whose first reading is unknown (no previous value to diff against)
// produces a NaN first PDP; subsequent windows come out at a clean rate.
// Window 2's accumulator was reset by the unknown first reading, and window
// 3 does blend in the "post" remainder carried over from window 2, but that
// remainder has the same rate (600 per 300s), so unlike scenario 1 the
// cross-window blend leaves the value unchanged.
func TestUpdateCounterAverageAcrossWrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 1000,
		Specs: []string{
			"DS:c:COUNTER:600:U:U",
			"RRA:AVERAGE:0.5:1:3",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	ptrBefore, err := f.RRAPtr(0)
	require.NoError(t, err)

	_, err = Update(f, Options{
		Args: []string{"1300:100", "1600:700", "1900:1300"},
		Now:  fixedNow(time.Unix(1900, 0)),
	})
	require.NoError(t, err)

	row1, err := f.Row(0, (ptrBefore+1)%3)
	require.NoError(t, err)
	row2, err := f.Row(0, (ptrBefore+2)%3)
	require.NoError(t, err)
	row3, err := f.Row(0, (ptrBefore+3)%3)
	require.NoError(t, err)

	require.True(t, math.IsNaN(row1[0]), "first window has no previous reading")
	require.InDelta(t, 2, row2[0], 1e-9)
	require.InDelta(t, 2, row3[0], 1e-9)
}

// TestUpdateComputeDS is spec.md §8 scenario 5: a COMPUTE DS sums two GAUGE
// DSes on the very first update. Because it's the first update after
// create, every DS's pdp_prep accumulator starts at its additive identity,
// so the computed PDP equals the literal reading with no blending.
func TestUpdateComputeDS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compute.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 1000,
		Specs: []string{
			"DS:a:GAUGE:600:U:U",
			"DS:b:GAUGE:600:U:U",
			"DS:sum:COMPUTE:a,b,ADD",
			"RRA:LAST:0.5:1:1",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	out, err := Update(f, Options{
		Args: []string{"1300:2:3"},
		Now:  fixedNow(time.Unix(1300, 0)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, out.Applied)

	row, err := f.Row(0, 0)
	require.NoError(t, err)
	require.InDelta(t, 5, row[2], 1e-9)
}

// TestUpdateGaugeAverageBlendsAcrossNonAlignedBoundary exercises the same
// schema and timestamps as spec.md §8 scenario 1, whose prose expects a
// clean [10, 20, 30]. That expectation assumes pdp_step-aligned ticks;
// last_up=1000 is not a multiple of pdp_step=300, so (matching
// original_source/rrd_update.c's process_pdp_st, which carries an
// unfinished window's "post" remainder into the next call's "pre"
// contribution) every window after the first blends the previous reading
// with the new one. See DESIGN.md open-question 4 for the full derivation.
func TestUpdateGaugeAverageBlendsAcrossNonAlignedBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gauge.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 1000,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:3",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	ptrBefore, err := f.RRAPtr(0)
	require.NoError(t, err)

	_, err = Update(f, Options{
		Args: []string{"1300:10", "1600:20", "1900:30"},
		Now:  fixedNow(time.Unix(1900, 0)),
	})
	require.NoError(t, err)

	row1, err := f.Row(0, (ptrBefore+1)%3)
	require.NoError(t, err)
	row2, err := f.Row(0, (ptrBefore+2)%3)
	require.NoError(t, err)
	row3, err := f.Row(0, (ptrBefore+3)%3)
	require.NoError(t, err)

	require.InDelta(t, 10, row1[0], 1e-9)
	require.InDelta(t, float64(5000)/300, row2[0], 1e-9)
	require.InDelta(t, float64(8000)/300, row3[0], 1e-9)
}

// TestUpdateGaugeAverageAlignedTicksAreClean demonstrates the scenario-1
// narrative holds exactly when last_up is itself a multiple of pdp_step:
// no cross-window blending occurs and every reading passes through as its
// own PDP/CDP value.
func TestUpdateGaugeAverageAlignedTicksAreClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gauge_aligned.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 900,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:3",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	ptrBefore, err := f.RRAPtr(0)
	require.NoError(t, err)

	_, err = Update(f, Options{
		Args: []string{"1200:10", "1500:20", "1800:30"},
		Now:  fixedNow(time.Unix(1800, 0)),
	})
	require.NoError(t, err)

	row1, err := f.Row(0, (ptrBefore+1)%3)
	require.NoError(t, err)
	row2, err := f.Row(0, (ptrBefore+2)%3)
	require.NoError(t, err)
	row3, err := f.Row(0, (ptrBefore+3)%3)
	require.NoError(t, err)

	require.InDelta(t, 10, row1[0], 1e-9)
	require.InDelta(t, 20, row2[0], 1e-9)
	require.InDelta(t, 30, row3[0], 1e-9)
}

// TestUpdateXFFTriggersNaN is spec.md §8 scenario 4: two unknown PDPs out
// of a 3-PDP CDP window exceed xff=0.5, forcing the first CDP to NaN.
func TestUpdateXFFTriggersNaN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xff.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 1000,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:MAX:0.5:3:2",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	ptrBefore, err := f.RRAPtr(0)
	require.NoError(t, err)

	_, err = Update(f, Options{
		Args: []string{"1300:U", "1600:U", "1900:7"},
		Now:  fixedNow(time.Unix(1900, 0)),
	})
	require.NoError(t, err)

	row, err := f.Row(0, (ptrBefore+1)%2)
	require.NoError(t, err)
	require.True(t, math.IsNaN(row[0]), "2 of 3 unknown PDPs exceeds xff=0.5")
}

// TestUpdateRejectsNonMonotonicTime exercises spec.md §9.1's undecided
// point: a non-monotonic update is a silent no-op, surfaced via Outcome
// rather than an error.
func TestUpdateRejectsNonMonotonicTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 1000,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:3",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	out, err := Update(f, Options{
		Args: []string{"900:10"},
		Now:  fixedNow(time.Unix(900, 0)),
	})
	require.NoError(t, err)
	require.Equal(t, 0, out.Applied)
	require.Equal(t, 1, out.Skipped)
}

// TestUpdateUnknownTemplateName exercises the template-resolution error
// path.
func TestUpdateUnknownTemplateName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmpl.rrd")

	f, err := rrdcreate.Create(path, rrdcreate.Options{
		Step:  300,
		Start: 1000,
		Specs: []string{
			"DS:g:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:3",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	_, err = Update(f, Options{
		Template: []string{"nope"},
		Args:     []string{"1300:10"},
		Now:      fixedNow(time.Unix(1300, 0)),
	})
	require.ErrorIs(t, err, ErrUnknownTemplateName)
}
