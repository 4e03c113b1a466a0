package rrdcreate

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

func TestCreateSimpleSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rrd")

	f, err := Create(path, Options{
		Step:  300,
		Start: 1700000000,
		Specs: []string{
			"DS:in_octets:COUNTER:600:0:U",
			"DS:temp:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:100",
			"RRA:MAX:0.5:12:50",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	header, err := f.StaticHeader()
	require.NoError(t, err)
	require.Equal(t, rrdfile.Version3, header.Version)
	require.Equal(t, uint64(2), header.DSCount)
	require.Equal(t, uint64(2), header.RRACount)

	d0, err := f.DSDef(0)
	require.NoError(t, err)
	require.Equal(t, "in_octets", d0.Name)
	require.Equal(t, rrdfile.DSCounter, d0.Type)
	require.Equal(t, uint64(600), d0.Heartbeat())
	require.True(t, math.IsNaN(d0.Max()))
}

func TestCreateComputeDS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rrd")

	f, err := Create(path, Options{
		Step:  300,
		Start: 1700000000,
		Specs: []string{
			"DS:a:GAUGE:600:U:U",
			"DS:b:COMPUTE:a,2,MUL",
			"RRA:AVERAGE:0.5:1:100",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	d1, err := f.DSDef(1)
	require.NoError(t, err)
	require.Equal(t, rrdfile.DSCompute, d1.Type)
}

func TestCreateRejectsBackwardComputeReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rrd")

	_, err := Create(path, Options{
		Step:  300,
		Start: 1700000000,
		Specs: []string{
			"DS:a:COMPUTE:b,2,MUL",
			"DS:b:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:100",
		},
	})
	require.Error(t, err)
}

func TestCreateRejectsDuplicateDSName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rrd")

	_, err := Create(path, Options{
		Step:  300,
		Start: 1700000000,
		Specs: []string{
			"DS:a:GAUGE:600:U:U",
			"DS:a:GAUGE:600:U:U",
			"RRA:AVERAGE:0.5:1:100",
		},
	})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateRejectsNoRRA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rrd")

	_, err := Create(path, Options{
		Step:  300,
		Start: 1700000000,
		Specs: []string{"DS:a:GAUGE:600:U:U"},
	})
	require.ErrorIs(t, err, ErrNoRRA)
}

func TestCreateHWPredictExpandsToFiveRRAsAndUpgradesVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rrd")

	f, err := Create(path, Options{
		Step:  300,
		Start: 1700000000,
		Specs: []string{
			"DS:a:GAUGE:600:U:U",
			"RRA:HWPREDICT:100:0.1:0.0035:1440",
		},
	})
	require.NoError(t, err)
	defer f.Close()

	header, err := f.StaticHeader()
	require.NoError(t, err)
	require.Equal(t, rrdfile.Version4, header.Version)
	require.Equal(t, uint64(5), header.RRACount)

	r0, err := f.RRADef(0)
	require.NoError(t, err)
	require.Equal(t, rrdfile.CFHWPredict, r0.CF)

	r1, err := f.RRADef(1)
	require.NoError(t, err)
	require.Equal(t, rrdfile.CFSeasonal, r1.CF)
}

func TestCreateInvalidBoundsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.rrd")

	_, err := Create(path, Options{
		Step:  300,
		Start: 1700000000,
		Specs: []string{
			"DS:a:GAUGE:600:10:5",
			"RRA:AVERAGE:0.5:1:100",
		},
	})
	require.ErrorIs(t, err, ErrInvalidBounds)
}
