package rrdfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGeometryLayoutOrder(t *testing.T) {
	g, err := NewGeometry(Version3, 2, 3, []uint64{10, 20, 30})
	require.NoError(t, err)

	require.Equal(t, int64(0), g.StaticHeaderOffset)
	require.Equal(t, int64(StaticHeaderSize), g.DSDefOffset)
	require.Equal(t, g.DSDefOffset+2*DSDefSize, g.RRADefOffset)
	require.Equal(t, g.RRADefOffset+3*RRADefSize, g.LiveHeadOffset)
	require.Equal(t, g.LiveHeadOffset+int64(LiveHeadSize), g.PDPPrepOffset)
	require.Equal(t, g.PDPPrepOffset+2*PDPPrepSize, g.CDPPrepOffset)
	require.Equal(t, g.CDPPrepOffset+int64(3*2)*CDPPrepSize, g.RRAPtrOffset)
	require.Equal(t, g.RRAPtrOffset+3*RRAPtrSize, g.ValueAreaOffset)

	wantTotal := g.ValueAreaOffset
	for i, rc := range []uint64{10, 20, 30} {
		wantTotal += int64(rc) * 2 * 8
		require.Equal(t, int64(rc)*2*8, g.RRAValueSize[i])
	}

	require.Equal(t, wantTotal, g.TotalSize)
}

func TestNewGeometryRejectsInvalidInput(t *testing.T) {
	_, err := NewGeometry(Version3, 0, 1, []uint64{1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewGeometry(Version3, 1, 0, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewGeometry(Version3, 1, 2, []uint64{1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewGeometry(Version3, 1, 1, []uint64{0})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGeometryCDPIndexRowMajor(t *testing.T) {
	g, err := NewGeometry(Version3, 2, 3, []uint64{1, 1, 1})
	require.NoError(t, err)

	require.Equal(t, 0, g.CDPIndex(0, 0))
	require.Equal(t, 1, g.CDPIndex(0, 1))
	require.Equal(t, 2, g.CDPIndex(1, 0))
	require.Equal(t, 5, g.CDPIndex(2, 1))
}

func TestGeometryRowOffset(t *testing.T) {
	g, err := NewGeometry(Version3, 2, 1, []uint64{4})
	require.NoError(t, err)

	row0 := g.RowOffset(0, 0)
	row1 := g.RowOffset(0, 1)

	require.Equal(t, g.RRAValueOffset[0], row0)
	require.Equal(t, row0+2*8, row1)
}
