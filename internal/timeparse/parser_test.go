package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
}

func TestParseNow(t *testing.T) {
	now := fixedNow()

	got, err := Parse(now, "N")
	require.NoError(t, err)
	require.Equal(t, now, got)
}

func TestParseEpoch(t *testing.T) {
	got, err := Parse(fixedNow(), "1700000000")
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), got.Unix())
}

func TestParseSignedOffsetFromNow(t *testing.T) {
	now := fixedNow()

	got, err := Parse(now, "-300")
	require.NoError(t, err)
	require.Equal(t, now.Add(-300*time.Second), got)
}

func TestParseUnitOffset(t *testing.T) {
	now := fixedNow()

	got, err := Parse(now, "-5min")
	require.NoError(t, err)
	require.Equal(t, now.Add(-5*time.Minute), got)

	got, err = Parse(now, "+1d")
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, 1), got)
}

func TestParseStartEndReferences(t *testing.T) {
	now := fixedNow()
	start := now.AddDate(0, 0, -7)

	p := NewParser(now)
	p.Start = &start

	got, err := p.Parse("start+1d")
	require.NoError(t, err)
	require.Equal(t, start.AddDate(0, 0, 1), got)

	_, err = p.Parse("end")
	require.ErrorIs(t, err, ErrNoReference)
}

func TestParseYYYYMMDD(t *testing.T) {
	got, err := Parse(fixedNow(), "20200102")
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestParseHHMM(t *testing.T) {
	got, err := Parse(fixedNow(), "14:05")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 15, 14, 5, 0, 0, time.UTC), got)
}

func TestParseNamedKeywords(t *testing.T) {
	now := fixedNow()

	today, err := Parse(now, "today")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), today)

	noon, err := Parse(now, "noon")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC), noon)

	yesterday, err := Parse(now, "yesterday")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), yesterday)
}

func TestParseMonthName(t *testing.T) {
	got, err := Parse(fixedNow(), "January 2, 2020")
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestParseUnparsable(t *testing.T) {
	_, err := Parse(fixedNow(), "not a time")
	require.ErrorIs(t, err, ErrUnparsable)
}
