package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotValidatesSymbols(t *testing.T) {
	_, err := NewSnapshot(date("2020-01-01"), []string{"AAPL", "AAPL"}, nil, time.Now(), "wikipedia")
	assert.ErrorContains(t, err, "duplicate symbol")

	_, err = NewSnapshot(date("2020-01-01"), []string{"AAPL", ""}, nil, time.Now(), "wikipedia")
	assert.ErrorContains(t, err, "empty symbol")
}

func TestNewSnapshotDefaults(t *testing.T) {
	s, err := NewSnapshot(time.Date(2020, 1, 1, 15, 4, 5, 0, time.UTC), []string{"AAPL"}, nil, time.Time{}, "")
	require.NoError(t, err)
	assert.Equal(t, date("2020-01-01"), s.Date)
	assert.Equal(t, "manual", s.DataSource)
	assert.False(t, s.ExtractedAt.IsZero())
	assert.Equal(t, ConstituentMeta{}, s.MetaFor("AAPL"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("06/01/2020")
	var invalid *InvalidDateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "06/01/2020", invalid.Value)
}

func TestEnsureReconcilable(t *testing.T) {
	index := NewMarketIndex("SP500", "S&P 500", "", "US", "wikipedia", "")
	require.NoError(t, index.EnsureReconcilable(date("2020-01-01")))

	index.MarkReconciled(date("2020-06-01"), time.Now())
	require.NoError(t, index.EnsureReconcilable(date("2020-06-01")))
	require.NoError(t, index.EnsureReconcilable(date("2020-07-01")))

	err := index.EnsureReconcilable(date("2020-05-01"))
	var stale *OutOfOrderSnapshotError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "SP500", stale.IndexCode)
	assert.Equal(t, date("2020-05-01"), stale.SnapshotDate)
	assert.Equal(t, date("2020-06-01"), stale.LastSnapshotDate)
}
