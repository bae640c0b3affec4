package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/indexdata/internal/indexdata/infrastructure/persistence/memory"
)

func newMarketDataService() *MarketDataService {
	return NewMarketDataService(memory.NewPriceBarRepository())
}

func TestSaveBarsAndQuery(t *testing.T) {
	svc := newMarketDataService()

	count, err := svc.SaveBars(context.Background(), "AAPL", []SavePriceBarCommand{
		{BarDate: "2020-01-02", Open: "296.24", High: "300.60", Low: "295.19", Close: "300.35", AdjClose: "298.83", Volume: "33870100"},
		{BarDate: "2020-01-03", Open: "297.15", High: "300.58", Low: "296.50", Close: "297.43", AdjClose: "295.92", Volume: "36580700"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	bars, err := svc.GetBars(context.Background(), "AAPL", "2020-01-01", "2020-01-31")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2020-01-02", bars[0].BarDate.Format(domain.DateLayout))
	assert.Equal(t, "300.35", bars[0].Close.String())

	latest, err := svc.GetLatestBar(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2020-01-03", latest.BarDate.Format(domain.DateLayout))
}

func TestSaveBarsUpsertSameDay(t *testing.T) {
	svc := newMarketDataService()

	_, err := svc.SaveBars(context.Background(), "MSFT", []SavePriceBarCommand{
		{BarDate: "2020-01-02", Close: "160.62"},
	})
	require.NoError(t, err)

	_, err = svc.SaveBars(context.Background(), "MSFT", []SavePriceBarCommand{
		{BarDate: "2020-01-02", Close: "161.00"},
	})
	require.NoError(t, err)

	bars, err := svc.GetBars(context.Background(), "MSFT", "2020-01-01", "2020-01-31")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "161", bars[0].Close.String())
}

func TestSaveBarsDefaultsMissingFieldsToClose(t *testing.T) {
	svc := newMarketDataService()

	_, err := svc.SaveBars(context.Background(), "IBM", []SavePriceBarCommand{
		{BarDate: "2020-01-02", Close: "135.42"},
	})
	require.NoError(t, err)

	latest, err := svc.GetLatestBar(context.Background(), "IBM")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "135.42", latest.Open.String())
	assert.Equal(t, "135.42", latest.High.String())
	assert.Equal(t, "135.42", latest.AdjClose.String())
	assert.Equal(t, "0", latest.Volume.String())
	assert.Equal(t, "manual", latest.DataSource)
}

func TestSaveBarsValidation(t *testing.T) {
	svc := newMarketDataService()

	_, err := svc.SaveBars(context.Background(), "", []SavePriceBarCommand{{BarDate: "2020-01-02", Close: "1"}})
	assert.Error(t, err)

	_, err = svc.SaveBars(context.Background(), "AAPL", []SavePriceBarCommand{{BarDate: "bad-date", Close: "1"}})
	var invalid *domain.InvalidDateError
	require.ErrorAs(t, err, &invalid)

	_, err = svc.SaveBars(context.Background(), "AAPL", []SavePriceBarCommand{{BarDate: "2020-01-02", Close: "not-a-number"}})
	assert.ErrorContains(t, err, "invalid close price")
}

func TestGetLatestBarEmpty(t *testing.T) {
	svc := newMarketDataService()

	latest, err := svc.GetLatestBar(context.Background(), "NONE")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
