package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
)

// MarketDataService 成分股行情存取
// 行情抓取与质量校验在服务边界之外完成，这里只负责落库与区间查询。
type MarketDataService struct {
	bars domain.PriceBarRepository
}

// NewMarketDataService 创建行情服务
func NewMarketDataService(bars domain.PriceBarRepository) *MarketDataService {
	return &MarketDataService{bars: bars}
}

// SaveBars 批量写入日行情，同日重复写入按覆盖处理
func (s *MarketDataService) SaveBars(ctx context.Context, symbol string, cmds []SavePriceBarCommand) (int, error) {
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	bars := make([]*domain.PriceBar, 0, len(cmds))
	for _, cmd := range cmds {
		barDate, err := domain.ParseDate(cmd.BarDate)
		if err != nil {
			return 0, err
		}
		closePrice, err := decimal.NewFromString(cmd.Close)
		if err != nil {
			return 0, fmt.Errorf("invalid close price for %s on %s: %w", symbol, cmd.BarDate, err)
		}
		open := parseDecimalOr(cmd.Open, closePrice)
		high := parseDecimalOr(cmd.High, closePrice)
		low := parseDecimalOr(cmd.Low, closePrice)
		adjClose := parseDecimalOr(cmd.AdjClose, closePrice)
		volume := parseDecimalOr(cmd.Volume, decimal.Zero)

		source := cmd.Source
		if source == "" {
			source = "manual"
		}
		bars = append(bars, domain.NewPriceBar(symbol, barDate, open, high, low, closePrice, adjClose, volume, source))
	}
	if err := s.bars.SaveBars(ctx, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}

// GetBars 按日期区间查询行情，升序返回
func (s *MarketDataService) GetBars(ctx context.Context, symbol, start, end string) ([]*domain.PriceBar, error) {
	startDate, err := domain.ParseDate(start)
	if err != nil {
		return nil, err
	}
	endDate, err := domain.ParseDate(end)
	if err != nil {
		return nil, err
	}
	return s.bars.GetBars(ctx, symbol, startDate, endDate)
}

// GetLatestBar 最近一根行情，无数据时返回 nil
func (s *MarketDataService) GetLatestBar(ctx context.Context, symbol string) (*domain.PriceBar, error) {
	return s.bars.GetLatestBar(ctx, symbol)
}

func parseDecimalOr(value string, fallback decimal.Decimal) decimal.Decimal {
	if value == "" {
		return fallback
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}
	return d
}
