package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
)

// PriceBarRepository 内存版行情仓储
type PriceBarRepository struct {
	mu   sync.RWMutex
	bars map[string]map[time.Time]domain.PriceBar
}

// NewPriceBarRepository 创建内存行情仓储
func NewPriceBarRepository() *PriceBarRepository {
	return &PriceBarRepository{bars: make(map[string]map[time.Time]domain.PriceBar)}
}

func (r *PriceBarRepository) SaveBars(ctx context.Context, bars []*domain.PriceBar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bar := range bars {
		bySymbol, ok := r.bars[bar.Symbol]
		if !ok {
			bySymbol = make(map[time.Time]domain.PriceBar)
			r.bars[bar.Symbol] = bySymbol
		}
		bySymbol[bar.BarDate] = *bar
	}
	return nil
}

func (r *PriceBarRepository) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bars []*domain.PriceBar
	for _, v := range r.bars[symbol] {
		if v.BarDate.Before(start) || v.BarDate.After(end) {
			continue
		}
		bar := v
		bars = append(bars, &bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].BarDate.Before(bars[j].BarDate) })
	return bars, nil
}

func (r *PriceBarRepository) GetLatestBar(ctx context.Context, symbol string) (*domain.PriceBar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.PriceBar
	for _, v := range r.bars[symbol] {
		if latest == nil || v.BarDate.After(latest.BarDate) {
			bar := v
			latest = &bar
		}
	}
	return latest, nil
}
