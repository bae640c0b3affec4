package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type priceBarRepository struct {
	db *gorm.DB
}

// NewPriceBarRepository 创建行情仓储实例
func NewPriceBarRepository(db *gorm.DB) domain.PriceBarRepository {
	return &priceBarRepository{db: db}
}

// SaveBars 批量落库，(symbol, bar_date) 冲突时覆盖旧值
func (r *priceBarRepository) SaveBars(ctx context.Context, bars []*domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "bar_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "adj_close", "volume", "data_source", "updated_at"}),
		}).
		Create(bars).Error
}

func (r *priceBarRepository) GetBars(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	var bars []*domain.PriceBar
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND bar_date >= ? AND bar_date <= ?", symbol, start, end).
		Order("bar_date").
		Find(&bars).Error
	return bars, err
}

func (r *priceBarRepository) GetLatestBar(ctx context.Context, symbol string) (*domain.PriceBar, error) {
	var bar domain.PriceBar
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("bar_date DESC").
		First(&bar).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bar, nil
}
