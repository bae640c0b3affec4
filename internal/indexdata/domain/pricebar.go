package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceBar 成分股日行情
type PriceBar struct {
	gorm.Model
	Symbol     string          `gorm:"column:symbol;type:varchar(20);not null;uniqueIndex:uk_price_bar,priority:1" json:"symbol"`
	BarDate    time.Time       `gorm:"column:bar_date;type:date;not null;index;uniqueIndex:uk_price_bar,priority:2" json:"bar_date"`
	Open       decimal.Decimal `gorm:"column:open;type:decimal(20,8)" json:"open"`
	High       decimal.Decimal `gorm:"column:high;type:decimal(20,8)" json:"high"`
	Low        decimal.Decimal `gorm:"column:low;type:decimal(20,8)" json:"low"`
	Close      decimal.Decimal `gorm:"column:close;type:decimal(20,8);not null" json:"close"`
	AdjClose   decimal.Decimal `gorm:"column:adj_close;type:decimal(20,8)" json:"adj_close"`
	Volume     decimal.Decimal `gorm:"column:volume;type:decimal(28,8)" json:"volume"`
	DataSource string          `gorm:"column:data_source;type:varchar(50)" json:"data_source"`
}

func (PriceBar) TableName() string {
	return "price_bars"
}

// NewPriceBar 创建日行情记录
func NewPriceBar(symbol string, barDate time.Time, open, high, low, close, adjClose, volume decimal.Decimal, dataSource string) *PriceBar {
	return &PriceBar{
		Symbol:     symbol,
		BarDate:    TruncateDate(barDate),
		Open:       open,
		High:       high,
		Low:        low,
		Close:      close,
		AdjClose:   adjClose,
		Volume:     volume,
		DataSource: dataSource,
	}
}
