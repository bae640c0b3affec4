package domain

import (
	"context"
	"time"
)

// IndexRepository 指数成分统一仓储接口（写模型）
// 对账运行期间的全部写入必须发生在同一个 WithTx 事务内。
type IndexRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Index
	SaveIndex(ctx context.Context, index *MarketIndex) error
	GetIndexByCode(ctx context.Context, code string) (*MarketIndex, error)
	// LockIndexByCode 在事务内对指数行加写锁，实现单写者对账
	LockIndexByCode(ctx context.Context, code string) (*MarketIndex, error)
	ListIndices(ctx context.Context) ([]*MarketIndex, error)

	// Constituent intervals
	GetOpenConstituent(ctx context.Context, indexID uint, symbol string) (*Constituent, error)
	GetActiveSet(ctx context.Context, indexID uint) ([]*Constituent, error)
	GetConstituentsAsOf(ctx context.Context, indexID uint, date time.Time) ([]*Constituent, error)
	ListConstituentHistory(ctx context.Context, indexID uint, symbol string) ([]*Constituent, error)
	OpenConstituent(ctx context.Context, c *Constituent) error
	CloseConstituent(ctx context.Context, c *Constituent) error

	// Change log
	AppendChange(ctx context.Context, change *ConstituentChange) error
	ListChanges(ctx context.Context, indexID uint, start, end time.Time) ([]*ConstituentChange, error)
}

// ConstituentReadRepository 当前成分读模型缓存
type ConstituentReadRepository interface {
	SaveActiveSet(ctx context.Context, indexCode string, constituents []*Constituent) error
	GetActiveSet(ctx context.Context, indexCode string) ([]*Constituent, error)
	Invalidate(ctx context.Context, indexCode string) error
}

// PriceBarRepository 行情仓储接口
type PriceBarRepository interface {
	SaveBars(ctx context.Context, bars []*PriceBar) error
	GetBars(ctx context.Context, symbol string, start, end time.Time) ([]*PriceBar, error)
	GetLatestBar(ctx context.Context, symbol string) (*PriceBar, error)
}
