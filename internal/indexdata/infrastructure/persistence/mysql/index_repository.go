// 包 mysql 提供指数成分仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type indexRepository struct {
	db *gorm.DB
}

// NewIndexRepository 创建指数成分仓储实例
func NewIndexRepository(db *gorm.DB) domain.IndexRepository {
	return &indexRepository{db: db}
}

func (r *indexRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db
}

func (r *indexRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

// --- Index ---

func (r *indexRepository) SaveIndex(ctx context.Context, index *domain.MarketIndex) error {
	db := r.getDB(ctx).WithContext(ctx)
	if index.ID == 0 {
		return db.Create(index).Error
	}
	return db.Save(index).Error
}

func (r *indexRepository) GetIndexByCode(ctx context.Context, code string) (*domain.MarketIndex, error) {
	var index domain.MarketIndex
	err := r.getDB(ctx).WithContext(ctx).Where("index_code = ?", code).First(&index).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &index, nil
}

// LockIndexByCode 事务内 SELECT ... FOR UPDATE，串行化同一指数的对账
func (r *indexRepository) LockIndexByCode(ctx context.Context, code string) (*domain.MarketIndex, error) {
	var index domain.MarketIndex
	err := r.getDB(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("index_code = ?", code).
		First(&index).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &index, nil
}

func (r *indexRepository) ListIndices(ctx context.Context) ([]*domain.MarketIndex, error) {
	var indices []*domain.MarketIndex
	err := r.getDB(ctx).WithContext(ctx).Order("index_code").Find(&indices).Error
	return indices, err
}

// --- Constituent intervals ---

func (r *indexRepository) GetOpenConstituent(ctx context.Context, indexID uint, symbol string) (*domain.Constituent, error) {
	var c domain.Constituent
	err := r.getDB(ctx).WithContext(ctx).
		Where("index_id = ? AND symbol = ? AND end_date IS NULL", indexID, symbol).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *indexRepository) GetActiveSet(ctx context.Context, indexID uint) ([]*domain.Constituent, error) {
	var constituents []*domain.Constituent
	err := r.getDB(ctx).WithContext(ctx).
		Where("index_id = ? AND end_date IS NULL", indexID).
		Order("symbol").
		Find(&constituents).Error
	return constituents, err
}

func (r *indexRepository) GetConstituentsAsOf(ctx context.Context, indexID uint, date time.Time) ([]*domain.Constituent, error) {
	var constituents []*domain.Constituent
	err := r.getDB(ctx).WithContext(ctx).
		Where("index_id = ? AND effective_date <= ? AND (end_date IS NULL OR end_date > ?)", indexID, date, date).
		Order("symbol").
		Find(&constituents).Error
	return constituents, err
}

func (r *indexRepository) ListConstituentHistory(ctx context.Context, indexID uint, symbol string) ([]*domain.Constituent, error) {
	var constituents []*domain.Constituent
	err := r.getDB(ctx).WithContext(ctx).
		Where("index_id = ? AND symbol = ?", indexID, symbol).
		Order("effective_date").
		Find(&constituents).Error
	return constituents, err
}

// OpenConstituent 开启新区间；同对已有开放区间时返回冲突
func (r *indexRepository) OpenConstituent(ctx context.Context, c *domain.Constituent) error {
	db := r.getDB(ctx).WithContext(ctx)

	var count int64
	if err := db.Model(&domain.Constituent{}).
		Where("index_id = ? AND symbol = ? AND end_date IS NULL", c.IndexID, c.Symbol).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &domain.ConflictError{
			IndexCode: r.indexCode(ctx, c.IndexID),
			Symbol:    c.Symbol,
			Date:      c.EffectiveDate,
			Reason:    "open interval already exists",
		}
	}

	err := db.Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &domain.ConflictError{
			IndexCode: r.indexCode(ctx, c.IndexID),
			Symbol:    c.Symbol,
			Date:      c.EffectiveDate,
			Reason:    "interval with same effective date already exists",
		}
	}
	return err
}

// CloseConstituent 持久化已在领域层关闭的区间；受影响行数为零说明被并发关闭
func (r *indexRepository) CloseConstituent(ctx context.Context, c *domain.Constituent) error {
	if c.EndDate == nil {
		return &domain.ConflictError{
			IndexCode: r.indexCode(ctx, c.IndexID),
			Symbol:    c.Symbol,
			Reason:    "constituent has no end date set",
		}
	}
	result := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Constituent{}).
		Where("id = ? AND end_date IS NULL", c.ID).
		Update("end_date", *c.EndDate)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &domain.ConflictError{
			IndexCode: r.indexCode(ctx, c.IndexID),
			Symbol:    c.Symbol,
			Date:      *c.EndDate,
			Reason:    "interval already closed",
		}
	}
	return nil
}

// --- Change log ---

func (r *indexRepository) AppendChange(ctx context.Context, change *domain.ConstituentChange) error {
	err := r.getDB(ctx).WithContext(ctx).Create(change).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &domain.ConflictError{
			IndexCode: r.indexCode(ctx, change.IndexID),
			Symbol:    change.Symbol,
			Date:      change.EventDate,
			Reason:    "duplicate change event",
		}
	}
	return err
}

func (r *indexRepository) ListChanges(ctx context.Context, indexID uint, start, end time.Time) ([]*domain.ConstituentChange, error) {
	var changes []*domain.ConstituentChange
	err := r.getDB(ctx).WithContext(ctx).
		Where("index_id = ? AND event_date >= ? AND event_date <= ?", indexID, start, end).
		Order("event_date, symbol").
		Find(&changes).Error
	return changes, err
}

func (r *indexRepository) indexCode(ctx context.Context, indexID uint) string {
	var index domain.MarketIndex
	if err := r.getDB(ctx).WithContext(ctx).Select("index_code").Where("id = ?", indexID).First(&index).Error; err != nil {
		return ""
	}
	return index.IndexCode
}
