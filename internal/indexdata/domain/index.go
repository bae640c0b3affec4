// 包 指数成分数据服务的领域模型
package domain

import (
	"time"

	"gorm.io/gorm"
)

// MarketIndex 指数实体
// LastSnapshotDate 记录最近一次对账的快照日期，用于拒绝乱序快照。
type MarketIndex struct {
	gorm.Model
	IndexCode        string     `gorm:"column:index_code;type:varchar(32);uniqueIndex;not null" json:"index_code"`
	IndexName        string     `gorm:"column:index_name;type:varchar(100);not null" json:"index_name"`
	Description      string     `gorm:"column:description;type:varchar(255)" json:"description"`
	Country          string     `gorm:"column:country;type:varchar(50)" json:"country"`
	AssetClass       string     `gorm:"column:asset_class;type:varchar(20);default:'equity'" json:"asset_class"`
	DataSource       string     `gorm:"column:data_source;type:varchar(50)" json:"data_source"`
	LastSnapshotDate *time.Time `gorm:"column:last_snapshot_date;type:date" json:"last_snapshot_date"`
	LastReconciledAt *time.Time `gorm:"column:last_reconciled_at" json:"last_reconciled_at"`
}

func (MarketIndex) TableName() string {
	return "indices"
}

// NewMarketIndex 创建指数实体
func NewMarketIndex(code, name, description, country, dataSource, assetClass string) *MarketIndex {
	if assetClass == "" {
		assetClass = "equity"
	}
	return &MarketIndex{
		IndexCode:   code,
		IndexName:   name,
		Description: description,
		Country:     country,
		AssetClass:  assetClass,
		DataSource:  dataSource,
	}
}

// EnsureReconcilable 校验快照日期相对上次对账单调不减
func (i *MarketIndex) EnsureReconcilable(snapshotDate time.Time) error {
	if i.LastSnapshotDate != nil && snapshotDate.Before(*i.LastSnapshotDate) {
		return &OutOfOrderSnapshotError{
			IndexCode:        i.IndexCode,
			SnapshotDate:     snapshotDate,
			LastSnapshotDate: *i.LastSnapshotDate,
		}
	}
	return nil
}

// MarkReconciled 推进对账水位，空快照差异时也要调用
func (i *MarketIndex) MarkReconciled(snapshotDate time.Time, at time.Time) {
	d := snapshotDate
	i.LastSnapshotDate = &d
	i.LastReconciledAt = &at
}
