package domain

import (
	"time"

	"gorm.io/gorm"
)

// ChangeType 成分变更类型
type ChangeType string

const (
	ChangeAdded   ChangeType = "ADDED"
	ChangeRemoved ChangeType = "REMOVED"
)

// ConstituentChange 成分变更流水，只追加不修改
// 唯一索引拒绝同一 (指数, 代码, 日期, 类型) 的重复事件。
type ConstituentChange struct {
	gorm.Model
	IndexID    uint       `gorm:"column:index_id;not null;index;uniqueIndex:uk_constituent_change,priority:1" json:"index_id"`
	Symbol     string     `gorm:"column:symbol;type:varchar(20);not null;uniqueIndex:uk_constituent_change,priority:2" json:"symbol"`
	EventDate  time.Time  `gorm:"column:event_date;type:date;not null;index;uniqueIndex:uk_constituent_change,priority:3" json:"event_date"`
	ChangeType ChangeType `gorm:"column:change_type;type:varchar(10);not null;uniqueIndex:uk_constituent_change,priority:4" json:"change_type"`
}

func (ConstituentChange) TableName() string {
	return "constituent_changes"
}

// 事件主题常量
const (
	ConstituentAddedEventType   = "indexdata.constituent.added"
	ConstituentRemovedEventType = "indexdata.constituent.removed"
	IndexReconciledEventType    = "indexdata.index.reconciled"
)

// ConstituentAddedEvent 成分加入事件
type ConstituentAddedEvent struct {
	IndexCode     string    `json:"index_code"`
	Symbol        string    `json:"symbol"`
	EffectiveDate string    `json:"effective_date"`
	CompanyName   string    `json:"company_name"`
	Sector        string    `json:"sector"`
	OccurredOn    time.Time `json:"occurred_on"`
}

// ConstituentRemovedEvent 成分移出事件
type ConstituentRemovedEvent struct {
	IndexCode  string    `json:"index_code"`
	Symbol     string    `json:"symbol"`
	EndDate    string    `json:"end_date"`
	OccurredOn time.Time `json:"occurred_on"`
}

// IndexReconciledEvent 指数对账完成事件
type IndexReconciledEvent struct {
	IndexCode      string    `json:"index_code"`
	SnapshotDate   string    `json:"snapshot_date"`
	AddedCount     int       `json:"added_count"`
	RemovedCount   int       `json:"removed_count"`
	UnchangedCount int       `json:"unchanged_count"`
	OccurredOn     time.Time `json:"occurred_on"`
}
