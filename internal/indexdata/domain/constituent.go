package domain

import (
	"time"

	"gorm.io/gorm"
)

// Constituent 成分股有效期区间（缓变维度）
// EndDate 为空表示当前仍在指数内；同一 (index_id, symbol) 最多一条开放区间。
// 区间一旦关闭不再修改，纠错通过关闭加重开完成。
type Constituent struct {
	gorm.Model
	IndexID          uint       `gorm:"column:index_id;not null;index;uniqueIndex:uk_constituent_interval,priority:1" json:"index_id"`
	Symbol           string     `gorm:"column:symbol;type:varchar(20);not null;index;uniqueIndex:uk_constituent_interval,priority:2" json:"symbol"`
	EffectiveDate    time.Time  `gorm:"column:effective_date;type:date;not null;uniqueIndex:uk_constituent_interval,priority:3" json:"effective_date"`
	EndDate          *time.Time `gorm:"column:end_date;type:date;index" json:"end_date"`
	CompanyName      string     `gorm:"column:company_name;type:varchar(100)" json:"company_name"`
	Sector           string     `gorm:"column:sector;type:varchar(50)" json:"sector"`
	SubIndustry      string     `gorm:"column:sub_industry;type:varchar(100)" json:"sub_industry"`
	DateAddedToIndex *time.Time `gorm:"column:date_added_to_index;type:date" json:"date_added_to_index"`
	ExtractedAt      time.Time  `gorm:"column:extracted_at;not null" json:"extracted_at"`
	DataSource       string     `gorm:"column:data_source;type:varchar(50);not null" json:"data_source"`
}

func (Constituent) TableName() string {
	return "index_constituents"
}

// ConstituentMeta 快照携带的描述性元数据，只做记录不参与身份判断
type ConstituentMeta struct {
	CompanyName      string     `json:"company_name"`
	Sector           string     `json:"sector"`
	SubIndustry      string     `json:"sub_industry"`
	DateAddedToIndex *time.Time `json:"date_added_to_index"`
}

// NewConstituent 按快照日期开启一条新区间
func NewConstituent(indexID uint, symbol string, effectiveDate time.Time, meta ConstituentMeta, extractedAt time.Time, dataSource string) *Constituent {
	return &Constituent{
		IndexID:          indexID,
		Symbol:           symbol,
		EffectiveDate:    effectiveDate,
		CompanyName:      meta.CompanyName,
		Sector:           meta.Sector,
		SubIndustry:      meta.SubIndustry,
		DateAddedToIndex: meta.DateAddedToIndex,
		ExtractedAt:      extractedAt,
		DataSource:       dataSource,
	}
}

// IsOpen 区间是否仍然开放
func (c *Constituent) IsOpen() bool {
	return c.EndDate == nil
}

// Close 关闭区间；已关闭或结束日期不晚于生效日期时返回冲突
func (c *Constituent) Close(indexCode string, endDate time.Time) error {
	if c.EndDate != nil {
		return &ConflictError{
			IndexCode: indexCode,
			Symbol:    c.Symbol,
			Date:      endDate,
			Reason:    "interval already closed",
		}
	}
	if !endDate.After(c.EffectiveDate) {
		return &ConflictError{
			IndexCode: indexCode,
			Symbol:    c.Symbol,
			Date:      endDate,
			Reason:    "end date must be after effective date",
		}
	}
	d := endDate
	c.EndDate = &d
	return nil
}

// ActiveOn 给定日期是否处于区间内（生效日闭、结束日开）
func (c *Constituent) ActiveOn(date time.Time) bool {
	if date.Before(c.EffectiveDate) {
		return false
	}
	return c.EndDate == nil || c.EndDate.After(date)
}

// Overlaps 两条区间是否共享任一日期
func (c *Constituent) Overlaps(other *Constituent) bool {
	if c.EndDate != nil && !c.EndDate.After(other.EffectiveDate) {
		return false
	}
	if other.EndDate != nil && !other.EndDate.After(c.EffectiveDate) {
		return false
	}
	return true
}
