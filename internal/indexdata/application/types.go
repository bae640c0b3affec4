// 包 指数成分数据服务的应用层
package application

import (
	"time"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
)

// RegisterIndexCommand 注册或更新指数
type RegisterIndexCommand struct {
	IndexCode   string `json:"index_code" binding:"required"`
	IndexName   string `json:"index_name" binding:"required"`
	Description string `json:"description"`
	Country     string `json:"country"`
	AssetClass  string `json:"asset_class"`
	DataSource  string `json:"data_source"`
}

// ReconcileCommand 用一份成分快照对账指数
type ReconcileCommand struct {
	IndexCode    string                            `json:"index_code"`
	SnapshotDate string                            `json:"snapshot_date" binding:"required"`
	Symbols      []string                          `json:"symbols" binding:"required"`
	Metadata     map[string]domain.ConstituentMeta `json:"metadata"`
	DataSource   string                            `json:"data_source"`
	ExtractedAt  time.Time                         `json:"extracted_at"`
}

// ReconcileResult 对账结果摘要，供调用方记录
type ReconcileResult struct {
	RunID          string   `json:"run_id"`
	IndexCode      string   `json:"index_code"`
	SnapshotDate   string   `json:"snapshot_date"`
	AddedCount     int      `json:"added_count"`
	RemovedCount   int      `json:"removed_count"`
	UnchangedCount int      `json:"unchanged_count"`
	AddedSymbols   []string `json:"added_symbols"`
	RemovedSymbols []string `json:"removed_symbols"`
}

// MembershipDelta 两个时点之间的成分净变化
type MembershipDelta struct {
	IndexCode string   `json:"index_code"`
	FromDate  string   `json:"from_date"`
	ToDate    string   `json:"to_date"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
}

// SavePriceBarCommand 写入一根日行情
type SavePriceBarCommand struct {
	BarDate  string `json:"bar_date" binding:"required"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close" binding:"required"`
	AdjClose string `json:"adj_close"`
	Volume   string `json:"volume"`
	Source   string `json:"source"`
}
