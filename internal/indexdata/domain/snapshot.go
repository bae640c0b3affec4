package domain

import (
	"fmt"
	"time"
)

// Snapshot 某一日观察到的指数完整成分名单
// 引擎不关心名单如何获得，只要求代码去重且快照日期为日历日期。
type Snapshot struct {
	Date        time.Time
	Symbols     []string
	Metadata    map[string]ConstituentMeta
	ExtractedAt time.Time
	DataSource  string
}

// NewSnapshot 构造快照并校验成分代码唯一非空
func NewSnapshot(date time.Time, symbols []string, metadata map[string]ConstituentMeta, extractedAt time.Time, dataSource string) (*Snapshot, error) {
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if s == "" {
			return nil, fmt.Errorf("snapshot contains empty symbol")
		}
		if _, ok := seen[s]; ok {
			return nil, fmt.Errorf("snapshot contains duplicate symbol %s", s)
		}
		seen[s] = struct{}{}
	}
	if extractedAt.IsZero() {
		extractedAt = time.Now()
	}
	if dataSource == "" {
		dataSource = "manual"
	}
	return &Snapshot{
		Date:        TruncateDate(date),
		Symbols:     symbols,
		Metadata:    metadata,
		ExtractedAt: extractedAt,
		DataSource:  dataSource,
	}, nil
}

// SymbolSet 成分代码集合视图
func (s *Snapshot) SymbolSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Symbols))
	for _, sym := range s.Symbols {
		set[sym] = struct{}{}
	}
	return set
}

// MetaFor 取某只代码的元数据，缺省返回零值
func (s *Snapshot) MetaFor(symbol string) ConstituentMeta {
	if s.Metadata == nil {
		return ConstituentMeta{}
	}
	return s.Metadata[symbol]
}
