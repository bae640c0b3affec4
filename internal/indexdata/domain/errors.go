package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrIndexNotFound 指数未注册
var ErrIndexNotFound = errors.New("index not found")

// ConflictError 不变量被破坏：重复开放区间、非法关闭等
// 事务必须整体回滚，不允许静默吞掉。
type ConflictError struct {
	IndexCode string
	Symbol    string
	Date      time.Time
	Reason    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("constituent conflict: index=%s symbol=%s date=%s: %s",
		e.IndexCode, e.Symbol, e.Date.Format(DateLayout), e.Reason)
}

// OutOfOrderSnapshotError 快照日期早于上次对账日期
type OutOfOrderSnapshotError struct {
	IndexCode        string
	SnapshotDate     time.Time
	LastSnapshotDate time.Time
}

func (e *OutOfOrderSnapshotError) Error() string {
	return fmt.Sprintf("out of order snapshot for index %s: snapshot date %s precedes last reconciled date %s",
		e.IndexCode, e.SnapshotDate.Format(DateLayout), e.LastSnapshotDate.Format(DateLayout))
}

// InvalidDateError 查询日期格式非法
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q, expected %s", e.Value, DateLayout)
}
