package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
)

func TestMembersAsOfBoundaries(t *testing.T) {
	svc, query, _ := newTestService(t)

	reconcile(t, svc, "2020-01-01", "A", "B")
	reconcile(t, svc, "2020-06-01", "A")

	// 生效日当天计入，结束日当天不计入
	assert.Equal(t, []string{"A", "B"}, memberSymbols(t, query, "2020-01-01"))
	assert.Equal(t, []string{"A"}, memberSymbols(t, query, "2020-06-01"))
	assert.Empty(t, memberSymbols(t, query, "2019-12-31"))
}

func TestMembersAsOfInvalidDate(t *testing.T) {
	_, query, _ := newTestService(t)

	_, err := query.MembersAsOf(context.Background(), "IDX", "not-a-date")
	var invalid *domain.InvalidDateError
	require.ErrorAs(t, err, &invalid)
}

func TestMembersUnknownIndexReturnsEmpty(t *testing.T) {
	_, query, _ := newTestService(t)

	members, err := query.MembersAsOf(context.Background(), "NOPE", "2020-01-01")
	require.NoError(t, err)
	assert.Empty(t, members)

	members, err = query.CurrentMembers(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestIsMember(t *testing.T) {
	svc, query, _ := newTestService(t)

	reconcile(t, svc, "2020-01-01", "A", "B")
	reconcile(t, svc, "2020-06-01", "A")

	ok, err := query.IsMember(context.Background(), "IDX", "B", "2020-03-01")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = query.IsMember(context.Background(), "IDX", "B", "2020-06-01")
	require.NoError(t, err)
	assert.False(t, ok)

	// 缺省日期取今天，已关闭区间不再命中
	ok, err = query.IsMember(context.Background(), "IDX", "B", "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = query.IsMember(context.Background(), "IDX", "A", "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChangesInRangeOrdering(t *testing.T) {
	svc, query, _ := newTestService(t)

	reconcile(t, svc, "2020-01-01", "B", "A")
	reconcile(t, svc, "2020-06-01", "A", "C")

	changes, err := query.ChangesInRange(context.Background(), "IDX", "2020-01-01", "2020-12-31")
	require.NoError(t, err)
	require.Len(t, changes, 4)

	// 先按事件日期再按代码排序
	assert.Equal(t, "A", changes[0].Symbol)
	assert.Equal(t, "B", changes[1].Symbol)
	assert.Equal(t, "2020-06-01", changes[2].EventDate.Format(domain.DateLayout))
	assert.Equal(t, "B", changes[2].Symbol)
	assert.Equal(t, domain.ChangeRemoved, changes[2].ChangeType)
	assert.Equal(t, "C", changes[3].Symbol)
	assert.Equal(t, domain.ChangeAdded, changes[3].ChangeType)
}

func TestChangesInRangeFiltersByDate(t *testing.T) {
	svc, query, _ := newTestService(t)

	reconcile(t, svc, "2020-01-01", "A")
	reconcile(t, svc, "2020-06-01", "B")

	changes, err := query.ChangesInRange(context.Background(), "IDX", "2020-02-01", "2020-12-31")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	for _, change := range changes {
		assert.Equal(t, "2020-06-01", change.EventDate.Format(domain.DateLayout))
	}
}

func TestDeltaMatchesChangeStream(t *testing.T) {
	svc, query, _ := newTestService(t)

	reconcile(t, svc, "2020-01-01", "A", "B", "C")
	reconcile(t, svc, "2020-06-01", "A", "C", "D")
	reconcile(t, svc, "2021-01-01", "A", "B", "C", "D")

	delta, err := query.Delta(context.Background(), "IDX", "2020-03-01", "2020-07-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, delta.Added)
	assert.Equal(t, []string{"B"}, delta.Removed)

	// 跨过移出又加回的整个窗口，净差为只增不减
	delta, err = query.Delta(context.Background(), "IDX", "2020-03-01", "2021-02-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, delta.Added)
	assert.Empty(t, delta.Removed)
}

func TestConstituentHistoryOrdering(t *testing.T) {
	svc, query, _ := newTestService(t)

	reconcile(t, svc, "2020-01-01", "A", "B")
	reconcile(t, svc, "2020-06-01", "A")
	reconcile(t, svc, "2021-01-01", "A", "B")

	history, err := query.ConstituentHistory(context.Background(), "IDX", "B")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].EffectiveDate.Before(history[1].EffectiveDate))

	history, err = query.ConstituentHistory(context.Background(), "IDX", "ZZZ")
	require.NoError(t, err)
	assert.Empty(t, history)
}
