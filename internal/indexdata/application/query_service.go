package application

import (
	"context"
	"sort"
	"time"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/pkg/logging"
)

// IndexQueryService 指数成分查询服务
// 读路径不持锁，依赖存储的事务快照，不会观察到半个对账结果。
type IndexQueryService struct {
	repo     domain.IndexRepository
	readRepo domain.ConstituentReadRepository
}

// NewIndexQueryService 创建查询服务；readRepo 可为 nil，此时只走主存储
func NewIndexQueryService(repo domain.IndexRepository, readRepo domain.ConstituentReadRepository) *IndexQueryService {
	return &IndexQueryService{repo: repo, readRepo: readRepo}
}

// GetIndex 按代码取指数
func (s *IndexQueryService) GetIndex(ctx context.Context, indexCode string) (*domain.MarketIndex, error) {
	return s.repo.GetIndexByCode(ctx, indexCode)
}

// ListIndices 列出全部已注册指数
func (s *IndexQueryService) ListIndices(ctx context.Context) ([]*domain.MarketIndex, error) {
	return s.repo.ListIndices(ctx)
}

// CurrentMembers 当前成分，优先读缓存
func (s *IndexQueryService) CurrentMembers(ctx context.Context, indexCode string) ([]*domain.Constituent, error) {
	if s.readRepo != nil {
		cached, err := s.readRepo.GetActiveSet(ctx, indexCode)
		if err != nil {
			logging.Warn(ctx, "active set cache read failed", "index_code", indexCode, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	index, err := s.repo.GetIndexByCode(ctx, indexCode)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return []*domain.Constituent{}, nil
	}
	constituents, err := s.repo.GetActiveSet(ctx, index.ID)
	if err != nil {
		return nil, err
	}
	sortConstituents(constituents)
	return constituents, nil
}

// MembersAsOf 任意历史日期的成分；指数无数据时返回空集而非错误
func (s *IndexQueryService) MembersAsOf(ctx context.Context, indexCode, date string) ([]*domain.Constituent, error) {
	asOf, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	index, err := s.repo.GetIndexByCode(ctx, indexCode)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return []*domain.Constituent{}, nil
	}
	constituents, err := s.repo.GetConstituentsAsOf(ctx, index.ID, asOf)
	if err != nil {
		return nil, err
	}
	sortConstituents(constituents)
	return constituents, nil
}

// IsMember 某代码在给定日期（缺省今天）是否属于指数
func (s *IndexQueryService) IsMember(ctx context.Context, indexCode, symbol, date string) (bool, error) {
	if date == "" {
		date = domain.TruncateDate(time.Now()).Format(domain.DateLayout)
	}
	members, err := s.MembersAsOf(ctx, indexCode, date)
	if err != nil {
		return false, err
	}
	for _, c := range members {
		if c.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

// ConstituentHistory 单只代码在指数内的全部区间
func (s *IndexQueryService) ConstituentHistory(ctx context.Context, indexCode, symbol string) ([]*domain.Constituent, error) {
	index, err := s.repo.GetIndexByCode(ctx, indexCode)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return []*domain.Constituent{}, nil
	}
	return s.repo.ListConstituentHistory(ctx, index.ID, symbol)
}

// ChangesInRange 日期区间内的变更流水，按事件日期、代码升序
func (s *IndexQueryService) ChangesInRange(ctx context.Context, indexCode, start, end string) ([]*domain.ConstituentChange, error) {
	startDate, err := domain.ParseDate(start)
	if err != nil {
		return nil, err
	}
	endDate, err := domain.ParseDate(end)
	if err != nil {
		return nil, err
	}
	index, err := s.repo.GetIndexByCode(ctx, indexCode)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return []*domain.ConstituentChange{}, nil
	}
	changes, err := s.repo.ListChanges(ctx, index.ID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(changes, func(i, j int) bool {
		if !changes[i].EventDate.Equal(changes[j].EventDate) {
			return changes[i].EventDate.Before(changes[j].EventDate)
		}
		return changes[i].Symbol < changes[j].Symbol
	})
	return changes, nil
}

// Delta 两个时点的成分净差，只依赖时点查询，可用于校验变更流水
func (s *IndexQueryService) Delta(ctx context.Context, indexCode, from, to string) (*MembershipDelta, error) {
	fromMembers, err := s.MembersAsOf(ctx, indexCode, from)
	if err != nil {
		return nil, err
	}
	toMembers, err := s.MembersAsOf(ctx, indexCode, to)
	if err != nil {
		return nil, err
	}

	fromSet := make(map[string]struct{}, len(fromMembers))
	for _, c := range fromMembers {
		fromSet[c.Symbol] = struct{}{}
	}
	toSet := make(map[string]struct{}, len(toMembers))
	for _, c := range toMembers {
		toSet[c.Symbol] = struct{}{}
	}

	added := []string{}
	for symbol := range toSet {
		if _, ok := fromSet[symbol]; !ok {
			added = append(added, symbol)
		}
	}
	removed := []string{}
	for symbol := range fromSet {
		if _, ok := toSet[symbol]; !ok {
			removed = append(removed, symbol)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	return &MembershipDelta{
		IndexCode: indexCode,
		FromDate:  from,
		ToDate:    to,
		Added:     added,
		Removed:   removed,
	}, nil
}

func sortConstituents(constituents []*domain.Constituent) {
	sort.Slice(constituents, func(i, j int) bool {
		return constituents[i].Symbol < constituents[j].Symbol
	})
}
