package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/pkg/logging"
)

// ProjectionService 维护当前成分的读模型缓存
// 由成分变更事件驱动，整集合重建而非增量修补。
type ProjectionService struct {
	repo     domain.IndexRepository
	readRepo domain.ConstituentReadRepository
}

// NewProjectionService 创建读模型投影服务
func NewProjectionService(repo domain.IndexRepository, readRepo domain.ConstituentReadRepository) *ProjectionService {
	return &ProjectionService{repo: repo, readRepo: readRepo}
}

// RefreshIndex 用主存储的当前开放区间重建指定指数的缓存
func (s *ProjectionService) RefreshIndex(ctx context.Context, indexCode string) error {
	if s.readRepo == nil {
		return nil
	}
	index, err := s.repo.GetIndexByCode(ctx, indexCode)
	if err != nil {
		return err
	}
	if index == nil {
		return s.readRepo.Invalidate(ctx, indexCode)
	}
	active, err := s.repo.GetActiveSet(ctx, index.ID)
	if err != nil {
		return fmt.Errorf("load active set for %s: %w", indexCode, err)
	}
	if err := s.readRepo.SaveActiveSet(ctx, indexCode, active); err != nil {
		return err
	}
	logging.Info(ctx, "active set projection refreshed", "index_code", indexCode, "constituents", len(active))
	return nil
}
