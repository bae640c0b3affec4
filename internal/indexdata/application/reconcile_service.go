package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue"
)

// ReconcileService 成分对账服务，唯一的写路径
// 一次对账的全部开闭区间、变更流水与事件发布在同一事务内提交。
type ReconcileService struct {
	repo      domain.IndexRepository
	publisher messagequeue.EventPublisher
}

// NewReconcileService 创建对账服务
func NewReconcileService(repo domain.IndexRepository, publisher messagequeue.EventPublisher) *ReconcileService {
	return &ReconcileService{repo: repo, publisher: publisher}
}

// RegisterIndex 注册指数，已存在时更新元数据
func (s *ReconcileService) RegisterIndex(ctx context.Context, cmd RegisterIndexCommand) (*domain.MarketIndex, error) {
	existing, err := s.repo.GetIndexByCode(ctx, cmd.IndexCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.IndexName = cmd.IndexName
		existing.Description = cmd.Description
		existing.Country = cmd.Country
		existing.DataSource = cmd.DataSource
		if cmd.AssetClass != "" {
			existing.AssetClass = cmd.AssetClass
		}
		if err := s.repo.SaveIndex(ctx, existing); err != nil {
			return nil, err
		}
		logging.Info(ctx, "index updated", "index_code", existing.IndexCode)
		return existing, nil
	}

	index := domain.NewMarketIndex(cmd.IndexCode, cmd.IndexName, cmd.Description, cmd.Country, cmd.DataSource, cmd.AssetClass)
	if err := s.repo.SaveIndex(ctx, index); err != nil {
		return nil, err
	}
	logging.Info(ctx, "index registered", "index_code", index.IndexCode)
	return index, nil
}

// Reconcile 将快照与当前开放区间求差，最小化地开闭区间并追加变更流水
// 先关后开，保证同日移出再加入时单开放区间不变量不被瞬时打破。
func (s *ReconcileService) Reconcile(ctx context.Context, cmd ReconcileCommand) (*ReconcileResult, error) {
	snapshotDate, err := domain.ParseDate(cmd.SnapshotDate)
	if err != nil {
		return nil, err
	}
	snapshot, err := domain.NewSnapshot(snapshotDate, cmd.Symbols, cmd.Metadata, cmd.ExtractedAt, cmd.DataSource)
	if err != nil {
		return nil, err
	}

	var result *ReconcileResult
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		index, err := s.repo.LockIndexByCode(txCtx, cmd.IndexCode)
		if err != nil {
			return err
		}
		if index == nil {
			return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, cmd.IndexCode)
		}
		if err := index.EnsureReconcilable(snapshot.Date); err != nil {
			return err
		}

		active, err := s.repo.GetActiveSet(txCtx, index.ID)
		if err != nil {
			return err
		}
		activeBySymbol := make(map[string]*domain.Constituent, len(active))
		for _, c := range active {
			activeBySymbol[c.Symbol] = c
		}
		snapshotSet := snapshot.SymbolSet()

		var toAdd, toRemove []string
		for symbol := range snapshotSet {
			if _, ok := activeBySymbol[symbol]; !ok {
				toAdd = append(toAdd, symbol)
			}
		}
		for symbol := range activeBySymbol {
			if _, ok := snapshotSet[symbol]; !ok {
				toRemove = append(toRemove, symbol)
			}
		}
		sort.Strings(toAdd)
		sort.Strings(toRemove)

		now := time.Now()

		for _, symbol := range toRemove {
			c := activeBySymbol[symbol]
			if err := c.Close(index.IndexCode, snapshot.Date); err != nil {
				return err
			}
			if err := s.repo.CloseConstituent(txCtx, c); err != nil {
				return err
			}
			change := &domain.ConstituentChange{
				IndexID:    index.ID,
				Symbol:     symbol,
				EventDate:  snapshot.Date,
				ChangeType: domain.ChangeRemoved,
			}
			if err := s.repo.AppendChange(txCtx, change); err != nil {
				return err
			}
			if s.publisher != nil {
				event := domain.ConstituentRemovedEvent{
					IndexCode:  index.IndexCode,
					Symbol:     symbol,
					EndDate:    snapshot.Date.Format(domain.DateLayout),
					OccurredOn: now,
				}
				if err := s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), domain.ConstituentRemovedEventType, index.IndexCode, event); err != nil {
					return err
				}
			}
		}

		for _, symbol := range toAdd {
			c := domain.NewConstituent(index.ID, symbol, snapshot.Date, snapshot.MetaFor(symbol), snapshot.ExtractedAt, snapshot.DataSource)
			if err := s.repo.OpenConstituent(txCtx, c); err != nil {
				return err
			}
			change := &domain.ConstituentChange{
				IndexID:    index.ID,
				Symbol:     symbol,
				EventDate:  snapshot.Date,
				ChangeType: domain.ChangeAdded,
			}
			if err := s.repo.AppendChange(txCtx, change); err != nil {
				return err
			}
			if s.publisher != nil {
				event := domain.ConstituentAddedEvent{
					IndexCode:     index.IndexCode,
					Symbol:        symbol,
					EffectiveDate: snapshot.Date.Format(domain.DateLayout),
					CompanyName:   c.CompanyName,
					Sector:        c.Sector,
					OccurredOn:    now,
				}
				if err := s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), domain.ConstituentAddedEventType, index.IndexCode, event); err != nil {
					return err
				}
			}
		}

		// 空差异也推进水位，保证幂等重放可观测
		index.MarkReconciled(snapshot.Date, now)
		if err := s.repo.SaveIndex(txCtx, index); err != nil {
			return err
		}

		unchanged := len(snapshot.Symbols) - len(toAdd)
		result = &ReconcileResult{
			RunID:          fmt.Sprintf("RECON-%d", idgen.GenID()),
			IndexCode:      index.IndexCode,
			SnapshotDate:   snapshot.Date.Format(domain.DateLayout),
			AddedCount:     len(toAdd),
			RemovedCount:   len(toRemove),
			UnchangedCount: unchanged,
			AddedSymbols:   toAdd,
			RemovedSymbols: toRemove,
		}

		if s.publisher != nil {
			event := domain.IndexReconciledEvent{
				IndexCode:      index.IndexCode,
				SnapshotDate:   result.SnapshotDate,
				AddedCount:     result.AddedCount,
				RemovedCount:   result.RemovedCount,
				UnchangedCount: result.UnchangedCount,
				OccurredOn:     now,
			}
			return s.publisher.PublishInTx(ctx, contextx.GetTx(txCtx), domain.IndexReconciledEventType, index.IndexCode, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "index reconciled",
		"index_code", result.IndexCode,
		"snapshot_date", result.SnapshotDate,
		"added", result.AddedCount,
		"removed", result.RemovedCount,
		"unchanged", result.UnchangedCount)
	return result, nil
}
