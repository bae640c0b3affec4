// 包 memory 提供内存版仓储，用于本地开发与测试
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/pkg/contextx"
)

// IndexRepository 互斥锁保护的内存实现
// WithTx 在整个回调期间持有写锁并保留回滚快照，语义上等价于单连接事务。
type IndexRepository struct {
	mu           sync.RWMutex
	nextID       uint
	indices      map[uint]domain.MarketIndex
	constituents map[uint]domain.Constituent
	changes      []domain.ConstituentChange
}

// NewIndexRepository 创建内存仓储
func NewIndexRepository() *IndexRepository {
	return &IndexRepository{
		indices:      make(map[uint]domain.MarketIndex),
		constituents: make(map[uint]domain.Constituent),
	}
}

func (r *IndexRepository) inTx(ctx context.Context) bool {
	return contextx.GetTx(ctx) == any(r)
}

func (r *IndexRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.inTx(ctx) {
		return fn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.clone()
	if err := fn(contextx.WithTx(ctx, r)); err != nil {
		r.restore(snapshot)
		return err
	}
	return nil
}

type state struct {
	nextID       uint
	indices      map[uint]domain.MarketIndex
	constituents map[uint]domain.Constituent
	changes      []domain.ConstituentChange
}

func (r *IndexRepository) clone() state {
	indices := make(map[uint]domain.MarketIndex, len(r.indices))
	for id, v := range r.indices {
		indices[id] = v
	}
	constituents := make(map[uint]domain.Constituent, len(r.constituents))
	for id, v := range r.constituents {
		constituents[id] = v
	}
	changes := make([]domain.ConstituentChange, len(r.changes))
	copy(changes, r.changes)
	return state{nextID: r.nextID, indices: indices, constituents: constituents, changes: changes}
}

func (r *IndexRepository) restore(s state) {
	r.nextID = s.nextID
	r.indices = s.indices
	r.constituents = s.constituents
	r.changes = s.changes
}

func (r *IndexRepository) lock(ctx context.Context) func() {
	if r.inTx(ctx) {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *IndexRepository) rlock(ctx context.Context) func() {
	if r.inTx(ctx) {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

// --- Index ---

func (r *IndexRepository) SaveIndex(ctx context.Context, index *domain.MarketIndex) error {
	defer r.lock(ctx)()

	now := time.Now()
	if index.ID == 0 {
		r.nextID++
		index.ID = r.nextID
		index.CreatedAt = now
	}
	index.UpdatedAt = now
	r.indices[index.ID] = *index
	return nil
}

func (r *IndexRepository) GetIndexByCode(ctx context.Context, code string) (*domain.MarketIndex, error) {
	defer r.rlock(ctx)()
	return r.findIndexByCode(code), nil
}

func (r *IndexRepository) LockIndexByCode(ctx context.Context, code string) (*domain.MarketIndex, error) {
	defer r.rlock(ctx)()
	return r.findIndexByCode(code), nil
}

func (r *IndexRepository) findIndexByCode(code string) *domain.MarketIndex {
	for _, v := range r.indices {
		if v.IndexCode == code {
			index := v
			return &index
		}
	}
	return nil
}

func (r *IndexRepository) ListIndices(ctx context.Context) ([]*domain.MarketIndex, error) {
	defer r.rlock(ctx)()

	indices := make([]*domain.MarketIndex, 0, len(r.indices))
	for _, v := range r.indices {
		index := v
		indices = append(indices, &index)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i].IndexCode < indices[j].IndexCode })
	return indices, nil
}

// --- Constituent intervals ---

func (r *IndexRepository) GetOpenConstituent(ctx context.Context, indexID uint, symbol string) (*domain.Constituent, error) {
	defer r.rlock(ctx)()

	for _, v := range r.constituents {
		if v.IndexID == indexID && v.Symbol == symbol && v.EndDate == nil {
			c := v
			return &c, nil
		}
	}
	return nil, nil
}

func (r *IndexRepository) GetActiveSet(ctx context.Context, indexID uint) ([]*domain.Constituent, error) {
	defer r.rlock(ctx)()

	var constituents []*domain.Constituent
	for _, v := range r.constituents {
		if v.IndexID == indexID && v.EndDate == nil {
			c := v
			constituents = append(constituents, &c)
		}
	}
	sortBySymbol(constituents)
	return constituents, nil
}

func (r *IndexRepository) GetConstituentsAsOf(ctx context.Context, indexID uint, date time.Time) ([]*domain.Constituent, error) {
	defer r.rlock(ctx)()

	var constituents []*domain.Constituent
	for _, v := range r.constituents {
		if v.IndexID == indexID && v.ActiveOn(date) {
			c := v
			constituents = append(constituents, &c)
		}
	}
	sortBySymbol(constituents)
	return constituents, nil
}

func (r *IndexRepository) ListConstituentHistory(ctx context.Context, indexID uint, symbol string) ([]*domain.Constituent, error) {
	defer r.rlock(ctx)()

	var constituents []*domain.Constituent
	for _, v := range r.constituents {
		if v.IndexID == indexID && v.Symbol == symbol {
			c := v
			constituents = append(constituents, &c)
		}
	}
	sort.Slice(constituents, func(i, j int) bool {
		return constituents[i].EffectiveDate.Before(constituents[j].EffectiveDate)
	})
	return constituents, nil
}

func (r *IndexRepository) OpenConstituent(ctx context.Context, c *domain.Constituent) error {
	defer r.lock(ctx)()

	for _, v := range r.constituents {
		if v.IndexID == c.IndexID && v.Symbol == c.Symbol && v.EndDate == nil {
			return &domain.ConflictError{
				IndexCode: r.codeOf(c.IndexID),
				Symbol:    c.Symbol,
				Date:      c.EffectiveDate,
				Reason:    "open interval already exists",
			}
		}
		if v.IndexID == c.IndexID && v.Symbol == c.Symbol && v.EffectiveDate.Equal(c.EffectiveDate) {
			return &domain.ConflictError{
				IndexCode: r.codeOf(c.IndexID),
				Symbol:    c.Symbol,
				Date:      c.EffectiveDate,
				Reason:    "interval with same effective date already exists",
			}
		}
	}

	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.constituents[c.ID] = *c
	return nil
}

func (r *IndexRepository) CloseConstituent(ctx context.Context, c *domain.Constituent) error {
	defer r.lock(ctx)()

	stored, ok := r.constituents[c.ID]
	if !ok || c.EndDate == nil || stored.EndDate != nil {
		return &domain.ConflictError{
			IndexCode: r.codeOf(c.IndexID),
			Symbol:    c.Symbol,
			Reason:    "interval already closed",
		}
	}
	d := *c.EndDate
	stored.EndDate = &d
	stored.UpdatedAt = time.Now()
	r.constituents[c.ID] = stored
	return nil
}

// --- Change log ---

func (r *IndexRepository) AppendChange(ctx context.Context, change *domain.ConstituentChange) error {
	defer r.lock(ctx)()

	for _, existing := range r.changes {
		if existing.IndexID == change.IndexID &&
			existing.Symbol == change.Symbol &&
			existing.EventDate.Equal(change.EventDate) &&
			existing.ChangeType == change.ChangeType {
			return &domain.ConflictError{
				IndexCode: r.codeOf(change.IndexID),
				Symbol:    change.Symbol,
				Date:      change.EventDate,
				Reason:    "duplicate change event",
			}
		}
	}

	r.nextID++
	change.ID = r.nextID
	change.CreatedAt = time.Now()
	r.changes = append(r.changes, *change)
	return nil
}

func (r *IndexRepository) ListChanges(ctx context.Context, indexID uint, start, end time.Time) ([]*domain.ConstituentChange, error) {
	defer r.rlock(ctx)()

	var changes []*domain.ConstituentChange
	for _, v := range r.changes {
		if v.IndexID != indexID || v.EventDate.Before(start) || v.EventDate.After(end) {
			continue
		}
		change := v
		changes = append(changes, &change)
	}
	sort.SliceStable(changes, func(i, j int) bool {
		if !changes[i].EventDate.Equal(changes[j].EventDate) {
			return changes[i].EventDate.Before(changes[j].EventDate)
		}
		return changes[i].Symbol < changes[j].Symbol
	})
	return changes, nil
}

func (r *IndexRepository) codeOf(indexID uint) string {
	if v, ok := r.indices[indexID]; ok {
		return v.IndexCode
	}
	return ""
}

func sortBySymbol(constituents []*domain.Constituent) {
	sort.Slice(constituents, func(i, j int) bool { return constituents[i].Symbol < constituents[j].Symbol })
}
