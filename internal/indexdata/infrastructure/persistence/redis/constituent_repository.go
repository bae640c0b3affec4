// 包 redis 提供当前成分读模型缓存
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
)

// ConstituentRedisRepository 基于 Redis 的当前成分读模型
type ConstituentRedisRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewConstituentRedisRepository 创建读模型仓储
func NewConstituentRedisRepository(client redis.UniversalClient) *ConstituentRedisRepository {
	return &ConstituentRedisRepository{
		client: client,
		prefix: "indexdata:activeset:",
		ttl:    24 * time.Hour,
	}
}

func (r *ConstituentRedisRepository) SaveActiveSet(ctx context.Context, indexCode string, constituents []*domain.Constituent) error {
	if indexCode == "" {
		return nil
	}
	data, err := json.Marshal(constituents)
	if err != nil {
		return fmt.Errorf("failed to marshal active set: %w", err)
	}
	return r.client.Set(ctx, r.prefix+indexCode, data, r.ttl).Err()
}

// GetActiveSet 缓存未命中时返回 nil 切片，由调用方回源
func (r *ConstituentRedisRepository) GetActiveSet(ctx context.Context, indexCode string) ([]*domain.Constituent, error) {
	data, err := r.client.Get(ctx, r.prefix+indexCode).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active set from redis: %w", err)
	}
	var constituents []*domain.Constituent
	if err := json.Unmarshal(data, &constituents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active set: %w", err)
	}
	return constituents, nil
}

func (r *ConstituentRedisRepository) Invalidate(ctx context.Context, indexCode string) error {
	return r.client.Del(ctx, r.prefix+indexCode).Err()
}
