// 包 consumer 消费成分变更事件并刷新读模型
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wyfcoding/indexdata/internal/indexdata/application"
	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
)

// ProjectionHandler 把成分变更事件投影到 Redis 读模型
type ProjectionHandler struct {
	projector *application.ProjectionService
	logger    *slog.Logger
}

// NewProjectionHandler 创建投影消费者
func NewProjectionHandler(projector *application.ProjectionService, logger *slog.Logger) *ProjectionHandler {
	return &ProjectionHandler{projector: projector, logger: logger}
}

func (h *ProjectionHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	switch msg.Topic {
	case domain.ConstituentAddedEventType,
		domain.ConstituentRemovedEventType,
		domain.IndexReconciledEventType:
		var payload struct {
			IndexCode string `json:"index_code"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal constituent event", "topic", msg.Topic, "error", err)
			return err
		}
		if payload.IndexCode == "" {
			h.logger.WarnContext(ctx, "constituent event without index code", "topic", msg.Topic)
			return nil
		}
		return h.projector.RefreshIndex(ctx, payload.IndexCode)
	default:
		h.logger.WarnContext(ctx, "unknown indexdata event topic", "topic", msg.Topic)
		return nil
	}
}

// Subscribe 挂载到 Kafka 消费者
func (h *ProjectionHandler) Subscribe(ctx context.Context, consumer *kafka.Consumer) {
	consumer.Start(ctx, 1, h.Handle)
}
