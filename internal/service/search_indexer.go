package service

import (
	"context"
	"fmt"

	"SafeCircle/internal/models"
	"SafeCircle/pkg/logger"
	"SafeCircle/pkg/search"

	"go.uber.org/zap"
)

// NewEventIndexer 返回把安全事件写进全文索引的回调。索引失败只记日志。
func NewEventIndexer(engine search.Engine) func(*models.SafetyEvent) {
	return func(e *models.SafetyEvent) {
		doc := search.Doc{
			ID:   fmt.Sprintf("event-%d", e.ID),
			Type: "event",
			Fields: map[string]any{
				"detail":     e.Detail,
				"kind":       e.Kind,
				"user_id":    e.UserID,
				"peer_id":    e.PeerID,
				"created_at": e.CreatedAt,
				"seq":        float64(e.ID),
			},
		}
		if err := engine.Index(context.Background(), doc); err != nil {
			logger.Warn("index event failed", zap.Uint("id", e.ID), zap.Error(err))
		}
	}
}
