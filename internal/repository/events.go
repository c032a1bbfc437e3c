package repository

import (
	"SafeCircle/internal/models"
	"SafeCircle/pkg/errors"

	"gorm.io/gorm"
)

// EventRepository 安全事件流水
type EventRepository struct {
	db       *gorm.DB
	onAppend func(*models.SafetyEvent)
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// SetOnAppend 注册追加回调，检索索引靠它接入。回调在事务外执行。
func (r *EventRepository) SetOnAppend(fn func(*models.SafetyEvent)) {
	r.onAppend = fn
}

// Append 追加一条事件
func (r *EventRepository) Append(event *models.SafetyEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return errors.Unavailable("append event: %v", err)
	}
	if r.onAppend != nil {
		r.onAppend(event)
	}
	return nil
}

// ListByUser 倒序分页查询某用户的事件
func (r *EventRepository) ListByUser(userID string, limit, offset int) ([]models.SafetyEvent, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var total int64
	if err := r.db.Model(&models.SafetyEvent{}).Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, errors.Unavailable("count events: %v", err)
	}
	var events []models.SafetyEvent
	if err := r.db.Where("user_id = ?", userID).
		Order("id DESC").Limit(limit).Offset(offset).
		Find(&events).Error; err != nil {
		return nil, 0, errors.Unavailable("list events: %v", err)
	}
	return events, total, nil
}
