package notification

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// InternalNotification 站内信
type InternalNotification struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:36;index"`
	Kind      string    `json:"kind" gorm:"size:32;index"`
	Title     string    `json:"title" gorm:"size:200"`
	Content   string    `json:"content" gorm:"type:text"`
	Read      bool      `json:"read" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 返回表名
func (InternalNotification) TableName() string {
	return "internal_notifications"
}

// InboxChannel 站内信通道，通知落库后由客户端拉取
type InboxChannel struct {
	db *gorm.DB
}

// NewInboxChannel 创建站内信通道
func NewInboxChannel(db *gorm.DB) *InboxChannel {
	return &InboxChannel{db: db}
}

func (c *InboxChannel) Name() string { return "inbox" }

// Deliver 将通知写入站内信表
func (c *InboxChannel) Deliver(ctx context.Context, p Payload) error {
	return c.db.WithContext(ctx).Create(&InternalNotification{
		ID:      p.ID,
		UserID:  p.UserID,
		Kind:    p.Kind,
		Title:   p.Title,
		Content: p.Content,
	}).Error
}

// ListInbox 分页查询用户站内信
func ListInbox(ctx context.Context, db *gorm.DB, userID string, limit, offset int) ([]InternalNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var items []InternalNotification
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error
	return items, err
}

// UnreadCount 用户未读数
func UnreadCount(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&InternalNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkRead 标记单条已读
func MarkRead(ctx context.Context, db *gorm.DB, userID, id string) error {
	return db.WithContext(ctx).Model(&InternalNotification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
}

// MarkAllRead 全部标记已读
func MarkAllRead(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Model(&InternalNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

// Remove 删除一条站内信
func Remove(ctx context.Context, db *gorm.DB, userID, id string) error {
	return db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&InternalNotification{}).Error
}
