package models

import "time"

// SafetyEvent 安全事件流水，追加写入，供审计与检索
type SafetyEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"size:36;index"`
	PeerID    string    `json:"peer_id,omitempty" gorm:"size:36;index"`
	Kind      string    `json:"kind" gorm:"size:40;index"`
	Detail    string    `json:"detail" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName 返回表名
func (SafetyEvent) TableName() string {
	return "safety_events"
}

// 事件类型
const (
	EventCheckIn           = "check_in"
	EventIntervalChanged   = "interval_changed"
	EventRelationAdded     = "relation_added"
	EventRelationUpdated   = "relation_updated"
	EventRelationRemoved   = "relation_removed"
	EventPingSent          = "ping_sent"
	EventPingResponded     = "ping_responded"
	EventPingCleared       = "ping_cleared"
	EventAlertActivated    = "alert_activated"
	EventAlertDeactivated  = "alert_deactivated"
	EventCheckInExpired    = "check_in_expired"
	EventReminderDelivered = "reminder_delivered"
)
