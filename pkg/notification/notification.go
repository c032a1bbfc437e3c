package notification

import (
	"context"
	"time"
)

// 通知类型
const (
	KindCheckInReminder  = "checkin_reminder"  // 打卡提醒
	KindCheckInExpired   = "checkin_expired"   // 打卡超时，通知照护人
	KindPingReceived     = "ping_received"     // 收到呼叫
	KindPingResponded    = "ping_responded"    // 呼叫已响应
	KindPingCleared      = "ping_cleared"      // 呼叫被取消
	KindAlertActivated   = "alert_activated"   // 手动报警激活
	KindAlertDeactivated = "alert_deactivated" // 手动报警解除
)

// Payload 一次待投递的通知
type Payload struct {
	ID      string            `json:"id"`
	UserID  string            `json:"user_id"` // 接收者
	Kind    string            `json:"kind"`
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Lang    string            `json:"lang,omitempty"`
	Extras  map[string]string `json:"extras,omitempty"`
}

// Handle 已排期通知的取消句柄
type Handle string

// Dispatcher 通知投递接口：立即投递与定时投递。
// 投递失败不会回滚触发它的状态变更。
type Dispatcher interface {
	SendNow(ctx context.Context, p Payload) error
	ScheduleAt(t time.Time, p Payload) (Handle, error)
	Cancel(h Handle)
}

// Channel 单个投递通道（站内信、邮件、短信、推送）
type Channel interface {
	Name() string
	Deliver(ctx context.Context, p Payload) error
}
