package models

import "time"

// ContactEdge 联系人关系的单向边。一段关系由镜像的两条边组成：
// A 对 B 的边和 B 对 A 的边。成功操作后必须满足：
//   - A→B.IsResponder == B→A.IsDependent，A→B.IsDependent == B→A.IsResponder
//   - A→B.OutgoingPing == B→A.IncomingPing（包括同时为空）
//   - 两个角色都为 false 的边连同镜像一起删除
//
// 双边写入只允许经过 repository.EdgeRepository 的事务完成。
type ContactEdge struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	OwnerID   string `json:"owner_id" gorm:"size:36;uniqueIndex:idx_edges_owner_contact;index"`
	ContactID string `json:"contact_id" gorm:"size:36;uniqueIndex:idx_edges_owner_contact;index"`

	IsResponder bool `json:"is_responder"` // 对方是我的照护人
	IsDependent bool `json:"is_dependent"` // 对方是我的被照护人

	IncomingPing *time.Time `json:"incoming_ping,omitempty"` // 对方向我发起的呼叫
	OutgoingPing *time.Time `json:"outgoing_ping,omitempty"` // 我向对方发起的呼叫

	// 对方报警状态的只读镜像，仅 AlertRepository 写入
	AlertMirror bool `json:"alert_mirror"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 返回表名
func (ContactEdge) TableName() string {
	return "contact_edges"
}

// EdgeStatus 联系人边的派生状态
type EdgeStatus string

const (
	StatusManualAlert   EdgeStatus = "manual_alert"   // 对方触发了手动报警
	StatusNonResponsive EdgeStatus = "non_responsive" // 被照护人打卡已过期
	StatusIncomingPing  EdgeStatus = "incoming_ping"  // 有未响应的来访呼叫
	StatusOutgoingPing  EdgeStatus = "outgoing_ping"  // 我发出的呼叫未被响应
	StatusNominal       EdgeStatus = "nominal"        // 一切正常
)

// DeriveStatus 按优先级推导边的显示状态。
// contact 为边指向的用户（可能为 nil），过期判断必须用调用时刻的最新数据。
func (e *ContactEdge) DeriveStatus(contact *User, now time.Time) EdgeStatus {
	if e.AlertMirror {
		return StatusManualAlert
	}
	if e.IsDependent && contact != nil && contact.IsExpired(now) {
		return StatusNonResponsive
	}
	if e.IncomingPing != nil {
		return StatusIncomingPing
	}
	if e.OutgoingPing != nil {
		return StatusOutgoingPing
	}
	return StatusNominal
}
