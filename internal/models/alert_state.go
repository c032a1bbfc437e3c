package models

import "time"

// AlertState 用户手动报警的持久状态。每个用户至多一行。
type AlertState struct {
	UserID      string     `json:"user_id" gorm:"primaryKey;size:36"`
	Active      bool       `json:"active"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName 返回表名
func (AlertState) TableName() string {
	return "alert_states"
}
