package models

import (
	"encoding/json"
	"time"
)

// User 被看护/看护用户
type User struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	DisplayName string `json:"display_name" gorm:"size:100"`
	Email       string `json:"email" gorm:"size:200;index"`
	Phone       string `json:"phone" gorm:"size:32"`
	Secret      string `json:"-" gorm:"size:128"` // 登录口令散列
	Language    string `json:"language" gorm:"size:8"`
	Enabled     bool   `json:"enabled" gorm:"default:true"`

	// 打卡设置。过期时间永远由 LastCheckIn + CheckInInterval 推导，不落库
	CheckInInterval int64      `json:"check_in_interval" gorm:"not null"` // 秒
	LastCheckIn     *time.Time `json:"last_check_in,omitempty"`
	ReminderOffsets string     `json:"-" gorm:"size:200"` // JSON 数组，单位秒，均小于间隔

	// 到期通知纪元标记：已通知的 ExpiresAt 的 unix 秒，巡检幂等的依据
	LastExpiryEpoch int64 `json:"-" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 返回表名
func (User) TableName() string {
	return "users"
}

// ExpiresAt 推导打卡过期时间；从未打卡时返回 nil
func (u *User) ExpiresAt() *time.Time {
	if u.LastCheckIn == nil {
		return nil
	}
	t := u.LastCheckIn.Add(time.Duration(u.CheckInInterval) * time.Second)
	return &t
}

// IsExpired 判断打卡是否过期：从未打卡或已过截止时间
func (u *User) IsExpired(now time.Time) bool {
	exp := u.ExpiresAt()
	if exp == nil {
		return true
	}
	return !now.Before(*exp)
}

// Offsets 解析提醒偏移列表（秒）
func (u *User) Offsets() []int64 {
	if u.ReminderOffsets == "" {
		return nil
	}
	var offsets []int64
	if err := json.Unmarshal([]byte(u.ReminderOffsets), &offsets); err != nil {
		return nil
	}
	return offsets
}

// SetOffsets 序列化提醒偏移列表
func (u *User) SetOffsets(offsets []int64) error {
	data, err := json.Marshal(offsets)
	if err != nil {
		return err
	}
	u.ReminderOffsets = string(data)
	return nil
}
