package repository

import (
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository 用户读写
type UserRepository struct {
	db      *gorm.DB
	retries int
}

func NewUserRepository(db *gorm.DB, retries int) *UserRepository {
	return &UserRepository{db: db, retries: retries}
}

// Create 创建用户，邮箱重复返回 AlreadyExists
func (r *UserRepository) Create(user *models.User) error {
	if user.CheckInInterval <= 0 {
		return errors.InvalidArgument("check-in interval must be positive")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	var count int64
	r.db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count)
	if count > 0 {
		return errors.AlreadyExists("email %s already registered", user.Email)
	}
	if err := r.db.Create(user).Error; err != nil {
		return errors.Unavailable("create user: %v", err)
	}
	return nil
}

// GetByID 按 ID 查询用户
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("user %s not found", id)
		}
		return nil, errors.Unavailable("query user: %v", err)
	}
	return &user, nil
}

// GetByEmail 按邮箱查询用户
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("user %s not found", email)
		}
		return nil, errors.Unavailable("query user: %v", err)
	}
	return &user, nil
}

// RecordCheckIn 记录打卡时间。过期时间永远由 LastCheckIn+Interval 派生，不落库。
func (r *UserRepository) RecordCheckIn(userID string, now time.Time) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("last_check_in", now)
	if res.Error != nil {
		return errors.Unavailable("record check-in: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("user %s not found", userID)
	}
	return nil
}

// SetInterval 修改打卡周期（秒）。已设置的提醒偏移若不再小于新周期则一并清除。
func (r *UserRepository) SetInterval(userID string, interval int64) error {
	if interval <= 0 {
		return errors.InvalidArgument("check-in interval must be positive, got %d", interval)
	}
	return runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("user %s not found", userID)
			}
			return errors.Unavailable("query user: %v", err)
		}
		updates := map[string]any{"check_in_interval": interval}
		kept := make([]int64, 0)
		for _, off := range user.Offsets() {
			if off < interval {
				kept = append(kept, off)
			}
		}
		if len(kept) != len(user.Offsets()) {
			user.SetOffsets(kept)
			updates["reminder_offsets"] = user.ReminderOffsets
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
	})
}

// SetReminderOffsets 设置到期前提醒偏移（秒），每个偏移必须在 (0, interval) 区间内
func (r *UserRepository) SetReminderOffsets(userID string, offsets []int64) error {
	user, err := r.GetByID(userID)
	if err != nil {
		return err
	}
	for _, off := range offsets {
		if off <= 0 || off >= user.CheckInInterval {
			return errors.InvalidArgument(
				"reminder offset %d must be within (0, %d)", off, user.CheckInInterval)
		}
	}
	user.SetOffsets(offsets)
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("reminder_offsets", user.ReminderOffsets).Error
}

// ClaimExpiryEpoch 认领某个过期纪元的通知权。同一纪元只有一次调用返回 true，
// 靠带条件的 UPDATE 保证多实例并发下不重复通知。
func (r *UserRepository) ClaimExpiryEpoch(userID string, epoch int64) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND last_expiry_epoch < ?", userID, epoch).
		Update("last_expiry_epoch", epoch)
	if res.Error != nil {
		return false, errors.Unavailable("claim expiry epoch: %v", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListExpired 返回打卡已过期且启用的用户
func (r *UserRepository) ListExpired(now time.Time) ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("enabled = ?", true).Find(&users).Error; err != nil {
		return nil, errors.Unavailable("list users: %v", err)
	}
	expired := users[:0]
	for _, u := range users {
		if u.IsExpired(now) {
			expired = append(expired, u)
		}
	}
	return expired, nil
}

// ListEnabled 返回全部启用用户，巡检用
func (r *UserRepository) ListEnabled() ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("enabled = ?", true).Find(&users).Error; err != nil {
		return nil, errors.Unavailable("list users: %v", err)
	}
	return users, nil
}
