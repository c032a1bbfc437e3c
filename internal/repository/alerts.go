package repository

import (
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertRepository 手动报警状态读写。报警状态落在 alert_states 表，
// 同一事务里把镜像写进照护人指向报警用户的边，照护人查状态不用再联表。
type AlertRepository struct {
	db      *gorm.DB
	retries int
}

func NewAlertRepository(db *gorm.DB, retries int) *AlertRepository {
	return &AlertRepository{db: db, retries: retries}
}

// Get 返回用户报警状态，没有记录时视为未报警
func (r *AlertRepository) Get(userID string) (*models.AlertState, error) {
	var state models.AlertState
	err := r.db.Where("user_id = ?", userID).First(&state).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.AlertState{UserID: userID}, nil
		}
		return nil, errors.Unavailable("query alert state: %v", err)
	}
	return &state, nil
}

// Activate 触发手动报警，返回本次通知对象（照护人 ID）。已激活返回 AlreadyExists。
func (r *AlertRepository) Activate(userID string, now time.Time) ([]string, error) {
	var responders []string
	err := runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		var state models.AlertState
		err := tx.Where("user_id = ?", userID).First(&state).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return errors.Unavailable("query alert state: %v", err)
		}
		if err == nil && state.Active {
			return errors.AlreadyExists("alert already active")
		}
		state = models.AlertState{UserID: userID, Active: true, ActivatedAt: &now}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"active", "activated_at", "updated_at"}),
		}).Create(&state).Error; err != nil {
			return errors.Unavailable("save alert state: %v", err)
		}
		var edges []models.ContactEdge
		if err := tx.Where("contact_id = ? AND is_dependent = ?", userID, true).
			Find(&edges).Error; err != nil {
			return errors.Unavailable("list responder edges: %v", err)
		}
		responders = responders[:0]
		for _, e := range edges {
			responders = append(responders, e.OwnerID)
		}
		return tx.Model(&models.ContactEdge{}).Where("contact_id = ?", userID).
			Update("alert_mirror", true).Error
	})
	if err != nil {
		return nil, err
	}
	return responders, nil
}

// Deactivate 解除报警并清掉所有镜像。未激活返回 NotFound。
func (r *AlertRepository) Deactivate(userID string) ([]string, error) {
	var responders []string
	err := runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		var state models.AlertState
		err := tx.Where("user_id = ? AND active = ?", userID, true).First(&state).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("no active alert for %s", userID)
			}
			return errors.Unavailable("query alert state: %v", err)
		}
		if err := tx.Model(&models.AlertState{}).Where("user_id = ?", userID).
			Updates(map[string]any{"active": false, "activated_at": nil}).Error; err != nil {
			return errors.Unavailable("save alert state: %v", err)
		}
		var edges []models.ContactEdge
		if err := tx.Where("contact_id = ? AND is_dependent = ?", userID, true).
			Find(&edges).Error; err != nil {
			return errors.Unavailable("list responder edges: %v", err)
		}
		responders = responders[:0]
		for _, e := range edges {
			responders = append(responders, e.OwnerID)
		}
		return tx.Model(&models.ContactEdge{}).Where("contact_id = ?", userID).
			Update("alert_mirror", false).Error
	})
	if err != nil {
		return nil, err
	}
	return responders, nil
}
