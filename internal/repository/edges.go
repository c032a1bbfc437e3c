package repository

import (
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/pkg/errors"

	"gorm.io/gorm"
)

// EdgeRepository 联系人关系读写。所有写操作都在一个事务里同时改动两条
// 镜像边，任何路径都不允许只写一边。
type EdgeRepository struct {
	db      *gorm.DB
	retries int
}

func NewEdgeRepository(db *gorm.DB, retries int) *EdgeRepository {
	return &EdgeRepository{db: db, retries: retries}
}

// ListByOwner 返回某用户的全部联系人边
func (r *EdgeRepository) ListByOwner(ownerID string) ([]models.ContactEdge, error) {
	var edges []models.ContactEdge
	if err := r.db.Where("owner_id = ?", ownerID).Find(&edges).Error; err != nil {
		return nil, errors.Unavailable("list edges: %v", err)
	}
	return edges, nil
}

// ListAll 返回全部边，巡检用
func (r *EdgeRepository) ListAll() ([]models.ContactEdge, error) {
	var edges []models.ContactEdge
	if err := r.db.Find(&edges).Error; err != nil {
		return nil, errors.Unavailable("list edges: %v", err)
	}
	return edges, nil
}

// ListResponders 返回照护 userID 的用户 ID
func (r *EdgeRepository) ListResponders(userID string) ([]string, error) {
	var edges []models.ContactEdge
	if err := r.db.Where("contact_id = ? AND is_dependent = ?", userID, true).
		Find(&edges).Error; err != nil {
		return nil, errors.Unavailable("list responder edges: %v", err)
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.OwnerID)
	}
	return ids, nil
}

// Get 返回 owner 指向 contact 的那条边
func (r *EdgeRepository) Get(ownerID, contactID string) (*models.ContactEdge, error) {
	var edge models.ContactEdge
	err := r.db.Where("owner_id = ? AND contact_id = ?", ownerID, contactID).First(&edge).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("no relationship between %s and %s", ownerID, contactID)
		}
		return nil, errors.Unavailable("query edge: %v", err)
	}
	return &edge, nil
}

// AddRelationship 建立双向关系。asResponder/asDependent 是 contact 相对
// owner 的角色，镜像边写入相反角色。
func (r *EdgeRepository) AddRelationship(ownerID, contactID string, asResponder, asDependent bool) error {
	if ownerID == contactID {
		return errors.InvalidArgument("cannot add yourself as a contact")
	}
	if !asResponder && !asDependent {
		return errors.InvalidArgument("relationship needs at least one role")
	}
	return runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", contactID).Count(&count).Error; err != nil {
			return errors.Unavailable("query user: %v", err)
		}
		if count == 0 {
			return errors.NotFound("user %s not found", contactID)
		}
		if err := tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ?", ownerID, contactID).
			Count(&count).Error; err != nil {
			return errors.Unavailable("query edge: %v", err)
		}
		if count > 0 {
			return errors.AlreadyExists("relationship already exists")
		}
		forward := models.ContactEdge{
			OwnerID: ownerID, ContactID: contactID,
			IsResponder: asResponder, IsDependent: asDependent,
		}
		mirror := models.ContactEdge{
			OwnerID: contactID, ContactID: ownerID,
			IsResponder: asDependent, IsDependent: asResponder,
		}
		if err := tx.Create(&forward).Error; err != nil {
			return errors.Unavailable("create edge: %v", err)
		}
		if err := tx.Create(&mirror).Error; err != nil {
			return errors.Unavailable("create mirror edge: %v", err)
		}
		return nil
	})
}

// UpdateRoles 改写关系角色并同步镜像。两个角色都取消属于非法参数，删除关系走 DeleteRelationship。
func (r *EdgeRepository) UpdateRoles(ownerID, contactID string, asResponder, asDependent bool) error {
	if !asResponder && !asDependent {
		return errors.InvalidArgument("relationship needs at least one role, delete it instead")
	}
	return runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		res := tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ?", ownerID, contactID).
			Updates(map[string]any{"is_responder": asResponder, "is_dependent": asDependent})
		if res.Error != nil {
			return errors.Unavailable("update edge: %v", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("no relationship between %s and %s", ownerID, contactID)
		}
		return tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ?", contactID, ownerID).
			Updates(map[string]any{"is_responder": asDependent, "is_dependent": asResponder}).Error
	})
}

// DeleteRelationship 删除双向关系，连同双方挂着的呼叫一起消失
func (r *EdgeRepository) DeleteRelationship(ownerID, contactID string) error {
	return runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		res := tx.Where("owner_id = ? AND contact_id = ?", ownerID, contactID).
			Delete(&models.ContactEdge{})
		if res.Error != nil {
			return errors.Unavailable("delete edge: %v", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("no relationship between %s and %s", ownerID, contactID)
		}
		return tx.Where("owner_id = ? AND contact_id = ?", contactID, ownerID).
			Delete(&models.ContactEdge{}).Error
	})
}

// PingDependent 向被照护人发起呼叫。重复呼叫覆盖时间戳。
func (r *EdgeRepository) PingDependent(ownerID, contactID string, now time.Time) error {
	return runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		var edge models.ContactEdge
		err := tx.Where("owner_id = ? AND contact_id = ?", ownerID, contactID).First(&edge).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("no relationship between %s and %s", ownerID, contactID)
			}
			return errors.Unavailable("query edge: %v", err)
		}
		if !edge.IsDependent {
			return errors.PermissionDenied("%s is not a dependent of %s", contactID, ownerID)
		}
		if err := tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ?", ownerID, contactID).
			Update("outgoing_ping", now).Error; err != nil {
			return errors.Unavailable("update edge: %v", err)
		}
		return tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ?", contactID, ownerID).
			Update("incoming_ping", now).Error
	})
}

// RespondToPing 响应来自 fromID 的呼叫，清掉双边的呼叫标记
func (r *EdgeRepository) RespondToPing(ownerID, fromID string) error {
	return runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		res := tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ? AND incoming_ping IS NOT NULL", ownerID, fromID).
			Update("incoming_ping", nil)
		if res.Error != nil {
			return errors.Unavailable("update edge: %v", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("no pending ping from %s", fromID)
		}
		return tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ?", fromID, ownerID).
			Update("outgoing_ping", nil).Error
	})
}

// RespondToAllPings 清掉 owner 全部待响应呼叫，返回呼叫发起者 ID。打卡即响应。
func (r *EdgeRepository) RespondToAllPings(ownerID string) ([]string, error) {
	var responded []string
	err := runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		var edges []models.ContactEdge
		if err := tx.Where("owner_id = ? AND incoming_ping IS NOT NULL", ownerID).
			Find(&edges).Error; err != nil {
			return errors.Unavailable("list edges: %v", err)
		}
		responded = responded[:0]
		for _, edge := range edges {
			responded = append(responded, edge.ContactID)
			if err := tx.Model(&models.ContactEdge{}).
				Where("owner_id = ? AND contact_id = ?", ownerID, edge.ContactID).
				Update("incoming_ping", nil).Error; err != nil {
				return errors.Unavailable("update edge: %v", err)
			}
			if err := tx.Model(&models.ContactEdge{}).
				Where("owner_id = ? AND contact_id = ?", edge.ContactID, ownerID).
				Update("outgoing_ping", nil).Error; err != nil {
				return errors.Unavailable("update mirror edge: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responded, nil
}

// ClearPing 撤回自己发出的呼叫
func (r *EdgeRepository) ClearPing(ownerID, contactID string) error {
	return runInTx(r.db, r.retries, func(tx *gorm.DB) error {
		res := tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ? AND outgoing_ping IS NOT NULL", ownerID, contactID).
			Update("outgoing_ping", nil)
		if res.Error != nil {
			return errors.Unavailable("update edge: %v", res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("no pending ping to %s", contactID)
		}
		return tx.Model(&models.ContactEdge{}).
			Where("owner_id = ? AND contact_id = ?", contactID, ownerID).
			Update("incoming_ping", nil).Error
	})
}
