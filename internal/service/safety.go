package service

import (
	"fmt"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/pkg/metrics"
	"SafeCircle/pkg/util"
)

// SafetyService 打卡、联系人和呼叫的业务入口。存储层保证镜像一致性，
// 这里负责事件流水和信号发布。
type SafetyService struct {
	users  *repository.UserRepository
	edges  *repository.EdgeRepository
	events *repository.EventRepository
	now    func() time.Time
}

func NewSafetyService(users *repository.UserRepository, edges *repository.EdgeRepository,
	events *repository.EventRepository) *SafetyService {
	return &SafetyService{users: users, edges: edges, events: events, now: time.Now}
}

// CheckIn 打卡。打卡同时响应所有待处理的来访呼叫。
func (s *SafetyService) CheckIn(userID string) (*models.User, error) {
	now := s.now()
	if err := s.users.RecordCheckIn(userID, now); err != nil {
		return nil, err
	}
	responded, err := s.edges.RespondToAllPings(userID)
	if err != nil {
		return nil, err
	}
	s.events.Append(&models.SafetyEvent{
		UserID: userID,
		Kind:   models.EventCheckIn,
	})
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	util.Sig().Emit(models.SigUserCheckedIn, user)
	if mon := metrics.GetGlobalMonitor(); mon != nil {
		mon.RecordCheckIn()
	}
	for _, fromID := range responded {
		s.events.Append(&models.SafetyEvent{
			UserID: userID,
			PeerID: fromID,
			Kind:   models.EventPingResponded,
			Detail: "responded via check-in",
		})
		util.Sig().Emit(models.SigPingResponded, userID, fromID)
	}
	return user, nil
}

// SetInterval 修改打卡周期
func (s *SafetyService) SetInterval(userID string, interval int64) error {
	if err := s.users.SetInterval(userID, interval); err != nil {
		return err
	}
	s.events.Append(&models.SafetyEvent{
		UserID: userID,
		Kind:   models.EventIntervalChanged,
		Detail: fmt.Sprintf("interval set to %ds", interval),
	})
	return nil
}

// SetReminderOffsets 设置到期前提醒偏移
func (s *SafetyService) SetReminderOffsets(userID string, offsets []int64) error {
	return s.users.SetReminderOffsets(userID, offsets)
}

// AddContact 建立双向关系
func (s *SafetyService) AddContact(userID, contactID string, asResponder, asDependent bool) error {
	if err := s.edges.AddRelationship(userID, contactID, asResponder, asDependent); err != nil {
		return err
	}
	s.events.Append(&models.SafetyEvent{
		UserID: userID,
		PeerID: contactID,
		Kind:   models.EventRelationAdded,
		Detail: fmt.Sprintf("responder=%t dependent=%t", asResponder, asDependent),
	})
	util.Sig().Emit(models.SigRelationChanged, userID, contactID)
	return nil
}

// UpdateContactRoles 改写关系角色
func (s *SafetyService) UpdateContactRoles(userID, contactID string, asResponder, asDependent bool) error {
	if err := s.edges.UpdateRoles(userID, contactID, asResponder, asDependent); err != nil {
		return err
	}
	s.events.Append(&models.SafetyEvent{
		UserID: userID,
		PeerID: contactID,
		Kind:   models.EventRelationUpdated,
		Detail: fmt.Sprintf("responder=%t dependent=%t", asResponder, asDependent),
	})
	util.Sig().Emit(models.SigRelationChanged, userID, contactID)
	return nil
}

// RemoveContact 删除双向关系
func (s *SafetyService) RemoveContact(userID, contactID string) error {
	if err := s.edges.DeleteRelationship(userID, contactID); err != nil {
		return err
	}
	s.events.Append(&models.SafetyEvent{
		UserID: userID,
		PeerID: contactID,
		Kind:   models.EventRelationRemoved,
	})
	util.Sig().Emit(models.SigRelationChanged, userID, contactID)
	return nil
}

// Ping 向被照护人发起呼叫
func (s *SafetyService) Ping(userID, contactID string) error {
	if err := s.edges.PingDependent(userID, contactID, s.now()); err != nil {
		return err
	}
	s.events.Append(&models.SafetyEvent{
		UserID: userID,
		PeerID: contactID,
		Kind:   models.EventPingSent,
	})
	util.Sig().Emit(models.SigPingSent, userID, contactID)
	if mon := metrics.GetGlobalMonitor(); mon != nil {
		mon.RecordPing("sent")
	}
	return nil
}

// RespondToPing 响应单个呼叫
func (s *SafetyService) RespondToPing(userID, fromID string) error {
	if err := s.edges.RespondToPing(userID, fromID); err != nil {
		return err
	}
	s.events.Append(&models.SafetyEvent{
		UserID: userID,
		PeerID: fromID,
		Kind:   models.EventPingResponded,
	})
	util.Sig().Emit(models.SigPingResponded, userID, fromID)
	if mon := metrics.GetGlobalMonitor(); mon != nil {
		mon.RecordPing("responded")
	}
	return nil
}

// ClearPing 撤回自己发出的呼叫
func (s *SafetyService) ClearPing(userID, contactID string) error {
	if err := s.edges.ClearPing(userID, contactID); err != nil {
		return err
	}
	s.events.Append(&models.SafetyEvent{
		UserID: userID,
		PeerID: contactID,
		Kind:   models.EventPingCleared,
	})
	util.Sig().Emit(models.SigPingCleared, userID, contactID)
	if mon := metrics.GetGlobalMonitor(); mon != nil {
		mon.RecordPing("cleared")
	}
	return nil
}
