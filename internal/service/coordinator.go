package service

import (
	"context"
	"fmt"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/pkg/cache"
	"SafeCircle/pkg/logger"
	"SafeCircle/pkg/metrics"
	"SafeCircle/pkg/scheduler"
	"SafeCircle/pkg/util"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// ContactStatus 联系人视图的一行
type ContactStatus struct {
	ContactID    string            `json:"contact_id"`
	DisplayName  string            `json:"display_name"`
	IsResponder  bool              `json:"is_responder"`
	IsDependent  bool              `json:"is_dependent"`
	Status       models.EdgeStatus `json:"status"`
	IncomingPing *time.Time        `json:"incoming_ping,omitempty"`
	OutgoingPing *time.Time        `json:"outgoing_ping,omitempty"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
}

// StatusSnapshot 某用户的全量状态视图
type StatusSnapshot struct {
	UserID      string          `json:"user_id"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	Expired     bool            `json:"expired"`
	AlertActive bool            `json:"alert_active"`
	Contacts    []ContactStatus `json:"contacts"`
}

// Coordinator 安全巡检协调器。周期性扫描所有启用用户：
//   - 到期前按提醒偏移发送打卡提醒，用缓存原子自增去重
//   - 打卡过期时通知照护人，用纪元标记保证同一次过期只通知一次
//   - 边状态发生跃迁时发布 status.changed 信号驱动实时推送
//
// 所有判定都在扫描时刻用最新数据推导，从不信任存储的过期标志。
type Coordinator struct {
	users    *repository.UserRepository
	edges    *repository.EdgeRepository
	alerts   *repository.AlertRepository
	events   *repository.EventRepository
	cache    cache.Cache
	statuses *lru.Cache[string, models.EdgeStatus]
	sched    *scheduler.Scheduler
	interval time.Duration
	now      func() time.Time
}

func NewCoordinator(users *repository.UserRepository, edges *repository.EdgeRepository,
	alerts *repository.AlertRepository, events *repository.EventRepository,
	c cache.Cache, interval time.Duration) *Coordinator {
	statuses, _ := lru.New[string, models.EdgeStatus](8192)
	return &Coordinator{
		users:    users,
		edges:    edges,
		alerts:   alerts,
		events:   events,
		cache:    c,
		statuses: statuses,
		sched:    scheduler.New(),
		interval: interval,
		now:      time.Now,
	}
}

// Start 启动周期巡检
func (c *Coordinator) Start() {
	c.sched.Every(c.interval, scheduler.FuncJob(func(ctx context.Context) {
		if err := c.Sweep(ctx); err != nil {
			logger.Error("sweep failed", zap.Error(err))
		}
	}))
}

// Stop 停止巡检
func (c *Coordinator) Stop() {
	c.sched.Stop()
}

// StatusFor 组装某用户的状态视图
func (c *Coordinator) StatusFor(userID string) (*StatusSnapshot, error) {
	user, err := c.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	alert, err := c.alerts.Get(userID)
	if err != nil {
		return nil, err
	}
	edges, err := c.edges.ListByOwner(userID)
	if err != nil {
		return nil, err
	}
	now := c.now()
	snapshot := &StatusSnapshot{
		UserID:      userID,
		ExpiresAt:   user.ExpiresAt(),
		Expired:     user.IsExpired(now),
		AlertActive: alert.Active,
		Contacts:    make([]ContactStatus, 0, len(edges)),
	}
	for _, edge := range edges {
		contact, err := c.users.GetByID(edge.ContactID)
		if err != nil {
			contact = nil
		}
		row := ContactStatus{
			ContactID:    edge.ContactID,
			IsResponder:  edge.IsResponder,
			IsDependent:  edge.IsDependent,
			Status:       edge.DeriveStatus(contact, now),
			IncomingPing: edge.IncomingPing,
			OutgoingPing: edge.OutgoingPing,
		}
		if contact != nil {
			row.DisplayName = contact.DisplayName
			if edge.IsDependent {
				row.ExpiresAt = contact.ExpiresAt()
			}
		}
		snapshot.Contacts = append(snapshot.Contacts, row)
	}
	return snapshot, nil
}

// Sweep 执行一轮巡检
func (c *Coordinator) Sweep(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		if mon := metrics.GetGlobalMonitor(); mon != nil {
			result := "ok"
			if err != nil {
				result = "error"
			}
			mon.RecordSweep(result, time.Since(started))
		}
	}()

	now := c.now()
	users, err := c.users.ListEnabled()
	if err != nil {
		return err
	}
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	// 过期候选由仓储筛选，提醒扫描仍走全量启用用户
	expired, err := c.users.ListExpired(now)
	if err != nil {
		return err
	}
	for i := range expired {
		c.sweepExpiry(&expired[i])
	}
	for i := range users {
		c.sweepReminders(ctx, &users[i], now)
	}
	return c.sweepStatusChanges(byID, now)
}

func (c *Coordinator) sweepExpiry(user *models.User) {
	exp := user.ExpiresAt()
	if exp == nil {
		// 从未打卡的用户没有可认领的纪元，注册时的首次打卡由 handler 负责
		return
	}
	epoch := exp.Unix()
	won, err := c.users.ClaimExpiryEpoch(user.ID, epoch)
	if err != nil {
		logger.Error("claim expiry epoch", zap.String("user", user.ID), zap.Error(err))
		return
	}
	if !won {
		return
	}
	responders, err := c.edges.ListResponders(user.ID)
	if err != nil {
		logger.Error("list responders", zap.String("user", user.ID), zap.Error(err))
		return
	}
	c.events.Append(&models.SafetyEvent{
		UserID: user.ID,
		Kind:   models.EventCheckInExpired,
		Detail: fmt.Sprintf("check-in overdue since %s", exp.Format(time.RFC3339)),
	})
	util.Sig().Emit(models.SigUserExpired, user, responders)
	logger.Info("check-in expired",
		zap.String("user", user.ID), zap.Int("responders", len(responders)))
}

func (c *Coordinator) sweepReminders(ctx context.Context, user *models.User, now time.Time) {
	exp := user.ExpiresAt()
	if exp == nil || !now.Before(*exp) {
		// 已过期的用户走照护人通知，不再发提醒
		return
	}
	epoch := exp.Unix()

	for _, offset := range user.Offsets() {
		remindAt := exp.Add(-time.Duration(offset) * time.Second)
		if now.Before(remindAt) {
			continue
		}
		// 去重标记只存缓存：本地缓存淘汰或进程重启后同一纪元的提醒可能重发，
		// 过期通知才有 LastExpiryEpoch 的落库护栏
		key := fmt.Sprintf("reminder:%s:%d:%d", user.ID, epoch, offset)
		n, err := c.cache.Increment(ctx, key, 1)
		if err != nil {
			logger.Warn("reminder dedup unavailable", zap.String("key", key), zap.Error(err))
			continue
		}
		if n != 1 {
			continue
		}
		c.events.Append(&models.SafetyEvent{
			UserID: user.ID,
			Kind:   models.EventReminderDelivered,
			Detail: fmt.Sprintf("reminder %ds before expiry", offset),
		})
		util.Sig().Emit(models.SigReminderDue, user, offset, *exp)
		if mon := metrics.GetGlobalMonitor(); mon != nil {
			mon.RecordReminder()
		}
	}
}

func (c *Coordinator) sweepStatusChanges(byID map[string]*models.User, now time.Time) error {
	edges, err := c.edges.ListAll()
	if err != nil {
		return err
	}
	for _, edge := range edges {
		status := edge.DeriveStatus(byID[edge.ContactID], now)
		key := edge.OwnerID + ":" + edge.ContactID
		prev, seen := c.statuses.Get(key)
		c.statuses.Add(key, status)
		if seen && prev != status {
			util.Sig().Emit(models.SigStatusChanged, edge.OwnerID, edge.ContactID, status)
		}
	}
	return nil
}
