package service

import (
	"sync"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/pkg/errors"
	"SafeCircle/pkg/metrics"
	"SafeCircle/pkg/scheduler"
	"SafeCircle/pkg/util"
)

// AlertMachine 手动报警的武装/解除状态机。
//
// 武装：连续按压累积进度，每次 +increment，停顿超过 resetTimeout 进度
// 清零，攒满 1.0 才真正激活报警，防止误触。
// 解除：先 BeginDisarm 再在至少 holdDuration 之后 ConfirmDisarm，
// 模拟客户端长按。
// 激活和解除都是单飞：同一用户的请求在途时再次进入返回 Conflict。
type AlertMachine struct {
	alerts    *repository.AlertRepository
	events    *repository.EventRepository
	timers    *scheduler.TimerSet
	increment float64
	resetWait time.Duration
	holdWait  time.Duration

	mu       sync.Mutex
	progress map[string]float64
	holds    map[string]time.Time
	inflight map[string]bool

	now func() time.Time
}

func NewAlertMachine(alerts *repository.AlertRepository, events *repository.EventRepository,
	increment float64, resetWait, holdWait time.Duration) *AlertMachine {
	if increment <= 0 || increment > 1 {
		increment = 0.25
	}
	return &AlertMachine{
		alerts:    alerts,
		events:    events,
		timers:    scheduler.NewTimerSet(),
		increment: increment,
		resetWait: resetWait,
		holdWait:  holdWait,
		progress:  make(map[string]float64),
		holds:     make(map[string]time.Time),
		inflight:  make(map[string]bool),
		now:       time.Now,
	}
}

// Arm 累积一次武装进度。返回当前进度和是否已激活。
func (m *AlertMachine) Arm(userID string) (float64, bool, error) {
	state, err := m.alerts.Get(userID)
	if err != nil {
		return 0, false, err
	}
	if state.Active {
		// 报警已激活，按压不累积进度也不起复位计时器
		return 0, false, nil
	}
	m.mu.Lock()
	if m.inflight[userID] {
		m.mu.Unlock()
		return 0, false, errors.Conflict("alert request for %s still in flight", userID)
	}
	p := m.progress[userID] + m.increment
	if p < 1.0 {
		m.progress[userID] = p
		m.mu.Unlock()
		m.timers.Start("alert-arm:"+userID, m.resetWait, func() {
			m.mu.Lock()
			delete(m.progress, userID)
			m.mu.Unlock()
		})
		return p, false, nil
	}

	// 攒满，激活报警
	m.inflight[userID] = true
	delete(m.progress, userID)
	m.mu.Unlock()
	m.timers.Cancel("alert-arm:" + userID)
	defer m.release(userID)

	now := m.now()
	responders, err := m.alerts.Activate(userID, now)
	if errors.IsAlreadyExists(err) {
		// 并发窗口里别处先激活了，按压不产生任何变化
		return 0, false, nil
	}
	if err != nil {
		return 1.0, false, err
	}
	m.events.Append(&models.SafetyEvent{
		UserID: userID,
		Kind:   models.EventAlertActivated,
		Detail: "manual alert activated",
	})
	util.Sig().Emit(models.SigAlertActivated, userID, responders)
	if mon := metrics.GetGlobalMonitor(); mon != nil {
		mon.RecordAlert("activated")
	}
	return 1.0, true, nil
}

// Progress 返回当前武装进度
func (m *AlertMachine) Progress(userID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress[userID]
}

// BeginDisarm 开始长按解除。重复调用重置起点。
func (m *AlertMachine) BeginDisarm(userID string) error {
	state, err := m.alerts.Get(userID)
	if err != nil {
		return err
	}
	if !state.Active {
		return errors.NotFound("no active alert for %s", userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[userID] {
		return errors.Conflict("alert request for %s still in flight", userID)
	}
	m.holds[userID] = m.now()
	return nil
}

// ConfirmDisarm 校验长按时长并解除报警
func (m *AlertMachine) ConfirmDisarm(userID string) error {
	m.mu.Lock()
	started, ok := m.holds[userID]
	if !ok {
		m.mu.Unlock()
		return errors.InvalidArgument("disarm was not started")
	}
	if m.now().Sub(started) < m.holdWait {
		m.mu.Unlock()
		return errors.InvalidArgument("hold released too early, need %s", m.holdWait)
	}
	if m.inflight[userID] {
		m.mu.Unlock()
		return errors.Conflict("alert request for %s still in flight", userID)
	}
	m.inflight[userID] = true
	delete(m.holds, userID)
	m.mu.Unlock()
	defer m.release(userID)

	responders, err := m.alerts.Deactivate(userID)
	if err != nil {
		return err
	}
	m.events.Append(&models.SafetyEvent{
		UserID: userID,
		Kind:   models.EventAlertDeactivated,
		Detail: "manual alert deactivated",
	})
	util.Sig().Emit(models.SigAlertDeactivated, userID, responders)
	if mon := metrics.GetGlobalMonitor(); mon != nil {
		mon.RecordAlert("deactivated")
	}
	return nil
}

// CancelDisarm 放弃长按
func (m *AlertMachine) CancelDisarm(userID string) {
	m.mu.Lock()
	delete(m.holds, userID)
	m.mu.Unlock()
}

func (m *AlertMachine) release(userID string) {
	m.mu.Lock()
	delete(m.inflight, userID)
	m.mu.Unlock()
}

// Stop 停止全部武装回零定时器
func (m *AlertMachine) Stop() {
	m.timers.StopAll()
}
