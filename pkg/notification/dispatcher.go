package notification

import (
	"context"
	"math/rand"
	"time"

	"SafeCircle/pkg/logger"
	"SafeCircle/pkg/metrics"
	"SafeCircle/pkg/scheduler"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DispatcherConfig 投递配置
type DispatcherConfig struct {
	Retries      int           // 单通道最大重试次数
	RetryBackoff time.Duration // 首次重试间隔，指数退避加抖动
}

// dispatcher 将通知扇出到所有通道，失败时有限重试后丢弃并记日志
type dispatcher struct {
	cfg      DispatcherConfig
	channels []Channel
	timers   *scheduler.TimerSet
}

// NewDispatcher 创建通知分发器
func NewDispatcher(cfg DispatcherConfig, channels ...Channel) Dispatcher {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	return &dispatcher{
		cfg:      cfg,
		channels: channels,
		timers:   scheduler.NewTimerSet(),
	}
}

// SendNow 立即向所有通道投递
func (d *dispatcher) SendNow(ctx context.Context, p Payload) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	mon := metrics.GetGlobalMonitor()
	var lastErr error
	for _, ch := range d.channels {
		if err := d.deliverWithRetry(ctx, ch, p); err != nil {
			lastErr = err
			logger.Warn("notification dropped",
				zap.String("channel", ch.Name()),
				zap.String("notification_id", p.ID),
				zap.String("user_id", p.UserID),
				zap.String("kind", p.Kind),
				zap.Error(err),
			)
			if mon != nil {
				mon.RecordNotification(ch.Name(), "dropped")
			}
			continue
		}
		if mon != nil {
			mon.RecordNotification(ch.Name(), "delivered")
		}
	}
	return lastErr
}

// ScheduleAt 定时投递，返回可取消句柄
func (d *dispatcher) ScheduleAt(at time.Time, p Payload) (Handle, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	h := Handle(p.ID)

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	d.timers.Start(string(h), delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = d.SendNow(ctx, p)
	})
	return h, nil
}

// Cancel 取消一条尚未投递的定时通知
func (d *dispatcher) Cancel(h Handle) {
	d.timers.Cancel(string(h))
}

func (d *dispatcher) deliverWithRetry(ctx context.Context, ch Channel, p Payload) error {
	backoff := d.cfg.RetryBackoff
	var err error
	for attempt := 0; attempt <= d.cfg.Retries; attempt++ {
		if attempt > 0 {
			// 指数退避加随机抖动
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff + jitter):
			}
			backoff *= 2
		}
		if err = ch.Deliver(ctx, p); err == nil {
			return nil
		}
	}
	return err
}
