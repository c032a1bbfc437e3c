package notification

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"SafeCircle/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChannel 记录投递次数，fail 为真时永远投递失败
type stubChannel struct {
	name     string
	fail     bool
	attempts atomic.Int32
	got      chan Payload
}

func newStubChannel(name string, fail bool) *stubChannel {
	return &stubChannel{name: name, fail: fail, got: make(chan Payload, 8)}
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Deliver(ctx context.Context, p Payload) error {
	c.attempts.Add(1)
	if c.fail {
		return errors.Unavailable("channel %s unreachable", c.name)
	}
	c.got <- p
	return nil
}

func waitPayload(t *testing.T, ch <-chan Payload) Payload {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered in time")
		return Payload{}
	}
}

func TestSendNowDelivers(t *testing.T) {
	ch := newStubChannel("push", false)
	d := NewDispatcher(DispatcherConfig{Retries: 2, RetryBackoff: time.Millisecond}, ch)

	err := d.SendNow(context.Background(), Payload{
		UserID: "alice",
		Kind:   KindCheckInReminder,
		Title:  "该签到了",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), ch.attempts.Load())

	p := waitPayload(t, ch.got)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "alice", p.UserID)
}

func TestSendNowRetriesThenDrops(t *testing.T) {
	bad := newStubChannel("sms", true)
	good := newStubChannel("push", false)
	d := NewDispatcher(DispatcherConfig{Retries: 2, RetryBackoff: time.Millisecond}, bad, good)

	err := d.SendNow(context.Background(), Payload{UserID: "alice", Kind: KindAlertActivated})
	assert.True(t, errors.IsUnavailable(err))

	// 初次投递加 Retries 次重试后丢弃
	assert.Equal(t, int32(3), bad.attempts.Load())

	// 一个通道被丢弃不影响其他通道
	p := waitPayload(t, good.got)
	assert.Equal(t, "alice", p.UserID)
}

func TestScheduleAtDelivers(t *testing.T) {
	ch := newStubChannel("push", false)
	d := NewDispatcher(DispatcherConfig{Retries: 1, RetryBackoff: time.Millisecond}, ch)

	h, err := d.ScheduleAt(time.Now().Add(20*time.Millisecond), Payload{UserID: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, string(h))

	p := waitPayload(t, ch.got)
	assert.Equal(t, string(h), p.ID)
}

func TestCancelStopsScheduledDelivery(t *testing.T) {
	ch := newStubChannel("push", false)
	d := NewDispatcher(DispatcherConfig{Retries: 1, RetryBackoff: time.Millisecond}, ch)

	h, err := d.ScheduleAt(time.Now().Add(100*time.Millisecond), Payload{UserID: "alice"})
	require.NoError(t, err)
	d.Cancel(h)

	select {
	case <-ch.got:
		t.Fatal("cancelled notification was delivered")
	case <-time.After(250 * time.Millisecond):
	}
	assert.Equal(t, int32(0), ch.attempts.Load())
}
