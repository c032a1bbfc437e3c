package service

import (
	"context"
	"testing"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/pkg/cache"
	"SafeCircle/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCoordinator(t *testing.T, db *gorm.DB) *Coordinator {
	t.Helper()
	c := NewCoordinator(
		repository.NewUserRepository(db, 3),
		repository.NewEdgeRepository(db, 3),
		repository.NewAlertRepository(db, 3),
		repository.NewEventRepository(db),
		cache.NewLocalCache(cache.LocalConfig{MaxSize: 128, DefaultExpiration: time.Minute, CleanupInterval: time.Minute}),
		time.Minute,
	)
	t.Cleanup(c.Stop)
	return c
}

func eventCount(t *testing.T, db *gorm.DB, userID, kind string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.SafetyEvent{}).
		Where("user_id = ? AND kind = ?", userID, kind).Count(&n).Error)
	return n
}

func TestSweepNotifiesExpiryOncePerEpoch(t *testing.T) {
	db := newServiceDB(t)
	c := newCoordinator(t, db)
	user := seedServiceUser(t, db, "alice", 3600)
	checkIn := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(user).Update("last_check_in", checkIn).Error)

	var notified []string
	util.Sig().Connect(models.SigUserExpired, func(sender any, params ...any) {
		notified = append(notified, sender.(*models.User).ID)
	})
	defer util.Sig().Disconnect(models.SigUserExpired)

	require.NoError(t, c.Sweep(context.Background()))
	require.NoError(t, c.Sweep(context.Background()))
	require.NoError(t, c.Sweep(context.Background()))

	// 同一次过期只通知一次
	assert.Equal(t, []string{"alice"}, notified)
	assert.Equal(t, int64(1), eventCount(t, db, "alice", models.EventCheckInExpired))
}

func TestSweepReopensAfterNewCheckIn(t *testing.T) {
	db := newServiceDB(t)
	c := newCoordinator(t, db)
	user := seedServiceUser(t, db, "alice", 3600)
	require.NoError(t, db.Model(user).Update("last_check_in", time.Now().Add(-2*time.Hour)).Error)

	require.NoError(t, c.Sweep(context.Background()))

	// 重新打卡后再次过期，新纪元重新通知
	require.NoError(t, db.Model(user).Update("last_check_in", time.Now().Add(-90*time.Minute)).Error)
	require.NoError(t, c.Sweep(context.Background()))

	assert.Equal(t, int64(2), eventCount(t, db, "alice", models.EventCheckInExpired))
}

func TestSweepSkipsNeverCheckedIn(t *testing.T) {
	db := newServiceDB(t)
	c := newCoordinator(t, db)
	seedServiceUser(t, db, "alice", 3600)

	require.NoError(t, c.Sweep(context.Background()))
	assert.Equal(t, int64(0), eventCount(t, db, "alice", models.EventCheckInExpired))
}

func TestSweepRemindersDeduped(t *testing.T) {
	db := newServiceDB(t)
	c := newCoordinator(t, db)
	user := seedServiceUser(t, db, "alice", 3600)
	require.NoError(t, user.SetOffsets([]int64{1800}))
	require.NoError(t, db.Model(user).Updates(map[string]any{
		"reminder_offsets": user.ReminderOffsets,
		"last_check_in":    time.Now().Add(-45 * time.Minute), // 距过期 15 分钟
	}).Error)

	var reminders int
	util.Sig().Connect(models.SigReminderDue, func(sender any, params ...any) {
		reminders++
	})
	defer util.Sig().Disconnect(models.SigReminderDue)

	require.NoError(t, c.Sweep(context.Background()))
	require.NoError(t, c.Sweep(context.Background()))

	assert.Equal(t, 1, reminders)
	assert.Equal(t, int64(1), eventCount(t, db, "alice", models.EventReminderDelivered))
}

func TestSweepEmitsStatusChanges(t *testing.T) {
	db := newServiceDB(t)
	c := newCoordinator(t, db)
	alice := seedServiceUser(t, db, "alice", 3600)
	seedServiceUser(t, db, "bob", 3600)
	edges := repository.NewEdgeRepository(db, 3)
	// bob 照护 alice
	require.NoError(t, edges.AddRelationship("alice", "bob", true, false))
	require.NoError(t, db.Model(alice).Update("last_check_in", time.Now()).Error)

	type change struct {
		owner, contact string
		status         models.EdgeStatus
	}
	var changes []change
	util.Sig().Connect(models.SigStatusChanged, func(sender any, params ...any) {
		changes = append(changes, change{
			owner:   sender.(string),
			contact: params[0].(string),
			status:  params[1].(models.EdgeStatus),
		})
	})
	defer util.Sig().Disconnect(models.SigStatusChanged)

	// 第一轮建立基线，不算跃迁
	require.NoError(t, c.Sweep(context.Background()))
	assert.Empty(t, changes)

	// alice 的打卡过期，bob 看到的边跃迁为 non_responsive
	require.NoError(t, db.Model(alice).Update("last_check_in", time.Now().Add(-2*time.Hour)).Error)
	require.NoError(t, c.Sweep(context.Background()))

	require.Len(t, changes, 1)
	assert.Equal(t, "bob", changes[0].owner)
	assert.Equal(t, "alice", changes[0].contact)
	assert.Equal(t, models.StatusNonResponsive, changes[0].status)
}

func TestStatusForDerivation(t *testing.T) {
	db := newServiceDB(t)
	c := newCoordinator(t, db)
	alice := seedServiceUser(t, db, "alice", 3600)
	seedServiceUser(t, db, "bob", 3600)
	edges := repository.NewEdgeRepository(db, 3)
	alerts := repository.NewAlertRepository(db, 3)
	require.NoError(t, edges.AddRelationship("alice", "bob", true, false))
	require.NoError(t, db.Model(alice).Update("last_check_in", time.Now().Add(-2*time.Hour)).Error)

	snap, err := c.StatusFor("bob")
	require.NoError(t, err)
	require.Len(t, snap.Contacts, 1)
	assert.Equal(t, models.StatusNonResponsive, snap.Contacts[0].Status)
	assert.True(t, snap.Contacts[0].IsDependent)

	// 手动报警优先级高于打卡过期
	_, err = alerts.Activate("alice", time.Now())
	require.NoError(t, err)
	snap, err = c.StatusFor("bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusManualAlert, snap.Contacts[0].Status)

	aliceSnap, err := c.StatusFor("alice")
	require.NoError(t, err)
	assert.True(t, aliceSnap.AlertActive)
	assert.True(t, aliceSnap.Expired)
}
