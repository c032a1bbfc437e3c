package service

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/pkg/errors"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.ContactEdge{},
		&models.AlertState{}, &models.SafetyEvent{},
	))
	return db
}

func seedServiceUser(t *testing.T, db *gorm.DB, id string, interval int64) *models.User {
	t.Helper()
	user := &models.User{
		ID:              id,
		DisplayName:     id,
		Email:           id + "@example.com",
		Enabled:         true,
		CheckInInterval: interval,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newMachine(t *testing.T, db *gorm.DB, resetWait, holdWait time.Duration) *AlertMachine {
	t.Helper()
	alerts := repository.NewAlertRepository(db, 3)
	events := repository.NewEventRepository(db)
	m := NewAlertMachine(alerts, events, 0.25, resetWait, holdWait)
	t.Cleanup(m.Stop)
	return m
}

func TestArmAccumulatesAndActivates(t *testing.T) {
	db := newServiceDB(t)
	seedServiceUser(t, db, "alice", 3600)
	m := newMachine(t, db, time.Minute, time.Millisecond)

	var activated bool
	for i := 0; i < 3; i++ {
		p, done, err := m.Arm("alice")
		require.NoError(t, err)
		assert.False(t, done)
		assert.InDelta(t, 0.25*float64(i+1), p, 1e-9)
	}
	p, activated, err := m.Arm("alice")
	require.NoError(t, err)
	assert.True(t, activated)
	assert.Equal(t, 1.0, p)

	alerts := repository.NewAlertRepository(db, 3)
	state, err := alerts.Get("alice")
	require.NoError(t, err)
	assert.True(t, state.Active)

	// 激活后进度归零
	assert.Equal(t, 0.0, m.Progress("alice"))
}

func TestArmProgressResetsAfterTimeout(t *testing.T) {
	db := newServiceDB(t)
	seedServiceUser(t, db, "alice", 3600)
	m := newMachine(t, db, 40*time.Millisecond, time.Millisecond)

	_, _, err := m.Arm("alice")
	require.NoError(t, err)
	_, _, err = m.Arm("alice")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.Progress("alice"), 1e-9)

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0.0, m.Progress("alice"))

	// 超时后重新从头累积
	p, done, err := m.Arm("alice")
	require.NoError(t, err)
	assert.False(t, done)
	assert.InDelta(t, 0.25, p, 1e-9)
}

func TestDisarmRequiresHold(t *testing.T) {
	db := newServiceDB(t)
	seedServiceUser(t, db, "alice", 3600)
	m := newMachine(t, db, time.Minute, 30*time.Millisecond)

	for i := 0; i < 4; i++ {
		_, _, err := m.Arm("alice")
		require.NoError(t, err)
	}

	// 没有 BeginDisarm 直接确认
	err := m.ConfirmDisarm("alice")
	assert.True(t, errors.IsInvalidArgument(err))

	// 松手太早
	require.NoError(t, m.BeginDisarm("alice"))
	err = m.ConfirmDisarm("alice")
	assert.True(t, errors.IsInvalidArgument(err))

	// 足够的长按时长后解除
	require.NoError(t, m.BeginDisarm("alice"))
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, m.ConfirmDisarm("alice"))

	alerts := repository.NewAlertRepository(db, 3)
	state, err := alerts.Get("alice")
	require.NoError(t, err)
	assert.False(t, state.Active)
}

func TestBeginDisarmWithoutActiveAlert(t *testing.T) {
	db := newServiceDB(t)
	seedServiceUser(t, db, "alice", 3600)
	m := newMachine(t, db, time.Minute, time.Millisecond)

	err := m.BeginDisarm("alice")
	assert.True(t, errors.IsNotFound(err))
}

func TestCancelDisarmDropsHold(t *testing.T) {
	db := newServiceDB(t)
	seedServiceUser(t, db, "alice", 3600)
	m := newMachine(t, db, time.Minute, time.Millisecond)

	for i := 0; i < 4; i++ {
		_, _, err := m.Arm("alice")
		require.NoError(t, err)
	}
	require.NoError(t, m.BeginDisarm("alice"))
	m.CancelDisarm("alice")
	time.Sleep(5 * time.Millisecond)

	err := m.ConfirmDisarm("alice")
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestArmWhileActiveIsNoOp(t *testing.T) {
	db := newServiceDB(t)
	seedServiceUser(t, db, "alice", 3600)
	m := newMachine(t, db, time.Minute, time.Millisecond)

	for i := 0; i < 4; i++ {
		_, _, err := m.Arm("alice")
		require.NoError(t, err)
	}
	// 报警已激活，后续按压不累积进度也不重复激活
	for i := 0; i < 4; i++ {
		p, activated, err := m.Arm("alice")
		require.NoError(t, err)
		assert.Equal(t, 0.0, p)
		assert.False(t, activated)
	}
	assert.Equal(t, 0.0, m.Progress("alice"))

	state, err := repository.NewAlertRepository(db, 3).Get("alice")
	require.NoError(t, err)
	assert.True(t, state.Active)
}

func TestArmSingleFlightConflict(t *testing.T) {
	// 并发用例需要多个连接看到同一个库，用临时文件库代替内存库
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "safecircle.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.ContactEdge{},
		&models.AlertState{}, &models.SafetyEvent{},
	))
	seedServiceUser(t, db, "alice", 3600)
	m := newMachine(t, db, time.Minute, time.Millisecond)

	// 卡住报警状态的写入，制造一个停在半路的激活请求
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("hold_alert_state_write", func(tx *gorm.DB) {
			if tx.Statement.Table == "alert_states" {
				once.Do(func() { close(entered) })
				<-release
			}
		}))

	for i := 0; i < 3; i++ {
		_, _, err := m.Arm("alice")
		require.NoError(t, err)
	}

	var (
		activated bool
		armErr    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, activated, armErr = m.Arm("alice")
	}()
	<-entered

	// 第一个激活请求还没落库，第二次按压直接被拒
	_, _, err = m.Arm("alice")
	assert.True(t, errors.IsConflict(err))

	close(release)
	<-done
	require.NoError(t, armErr)
	assert.True(t, activated)
}
