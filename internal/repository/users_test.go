package repository

import (
	"testing"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserValidation(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, 3)

	err := repo.Create(&models.User{Email: "a@example.com", CheckInInterval: 0})
	assert.True(t, errors.IsInvalidArgument(err))

	require.NoError(t, repo.Create(&models.User{Email: "a@example.com", CheckInInterval: 3600}))
	err = repo.Create(&models.User{Email: "a@example.com", CheckInInterval: 3600})
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestRecordCheckInDerivesExpiry(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, 3)
	seedUser(t, db, "alice", 3600)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, repo.RecordCheckIn("alice", now))

	user, err := repo.GetByID("alice")
	require.NoError(t, err)
	require.NotNil(t, user.ExpiresAt())
	assert.Equal(t, now.Add(time.Hour).Unix(), user.ExpiresAt().Unix())
	assert.False(t, user.IsExpired(now.Add(59*time.Minute)))
	assert.True(t, user.IsExpired(now.Add(time.Hour)))
}

func TestRecordCheckInUnknownUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, 3)

	err := repo.RecordCheckIn("ghost", time.Now())
	assert.True(t, errors.IsNotFound(err))
}

func TestSetIntervalRejectsNonPositive(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, 3)
	seedUser(t, db, "alice", 3600)

	assert.True(t, errors.IsInvalidArgument(repo.SetInterval("alice", 0)))
	assert.True(t, errors.IsInvalidArgument(repo.SetInterval("alice", -5)))
	require.NoError(t, repo.SetInterval("alice", 7200))
}

func TestSetIntervalPrunesStaleOffsets(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	require.NoError(t, repo.SetReminderOffsets("alice", []int64{300, 1800}))

	// 新周期 600 秒，1800 的提醒偏移失效
	require.NoError(t, repo.SetInterval("alice", 600))

	user, err := repo.GetByID("alice")
	require.NoError(t, err)
	assert.Equal(t, []int64{300}, user.Offsets())
}

func TestSetReminderOffsetsValidation(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, 3)
	seedUser(t, db, "alice", 3600)

	assert.True(t, errors.IsInvalidArgument(repo.SetReminderOffsets("alice", []int64{0})))
	assert.True(t, errors.IsInvalidArgument(repo.SetReminderOffsets("alice", []int64{3600})))
	require.NoError(t, repo.SetReminderOffsets("alice", []int64{300, 900}))
}

func TestClaimExpiryEpochSingleWinner(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, 3)
	seedUser(t, db, "alice", 3600)

	won, err := repo.ClaimExpiryEpoch("alice", 100)
	require.NoError(t, err)
	assert.True(t, won)

	// 同一纪元第二次认领失败
	won, err = repo.ClaimExpiryEpoch("alice", 100)
	require.NoError(t, err)
	assert.False(t, won)

	// 更早的纪元也认领不到
	won, err = repo.ClaimExpiryEpoch("alice", 99)
	require.NoError(t, err)
	assert.False(t, won)

	// 新纪元重新开放
	won, err = repo.ClaimExpiryEpoch("alice", 101)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestListExpired(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, 3)
	now := time.Now()

	fresh := seedUser(t, db, "fresh", 3600)
	checkIn := now.Add(-time.Minute)
	require.NoError(t, db.Model(fresh).Update("last_check_in", checkIn).Error)

	stale := seedUser(t, db, "stale", 3600)
	old := now.Add(-2 * time.Hour)
	require.NoError(t, db.Model(stale).Update("last_check_in", old).Error)

	// 从未打卡的用户视为过期
	seedUser(t, db, "never", 3600)

	expired, err := repo.ListExpired(now)
	require.NoError(t, err)
	ids := make([]string, 0, len(expired))
	for _, u := range expired {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{"stale", "never"}, ids)
}
