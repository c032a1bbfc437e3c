package repository

import (
	"testing"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/pkg/errors"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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

func seedUser(t *testing.T, db *gorm.DB, id string, interval int64) *models.User {
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

func TestAddRelationshipMirrors(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)

	// bob 是 alice 的照护人
	require.NoError(t, repo.AddRelationship("alice", "bob", true, false))

	forward, err := repo.Get("alice", "bob")
	require.NoError(t, err)
	assert.True(t, forward.IsResponder)
	assert.False(t, forward.IsDependent)

	mirror, err := repo.Get("bob", "alice")
	require.NoError(t, err)
	assert.False(t, mirror.IsResponder)
	assert.True(t, mirror.IsDependent)
}

func TestAddRelationshipRejectsSelf(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)

	err := repo.AddRelationship("alice", "alice", true, false)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestAddRelationshipDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)

	require.NoError(t, repo.AddRelationship("alice", "bob", true, false))
	err := repo.AddRelationship("alice", "bob", false, true)
	assert.True(t, errors.IsAlreadyExists(err))

	// 反向也算重复，镜像边已经存在
	err = repo.AddRelationship("bob", "alice", true, false)
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestAddRelationshipUnknownContact(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)

	err := repo.AddRelationship("alice", "ghost", true, false)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateRolesSyncsMirror(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	require.NoError(t, repo.AddRelationship("alice", "bob", true, false))

	require.NoError(t, repo.UpdateRoles("alice", "bob", true, true))

	mirror, err := repo.Get("bob", "alice")
	require.NoError(t, err)
	assert.True(t, mirror.IsResponder)
	assert.True(t, mirror.IsDependent)
}

func TestUpdateRolesBothFalseRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	require.NoError(t, repo.AddRelationship("alice", "bob", true, false))

	// 两个角色都取消不等于删除，关系原样保留
	err := repo.UpdateRoles("alice", "bob", false, false)
	assert.True(t, errors.IsInvalidArgument(err))

	forward, err := repo.Get("alice", "bob")
	require.NoError(t, err)
	assert.True(t, forward.IsResponder)
	mirror, err := repo.Get("bob", "alice")
	require.NoError(t, err)
	assert.True(t, mirror.IsDependent)
}

func TestPingMirrorsAndOverwrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	// alice 的被照护人是 bob
	require.NoError(t, repo.AddRelationship("alice", "bob", false, true))

	first := time.Now().Add(-time.Minute).Truncate(time.Second)
	require.NoError(t, repo.PingDependent("alice", "bob", first))

	forward, err := repo.Get("alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, forward.OutgoingPing)
	mirror, err := repo.Get("bob", "alice")
	require.NoError(t, err)
	require.NotNil(t, mirror.IncomingPing)
	assert.Equal(t, forward.OutgoingPing.Unix(), mirror.IncomingPing.Unix())

	// 重复呼叫覆盖时间戳
	second := time.Now().Truncate(time.Second)
	require.NoError(t, repo.PingDependent("alice", "bob", second))
	mirror, err = repo.Get("bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, second.Unix(), mirror.IncomingPing.Unix())
}

func TestPingRequiresDependentRole(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	// bob 只是 alice 的照护人，不能被 alice 呼叫
	require.NoError(t, repo.AddRelationship("alice", "bob", true, false))

	err := repo.PingDependent("alice", "bob", time.Now())
	assert.True(t, errors.IsPermissionDenied(err))
}

func TestRespondToPingClearsBothSides(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	require.NoError(t, repo.AddRelationship("alice", "bob", false, true))
	require.NoError(t, repo.PingDependent("alice", "bob", time.Now()))

	require.NoError(t, repo.RespondToPing("bob", "alice"))

	forward, err := repo.Get("alice", "bob")
	require.NoError(t, err)
	assert.Nil(t, forward.OutgoingPing)
	mirror, err := repo.Get("bob", "alice")
	require.NoError(t, err)
	assert.Nil(t, mirror.IncomingPing)

	// 再次响应没有待处理呼叫
	err = repo.RespondToPing("bob", "alice")
	assert.True(t, errors.IsNotFound(err))
}

func TestRespondToAllPings(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	seedUser(t, db, "carol", 3600)
	require.NoError(t, repo.AddRelationship("alice", "carol", false, true))
	require.NoError(t, repo.AddRelationship("bob", "carol", false, true))
	require.NoError(t, repo.PingDependent("alice", "carol", time.Now()))
	require.NoError(t, repo.PingDependent("bob", "carol", time.Now()))

	responded, err := repo.RespondToAllPings("carol")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, responded)

	edge, err := repo.Get("alice", "carol")
	require.NoError(t, err)
	assert.Nil(t, edge.OutgoingPing)
}

func TestClearPing(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	require.NoError(t, repo.AddRelationship("alice", "bob", false, true))
	require.NoError(t, repo.PingDependent("alice", "bob", time.Now()))

	require.NoError(t, repo.ClearPing("alice", "bob"))

	mirror, err := repo.Get("bob", "alice")
	require.NoError(t, err)
	assert.Nil(t, mirror.IncomingPing)

	err = repo.ClearPing("alice", "bob")
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteRelationshipRemovesPings(t *testing.T) {
	db := newTestDB(t)
	repo := NewEdgeRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	require.NoError(t, repo.AddRelationship("alice", "bob", false, true))
	require.NoError(t, repo.PingDependent("alice", "bob", time.Now()))

	require.NoError(t, repo.DeleteRelationship("bob", "alice"))

	_, err := repo.Get("alice", "bob")
	assert.True(t, errors.IsNotFound(err))
	_, err = repo.Get("bob", "alice")
	assert.True(t, errors.IsNotFound(err))
}
