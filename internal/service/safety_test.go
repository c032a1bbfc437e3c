package service

import (
	"testing"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/pkg/errors"
	"SafeCircle/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSafety(t *testing.T, db *gorm.DB) *SafetyService {
	t.Helper()
	return NewSafetyService(
		repository.NewUserRepository(db, 3),
		repository.NewEdgeRepository(db, 3),
		repository.NewEventRepository(db),
	)
}

func TestCheckInRespondsToAllPings(t *testing.T) {
	db := newServiceDB(t)
	svc := newSafety(t, db)
	seedServiceUser(t, db, "alice", 3600)
	seedServiceUser(t, db, "bob", 3600)
	edges := repository.NewEdgeRepository(db, 3)
	require.NoError(t, edges.AddRelationship("bob", "alice", false, true))
	require.NoError(t, edges.PingDependent("bob", "alice", time.Now()))

	var responded []string
	util.Sig().Connect(models.SigPingResponded, func(sender any, params ...any) {
		responded = append(responded, params[0].(string))
	})
	defer util.Sig().Disconnect(models.SigPingResponded)

	user, err := svc.CheckIn("alice")
	require.NoError(t, err)
	require.NotNil(t, user.LastCheckIn)
	assert.Equal(t, []string{"bob"}, responded)

	edge, err := edges.Get("bob", "alice")
	require.NoError(t, err)
	assert.Nil(t, edge.OutgoingPing)
	assert.Equal(t, int64(1), eventCount(t, db, "alice", models.EventCheckIn))
	assert.Equal(t, int64(1), eventCount(t, db, "alice", models.EventPingResponded))
}

func TestPingFlowRecordsEvents(t *testing.T) {
	db := newServiceDB(t)
	svc := newSafety(t, db)
	seedServiceUser(t, db, "alice", 3600)
	seedServiceUser(t, db, "bob", 3600)
	require.NoError(t, svc.AddContact("bob", "alice", false, true))

	require.NoError(t, svc.Ping("bob", "alice"))
	require.NoError(t, svc.ClearPing("bob", "alice"))

	assert.Equal(t, int64(1), eventCount(t, db, "bob", models.EventPingSent))
	assert.Equal(t, int64(1), eventCount(t, db, "bob", models.EventPingCleared))
}

func TestUpdateRolesToNoneRejected(t *testing.T) {
	db := newServiceDB(t)
	svc := newSafety(t, db)
	seedServiceUser(t, db, "alice", 3600)
	seedServiceUser(t, db, "bob", 3600)
	require.NoError(t, svc.AddContact("alice", "bob", true, false))

	// 全部取消角色被拒绝，不落事件也不删关系
	err := svc.UpdateContactRoles("alice", "bob", false, false)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.Equal(t, int64(0), eventCount(t, db, "alice", models.EventRelationRemoved))
	assert.Equal(t, int64(0), eventCount(t, db, "alice", models.EventRelationUpdated))

	require.NoError(t, svc.RemoveContact("alice", "bob"))
	assert.Equal(t, int64(1), eventCount(t, db, "alice", models.EventRelationRemoved))
}
