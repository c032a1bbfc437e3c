package repository

import (
	"testing"
	"time"

	"SafeCircle/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivateAlertMirrorsToResponders(t *testing.T) {
	db := newTestDB(t)
	edges := NewEdgeRepository(db, 3)
	alerts := NewAlertRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	seedUser(t, db, "carol", 3600)
	// bob 和 carol 都照护 alice
	require.NoError(t, edges.AddRelationship("alice", "bob", true, false))
	require.NoError(t, edges.AddRelationship("alice", "carol", true, false))

	responders, err := alerts.Activate("alice", time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, responders)

	state, err := alerts.Get("alice")
	require.NoError(t, err)
	assert.True(t, state.Active)
	require.NotNil(t, state.ActivatedAt)

	edge, err := edges.Get("bob", "alice")
	require.NoError(t, err)
	assert.True(t, edge.AlertMirror)
}

func TestActivateAlertTwice(t *testing.T) {
	db := newTestDB(t)
	alerts := NewAlertRepository(db, 3)
	seedUser(t, db, "alice", 3600)

	_, err := alerts.Activate("alice", time.Now())
	require.NoError(t, err)
	_, err = alerts.Activate("alice", time.Now())
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestDeactivateAlertClearsMirrors(t *testing.T) {
	db := newTestDB(t)
	edges := NewEdgeRepository(db, 3)
	alerts := NewAlertRepository(db, 3)
	seedUser(t, db, "alice", 3600)
	seedUser(t, db, "bob", 3600)
	require.NoError(t, edges.AddRelationship("alice", "bob", true, false))
	_, err := alerts.Activate("alice", time.Now())
	require.NoError(t, err)

	responders, err := alerts.Deactivate("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, responders)

	state, err := alerts.Get("alice")
	require.NoError(t, err)
	assert.False(t, state.Active)
	assert.Nil(t, state.ActivatedAt)

	edge, err := edges.Get("bob", "alice")
	require.NoError(t, err)
	assert.False(t, edge.AlertMirror)
}

func TestDeactivateWithoutActiveAlert(t *testing.T) {
	db := newTestDB(t)
	alerts := NewAlertRepository(db, 3)
	seedUser(t, db, "alice", 3600)

	_, err := alerts.Deactivate("alice")
	assert.True(t, errors.IsNotFound(err))
}

func TestGetAlertDefaultsInactive(t *testing.T) {
	db := newTestDB(t)
	alerts := NewAlertRepository(db, 3)

	state, err := alerts.Get("nobody")
	require.NoError(t, err)
	assert.False(t, state.Active)
}
