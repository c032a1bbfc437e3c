package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(id, userID string, hub *Hub) *Connection {
	return &Connection{
		ID:       id,
		UserID:   userID,
		IsAlive:  true,
		Send:     make(chan []byte, 8),
		Groups:   make(map[string]bool),
		Metadata: make(map[string]interface{}),
		Hub:      hub,
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	assert.NotNil(t, hub)
	assert.Equal(t, int64(100000), hub.config.MaxConnections)
	assert.Equal(t, 30*time.Second, hub.config.HeartbeatInterval)

	hub.Close()
}

func TestHubConnectionManagement(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConn("conn_alice_1", "alice", hub)

	hub.register <- conn
	time.Sleep(100 * time.Millisecond) // 等待处理

	assert.Equal(t, int64(1), hub.GetConnectionCount())
	assert.Equal(t, 1, hub.GetUserConnections("alice"))

	hub.unregister <- conn
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, int64(0), hub.GetConnectionCount())
	assert.Equal(t, 0, hub.GetUserConnections("alice"))
}

func TestHubGroupManagement(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn1 := newTestConn("conn_alice_1", "alice", hub)
	conn2 := newTestConn("conn_bob_1", "bob", hub)

	hub.register <- conn1
	hub.register <- conn2
	time.Sleep(100 * time.Millisecond)

	// 响应人分组: 报警激活时按组下推
	conn1.JoinGroup("responders")
	conn2.JoinGroup("responders")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 2, hub.GetGroupConnections("responders"))

	conn1.LeaveGroup("responders")
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, hub.GetGroupConnections("responders"))

	hub.unregister <- conn1
	hub.unregister <- conn2
	time.Sleep(100 * time.Millisecond)
}

func TestHubMessageBroadcasting(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConn("conn_bob_1", "bob", hub)

	hub.register <- conn
	time.Sleep(100 * time.Millisecond)

	hub.broadcast <- &Message{
		Type: MessageTypeAlertActivated,
		To:   "bob",
		Data: map[string]interface{}{"user_id": "alice"},
	}
	time.Sleep(100 * time.Millisecond)

	select {
	case raw := <-conn.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageTypeAlertActivated, msg.Type)
	default:
		t.Fatal("定向消息未送达目标连接")
	}

	hub.unregister <- conn
	time.Sleep(100 * time.Millisecond)
}

func TestConnectionMessageHandling(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConn("conn_alice_1", "alice", hub)

	conn.handlePing()

	joinMsg := Message{Type: MessageTypeJoinGroup, Data: "responders"}
	conn.handleJoinGroup(joinMsg)

	assert.True(t, conn.IsInGroup("responders"))

	leaveMsg := Message{Type: MessageTypeLeaveGroup, Data: "responders"}
	conn.handleLeaveGroup(leaveMsg)

	assert.False(t, conn.IsInGroup("responders"))
}

func TestWebSocketHandler(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	handler := NewHandler(hub)

	req := httptest.NewRequest("GET", "/ws/stats", nil)
	w := httptest.NewRecorder()

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response, "total_connections")
}

func TestConfigValidation(t *testing.T) {
	validConfig := &Config{
		MaxConnections:     1000,
		HeartbeatInterval:  30 * time.Second,
		ConnectionTimeout:  60 * time.Second,
		MessageBufferSize:  256,
		MessageQueueSize:   1000,
		EnableCompression:  true,
		EnableMessageQueue: true,
		EnableCluster:      false,
	}

	err := ValidateConfig(validConfig)
	assert.NoError(t, err)

	invalidConfig := &Config{
		MaxConnections:     0,
		HeartbeatInterval:  60 * time.Second,
		ConnectionTimeout:  30 * time.Second,
		MessageBufferSize:  0,
		MessageQueueSize:   0,
		EnableCompression:  true,
		EnableMessageQueue: true,
		EnableCluster:      false,
	}

	err = ValidateConfig(invalidConfig)
	assert.Error(t, err)
}

func TestConfigLoading(t *testing.T) {
	config := DefaultConfig()
	assert.NotNil(t, config)
	assert.Equal(t, int64(100000), config.MaxConnections)

	clonedConfig := CloneConfig(config)
	assert.NotNil(t, clonedConfig)
	assert.Equal(t, config.MaxConnections, clonedConfig.MaxConnections)

	config1 := &Config{MaxConnections: 1000}
	config2 := &Config{HeartbeatInterval: 60 * time.Second}

	mergedConfig := MergeConfig(config1, config2)
	assert.Equal(t, int64(1000), mergedConfig.MaxConnections)
	assert.Equal(t, 60*time.Second, mergedConfig.HeartbeatInterval)
}

func TestConnectionGroupOperations(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConn("conn_alice_1", "alice", hub)

	conn.JoinGroup("responders")
	conn.JoinGroup("dependents")

	groups := conn.GetGroups()
	assert.Len(t, groups, 2)
	assert.Contains(t, groups, "responders")
	assert.Contains(t, groups, "dependents")

	assert.True(t, conn.IsInGroup("responders"))
	assert.False(t, conn.IsInGroup("observers"))

	conn.LeaveGroup("responders")
	assert.False(t, conn.IsInGroup("responders"))
	assert.True(t, conn.IsInGroup("dependents"))

	groups = conn.GetGroups()
	assert.Len(t, groups, 1)
	assert.Contains(t, groups, "dependents")
}

func TestUnknownMessageTypeIgnored(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := newTestConn("conn_alice_1", "alice", hub)

	conn.handleMessage([]byte(`{"type":"chat","data":"hi"}`))

	// 未知类型不回写任何消息
	select {
	case <-conn.Send:
		t.Fatal("未知消息类型不应产生响应")
	default:
	}
	assert.Empty(t, conn.GetGroups())
}
