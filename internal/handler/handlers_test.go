package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/internal/service"
	"SafeCircle/pkg/cache"
	"SafeCircle/pkg/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"time"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	require.NoError(t, config.Load())
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.ContactEdge{},
		&models.AlertState{}, &models.SafetyEvent{},
	))

	users := repository.NewUserRepository(db, 3)
	edges := repository.NewEdgeRepository(db, 3)
	alerts := repository.NewAlertRepository(db, 3)
	events := repository.NewEventRepository(db)
	safety := service.NewSafetyService(users, edges, events)
	machine := service.NewAlertMachine(alerts, events, 0.25, time.Minute, time.Millisecond)
	t.Cleanup(machine.Stop)
	store := cache.NewLocalCache(cache.LocalConfig{MaxSize: 64, DefaultExpiration: time.Minute, CleanupInterval: time.Minute})
	coordinator := service.NewCoordinator(users, edges, alerts, events, store, time.Minute)
	t.Cleanup(coordinator.Stop)

	r := gin.New()
	r.Use(sessions.Sessions("safecircle", cookie.NewStore([]byte("test-secret"))))
	h := NewHandlers(db, users, alerts, events, safety, machine, coordinator, nil, nil, nil)
	h.Register(r)
	return r, db
}

type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func register(t *testing.T, c *client, email, name string) {
	t.Helper()
	w := c.do(http.MethodPost, "/api/auth/register", gin.H{
		"email":        email,
		"display_name": name,
		"password":     "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func userID(t *testing.T, db *gorm.DB, email string) string {
	t.Helper()
	var user models.User
	require.NoError(t, db.Where("email = ?", email).First(&user).Error)
	return user.ID
}

func TestRegisterLoginCheckIn(t *testing.T) {
	router, _ := setupRouter(t)
	alice := &client{t: t, router: router}
	register(t, alice, "alice@example.com", "alice")

	w := alice.do(http.MethodPost, "/api/checkin", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = alice.do(http.MethodGet, "/api/auth/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "expires_at")
}

func TestCheckInRequiresLogin(t *testing.T) {
	router, _ := setupRouter(t)
	anon := &client{t: t, router: router}

	w := anon.do(http.MethodPost, "/api/checkin", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIntervalValidationOverHTTP(t *testing.T) {
	router, _ := setupRouter(t)
	alice := &client{t: t, router: router}
	register(t, alice, "alice@example.com", "alice")

	w := alice.do(http.MethodPut, "/api/checkin/interval", gin.H{"interval_seconds": -60})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = alice.do(http.MethodPut, "/api/checkin/interval", gin.H{"interval_seconds": 7200})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestContactAndPingFlow(t *testing.T) {
	router, db := setupRouter(t)
	alice := &client{t: t, router: router}
	bob := &client{t: t, router: router}
	register(t, alice, "alice@example.com", "alice")
	register(t, bob, "bob@example.com", "bob")
	bobID := userID(t, db, "bob@example.com")
	aliceID := userID(t, db, "alice@example.com")

	// alice 把 bob 加为被照护人
	w := alice.do(http.MethodPost, "/api/contacts", gin.H{
		"contact_id":   bobID,
		"is_dependent": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 自我关系被拒绝
	w = alice.do(http.MethodPost, "/api/contacts", gin.H{
		"contact_id":   aliceID,
		"is_dependent": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 重复添加关系冲突
	w = alice.do(http.MethodPost, "/api/contacts", gin.H{
		"contact_id":   bobID,
		"is_responder": true,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 呼叫 bob
	w = alice.do(http.MethodPost, "/api/contacts/"+bobID+"/ping", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// bob 打卡即响应呼叫
	w = bob.do(http.MethodPost, "/api/checkin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = alice.do(http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nominal")
}

func TestAlertArmOverHTTP(t *testing.T) {
	router, _ := setupRouter(t)
	alice := &client{t: t, router: router}
	register(t, alice, "alice@example.com", "alice")

	for i := 0; i < 3; i++ {
		w := alice.do(http.MethodPost, "/api/alert/arm", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"activated":false`)
	}
	w := alice.do(http.MethodPost, "/api/alert/arm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"activated":true`)

	w = alice.do(http.MethodGet, "/api/alert", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active":true`)

	// 解除需要先开始长按
	w = alice.do(http.MethodPost, "/api/alert/disarm/confirm", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = alice.do(http.MethodPost, "/api/alert/disarm/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	time.Sleep(5 * time.Millisecond)
	w = alice.do(http.MethodPost, "/api/alert/disarm/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
