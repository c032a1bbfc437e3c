package listeners

import (
	"context"
	"testing"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/pkg/i18n"
	"SafeCircle/pkg/notification"
	"SafeCircle/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupNotify(t *testing.T) (*gorm.DB, *Deps) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &notification.InternalNotification{}))

	support, err := i18n.NewI18nSupport("en", "../../locales")
	require.NoError(t, err)

	deps := &Deps{
		Users:      repository.NewUserRepository(db, 3),
		Dispatcher: notification.NewDispatcher(notification.DispatcherConfig{Retries: 1}, notification.NewInboxChannel(db)),
		Renderer:   notification.NewRenderer(support, "en"),
	}
	RegisterNotify(deps)
	t.Cleanup(func() {
		for _, s := range []string{
			models.SigUserExpired, models.SigReminderDue, models.SigPingSent,
			models.SigPingResponded, models.SigPingCleared,
			models.SigAlertActivated, models.SigAlertDeactivated,
		} {
			util.Sig().Disconnect(s)
		}
	})
	return db, deps
}

func seedNotifyUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	user := &models.User{
		ID: id, DisplayName: id, Email: id + "@example.com",
		Enabled: true, CheckInInterval: 3600,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func inboxFor(t *testing.T, db *gorm.DB, userID string) []notification.InternalNotification {
	t.Helper()
	items, err := notification.ListInbox(context.Background(), db, userID, 20, 0)
	require.NoError(t, err)
	return items
}

func TestPingSignalLandsInInbox(t *testing.T) {
	db, _ := setupNotify(t)
	seedNotifyUser(t, db, "alice")
	seedNotifyUser(t, db, "bob")

	util.Sig().Emit(models.SigPingSent, "alice", "bob")

	items := inboxFor(t, db, "bob")
	require.Len(t, items, 1)
	assert.Equal(t, notification.KindPingReceived, items[0].Kind)
	assert.Contains(t, items[0].Title, "alice")
}

func TestExpirySignalNotifiesAllResponders(t *testing.T) {
	db, _ := setupNotify(t)
	alice := seedNotifyUser(t, db, "alice")
	seedNotifyUser(t, db, "bob")
	seedNotifyUser(t, db, "carol")
	checkIn := time.Now().Add(-2 * time.Hour)
	alice.LastCheckIn = &checkIn

	util.Sig().Emit(models.SigUserExpired, alice, []string{"bob", "carol"})

	require.Len(t, inboxFor(t, db, "bob"), 1)
	require.Len(t, inboxFor(t, db, "carol"), 1)
	assert.Equal(t, notification.KindCheckInExpired, inboxFor(t, db, "bob")[0].Kind)
}

func TestAlertSignalCarriesName(t *testing.T) {
	db, _ := setupNotify(t)
	seedNotifyUser(t, db, "alice")
	seedNotifyUser(t, db, "bob")

	util.Sig().Emit(models.SigAlertActivated, "alice", []string{"bob"})

	items := inboxFor(t, db, "bob")
	require.Len(t, items, 1)
	assert.Equal(t, notification.KindAlertActivated, items[0].Kind)
	assert.Contains(t, items[0].Title, "alice")
}
