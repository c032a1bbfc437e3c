package listeners

import (
	"context"
	"fmt"
	"time"

	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/pkg/logger"
	"SafeCircle/pkg/notification"
	"SafeCircle/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps 监听器依赖
type Deps struct {
	Users      *repository.UserRepository
	Dispatcher notification.Dispatcher
	Renderer   *notification.Renderer
}

// RegisterNotify 把状态变更信号接到通知投递。投递失败只记日志，
// 不回滚触发它的状态变更。
func RegisterNotify(d *Deps) {
	sig := util.Sig()

	sig.Connect(models.SigUserExpired, func(sender any, params ...any) {
		user, ok := sender.(*models.User)
		if !ok || len(params) < 1 {
			return
		}
		responders, _ := params[0].([]string)
		lastCheckIn := ""
		if user.LastCheckIn != nil {
			lastCheckIn = user.LastCheckIn.Format(time.RFC1123)
		}
		for _, responderID := range responders {
			d.send(responderID, notification.KindCheckInExpired, map[string]interface{}{
				"Name":        user.DisplayName,
				"LastCheckIn": lastCheckIn,
			}, map[string]string{"dependent_id": user.ID})
		}
	})

	sig.Connect(models.SigReminderDue, func(sender any, params ...any) {
		user, ok := sender.(*models.User)
		if !ok || len(params) < 2 {
			return
		}
		deadline, _ := params[1].(time.Time)
		d.send(user.ID, notification.KindCheckInReminder, map[string]interface{}{
			"Deadline": deadline.Format(time.RFC1123),
		}, nil)
	})

	sig.Connect(models.SigPingSent, func(sender any, params ...any) {
		fromID, _ := sender.(string)
		if len(params) < 1 {
			return
		}
		toID, _ := params[0].(string)
		d.send(toID, notification.KindPingReceived, map[string]interface{}{
			"Name": d.displayName(fromID),
		}, map[string]string{"from_id": fromID})
	})

	sig.Connect(models.SigPingResponded, func(sender any, params ...any) {
		userID, _ := sender.(string)
		if len(params) < 1 {
			return
		}
		pingerID, _ := params[0].(string)
		d.send(pingerID, notification.KindPingResponded, map[string]interface{}{
			"Name": d.displayName(userID),
		}, nil)
	})

	sig.Connect(models.SigPingCleared, func(sender any, params ...any) {
		userID, _ := sender.(string)
		if len(params) < 1 {
			return
		}
		contactID, _ := params[0].(string)
		d.send(contactID, notification.KindPingCleared, map[string]interface{}{
			"Name": d.displayName(userID),
		}, nil)
	})

	sig.Connect(models.SigAlertActivated, func(sender any, params ...any) {
		userID, _ := sender.(string)
		if len(params) < 1 {
			return
		}
		responders, _ := params[0].([]string)
		name := d.displayName(userID)
		now := time.Now().Format(time.RFC1123)
		for _, responderID := range responders {
			d.send(responderID, notification.KindAlertActivated, map[string]interface{}{
				"Name": name,
				"Time": now,
			}, map[string]string{"alerting_id": userID})
		}
	})

	sig.Connect(models.SigAlertDeactivated, func(sender any, params ...any) {
		userID, _ := sender.(string)
		if len(params) < 1 {
			return
		}
		responders, _ := params[0].([]string)
		name := d.displayName(userID)
		now := time.Now().Format(time.RFC1123)
		for _, responderID := range responders {
			d.send(responderID, notification.KindAlertDeactivated, map[string]interface{}{
				"Name": name,
				"Time": now,
			}, nil)
		}
	})
}

func (d *Deps) send(userID, kind string, data map[string]interface{}, extras map[string]string) {
	lang := ""
	if user, err := d.Users.GetByID(userID); err == nil {
		lang = user.Language
	}
	title, body := d.Renderer.Render(kind, lang, data)
	p := notification.Payload{
		ID:      uuid.NewString(),
		UserID:  userID,
		Kind:    kind,
		Title:   title,
		Content: body,
		Lang:    lang,
		Extras:  extras,
	}
	if err := d.Dispatcher.SendNow(context.Background(), p); err != nil {
		logger.Warn("notification delivery failed",
			zap.String("user", userID), zap.String("kind", kind), zap.Error(err))
	}
}

func (d *Deps) displayName(userID string) string {
	user, err := d.Users.GetByID(userID)
	if err != nil {
		return fmt.Sprintf("user %s", userID)
	}
	return user.DisplayName
}
