package listeners

import (
	"SafeCircle/internal/models"
	"SafeCircle/pkg/sse"
	"SafeCircle/pkg/util"
	"SafeCircle/pkg/websocket"
)

// RegisterRealtime 把状态跃迁推给在线客户端，WebSocket 和 SSE 双通道
func RegisterRealtime(wsHub *websocket.Hub, sseHub *sse.Hub) {
	sig := util.Sig()

	push := func(userID string, msgType string, data map[string]interface{}) {
		if wsHub != nil {
			wsHub.Publish(&websocket.Message{Type: msgType, To: userID, Data: data})
		}
		if sseHub != nil {
			sseHub.SendToJSON(userID, map[string]interface{}{"type": msgType, "data": data})
		}
	}

	sig.Connect(models.SigStatusChanged, func(sender any, params ...any) {
		ownerID, _ := sender.(string)
		if len(params) < 2 {
			return
		}
		contactID, _ := params[0].(string)
		status, _ := params[1].(models.EdgeStatus)
		push(ownerID, websocket.MessageTypeStatusChanged, map[string]interface{}{
			"contact_id": contactID,
			"status":     status,
		})
	})

	sig.Connect(models.SigUserCheckedIn, func(sender any, params ...any) {
		user, ok := sender.(*models.User)
		if !ok {
			return
		}
		push(user.ID, websocket.MessageTypeCheckedIn, map[string]interface{}{
			"expires_at": user.ExpiresAt(),
		})
	})

	sig.Connect(models.SigAlertActivated, func(sender any, params ...any) {
		userID, _ := sender.(string)
		if len(params) < 1 {
			return
		}
		responders, _ := params[0].([]string)
		for _, responderID := range responders {
			push(responderID, websocket.MessageTypeAlertActivated, map[string]interface{}{
				"user_id": userID,
			})
		}
	})

	sig.Connect(models.SigAlertDeactivated, func(sender any, params ...any) {
		userID, _ := sender.(string)
		if len(params) < 1 {
			return
		}
		responders, _ := params[0].([]string)
		for _, responderID := range responders {
			push(responderID, websocket.MessageTypeAlertDeactivated, map[string]interface{}{
				"user_id": userID,
			})
		}
	})

	sig.Connect(models.SigPingSent, func(sender any, params ...any) {
		fromID, _ := sender.(string)
		if len(params) < 1 {
			return
		}
		toID, _ := params[0].(string)
		push(toID, websocket.MessageTypePingReceived, map[string]interface{}{
			"from_id": fromID,
		})
	})
}
