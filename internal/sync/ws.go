package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler subscribes the caller to catalog events until it disconnects.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.Log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		// welcome goes out before Add so it never races a broadcast
		if err := ws.WriteMessage(
			websocket.TextMessage,
			[]byte(`{"type":"welcome","transport":"websocket"}`),
		); err != nil {
			_ = ws.Close()
			return
		}

		hub.Add(ws)
		hub.Log.Info("websocket subscriber connected", zap.String("remote", c.ClientIP()))

		// incoming messages are ignored; reading detects the close
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(ws)
		hub.Log.Info("websocket subscriber disconnected", zap.String("remote", c.ClientIP()))
	}
}
