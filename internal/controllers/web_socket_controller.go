package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"trotro/internal/feed"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // consoles are served from their own origins
	},
}

// FeedController bridges the in-process change-feed hub over WebSocket so
// driver consoles get push notifications for their route.
type FeedController struct {
	hub     *feed.Hub
	routeID string
}

// NewFeedController returns a controller serving the hub's events.
func NewFeedController(hub *feed.Hub, routeID string) *FeedController {
	return &FeedController{hub: hub, routeID: routeID}
}

// HandleFeedWebSocket upgrades the connection and streams change events for
// the requested route (defaulting to the deployment's route) until the
// client disconnects. Clients are not expected to send anything; whatever
// they do send is drained and ignored.
func (fc *FeedController) HandleFeedWebSocket(c *gin.Context) {
	routeID := c.Query("route_id")
	if routeID == "" {
		routeID = fc.routeID
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade feed WebSocket connection.")
		return
	}
	defer conn.Close()

	events, cancel := fc.hub.Subscribe(routeID)
	defer cancel()

	logrus.WithField("route_id", routeID).Info("Feed WebSocket connection established.")

	// Drain the read side so we notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.WithError(err).Debug("Feed WebSocket read error.")
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			logrus.WithField("route_id", routeID).Info("Feed WebSocket connection closed.")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				logrus.WithError(err).WithField("route_id", routeID).Warn("Failed to send feed event to client.")
				return
			}
		}
	}
}
