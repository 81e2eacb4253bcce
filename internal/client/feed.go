package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"trotro/internal/feed"
)

// SubscribeFeed dials the server's change-feed WebSocket and forwards events
// for one route. The channel closes when the connection drops or the context
// is cancelled; consumers fall back to polling either way.
func SubscribeFeed(ctx context.Context, serverURL, routeID string) (<-chan feed.Event, error) {
	wsURL := toWebSocketURL(serverURL) + "/ws/feed?route_id=" + url.QueryEscape(routeID)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial change feed: %w", err)
	}

	ch := make(chan feed.Event, 16)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(ch)
		defer conn.Close()
		for {
			var ev feed.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case ch <- ev:
			default:
				// Consumer is behind; dropping is fine, the poll
				// re-reads ground truth anyway.
			}
		}
	}()
	return ch, nil
}

func toWebSocketURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
