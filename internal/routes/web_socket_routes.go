package routes

import (
	"github.com/gin-gonic/gin"

	"trotro/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, ws *controllers.FeedController) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/feed", ws.HandleFeedWebSocket)
	}
}
