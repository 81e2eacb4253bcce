package routes

import (
	"github.com/gin-gonic/gin"

	"trotro/internal/controllers"
)

// AdminRoutes manages the route registry row for this deployment.
func AdminRoutes(r *gin.Engine, route *controllers.RouteController) {
	admin := r.Group("/admin")
	{
		admin.GET("/route", route.GetRoute)
		admin.PUT("/route", route.PutRoute)
	}
}
