package routes

import (
	"github.com/gin-gonic/gin"

	"restaurant-service/controllers"
	"restaurant-service/middleware"
)

func Register(r *gin.Engine, wc *controllers.WebhookController, oc *controllers.OrderController, jwtSecret string) {
	api := r.Group("/api")
	api.POST("/webhook", wc.Receive)

	dashboard := api.Group("")
	dashboard.Use(middleware.AuthMiddleware(jwtSecret))
	dashboard.GET("/events/latest", oc.GetLatestEvents)
	dashboard.GET("/local/orders", oc.GetLocalOrders)
	dashboard.GET("/orders/:id", oc.GetOrder)
	dashboard.PATCH("/orders/:id/state", oc.TransitionState)
	dashboard.GET("/uber/stores", oc.GetPlatformStores)
	dashboard.GET("/uber/stores/:store_id/orders", oc.GetStoreOrders)
}
