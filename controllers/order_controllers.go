package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"restaurant-service/services"
)

// OrderController serves the dashboard API: the local order mirror, the
// webhook activity feed, and passthroughs to the platform's read endpoints.
type OrderController struct {
	Service *services.OrderService
	Logger  *zap.Logger
}

// GetLocalOrders handles GET /api/local/orders. With store_id and
// next_page_token both present it proxies the platform listing instead of
// reading the mirror, so the dashboard can page past what is cached locally.
func (oc *OrderController) GetLocalOrders(c *gin.Context) {
	storeID := c.Query("store_id")
	pageToken := c.Query("next_page_token")
	if storeID != "" && pageToken != "" {
		page, svcErr := oc.Service.PlatformOrders(c.Request.Context(), storeID, c.Query("page_size"), pageToken)
		if svcErr != nil {
			c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": page.Orders, "next_page_token": page.NextPageToken})
		return
	}

	orders, svcErr := oc.Service.LocalOrders(c.Request.Context(), c.Query("state"))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetLatestEvents handles GET /api/events/latest.
func (oc *OrderController) GetLatestEvents(c *gin.Context) {
	events, svcErr := oc.Service.LatestEvents(c.Request.Context(), 20)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetOrder handles GET /api/orders/:id, proxying the platform's order
// detail.
func (oc *OrderController) GetOrder(c *gin.Context) {
	payload, svcErr := oc.Service.PlatformOrder(c.Request.Context(), c.Param("id"))
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, payload)
}

type transitionRequest struct {
	NewState string `json:"new_state" binding:"required"`
}

// TransitionState handles PATCH /api/orders/:id/state. The service calls
// the platform first; the local row only changes after upstream success, so
// a failed action leaves the displayed state untouched.
func (oc *OrderController) TransitionState(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing new_state"})
		return
	}

	if svcErr := oc.Service.Transition(c.Request.Context(), c.Param("id"), req.NewState); svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "order state updated"})
}

// GetPlatformStores handles GET /api/uber/stores.
func (oc *OrderController) GetPlatformStores(c *gin.Context) {
	stores, svcErr := oc.Service.PlatformStores(c.Request.Context())
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.Data(http.StatusOK, "application/json", stores)
}

// GetStoreOrders handles GET /api/uber/stores/:store_id/orders.
func (oc *OrderController) GetStoreOrders(c *gin.Context) {
	page, svcErr := oc.Service.PlatformOrders(
		c.Request.Context(),
		c.Param("store_id"),
		c.Query("page_size"),
		c.Query("next_page_token"),
	)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	c.JSON(http.StatusOK, page)
}
