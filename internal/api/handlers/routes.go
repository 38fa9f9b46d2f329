package handlers

import (
	"net/http"
	"time"

	"lot-bidding/internal/api/middleware"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the bidding API on e. Every /api/v1 route needs a
// bearer token; the admin group also needs the admin role.
func RegisterRoutes(e *echo.Echo, bids *BidHandler, admin *AdminHandler, jwtSecret []byte) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "bidding-service",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := e.Group("/api/v1", middleware.JWTAuth(jwtSecret))
	api.POST("/lots/:id/bids", bids.PlaceBid)
	api.GET("/lots/:id", bids.GetLot)
	api.GET("/lots/:id/bids", bids.ListBids)
	api.GET("/bids/:id", bids.GetBid)

	adminGroup := api.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	adminGroup.POST("/lots", admin.CreateLot)
	adminGroup.DELETE("/bids/:id", admin.RevokeBid)
}
