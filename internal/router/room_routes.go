package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
)

// RegisterRooms registers the public catalog and the admin room routes.
// search is applied to GET /v1/rooms only (cache, rate limit).
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler, jwtSecret string, search ...echo.MiddlewareFunc) {
	e.GET("/v1/rooms", h.SearchRooms, search...)
	e.GET("/v1/rooms/:number", h.GetRoom)

	admin := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("/rooms", h.CreateRoom)
	admin.PUT("/rooms/:number", h.UpdateRoom)
}
