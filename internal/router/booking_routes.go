package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
)

// RegisterBookings registers booking routes.  Customers and admins share
// /v1/bookings (ownership is checked per booking); /v1/admin/bookings is
// admin only.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.POST("", h.Create)
	g.GET("", h.ListMine)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/cancel", h.Cancel)

	admin := e.Group(
		"/v1/admin/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("", h.AdminList)
	// cancels; booking rows are never deleted
	admin.DELETE("/:id", h.Cancel)
}

// ChatTokenHeader carries the chat gateway's shared secret.
const ChatTokenHeader = "X-Chat-Token"

// RegisterChat registers the endpoint the chat gateway relays messages to.
func RegisterChat(e *echo.Echo, h *handler.ChatHandler, gatewayToken string) {
	e.POST("/v1/chat/messages", h.Message, middleware.RequireHeaderToken(ChatTokenHeader, gatewayToken))
}
