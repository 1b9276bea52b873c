package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
	"github.com/werewolfcoder/OrderingSystem/pkg/middleware"
)

// Router maps the HTTP surface onto the handlers
type Router struct {
	Tokens    middleware.Verifier
	RateLimit middleware.RateLimitConfig

	Admin  *AdminHandler
	Chef   *ChefHandler
	Menu   *MenuHandler
	Order  *OrderHandler
	QR     *QRHandler
	WS     *WSHandler
	Health *HealthHandler
}

// SetupRoutes registers every route on router
func (r *Router) SetupRoutes(router *gin.Engine) {
	guest := middleware.RequireToken(r.Tokens, auth.KindGuest)
	chef := middleware.RequireToken(r.Tokens, auth.KindChef)
	admin := middleware.RequireToken(r.Tokens, auth.KindAdmin)
	// credential and QR endpoints share one limiter keyed by ip and route
	limited := middleware.RateLimiter(r.RateLimit)

	router.GET("/health", r.Health.Health)
	router.GET("/ready", r.Health.Ready)
	router.GET("/ws", r.WS.Serve)

	global := router.Group("/global")
	{
		global.POST("/register", limited, r.Admin.Register)
		global.POST("/login", limited, r.Admin.Login)
		global.GET("/verify", admin, r.Admin.Verify)
	}

	user := router.Group("/user")
	{
		user.POST("/getTokenFromQR", limited, r.QR.GuestToken)
		user.POST("/placeOrder", guest, r.Order.PlaceOrder)
		user.GET("/getOrder/:id", guest, r.Order.GetOrder)
		user.GET("/menu", guest, r.Menu.Menu)
	}

	kitchen := router.Group("/chef")
	{
		kitchen.POST("/login", limited, r.Chef.Login)
		kitchen.GET("/verify", chef, r.Chef.Verify)
		kitchen.GET("/getPendingOrders", chef, r.Order.PendingOrders)
		kitchen.PUT("/updateOrderStatus", chef, r.Order.UpdateStatus)
	}

	adm := router.Group("/admin", admin)
	{
		adm.GET("/categories", r.Menu.ListCategories)
		adm.POST("/categories", r.Menu.CreateCategory)
		adm.PUT("/categories/:id", r.Menu.RenameCategory)
		adm.DELETE("/categories/:id", r.Menu.DeleteCategory)

		adm.GET("/items", r.Menu.ListItems)
		adm.POST("/items", r.Menu.CreateItem)
		adm.PUT("/items/:id", r.Menu.UpdateItem)
		adm.DELETE("/items/:id", r.Menu.DeleteItem)

		adm.GET("/chefs", r.Chef.List)
		adm.POST("/chefs", r.Chef.Create)
		adm.DELETE("/chefs/:id", r.Chef.Delete)

		adm.GET("/generate-qr", r.QR.GenerateQR)
		adm.GET("/getAllOrders", r.Order.AllOrders)
	}
}
