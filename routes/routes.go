package routes

import (
	"log/slog"
	"net/http"

	"dropline-api/auth"
	"dropline-api/handlers"
	"dropline-api/middleware"

	"github.com/gin-gonic/gin"
)

// NewEngine builds the gin engine with the global middleware stack and every route.
func NewEngine(log *slog.Logger, h *handlers.Handler, tokens *auth.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery(), middleware.CORS())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	SetupRoutes(r, h, tokens)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, tokens *auth.TokenIssuer) {
	// ── Public routes ──────────────────────────────────────────────
	r.GET("/", handlers.Root)
	r.GET("/test", h.TestDatabase)

	// ── Auth ───────────────────────────────────────────────────────
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register/merchant", h.RegisterMerchant)
		authGroup.POST("/register/customer", h.RegisterCustomer)
		authGroup.POST("/register/driver", h.RegisterDriver)
		authGroup.POST("/login", h.Login)

		authGroup.GET("/profile", middleware.AuthRequired(tokens), h.GetProfile)
	}
}
