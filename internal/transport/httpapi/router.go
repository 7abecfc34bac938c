// Package httpapi exposes the game over HTTP for the standalone dev server.
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS, auth and all routes.
func NewRouter(h *Handler, tokens *TokenIssuer, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(corsOrigins) == 0 || (len(corsOrigins) == 1 && corsOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = corsOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	v1.GET("/info", h.Info)

	authed := v1.Group("", AuthMiddleware(tokens))
	{
		authed.GET("/state", h.State)
		authed.POST("/actions/reset", h.Reset)
		authed.POST("/actions/start", h.StartGame)
		authed.POST("/actions/battle", h.Battle)
		authed.POST("/actions/end-wave", h.EndWave)
		authed.POST("/actions/request-gold", h.RequestGold)
	}
	return r
}
