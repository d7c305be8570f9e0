package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/reqchat/backend/config"
	"github.com/reqchat/backend/internal/handler"
	"github.com/reqchat/backend/internal/middleware"
)

func Setup(
	cfg *config.Config,
	chatHandler *handler.ChatHandler,
	requirementHandler *handler.RequirementHandler,
	notificationHandler *handler.NotificationHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.HandleMethodNotAllowed = true

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-User-ID"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	// 流式响应逐帧 flush，不能经过压缩缓冲
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{"^/api/chat/"})))

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method Not Allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	api := r.Group("/api")
	{
		// 转发接口不做身份校验
		chatHandler.RegisterRoutes(api)

		authed := api.Group("", middleware.Auth(cfg.Auth.JWTSecret))
		requirementHandler.RegisterRoutes(authed)
		notificationHandler.RegisterRoutes(authed)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
