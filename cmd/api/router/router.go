package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"content-pipeline/cmd/api/handlers"
	"content-pipeline/cmd/api/middleware"
	"content-pipeline/cmd/api/services"
	_ "content-pipeline/docs"
)

// Services are the handlers' dependencies.
type Services struct {
	Generation *services.GenerationService
	Articles   *services.ArticleService
	Sources    *services.SourceService
	Configs    *services.ConfigService
	// Ping checks the database for /health. Nil skips the check.
	Ping func(ctx context.Context) error
}

func New(svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	r.GET("/health", func(c *gin.Context) {
		if svc.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := svc.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": "down", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 같은 라우트를 /api/v1 과 루트에 모두 연결한다
	register(r.Group("/api/v1"), svc)
	register(r.Group(""), svc)

	return r
}

func register(g *gin.RouterGroup, svc Services) {
	g.POST("/generate", handlers.GenerateHandler(svc.Generation))

	g.GET("/config/:topic", handlers.GetConfigHandler(svc.Configs))
	g.PUT("/config/:topic", handlers.PutConfigHandler(svc.Configs))
	g.GET("/topics", handlers.ListTopicsHandler(svc.Configs))

	g.GET("/articles", handlers.ListArticlesHandler(svc.Articles))
	g.GET("/articles/:id", handlers.GetArticleHandler(svc.Articles))
	g.PUT("/articles/:id", handlers.UpdateArticleHandler(svc.Articles))
	g.GET("/articles/:id/preview", handlers.PreviewArticleHandler(svc.Articles))

	g.GET("/admin/sources", handlers.ListSourcesHandler(svc.Sources))

	dashboard := g.Group("/dashboard")
	{
		dashboard.POST("/generate-article", handlers.EnqueueGenerationHandler(svc.Generation))
		dashboard.GET("/generation-tasks", handlers.ListGenerationTasksHandler(svc.Generation))
		dashboard.GET("/generation-tasks/:id", handlers.GetGenerationTaskHandler(svc.Generation))
	}
}
