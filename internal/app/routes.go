package app

import (
	"todoapi/internal/auth"
	"todoapi/internal/config"
	"todoapi/internal/dto"
	"todoapi/internal/handlers"
	"todoapi/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine. Read routes are open;
// every mutating route sits behind the API-key gate.
func Setup(r *gin.Engine, cfg config.Config, svc *service.TodoService) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler())
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	h := handlers.NewTodoHandler(svc)

	r.GET("/todos", h.List)
	r.GET("/todos/export", h.Export)
	r.GET("/todos/stats", h.Stats)
	r.GET("/todos/:id", h.GetByID)

	protected := r.Group("", auth.RequireAPIKey(cfg.Auth.APIKey))
	protected.POST("/todos", h.Create)
	protected.PUT("/todos/:id", h.Replace)
	protected.PATCH("/todos/:id", h.Update)
	protected.PATCH("/todos/:id/status", h.UpdateStatus)
	protected.POST("/todos/:id/restore", h.Restore)
	protected.DELETE("/todos/:id", h.Delete)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Todo API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
		})
	}
}

func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, dto.HealthResponse{Status: "ok"})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}
