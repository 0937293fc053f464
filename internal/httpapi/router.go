package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the gin engine with CORS open to all origins,
// matching the frontends this service feeds.
func NewRouter(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/generate", h.generate)
	engine.GET("/media", h.listMedia)
	engine.DELETE("/media/:id", h.deleteMedia)
	engine.GET("/articles", h.listArticles)
	engine.GET("/articles/:id", h.getArticle)
	engine.DELETE("/article/:id", h.deleteArticle)
	engine.POST("/x_post", h.xPost)

	return engine
}
