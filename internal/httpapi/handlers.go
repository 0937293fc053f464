package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/michaelwaves/astrosmurf/internal/domain"
	"github.com/michaelwaves/astrosmurf/internal/infrastructure/storage"
	"github.com/michaelwaves/astrosmurf/internal/ports"
	"github.com/michaelwaves/astrosmurf/internal/usecase"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req usecase.Request) (*domain.RunResult, error)
}

// Handler holds the transport's collaborators.
type Handler struct {
	pipeline  Runner
	articles  ports.ArticleRepository
	media     ports.MediaRepository
	publisher ports.SocialPublisher
	logger    *slog.Logger
}

// NewHandler builds the transport layer.
func NewHandler(pipeline Runner, articles ports.ArticleRepository, media ports.MediaRepository, publisher ports.SocialPublisher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline:  pipeline,
		articles:  articles,
		media:     media,
		publisher: publisher,
		logger:    logger,
	}
}

type generateRequest struct {
	UserID    *int64 `json:"user_id"`
	Link      string `json:"link"`
	Text      string `json:"text"`
	Style     string `json:"style" binding:"required"`
	PersonaID *int64 `json:"persona_id"`
}

type mediaEntryResponse struct {
	MediaID  int64  `json:"media_id"`
	MediaURL string `json:"media_url"`
	Concept  string `json:"concept"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), usecase.Request{
		Source:    req.Link,
		Text:      req.Text,
		Style:     req.Style,
		UserID:    req.UserID,
		PersonaID: req.PersonaID,
	})
	if err != nil {
		// Empty-result aborts are a graceful "no result", everything else
		// is a server error; both carry the same envelope shape.
		status := http.StatusInternalServerError
		if usecase.IsAbort(err) {
			status = http.StatusOK
		} else {
			h.logger.Error("generate failed", "error", err)
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	entries := make([]mediaEntryResponse, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, mediaEntryResponse{
			MediaID:  entry.MediaID,
			MediaURL: entry.MediaURL,
			Concept:  entry.Concept,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"article_id":    result.ArticleID,
		"media_count":   result.MediaCount,
		"media_entries": entries,
	})
}

func (h *Handler) listMedia(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	search := c.Query("search")

	listings, err := h.media.List(c.Request.Context(), limit, search)
	if err != nil {
		h.logger.Error("list media failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	items := make([]gin.H, 0, len(listings))
	for _, l := range listings {
		items = append(items, gin.H{
			"id":             l.ID,
			"article_id":     l.ArticleID,
			"article_source": l.ArticleSource,
			"prompt":         l.Prompt,
			"style":          l.Style,
			"media_type":     l.MediaType,
			"media_url":      l.MediaURL,
			"created_at":     l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "media": items})
}

func (h *Handler) listArticles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	articles, err := h.articles.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list articles failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "articles": articleViews(articles)})
}

func (h *Handler) getArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid article id"})
		return
	}

	article, err := h.articles.GetByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "article not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	media, err := h.media.ByArticle(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"article": articleView(article),
		"media":   media,
	})
}

func (h *Handler) deleteMedia(c *gin.Context) {
	h.deleteByID(c, h.media.Delete)
}

func (h *Handler) deleteArticle(c *gin.Context) {
	// Media rows cascade with the article at the storage layer.
	h.deleteByID(c, h.articles.Delete)
}

func (h *Handler) deleteByID(c *gin.Context, del func(ctx context.Context, id int64) error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}

	err = del(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type xPostRequest struct {
	UserID  *int64 `json:"user_id"`
	MediaID int64  `json:"media_id" binding:"required"`
	Text    string `json:"text"`
}

func (h *Handler) xPost(c *gin.Context) {
	var req xPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if h.publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "social publishing not configured"})
		return
	}

	media, err := h.media.GetByID(c.Request.Context(), req.MediaID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "media not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	postID, err := h.publisher.PublishMedia(c.Request.Context(), media.MediaURL, req.Text)
	if err != nil {
		h.logger.Error("x post failed", "media_id", req.MediaID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "post_id": postID})
}

func articleView(a domain.Article) gin.H {
	return gin.H{
		"id":         a.ID,
		"source":     a.Source,
		"text":       a.Text,
		"user_id":    a.UserID,
		"created_at": a.CreatedAt,
	}
}

func articleViews(articles []domain.Article) []gin.H {
	views := make([]gin.H, 0, len(articles))
	for _, a := range articles {
		views = append(views, articleView(a))
	}
	return views
}
