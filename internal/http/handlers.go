package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hamgarian/do-real-shit/internal/domain"
	"github.com/hamgarian/do-real-shit/internal/log"
	"github.com/hamgarian/do-real-shit/internal/metrics"
	"github.com/hamgarian/do-real-shit/internal/queue"
	"github.com/hamgarian/do-real-shit/internal/repo"
)

// Store — слой данных, подменяемый фейком в тестах.
type Store interface {
	CreateTask(ctx context.Context, t *domain.Task) error
	ListTasksByUser(ctx context.Context, uid string) ([]domain.Task, error)
	UpdateTaskStatus(ctx context.Context, uid, label, status string) (int64, error)
	DeleteTasks(ctx context.Context, uid, label string) (int64, error)
	BumpLeaderboard(ctx context.Context, uid, email string, delta int64) error

	GetOrCreateUser(ctx context.Context, uid, email string) (*domain.User, error)
	FindUser(ctx context.Context, uid string) (*domain.User, error)
	SetBalance(ctx context.Context, uid, email string, balance int64) error
	ClaimUsername(ctx context.Context, uid, email, username string) error
	ListUsersWithUsername(ctx context.Context) ([]domain.User, error)

	Ping(ctx context.Context) error
}

// Pricer — вызов генеративной модели ценообразования.
type Pricer interface {
	Price(ctx context.Context, input string) (string, error)
}

type Handler struct {
	Store    Store
	Pricer   Pricer
	Events   queue.Publisher
	Cache    *repo.Redis // nil → без кэша
	CacheTTL time.Duration
}

func NewHandler(store Store, pricer Pricer, pub queue.Publisher, cache *repo.Redis, cacheTTL time.Duration) *Handler {
	return &Handler{
		Store:    store,
		Pricer:   pricer,
		Events:   pub,
		Cache:    cache,
		CacheTTL: cacheTTL,
	}
}

type generateReq struct {
	Input string `json:"input"`
}

// Generate godoc
// @Summary Price a task description
// @Tags generate
// @Accept json
// @Produce plain
// @Param payload body generateReq true "task description"
// @Success 200 {string} string "raw model output"
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var in generateReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Pricer.Price(c.Request.Context(), in.Input)
	if err != nil {
		metrics.PricingRequests.WithLabelValues("error").Inc()
		log.L().Error("pricing model call failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed"})
		return
	}
	metrics.PricingRequests.WithLabelValues("ok").Inc()
	// вывод модели отдаём как есть, без серверной валидации формата
	c.String(http.StatusOK, out)
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
