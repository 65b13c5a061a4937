package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, verifier TokenVerifier, rlPerMin int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Metrics())
	r.Use(Identify(verifier))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := NewRateLimiter(rlPerMin, time.Minute)

	api := r.Group("/api")
	{
		api.POST("/generate", RateLimitGenerate(rl), h.Generate) // публичный, но лимитированный
		api.POST("/generate/tasks", h.CreateTask)
		api.GET("/generate/tasks", h.ListTasks)
		api.PUT("/generate/tasks", h.UpdateTaskStatus)
		api.DELETE("/generate/tasks", h.DeleteTask)

		api.GET("/leaderboard", h.Leaderboard)

		api.GET("/user/money", h.GetMoney)
		api.POST("/user/money", h.SetMoney)
		api.GET("/user/username", h.GetUsername)
		api.POST("/user/username", h.SetUsername)
	}
	return r
}
