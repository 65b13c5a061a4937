package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hamgarian/do-real-shit/internal/domain"
	"github.com/hamgarian/do-real-shit/internal/log"
	"github.com/hamgarian/do-real-shit/internal/queue"
)

type createTaskReq struct {
	Label       string `json:"label"`
	Money       int64  `json:"money"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// CreateTask godoc
// @Summary Create task
// @Tags tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body createTaskReq true "label, money, description, status?"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/generate/tasks [post]
func (h *Handler) CreateTask(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var in createTaskReq
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Label) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}
	status := in.Status
	if status == "" {
		status = domain.StatusActive
	}
	t := &domain.Task{
		UserID:      id.ID,
		Label:       in.Label,
		Money:       in.Money,
		Description: in.Description,
		Status:      status,
	}
	if err := h.Store.CreateTask(c.Request.Context(), t); err != nil {
		log.L().Error("task insert failed", zap.Error(err), zap.String("uid", id.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "db error"})
		return
	}

	// накопитель лидерборда растёт только на активных задачах;
	// его отказ не валит созданную задачу
	if status == domain.StatusActive {
		if err := h.Store.BumpLeaderboard(c.Request.Context(), id.ID, id.Email, t.Money); err != nil {
			log.L().Error("leaderboard bump failed", zap.Error(err), zap.String("uid", id.ID))
		}
	}

	if h.Events != nil {
		err := h.Events.Publish(c.Request.Context(), queue.Exchange, "task.created",
			queue.TaskCreated{UserID: id.ID, Label: t.Label, Money: t.Money, Status: status},
			c.GetString("X-Request-ID"))
		if err != nil {
			log.L().Warn("task.created publish failed", zap.Error(err),
				zap.String("uid", id.ID), zap.String("label", t.Label))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListTasks godoc
// @Summary List caller's tasks
// @Tags tasks
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.Task
// @Failure 401 {object} map[string]string
// @Router /api/generate/tasks [get]
func (h *Handler) ListTasks(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	tasks, err := h.Store.ListTasksByUser(c.Request.Context(), id.ID)
	if err != nil {
		log.L().Error("task list failed", zap.Error(err), zap.String("uid", id.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "db error"})
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

type updateTaskReq struct {
	Label  string `json:"label"`
	Status string `json:"status"`
}

// UpdateTaskStatus godoc
// @Summary Update status of tasks by label
// @Tags tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body updateTaskReq true "label, status"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/generate/tasks [put]
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var in updateTaskReq
	if err := c.ShouldBindJSON(&in); err != nil || in.Label == "" || in.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}
	// label не уникален: UpdateMany накрывает все совпадения одной записью
	matched, err := h.Store.UpdateTaskStatus(c.Request.Context(), id.ID, in.Label, in.Status)
	if err != nil {
		log.L().Error("task update failed", zap.Error(err), zap.String("uid", id.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "db error"})
		return
	}
	if matched == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type deleteTaskReq struct {
	Label string `json:"label"`
}

// DeleteTask godoc
// @Summary Delete tasks by label
// @Tags tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body deleteTaskReq true "label"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/generate/tasks [delete]
func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var in deleteTaskReq
	if err := c.ShouldBindJSON(&in); err != nil || in.Label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}
	deleted, err := h.Store.DeleteTasks(c.Request.Context(), id.ID, in.Label)
	if err != nil {
		log.L().Error("task delete failed", zap.Error(err), zap.String("uid", id.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "db error"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
