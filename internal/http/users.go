package http

import (
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hamgarian/do-real-shit/internal/domain"
	"github.com/hamgarian/do-real-shit/internal/log"
	"github.com/hamgarian/do-real-shit/internal/repo"
)

const maxUsernameLen = 20

// GetMoney godoc
// @Summary Current balance (creates the user lazily)
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 401 {object} map[string]string
// @Router /api/user/money [get]
func (h *Handler) GetMoney(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	u, err := h.Store.GetOrCreateUser(c.Request.Context(), id.ID, id.Email)
	if err != nil {
		log.L().Error("balance read failed", zap.Error(err), zap.String("uid", id.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": u.Balance})
}

type setMoneyReq struct {
	Balance int64 `json:"balance"`
}

// SetMoney godoc
// @Summary Overwrite balance
// @Tags user
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body setMoneyReq true "balance"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/user/money [post]
func (h *Handler) SetMoney(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var in setMoneyReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	// overwrite-семантика: любое целое принимается как есть
	if err := h.Store.SetBalance(c.Request.Context(), id.ID, id.Email, in.Balance); err != nil {
		log.L().Error("balance write failed", zap.Error(err), zap.String("uid", id.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "balance": in.Balance})
}

// GetUsername godoc
// @Summary Current username
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/user/username [get]
func (h *Handler) GetUsername(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	u, err := h.Store.FindUser(c.Request.Context(), id.ID)
	if err != nil {
		log.L().Error("username read failed", zap.Error(err), zap.String("uid", id.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	name := ""
	if u != nil {
		name = u.Username
	}
	c.JSON(http.StatusOK, gin.H{"username": name})
}

type setUsernameReq struct {
	Username string `json:"username"`
}

// SetUsername godoc
// @Summary Claim a globally unique username
// @Tags user
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body setUsernameReq true "username (trimmed, <=20 chars)"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/user/username [post]
func (h *Handler) SetUsername(c *gin.Context) {
	id, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var in setUsernameReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(in.Username)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	if utf8.RuneCountInString(name) > maxUsernameLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username too long"})
		return
	}
	err := h.Store.ClaimUsername(c.Request.Context(), id.ID, id.Email, name)
	if err == repo.ErrUsernameTaken {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}
	if err != nil {
		log.L().Error("username claim failed", zap.Error(err), zap.String("uid", id.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "username": name})
}

// Leaderboard godoc
// @Summary Leaderboard of users with a username, by balance desc
// @Tags leaderboard
// @Produce json
// @Success 200 {array} domain.LeaderboardRow
// @Failure 400 {object} map[string]string
// @Router /api/leaderboard [get]
func (h *Handler) Leaderboard(c *gin.Context) {
	ctx := c.Request.Context()
	if rows, ok := h.Cache.GetLeaderboard(ctx); ok {
		c.JSON(http.StatusOK, rows)
		return
	}

	users, err := h.Store.ListUsersWithUsername(ctx)
	if err != nil {
		log.L().Error("leaderboard read failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "db error"})
		return
	}

	rows := make([]domain.LeaderboardRow, 0, len(users))
	for _, u := range users {
		if u.Username == "" {
			continue
		}
		rows = append(rows, domain.LeaderboardRow{
			ID:         u.ID,
			Username:   u.Username,
			Email:      u.Email,
			TotalMoney: u.Balance,
		})
	}
	// по total_money desc; tie-break по id — стабильный порядок между вызовами
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalMoney != rows[j].TotalMoney {
			return rows[i].TotalMoney > rows[j].TotalMoney
		}
		return rows[i].ID < rows[j].ID
	})

	h.Cache.SetLeaderboard(ctx, rows, h.CacheTTL)
	c.JSON(http.StatusOK, rows)
}
