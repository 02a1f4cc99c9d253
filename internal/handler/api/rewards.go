package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/leaderboard"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"
)

// HealthChecker reports readiness of one named dependency.
type HealthChecker interface {
	Name() string
	Healthy() bool
}

// RewardsHandler exposes reward submission and the model leaderboard.
type RewardsHandler struct {
	logger   *xlogger.Logger
	tracker  *leaderboard.Tracker
	checkers []HealthChecker
}

func NewRewardsHandler(logger *xlogger.Logger, tracker *leaderboard.Tracker, checkers ...HealthChecker) *RewardsHandler {
	return &RewardsHandler{logger: logger, tracker: tracker, checkers: checkers}
}

func (h *RewardsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.POST("/rewards", h.SubmitReward)
	g.GET("/leaderboard", h.Leaderboard)
}

type rewardRequest struct {
	Model  string  `json:"model" validate:"required"`
	Symbol string  `json:"symbol" validate:"required"`
	Reward float64 `json:"reward"`
}

func (h *RewardsHandler) SubmitReward(c echo.Context) error {
	req := &rewardRequest{}
	if err := xhttp.BindAndValidate(c, req); err != nil {
		return xhttp.BadRequest(c, err.Error())
	}

	rec := models.RewardRecord{
		Model:     req.Model,
		Symbol:    req.Symbol,
		Reward:    req.Reward,
		Timestamp: time.Now().Unix(),
	}
	if err := h.tracker.Submit(rec); err != nil {
		return xhttp.BadRequest(c, err.Error())
	}
	h.logger.Debug("reward submitted",
		xlogger.String("model", req.Model),
		xlogger.String("symbol", req.Symbol),
		xlogger.Float64("reward", req.Reward))
	return xhttp.Created(c, rec)
}

func (h *RewardsHandler) Leaderboard(c echo.Context) error {
	n := 10
	if raw := c.QueryParam("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return xhttp.BadRequest(c, "n must be a positive integer")
		}
		n = v
	}
	return xhttp.OK(c, h.tracker.Top(n))
}

func (h *RewardsHandler) Health(c echo.Context) error {
	status := map[string]bool{}
	healthy := true
	for _, ch := range h.checkers {
		ok := ch.Healthy()
		status[ch.Name()] = ok
		healthy = healthy && ok
	}
	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "degraded", "checks": status})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "checks": status})
}
