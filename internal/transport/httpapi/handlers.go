package httpapi

import (
	"errors"
	"net/http"
	"time"

	"towerdefense/internal/app"
	"towerdefense/internal/ports"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the game routes.
type Handler struct {
	exec   *app.Executor
	clock  ports.Clock
	logger *zap.Logger
}

// NewHandler creates a Handler. clock may be nil to use the system clock.
func NewHandler(exec *app.Executor, clock ports.Clock, logger *zap.Logger) *Handler {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{exec: exec, clock: clock, logger: logger}
}

type startRequest struct {
	Wager uint64 `json:"wager"`
}

type actionResponse struct {
	State  app.PlayerView `json:"state"`
	Events []app.Event    `json:"events"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.exec.Info())
}

func (h *Handler) State(c *gin.Context) {
	view, err := h.exec.View(c.Request.Context(), ownerFrom(c))
	if err != nil {
		h.fail(c, "state", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) Reset(c *gin.Context) { h.run(c, app.Action{Kind: app.ActionReset}) }

func (h *Handler) Battle(c *gin.Context) { h.run(c, app.Action{Kind: app.ActionBattle}) }

func (h *Handler) EndWave(c *gin.Context) { h.run(c, app.Action{Kind: app.ActionEndWave}) }

func (h *Handler) RequestGold(c *gin.Context) { h.run(c, app.Action{Kind: app.ActionRequestGold}) }

func (h *Handler) StartGame(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"wager\": <1-5>}"})
		return
	}
	h.run(c, app.Action{Kind: app.ActionStartGame, Wager: req.Wager})
}

func (h *Handler) run(c *gin.Context, action app.Action) {
	owner := ownerFrom(c)
	call := app.Call{CallerID: owner, Now: h.clock.Now()}

	result, err := h.exec.Execute(c.Request.Context(), call, action)
	if err != nil {
		h.fail(c, string(action.Kind), err)
		return
	}
	if result.NotifyErr != nil {
		h.logger.Warn("notification failed", zap.String("owner", owner), zap.Error(result.NotifyErr))
	}
	h.logger.Debug("action applied",
		zap.String("owner", owner),
		zap.String("action", string(action.Kind)),
		zap.String("phase", string(result.View.Phase)),
		zap.Uint64("balance", result.View.GoldBalance),
	)

	events := result.Events
	if events == nil {
		events = []app.Event{}
	}
	c.JSON(http.StatusOK, actionResponse{State: result.View, Events: events})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	fields := []zap.Field{zap.String("owner", ownerFrom(c)), zap.String("op", op), zap.Error(err)}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	h.logger.Warn("request rejected", fields...)
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrInvalidWager), errors.Is(err, app.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInsufficientGold), errors.Is(err, app.ErrPhaseViolation),
		errors.Is(err, ports.ErrVersionConflict):
		return http.StatusConflict
	case app.IsExhaustion(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
