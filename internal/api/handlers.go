package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"streamliner/internal/dispatch"
	"streamliner/internal/item"
	"streamliner/internal/route"
	"streamliner/internal/version"
)

// Runner is the dispatcher surface the handlers call into.
type Runner interface {
	Run(ctx context.Context, command, rawURL string) (item.Envelope, error)
}

type Handler struct {
	runner  Runner
	started time.Time
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner, started: time.Now()}
}

// GetItems serves GET /v1/:command?url=... with the item envelope.
// Invocation errors are 400, upstream failures 502.
func (h *Handler) GetItems(c *gin.Context) {
	command := c.Param("command")
	env, err := h.runner.Run(c.Request.Context(), command, c.Query("url"))
	if err != nil {
		status := http.StatusBadGateway
		if dispatch.IsInvocationError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Item-Count", strconv.Itoa(len(env.Items)))
	c.JSON(http.StatusOK, env)
}

// Classify reports the command the get alias would pick.
func (h *Handler) Classify(c *gin.Context) {
	u := strings.TrimSpace(c.Query("url"))
	if u == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'url' parameter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u, "command": route.Classify(u).Command()})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   version.Version,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
