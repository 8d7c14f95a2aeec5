package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snnyvrz/booklibrary/internal/db"
)

const readyPingTimeout = 2 * time.Second

type StoreStatus struct {
	Status    string `json:"status" example:"up"`
	LatencyMS int64  `json:"latency_ms" example:"1"`
	Error     string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status        string       `json:"status" example:"ok"`
	Version       string       `json:"version" example:"0.1.0"`
	UptimeSeconds int64        `json:"uptime"`
	Store         *StoreStatus `json:"db,omitempty"`
}

// HealthHandler serves liveness and readiness probes. Liveness never touches
// the store; readiness pings it with a short deadline.
type HealthHandler struct {
	db        *gorm.DB
	startTime time.Time
	version   string
}

func NewHealthHandler(gdb *gorm.DB, startTime time.Time, version string) *HealthHandler {
	return &HealthHandler{db: gdb, startTime: startTime, version: version}
}

func (h *HealthHandler) RegisterRoutes(e *gin.Engine) {
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
}

// Health godoc
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  HealthResponse
// @Router   /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.report("ok", nil))
}

// Ready godoc
// @Summary  Readiness probe, pings the book store
// @Tags     health
// @Produce  json
// @Success  200  {object}  HealthResponse
// @Failure  503  {object}  HealthResponse
// @Router   /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	store := h.pingStore(c.Request.Context())
	if store.Error != "" {
		c.JSON(http.StatusServiceUnavailable, h.report("unhealthy", store))
		return
	}

	c.JSON(http.StatusOK, h.report("ready", store))
}

func (h *HealthHandler) pingStore(ctx context.Context) *StoreStatus {
	ctx, cancel := context.WithTimeout(ctx, readyPingTimeout)
	defer cancel()

	start := time.Now()
	err := db.Ping(ctx, h.db)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return &StoreStatus{Status: "down", LatencyMS: latency, Error: err.Error()}
	}
	return &StoreStatus{Status: "up", LatencyMS: latency}
}

func (h *HealthHandler) report(status string, store *StoreStatus) HealthResponse {
	return HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Store:         store,
	}
}
