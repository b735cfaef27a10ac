package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	rdb     *redis.Client
	version string
	started time.Time
}

// NewHealthHandler accepts a nil rdb when redis is not configured.
func NewHealthHandler(db *gorm.DB, rdb *redis.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, version: version, started: time.Now()}
}

func (h *HealthHandler) Health(c *gin.Context) {
	checks := gin.H{"database": "ok"}
	status := http.StatusOK
	if err := database.Ping(h.db); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.rdb != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			// redis only backs rate limiting, so the API stays up without it
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}
	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"checks":  checks,
	})
}
