package handlers

import (
	"context"
	"time"

	"github.com/afzalm/cclms/internal/cache"
	"github.com/afzalm/cclms/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	dbPing func() error
	cache  *cache.QueryCache
}

func NewHealthHandler(dbPing func() error, qc *cache.QueryCache) *HealthHandler {
	return &HealthHandler{dbPing: dbPing, cache: qc}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.dbPing(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	cacheStatus := "ok"
	if err := h.cache.Ping(ctx); err != nil {
		cacheStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Cache:     cacheStatus,
	})
}
