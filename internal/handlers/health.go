package handlers

import (
	"context"
	"time"

	"walletd/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// Pinger is implemented by stores that can report their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	driver string
}

func NewHealthHandler(store Pinger, driver string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		return utils.Respond(c, fiber.StatusServiceUnavailable, fiber.Map{
			"status": "degraded",
			"store":  fiber.Map{"driver": h.driver, "status": "unreachable"},
		})
	}

	return utils.Success(c, fiber.Map{
		"status": "ok",
		"store":  fiber.Map{"driver": h.driver, "status": "connected"},
	})
}
