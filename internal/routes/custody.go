package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bankvault/bankvault/internal/custody"
)

// RegisterCustodyRoutes wires administrator investment endpoints.
func RegisterCustodyRoutes(r fiber.Router, h *custody.Handler) {
	r.Post("/vault/investments", h.Invest)
}
