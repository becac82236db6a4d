package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bankvault/bankvault/internal/bank"
)

// RegisterVaultRoutes wires deposit/withdraw/pause endpoints.
func RegisterVaultRoutes(r fiber.Router, h *bank.Handler) {
	r.Post("/vault/initialize", h.Initialize)
	r.Post("/vault/pause", h.Pause)
	r.Post("/vault/unpause", h.Unpause)
	r.Post("/vault/deposits", h.Deposit)
	r.Post("/vault/withdrawals", h.Withdraw)
	r.Post("/vault/token-deposits", h.DepositToken)
	r.Post("/vault/token-withdrawals", h.WithdrawToken)
}
