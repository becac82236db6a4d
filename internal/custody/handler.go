package custody

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bankvault/bankvault/internal/ledger"
	"github.com/bankvault/bankvault/internal/middleware"
)

// Handler exposes HTTP endpoints for administrator investment flows.
type Handler struct {
	service *Service
}

// NewHandler constructs a custody handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// InvestRequest captures administrator-provided data to move pooled funds.
type InvestRequest struct {
	Amount     int64  `json:"amount_lamports"`
	Direction  string `json:"direction"` // "stake" or "unstake"
	ClientTxID string `json:"client_tx_id"`
}

// InvestResponse represents the API response for investment actions.
type InvestResponse struct {
	TransactionID     string `json:"transaction_id"`
	Pooled            int64  `json:"pooled_lamports"`
	Invested          int64  `json:"invested_lamports"`
	ExternalReference string `json:"external_reference"`
}

// Invest moves pooled funds to or from external custody.
func (h *Handler) Invest(c *fiber.Ctx) error {
	var req InvestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	var toExternal bool
	switch req.Direction {
	case "stake":
		toExternal = true
	case "unstake":
		toExternal = false
	default:
		return fiber.NewError(http.StatusBadRequest, "direction must be \"stake\" or \"unstake\"")
	}

	result, err := h.service.Invest(c.UserContext(), InvestInput{
		Caller:     middleware.Caller(c),
		Amount:     req.Amount,
		ToExternal: toExternal,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicateTransaction):
			return c.Status(http.StatusOK).JSON(toResponse(result))
		case errors.Is(err, ledger.ErrUnauthorized):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrExternalCallFailed):
			return fiber.NewError(http.StatusBadGateway, err.Error())
		case errors.Is(err, ledger.ErrInsufficientLiquidity), errors.Is(err, ledger.ErrInsufficientBalance):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrNotInitialized):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toResponse(result))
}

// Authority returns the vault's derived signing identity.
func (h *Handler) Authority(c *fiber.Ctx) error {
	auth := h.service.Authority()
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"program_id": auth.ProgramID,
		"authority":  auth.Authority,
		"bump":       auth.Bump,
	})
}

func toResponse(result InvestResult) InvestResponse {
	return InvestResponse{
		TransactionID:     result.TransactionID,
		Pooled:            result.Pooled,
		Invested:          result.Invested,
		ExternalReference: result.ExternalReference,
	}
}
