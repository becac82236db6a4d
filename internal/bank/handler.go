package bank

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bankvault/bankvault/internal/ledger"
	"github.com/bankvault/bankvault/internal/middleware"
)

// Handler exposes HTTP endpoints for vault deposit/withdraw flows.
type Handler struct {
	service *Service
}

// NewHandler constructs a bank handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Initialize creates the vault with the caller as administrator.
func (h *Handler) Initialize(c *fiber.Ctx) error {
	caller := middleware.Caller(c)

	info, err := h.service.Initialize(c.UserContext(), caller)
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyInitialized) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(toVaultResponse(info))
}

// Info returns the vault configuration record.
func (h *Handler) Info(c *fiber.Ctx) error {
	info, err := h.service.Info(c.UserContext())
	if err != nil {
		if errors.Is(err, ledger.ErrNotInitialized) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toVaultResponse(info))
}

// Pause halts deposits and withdrawals. Administrator only.
func (h *Handler) Pause(c *fiber.Ctx) error {
	return h.setPaused(c, true)
}

// Unpause resumes deposits and withdrawals. Administrator only.
func (h *Handler) Unpause(c *fiber.Ctx) error {
	return h.setPaused(c, false)
}

func (h *Handler) setPaused(c *fiber.Ctx, paused bool) error {
	caller := middleware.Caller(c)

	info, err := h.service.SetPaused(c.UserContext(), caller, paused)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnauthorized):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ledger.ErrNotInitialized):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(toVaultResponse(info))
}

// Deposit credits the caller's reserve.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Deposit(c.UserContext(), DepositInput{
		Owner:      middleware.Caller(c),
		Amount:     req.Amount,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		return operationError(c, result, err)
	}

	return c.Status(http.StatusCreated).JSON(toOperationResponse(result))
}

// Withdraw debits the caller's reserve.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Withdraw(c.UserContext(), WithdrawInput{
		Owner:      middleware.Caller(c),
		Amount:     req.Amount,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		return operationError(c, result, err)
	}

	return c.Status(http.StatusCreated).JSON(toOperationResponse(result))
}

// DepositToken credits the caller's reserve for a token mint.
func (h *Handler) DepositToken(c *fiber.Ctx) error {
	var req TokenOperationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.DepositToken(c.UserContext(), TokenInput{
		Owner:      middleware.Caller(c),
		Mint:       req.Mint,
		Amount:     req.Amount,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		return tokenOperationError(c, result, err)
	}

	return c.Status(http.StatusCreated).JSON(toTokenOperationResponse(result))
}

// WithdrawToken debits the caller's reserve for a token mint.
func (h *Handler) WithdrawToken(c *fiber.Ctx) error {
	var req TokenOperationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.WithdrawToken(c.UserContext(), TokenInput{
		Owner:      middleware.Caller(c),
		Mint:       req.Mint,
		Amount:     req.Amount,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		return tokenOperationError(c, result, err)
	}

	return c.Status(http.StatusCreated).JSON(toTokenOperationResponse(result))
}

// Reserve returns the ledger-entry balance for an owner.
func (h *Handler) Reserve(c *fiber.Ctx) error {
	owner := c.Params("owner")
	balance, err := h.service.Reserve(c.UserContext(), owner)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnknownReserve), errors.Is(err, ledger.ErrNotInitialized):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner":            owner,
		"reserve_lamports": balance,
		"timestamp":        time.Now().UTC(),
	})
}

// TokenReserve returns the token balance for an owner and mint.
func (h *Handler) TokenReserve(c *fiber.Ctx) error {
	owner := c.Params("owner")
	mint := c.Params("mint")
	balance, err := h.service.TokenReserve(c.UserContext(), owner, mint)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnknownReserve), errors.Is(err, ledger.ErrNotInitialized):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner":     owner,
		"mint":      mint,
		"reserve":   balance,
		"timestamp": time.Now().UTC(),
	})
}

func operationError(c *fiber.Ctx, result OperationResult, err error) error {
	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return c.Status(http.StatusOK).JSON(toOperationResponse(result))
	case errors.Is(err, ledger.ErrPaused):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, ledger.ErrInsufficientLiquidity):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrUnknownReserve), errors.Is(err, ledger.ErrNotInitialized):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

func tokenOperationError(c *fiber.Ctx, result TokenOperationResult, err error) error {
	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return c.Status(http.StatusOK).JSON(toTokenOperationResponse(result))
	case errors.Is(err, ledger.ErrPaused):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrUnknownReserve), errors.Is(err, ledger.ErrNotInitialized):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

func toOperationResponse(result OperationResult) OperationResponse {
	return OperationResponse{
		TransactionID: result.TransactionID,
		Owner:         result.Owner,
		Reserve:       result.Reserve,
		Pooled:        result.Pooled,
	}
}

func toTokenOperationResponse(result TokenOperationResult) TokenOperationResponse {
	return TokenOperationResponse{
		TransactionID: result.TransactionID,
		Owner:         result.Owner,
		Mint:          result.Mint,
		Reserve:       result.Reserve,
		Pooled:        result.Pooled,
	}
}

func toVaultResponse(info ledger.VaultInfo) VaultResponse {
	return VaultResponse{
		Administrator: info.Administrator,
		Paused:        info.Paused,
		Pooled:        info.Pooled,
		Invested:      info.Invested,
		CreatedAt:     info.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
