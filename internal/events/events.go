package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event kinds emitted after successful vault operations.
const (
	KindDepositRecorded         = "deposit_recorded"
	KindWithdrawalRecorded      = "withdrawal_recorded"
	KindTokenDepositRecorded    = "token_deposit_recorded"
	KindTokenWithdrawalRecorded = "token_withdrawal_recorded"
	KindVaultPauseToggled       = "vault_pause_toggled"
	KindInvestmentMoved         = "investment_moved"
)

// 1 SOL = 1e9 lamports.
const solDecimalExponent = 9

// DepositRecorded is emitted after a successful deposit.
type DepositRecorded struct {
	TransactionID string          `json:"transaction_id"`
	Owner         string          `json:"owner"`
	Lamports      int64           `json:"lamports"`
	Sol           decimal.Decimal `json:"sol"`
	Reserve       int64           `json:"reserve_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// WithdrawalRecorded is emitted after a successful withdrawal.
type WithdrawalRecorded struct {
	TransactionID string          `json:"transaction_id"`
	Owner         string          `json:"owner"`
	Lamports      int64           `json:"lamports"`
	Sol           decimal.Decimal `json:"sol"`
	Reserve       int64           `json:"reserve_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// TokenDepositRecorded is emitted after a successful token deposit. Amount
// is in the mint's base units; decimals vary per mint so no converted value
// is carried.
type TokenDepositRecorded struct {
	TransactionID string    `json:"transaction_id"`
	Owner         string    `json:"owner"`
	Mint          string    `json:"mint"`
	Amount        int64     `json:"amount"`
	Reserve       int64     `json:"reserve_after"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// TokenWithdrawalRecorded is emitted after a successful token withdrawal.
type TokenWithdrawalRecorded struct {
	TransactionID string    `json:"transaction_id"`
	Owner         string    `json:"owner"`
	Mint          string    `json:"mint"`
	Amount        int64     `json:"amount"`
	Reserve       int64     `json:"reserve_after"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// VaultPauseToggled is emitted when the administrator pauses or resumes the
// vault.
type VaultPauseToggled struct {
	Administrator string    `json:"administrator"`
	Paused        bool      `json:"paused"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// InvestmentMoved is emitted when pooled funds move to or from external
// custody.
type InvestmentMoved struct {
	TransactionID string          `json:"transaction_id"`
	Lamports      int64           `json:"lamports"`
	Sol           decimal.Decimal `json:"sol"`
	ToExternal    bool            `json:"to_external"`
	Pooled        int64           `json:"pooled_after"`
	Invested      int64           `json:"invested_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Sol converts a lamport amount to its decimal SOL representation.
func Sol(lamports int64) decimal.Decimal {
	return decimal.New(lamports, -solDecimalExponent)
}

// Publisher delivers operation events to downstream systems. Publishing is
// best-effort: callers log failures and never roll back the operation.
type Publisher interface {
	Publish(ctx context.Context, kind string, event any) error
}
