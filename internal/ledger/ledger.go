package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyInitialized occurs when Initialize is called after the vault
	// configuration record has been created.
	ErrAlreadyInitialized = errors.New("vault already initialized")

	// ErrNotInitialized occurs when an operation requires the vault
	// configuration record and it does not exist yet.
	ErrNotInitialized = errors.New("vault not initialized")

	// ErrPaused rejects deposits and withdrawals while the vault is paused.
	ErrPaused = errors.New("vault is paused")

	// ErrInsufficientBalance occurs when a withdrawal exceeds the owner's
	// reserve balance.
	ErrInsufficientBalance = errors.New("insufficient reserve balance")

	// ErrInsufficientLiquidity occurs when the pooled holding area cannot
	// cover a withdrawal or investment because funds are held externally.
	ErrInsufficientLiquidity = errors.New("insufficient pooled liquidity")

	// ErrUnauthorized rejects administrator-only operations issued by any
	// other caller.
	ErrUnauthorized = errors.New("caller is not the vault administrator")

	// ErrUnknownReserve occurs when a withdrawal references an owner with no
	// ledger entry.
	ErrUnknownReserve = errors.New("no reserve for owner")

	// ErrDuplicateTransaction indicates the provided client transaction
	// identifier was already applied; the stored outcome is returned with it.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrNonPositiveAmount rejects zero and negative amounts before any
	// state is touched.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// Transaction kinds recorded against the vault.
const (
	KindDeposit       = "deposit"
	KindWithdraw      = "withdraw"
	KindStake         = "stake"
	KindUnstake       = "unstake"
	KindTokenDeposit  = "token_deposit"
	KindTokenWithdraw = "token_withdraw"
)

// VaultInfo is the single global configuration and accounting record.
type VaultInfo struct {
	Administrator string
	Paused        bool
	Pooled        int64
	Invested      int64
	CreatedAt     time.Time
}

// ReserveResult captures the outcome of a deposit or withdrawal.
type ReserveResult struct {
	TransactionID string
	Owner         string
	Reserve       int64
	Pooled        int64
}

// InvestResult captures the outcome of moving pooled funds to or from
// external custody.
type InvestResult struct {
	TransactionID string
	Pooled        int64
	Invested      int64
}

// TokenResult captures the outcome of a token-denominated deposit or
// withdrawal. Reserve is the owner's balance for the mint; Pooled is the
// vault's total holding for that mint. Amounts are in the mint's base units.
type TokenResult struct {
	TransactionID string
	Owner         string
	Mint          string
	Reserve       int64
	Pooled        int64
}

// Vault defines the contract implemented by custody ledger backends
// (e.g. Postgres). Every method applies atomically: a failed operation
// leaves no partial state behind.
type Vault interface {
	Initialize(ctx context.Context, administrator string) (VaultInfo, error)
	Info(ctx context.Context) (VaultInfo, error)
	SetPaused(ctx context.Context, caller string, paused bool) (VaultInfo, error)
	Deposit(ctx context.Context, owner, clientTxID string, amount int64) (ReserveResult, error)
	Withdraw(ctx context.Context, owner, clientTxID string, amount int64) (ReserveResult, error)
	MoveInvested(ctx context.Context, caller, clientTxID string, amount int64, toExternal bool) (InvestResult, error)
	// Investment looks up a previously applied stake or unstake by its
	// client transaction identifier without mutating anything.
	Investment(ctx context.Context, clientTxID string, toExternal bool) (InvestResult, bool, error)
	Reserve(ctx context.Context, owner string) (int64, error)
	DepositToken(ctx context.Context, owner, mint, clientTxID string, amount int64) (TokenResult, error)
	WithdrawToken(ctx context.Context, owner, mint, clientTxID string, amount int64) (TokenResult, error)
	TokenReserve(ctx context.Context, owner, mint string) (int64, error)
}
