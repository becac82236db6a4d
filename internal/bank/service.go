package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bankvault/bankvault/internal/events"
	"github.com/bankvault/bankvault/internal/keys"
	"github.com/bankvault/bankvault/internal/ledger"
)

// Service exposes the depositor-facing vault operations backed by the
// custody ledger.
type Service struct {
	vault     ledger.Vault
	publisher events.Publisher
}

// NewService builds a bank service instance.
func NewService(vault ledger.Vault, publisher events.Publisher) *Service {
	return &Service{vault: vault, publisher: publisher}
}

// DepositInput captures data required to record a deposit.
type DepositInput struct {
	Owner      string
	Amount     int64
	ClientTxID string
}

// WithdrawInput captures data required to record a withdrawal.
type WithdrawInput struct {
	Owner      string
	Amount     int64
	ClientTxID string
}

// TokenInput captures data required to record a token-denominated deposit
// or withdrawal against a mint. Amount is in the mint's base units.
type TokenInput struct {
	Owner      string
	Mint       string
	Amount     int64
	ClientTxID string
}

// OperationResult describes the ledger outcome of a deposit or withdrawal.
type OperationResult struct {
	TransactionID string
	Owner         string
	Reserve       int64
	Pooled        int64
	CompletedAt   time.Time
}

// TokenOperationResult describes the ledger outcome of a token deposit or
// withdrawal.
type TokenOperationResult struct {
	TransactionID string
	Owner         string
	Mint          string
	Reserve       int64
	Pooled        int64
	CompletedAt   time.Time
}

// Initialize creates the vault configuration record with the caller as
// administrator. Callable once for the lifetime of the deployment.
func (s *Service) Initialize(ctx context.Context, caller string) (ledger.VaultInfo, error) {
	if _, err := keys.Parse(caller); err != nil {
		return ledger.VaultInfo{}, err
	}
	return s.vault.Initialize(ctx, caller)
}

// Info returns the vault configuration record.
func (s *Service) Info(ctx context.Context) (ledger.VaultInfo, error) {
	return s.vault.Info(ctx)
}

// SetPaused toggles the pause gate. Administrator only.
func (s *Service) SetPaused(ctx context.Context, caller string, paused bool) (ledger.VaultInfo, error) {
	info, err := s.vault.SetPaused(ctx, caller, paused)
	if err != nil {
		return ledger.VaultInfo{}, err
	}

	s.publish(ctx, events.KindVaultPauseToggled, events.VaultPauseToggled{
		Administrator: info.Administrator,
		Paused:        info.Paused,
		OccurredAt:    time.Now().UTC(),
	})
	return info, nil
}

// Deposit credits the caller's reserve, creating it on first use.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (OperationResult, error) {
	if input.Amount <= 0 {
		return OperationResult{}, ledger.ErrNonPositiveAmount
	}
	if _, err := keys.Parse(input.Owner); err != nil {
		return OperationResult{}, err
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	res, err := s.vault.Deposit(ctx, input.Owner, input.ClientTxID, input.Amount)
	if err != nil {
		return toResult(res), err
	}

	s.publish(ctx, events.KindDepositRecorded, events.DepositRecorded{
		TransactionID: res.TransactionID,
		Owner:         res.Owner,
		Lamports:      input.Amount,
		Sol:           events.Sol(input.Amount),
		Reserve:       res.Reserve,
		OccurredAt:    time.Now().UTC(),
	})
	return toResult(res), nil
}

// Withdraw debits the caller's reserve and returns pooled funds.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (OperationResult, error) {
	if input.Amount <= 0 {
		return OperationResult{}, ledger.ErrNonPositiveAmount
	}
	if _, err := keys.Parse(input.Owner); err != nil {
		return OperationResult{}, err
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	res, err := s.vault.Withdraw(ctx, input.Owner, input.ClientTxID, input.Amount)
	if err != nil {
		return toResult(res), err
	}

	s.publish(ctx, events.KindWithdrawalRecorded, events.WithdrawalRecorded{
		TransactionID: res.TransactionID,
		Owner:         res.Owner,
		Lamports:      input.Amount,
		Sol:           events.Sol(input.Amount),
		Reserve:       res.Reserve,
		OccurredAt:    time.Now().UTC(),
	})
	return toResult(res), nil
}

// DepositToken credits the caller's reserve for a token mint.
func (s *Service) DepositToken(ctx context.Context, input TokenInput) (TokenOperationResult, error) {
	if err := validateTokenInput(&input); err != nil {
		return TokenOperationResult{}, err
	}

	res, err := s.vault.DepositToken(ctx, input.Owner, input.Mint, input.ClientTxID, input.Amount)
	if err != nil {
		return toTokenResult(res), err
	}

	s.publish(ctx, events.KindTokenDepositRecorded, events.TokenDepositRecorded{
		TransactionID: res.TransactionID,
		Owner:         res.Owner,
		Mint:          res.Mint,
		Amount:        input.Amount,
		Reserve:       res.Reserve,
		OccurredAt:    time.Now().UTC(),
	})
	return toTokenResult(res), nil
}

// WithdrawToken debits the caller's reserve for a token mint.
func (s *Service) WithdrawToken(ctx context.Context, input TokenInput) (TokenOperationResult, error) {
	if err := validateTokenInput(&input); err != nil {
		return TokenOperationResult{}, err
	}

	res, err := s.vault.WithdrawToken(ctx, input.Owner, input.Mint, input.ClientTxID, input.Amount)
	if err != nil {
		return toTokenResult(res), err
	}

	s.publish(ctx, events.KindTokenWithdrawalRecorded, events.TokenWithdrawalRecorded{
		TransactionID: res.TransactionID,
		Owner:         res.Owner,
		Mint:          res.Mint,
		Amount:        input.Amount,
		Reserve:       res.Reserve,
		OccurredAt:    time.Now().UTC(),
	})
	return toTokenResult(res), nil
}

// Reserve returns the current ledger-entry balance for an owner.
func (s *Service) Reserve(ctx context.Context, owner string) (int64, error) {
	if _, err := keys.Parse(owner); err != nil {
		return 0, err
	}
	return s.vault.Reserve(ctx, owner)
}

// TokenReserve returns the owner's balance for a token mint.
func (s *Service) TokenReserve(ctx context.Context, owner, mint string) (int64, error) {
	if _, err := keys.Parse(owner); err != nil {
		return 0, err
	}
	if _, err := keys.Parse(mint); err != nil {
		return 0, err
	}
	return s.vault.TokenReserve(ctx, owner, mint)
}

func validateTokenInput(input *TokenInput) error {
	if input.Amount <= 0 {
		return ledger.ErrNonPositiveAmount
	}
	if _, err := keys.Parse(input.Owner); err != nil {
		return err
	}
	if _, err := keys.Parse(input.Mint); err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}
	return nil
}

func (s *Service) publish(ctx context.Context, kind string, event any) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, kind, event)
}

func toResult(res ledger.ReserveResult) OperationResult {
	return OperationResult{
		TransactionID: res.TransactionID,
		Owner:         res.Owner,
		Reserve:       res.Reserve,
		Pooled:        res.Pooled,
		CompletedAt:   time.Now().UTC(),
	}
}

func toTokenResult(res ledger.TokenResult) TokenOperationResult {
	return TokenOperationResult{
		TransactionID: res.TransactionID,
		Owner:         res.Owner,
		Mint:          res.Mint,
		Reserve:       res.Reserve,
		Pooled:        res.Pooled,
		CompletedAt:   time.Now().UTC(),
	}
}
