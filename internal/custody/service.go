package custody

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bankvault/bankvault/internal/events"
	"github.com/bankvault/bankvault/internal/keys"
	"github.com/bankvault/bankvault/internal/ledger"
)

// ErrExternalCallFailed wraps a rejection from the external custody program.
var ErrExternalCallFailed = errors.New("external custody call failed")

// Service coordinates administrator-directed investment of pooled funds
// through the external custody connector and the vault ledger.
type Service struct {
	vault     ledger.Vault
	connector Connector
	publisher events.Publisher
	auth      Authorization
}

// NewService prepares a custody service, deriving the vault authority for
// the configured program up front.
func NewService(vault ledger.Vault, connector Connector, publisher events.Publisher, programID string) (*Service, error) {
	if connector == nil {
		connector = StaticConnector{}
	}

	program, err := keys.Parse(programID)
	if err != nil {
		return nil, fmt.Errorf("parse program id: %w", err)
	}
	authority, bump, err := keys.VaultAuthority(program)
	if err != nil {
		return nil, fmt.Errorf("derive vault authority: %w", err)
	}

	return &Service{
		vault:     vault,
		connector: connector,
		publisher: publisher,
		auth: Authorization{
			ProgramID: programID,
			Authority: authority.String(),
			Bump:      bump,
		},
	}, nil
}

// InvestInput captures an administrator's request to move pooled funds.
type InvestInput struct {
	Caller     string
	Amount     int64
	ToExternal bool
	ClientTxID string
}

// InvestResult describes the outcome of an investment move.
type InvestResult struct {
	TransactionID     string
	Pooled            int64
	Invested          int64
	ExternalReference string
	CompletedAt       time.Time
}

// Authority returns the vault's derived signing identity.
func (s *Service) Authority() Authorization {
	return s.auth
}

// Invest moves pooled funds into or out of external custody. Administrator
// only. Replays and moves the accounting cannot absorb are rejected before
// the connector is invoked, so a failed move never leaves funds parked
// externally without a matching ledger record.
func (s *Service) Invest(ctx context.Context, input InvestInput) (InvestResult, error) {
	if input.Amount <= 0 {
		return InvestResult{}, ledger.ErrNonPositiveAmount
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	info, err := s.vault.Info(ctx)
	if err != nil {
		return InvestResult{}, err
	}
	if input.Caller != info.Administrator {
		return InvestResult{}, ledger.ErrUnauthorized
	}

	// A replayed client transaction returns its stored outcome without
	// touching the connector again.
	if stored, ok, err := s.vault.Investment(ctx, input.ClientTxID, input.ToExternal); err != nil {
		return InvestResult{}, err
	} else if ok {
		return toInvestResult(stored, ""), ledger.ErrDuplicateTransaction
	}

	if input.ToExternal && info.Pooled < input.Amount {
		return InvestResult{}, ledger.ErrInsufficientLiquidity
	}
	if !input.ToExternal && info.Invested < input.Amount {
		return InvestResult{}, ledger.ErrInsufficientBalance
	}

	var receipt Receipt
	if input.ToExternal {
		receipt, err = s.connector.Stake(ctx, StakeRequest{Authorization: s.auth, Amount: input.Amount})
	} else {
		receipt, err = s.connector.Unstake(ctx, UnstakeRequest{Authorization: s.auth, Amount: input.Amount})
	}
	if err != nil {
		return InvestResult{}, fmt.Errorf("%w: %v", ErrExternalCallFailed, err)
	}

	res, err := s.vault.MoveInvested(ctx, input.Caller, input.ClientTxID, input.Amount, input.ToExternal)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			return toInvestResult(res, receipt.Reference), err
		}
		return InvestResult{}, err
	}

	s.publish(ctx, events.InvestmentMoved{
		TransactionID: res.TransactionID,
		Lamports:      input.Amount,
		Sol:           events.Sol(input.Amount),
		ToExternal:    input.ToExternal,
		Pooled:        res.Pooled,
		Invested:      res.Invested,
		OccurredAt:    time.Now().UTC(),
	})
	return toInvestResult(res, receipt.Reference), nil
}

func (s *Service) publish(ctx context.Context, event events.InvestmentMoved) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.KindInvestmentMoved, event)
}

func toInvestResult(res ledger.InvestResult, reference string) InvestResult {
	return InvestResult{
		TransactionID:     res.TransactionID,
		Pooled:            res.Pooled,
		Invested:          res.Invested,
		ExternalReference: reference,
		CompletedAt:       time.Now().UTC(),
	}
}
