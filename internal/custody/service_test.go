package custody

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"testing"

	"github.com/bankvault/bankvault/internal/keys"
	"github.com/bankvault/bankvault/internal/ledger"
)

type countingConnector struct {
	stakes   int
	unstakes int
}

func (c *countingConnector) Stake(ctx context.Context, req StakeRequest) (Receipt, error) {
	c.stakes++
	return StaticConnector{}.Stake(ctx, req)
}

func (c *countingConnector) Unstake(ctx context.Context, req UnstakeRequest) (Receipt, error) {
	c.unstakes++
	return StaticConnector{}.Unstake(ctx, req)
}

type rejectingConnector struct{}

func (rejectingConnector) Stake(_ context.Context, _ StakeRequest) (Receipt, error) {
	return Receipt{}, fmt.Errorf("custody program rejected the call")
}

func (rejectingConnector) Unstake(_ context.Context, _ UnstakeRequest) (Receipt, error) {
	return Receipt{}, fmt.Errorf("custody program rejected the call")
}

func newIdentity(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return keys.PublicKey(pub).String()
}

func fundedVault(t *testing.T, admin, user string, amount int64) ledger.Vault {
	t.Helper()
	ctx := context.Background()
	vault := ledger.NewInMemory()
	if _, err := vault.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := vault.Deposit(ctx, user, "seed", amount); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}
	return vault
}

func TestInvestStakeAndUnstake(t *testing.T) {
	ctx := context.Background()
	admin := newIdentity(t)
	user := newIdentity(t)
	vault := fundedVault(t, admin, user, 10_000)

	svc, err := NewService(vault, StaticConnector{}, nil, newIdentity(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.Invest(ctx, InvestInput{Caller: admin, Amount: 6_000, ToExternal: true})
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if res.Pooled != 4_000 || res.Invested != 6_000 {
		t.Fatalf("unexpected accounting: %+v", res)
	}
	if res.ExternalReference == "" {
		t.Fatal("expected an external reference")
	}

	res, err = svc.Invest(ctx, InvestInput{Caller: admin, Amount: 2_000, ToExternal: false})
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if res.Pooled != 6_000 || res.Invested != 4_000 {
		t.Fatalf("unexpected accounting after unstake: %+v", res)
	}
}

func TestInvestRequiresAdministrator(t *testing.T) {
	ctx := context.Background()
	admin := newIdentity(t)
	user := newIdentity(t)
	vault := fundedVault(t, admin, user, 10_000)

	svc, err := NewService(vault, StaticConnector{}, nil, newIdentity(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Invest(ctx, InvestInput{Caller: user, Amount: 1_000, ToExternal: true}); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestInvestExternalRejection(t *testing.T) {
	ctx := context.Background()
	admin := newIdentity(t)
	user := newIdentity(t)
	vault := fundedVault(t, admin, user, 10_000)

	svc, err := NewService(vault, rejectingConnector{}, nil, newIdentity(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Invest(ctx, InvestInput{Caller: admin, Amount: 1_000, ToExternal: true}); !errors.Is(err, ErrExternalCallFailed) {
		t.Fatalf("expected ErrExternalCallFailed, got %v", err)
	}

	// Accounting untouched after the rejected call.
	info, err := vault.Info(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Pooled != 10_000 || info.Invested != 0 {
		t.Fatalf("rejected call mutated accounting: %+v", info)
	}
}

func TestInvestIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	admin := newIdentity(t)
	user := newIdentity(t)
	vault := fundedVault(t, admin, user, 10_000)

	connector := &countingConnector{}
	svc, err := NewService(vault, connector, nil, newIdentity(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	first, err := svc.Invest(ctx, InvestInput{Caller: admin, Amount: 500, ToExternal: true, ClientTxID: "inv-1"})
	if err != nil {
		t.Fatalf("stake: %v", err)
	}

	replay, err := svc.Invest(ctx, InvestInput{Caller: admin, Amount: 500, ToExternal: true, ClientTxID: "inv-1"})
	if !errors.Is(err, ledger.ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if replay.TransactionID != first.TransactionID {
		t.Fatalf("replay returned different transaction: %+v vs %+v", replay, first)
	}
	if connector.stakes != 1 {
		t.Fatalf("replay reached the connector: %d stake calls", connector.stakes)
	}

	info, _ := vault.Info(ctx)
	if info.Pooled != 9_500 || info.Invested != 500 {
		t.Fatalf("replay mutated accounting: %+v", info)
	}
}

func TestInvestRejectsBeforeConnector(t *testing.T) {
	ctx := context.Background()
	admin := newIdentity(t)
	user := newIdentity(t)
	vault := fundedVault(t, admin, user, 1_000)

	connector := &countingConnector{}
	svc, err := NewService(vault, connector, nil, newIdentity(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	// An over-stake must fail without ever reaching the external program:
	// a confirmed external move with no ledger record would strand funds.
	if _, err := svc.Invest(ctx, InvestInput{Caller: admin, Amount: 5_000, ToExternal: true}); !errors.Is(err, ledger.ErrInsufficientLiquidity) {
		t.Fatalf("expected insufficient liquidity, got %v", err)
	}
	if _, err := svc.Invest(ctx, InvestInput{Caller: admin, Amount: 100, ToExternal: false}); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if _, err := svc.Invest(ctx, InvestInput{Caller: user, Amount: 100, ToExternal: true}); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if connector.stakes != 0 || connector.unstakes != 0 {
		t.Fatalf("rejected moves reached the connector: stakes=%d unstakes=%d", connector.stakes, connector.unstakes)
	}
}

func TestInvestLiquidityBounds(t *testing.T) {
	ctx := context.Background()
	admin := newIdentity(t)
	user := newIdentity(t)
	vault := fundedVault(t, admin, user, 1_000)

	svc, err := NewService(vault, StaticConnector{}, nil, newIdentity(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Invest(ctx, InvestInput{Caller: admin, Amount: 5_000, ToExternal: true}); !errors.Is(err, ledger.ErrInsufficientLiquidity) {
		t.Fatalf("expected insufficient liquidity, got %v", err)
	}
	if _, err := svc.Invest(ctx, InvestInput{Caller: admin, Amount: 100, ToExternal: false}); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance on unstake, got %v", err)
	}
}

func TestAuthorityDerivedOffCurve(t *testing.T) {
	vault := ledger.NewInMemory()
	program := newIdentity(t)

	svc, err := NewService(vault, StaticConnector{}, nil, program)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	auth := svc.Authority()
	if auth.ProgramID != program {
		t.Fatalf("expected program id %s, got %s", program, auth.ProgramID)
	}
	if auth.Authority == "" {
		t.Fatal("expected a derived authority address")
	}

	parsed, err := keys.Parse(auth.Authority)
	if err != nil {
		t.Fatalf("parse authority: %v", err)
	}
	programKey, _ := keys.Parse(program)
	derived, bump, err := keys.VaultAuthority(programKey)
	if err != nil {
		t.Fatalf("re-derive authority: %v", err)
	}
	if !derived.Equal(parsed) || bump != auth.Bump {
		t.Fatal("authority derivation is not deterministic")
	}
}
