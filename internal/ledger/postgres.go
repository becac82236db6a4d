package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresVault persists the vault configuration, depositor reserves and the
// transaction journal in PostgreSQL. Expected schema:
//
//	vault_info(id int PRIMARY KEY CHECK (id = 1), administrator text,
//	           paused boolean, pooled bigint, invested bigint,
//	           created_at timestamptz)
//	reserves(owner text PRIMARY KEY, balance bigint)
//	token_reserves(owner text, mint text, balance bigint,
//	               PRIMARY KEY (owner, mint))
//	token_pools(mint text PRIMARY KEY, pooled bigint)
//	vault_transactions(id uuid PRIMARY KEY, client_tx_id text, kind text,
//	                   owner text, mint text, amount bigint,
//	                   reserve_after bigint, pooled_after bigint,
//	                   invested_after bigint, created_at timestamptz,
//	                   UNIQUE (client_tx_id, kind))
type PostgresVault struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed vault implementation.
func NewPostgres(db *pgxpool.Pool) *PostgresVault {
	return &PostgresVault{db: db}
}

// Initialize creates the singleton vault configuration record.
func (v *PostgresVault) Initialize(ctx context.Context, administrator string) (VaultInfo, error) {
	now := time.Now().UTC()
	tag, err := v.db.Exec(ctx, `INSERT INTO vault_info (id, administrator, paused, pooled, invested, created_at)
        VALUES (1, $1, false, 0, 0, $2)
        ON CONFLICT (id) DO NOTHING`, administrator, now)
	if err != nil {
		return VaultInfo{}, err
	}
	if tag.RowsAffected() == 0 {
		return VaultInfo{}, ErrAlreadyInitialized
	}
	return VaultInfo{Administrator: administrator, CreatedAt: now}, nil
}

// Info fetches the vault configuration record.
func (v *PostgresVault) Info(ctx context.Context) (VaultInfo, error) {
	return infoQuery(ctx, v.db)
}

// SetPaused toggles the pause flag. The administrator check runs inside the
// same transaction as the update so a concurrent re-initialize cannot race it.
func (v *PostgresVault) SetPaused(ctx context.Context, caller string, paused bool) (VaultInfo, error) {
	tx, err := v.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return VaultInfo{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	info, err := lockInfo(ctx, tx)
	if err != nil {
		return VaultInfo{}, err
	}
	if caller != info.Administrator {
		return VaultInfo{}, ErrUnauthorized
	}

	if _, err := tx.Exec(ctx, `UPDATE vault_info SET paused = $1 WHERE id = 1`, paused); err != nil {
		return VaultInfo{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return VaultInfo{}, err
	}

	info.Paused = paused
	return info, nil
}

// Deposit credits the owner's reserve and the pooled holding area, creating
// the reserve row lazily on first deposit.
func (v *PostgresVault) Deposit(ctx context.Context, owner, clientTxID string, amount int64) (ReserveResult, error) {
	if amount <= 0 {
		return ReserveResult{}, ErrNonPositiveAmount
	}

	tx, err := v.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ReserveResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if res, err := existingReserveTx(ctx, tx, clientTxID, KindDeposit); err == nil {
		return res, ErrDuplicateTransaction
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return ReserveResult{}, err
	}

	info, err := lockInfo(ctx, tx)
	if err != nil {
		return ReserveResult{}, err
	}
	if info.Paused {
		return ReserveResult{}, ErrPaused
	}

	var reserveAfter int64
	if err := tx.QueryRow(ctx, `INSERT INTO reserves (owner, balance) VALUES ($1, $2)
        ON CONFLICT (owner) DO UPDATE SET balance = reserves.balance + $2
        RETURNING balance`, owner, amount).Scan(&reserveAfter); err != nil {
		return ReserveResult{}, err
	}

	pooledAfter := info.Pooled + amount
	if _, err := tx.Exec(ctx, `UPDATE vault_info SET pooled = $1 WHERE id = 1`, pooledAfter); err != nil {
		return ReserveResult{}, err
	}

	txID := uuid.New()
	if err := journal(ctx, tx, txID, clientTxID, KindDeposit, owner, "", amount, reserveAfter, pooledAfter, info.Invested); err != nil {
		return ReserveResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ReserveResult{}, err
	}

	return ReserveResult{TransactionID: txID.String(), Owner: owner, Reserve: reserveAfter, Pooled: pooledAfter}, nil
}

// Withdraw debits the owner's reserve and the pooled holding area.
func (v *PostgresVault) Withdraw(ctx context.Context, owner, clientTxID string, amount int64) (ReserveResult, error) {
	if amount <= 0 {
		return ReserveResult{}, ErrNonPositiveAmount
	}

	tx, err := v.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ReserveResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if res, err := existingReserveTx(ctx, tx, clientTxID, KindWithdraw); err == nil {
		return res, ErrDuplicateTransaction
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return ReserveResult{}, err
	}

	info, err := lockInfo(ctx, tx)
	if err != nil {
		return ReserveResult{}, err
	}
	if info.Paused {
		return ReserveResult{}, ErrPaused
	}

	var reserve int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM reserves WHERE owner = $1 FOR UPDATE`, owner).Scan(&reserve); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReserveResult{}, ErrUnknownReserve
		}
		return ReserveResult{}, err
	}
	if reserve < amount {
		return ReserveResult{}, ErrInsufficientBalance
	}
	if info.Pooled < amount {
		return ReserveResult{}, ErrInsufficientLiquidity
	}

	reserveAfter := reserve - amount
	pooledAfter := info.Pooled - amount

	if _, err := tx.Exec(ctx, `UPDATE reserves SET balance = $1 WHERE owner = $2`, reserveAfter, owner); err != nil {
		return ReserveResult{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE vault_info SET pooled = $1 WHERE id = 1`, pooledAfter); err != nil {
		return ReserveResult{}, err
	}

	txID := uuid.New()
	if err := journal(ctx, tx, txID, clientTxID, KindWithdraw, owner, "", amount, reserveAfter, pooledAfter, info.Invested); err != nil {
		return ReserveResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ReserveResult{}, err
	}

	return ReserveResult{TransactionID: txID.String(), Owner: owner, Reserve: reserveAfter, Pooled: pooledAfter}, nil
}

// MoveInvested shifts funds between the pooled holding area and external
// custody. Administrator-only.
func (v *PostgresVault) MoveInvested(ctx context.Context, caller, clientTxID string, amount int64, toExternal bool) (InvestResult, error) {
	if amount <= 0 {
		return InvestResult{}, ErrNonPositiveAmount
	}

	kind := KindStake
	if !toExternal {
		kind = KindUnstake
	}

	tx, err := v.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return InvestResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	info, err := lockInfo(ctx, tx)
	if err != nil {
		return InvestResult{}, err
	}
	// Authorization precedes the replay lookup: only the administrator
	// may learn a stored stake or unstake outcome.
	if caller != info.Administrator {
		return InvestResult{}, ErrUnauthorized
	}

	if res, err := existingInvestTx(ctx, tx, clientTxID, kind); err == nil {
		return res, ErrDuplicateTransaction
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return InvestResult{}, err
	}

	pooledAfter, investedAfter := info.Pooled, info.Invested
	if toExternal {
		if info.Pooled < amount {
			return InvestResult{}, ErrInsufficientLiquidity
		}
		pooledAfter -= amount
		investedAfter += amount
	} else {
		if info.Invested < amount {
			return InvestResult{}, ErrInsufficientBalance
		}
		investedAfter -= amount
		pooledAfter += amount
	}

	if _, err := tx.Exec(ctx, `UPDATE vault_info SET pooled = $1, invested = $2 WHERE id = 1`, pooledAfter, investedAfter); err != nil {
		return InvestResult{}, err
	}

	txID := uuid.New()
	if err := journal(ctx, tx, txID, clientTxID, kind, "", "", amount, 0, pooledAfter, investedAfter); err != nil {
		return InvestResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return InvestResult{}, err
	}

	return InvestResult{TransactionID: txID.String(), Pooled: pooledAfter, Invested: investedAfter}, nil
}

// Investment looks up a previously journaled stake or unstake.
func (v *PostgresVault) Investment(ctx context.Context, clientTxID string, toExternal bool) (InvestResult, bool, error) {
	kind := KindStake
	if !toExternal {
		kind = KindUnstake
	}

	var res InvestResult
	var id uuid.UUID
	err := v.db.QueryRow(ctx, `SELECT id, pooled_after, invested_after
        FROM vault_transactions WHERE client_tx_id = $1 AND kind = $2`, clientTxID, kind).
		Scan(&id, &res.Pooled, &res.Invested)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InvestResult{}, false, nil
		}
		return InvestResult{}, false, err
	}
	res.TransactionID = id.String()
	return res, true, nil
}

// Reserve returns the owner's current ledger-entry balance.
func (v *PostgresVault) Reserve(ctx context.Context, owner string) (int64, error) {
	var balance int64
	if err := v.db.QueryRow(ctx, `SELECT balance FROM reserves WHERE owner = $1`, owner).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUnknownReserve
		}
		return 0, err
	}
	return balance, nil
}

// DepositToken credits the owner's token reserve and the vault's pooled
// holding for the mint, creating both rows lazily.
func (v *PostgresVault) DepositToken(ctx context.Context, owner, mint, clientTxID string, amount int64) (TokenResult, error) {
	if amount <= 0 {
		return TokenResult{}, ErrNonPositiveAmount
	}

	tx, err := v.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TokenResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if res, err := existingTokenTx(ctx, tx, clientTxID, KindTokenDeposit); err == nil {
		return res, ErrDuplicateTransaction
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return TokenResult{}, err
	}

	info, err := lockInfo(ctx, tx)
	if err != nil {
		return TokenResult{}, err
	}
	if info.Paused {
		return TokenResult{}, ErrPaused
	}

	var reserveAfter int64
	if err := tx.QueryRow(ctx, `INSERT INTO token_reserves (owner, mint, balance) VALUES ($1, $2, $3)
        ON CONFLICT (owner, mint) DO UPDATE SET balance = token_reserves.balance + $3
        RETURNING balance`, owner, mint, amount).Scan(&reserveAfter); err != nil {
		return TokenResult{}, err
	}

	var pooledAfter int64
	if err := tx.QueryRow(ctx, `INSERT INTO token_pools (mint, pooled) VALUES ($1, $2)
        ON CONFLICT (mint) DO UPDATE SET pooled = token_pools.pooled + $2
        RETURNING pooled`, mint, amount).Scan(&pooledAfter); err != nil {
		return TokenResult{}, err
	}

	txID := uuid.New()
	if err := journal(ctx, tx, txID, clientTxID, KindTokenDeposit, owner, mint, amount, reserveAfter, pooledAfter, info.Invested); err != nil {
		return TokenResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TokenResult{}, err
	}

	return TokenResult{TransactionID: txID.String(), Owner: owner, Mint: mint, Reserve: reserveAfter, Pooled: pooledAfter}, nil
}

// WithdrawToken debits the owner's token reserve and the vault's pooled
// holding for the mint.
func (v *PostgresVault) WithdrawToken(ctx context.Context, owner, mint, clientTxID string, amount int64) (TokenResult, error) {
	if amount <= 0 {
		return TokenResult{}, ErrNonPositiveAmount
	}

	tx, err := v.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TokenResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if res, err := existingTokenTx(ctx, tx, clientTxID, KindTokenWithdraw); err == nil {
		return res, ErrDuplicateTransaction
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return TokenResult{}, err
	}

	info, err := lockInfo(ctx, tx)
	if err != nil {
		return TokenResult{}, err
	}
	if info.Paused {
		return TokenResult{}, ErrPaused
	}

	var reserve int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM token_reserves WHERE owner = $1 AND mint = $2 FOR UPDATE`,
		owner, mint).Scan(&reserve); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenResult{}, ErrUnknownReserve
		}
		return TokenResult{}, err
	}
	if reserve < amount {
		return TokenResult{}, ErrInsufficientBalance
	}

	reserveAfter := reserve - amount
	if _, err := tx.Exec(ctx, `UPDATE token_reserves SET balance = $1 WHERE owner = $2 AND mint = $3`,
		reserveAfter, owner, mint); err != nil {
		return TokenResult{}, err
	}

	var pooledAfter int64
	if err := tx.QueryRow(ctx, `UPDATE token_pools SET pooled = pooled - $1 WHERE mint = $2
        RETURNING pooled`, amount, mint).Scan(&pooledAfter); err != nil {
		return TokenResult{}, err
	}

	txID := uuid.New()
	if err := journal(ctx, tx, txID, clientTxID, KindTokenWithdraw, owner, mint, amount, reserveAfter, pooledAfter, info.Invested); err != nil {
		return TokenResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TokenResult{}, err
	}

	return TokenResult{TransactionID: txID.String(), Owner: owner, Mint: mint, Reserve: reserveAfter, Pooled: pooledAfter}, nil
}

// TokenReserve returns the owner's balance for the mint.
func (v *PostgresVault) TokenReserve(ctx context.Context, owner, mint string) (int64, error) {
	var balance int64
	if err := v.db.QueryRow(ctx, `SELECT balance FROM token_reserves WHERE owner = $1 AND mint = $2`,
		owner, mint).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUnknownReserve
		}
		return 0, err
	}
	return balance, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func infoQuery(ctx context.Context, q rowQuerier) (VaultInfo, error) {
	var info VaultInfo
	err := q.QueryRow(ctx, `SELECT administrator, paused, pooled, invested, created_at
        FROM vault_info WHERE id = 1`).Scan(&info.Administrator, &info.Paused, &info.Pooled, &info.Invested, &info.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VaultInfo{}, ErrNotInitialized
		}
		return VaultInfo{}, err
	}
	info.CreatedAt = info.CreatedAt.UTC()
	return info, nil
}

func lockInfo(ctx context.Context, tx pgx.Tx) (VaultInfo, error) {
	var info VaultInfo
	err := tx.QueryRow(ctx, `SELECT administrator, paused, pooled, invested, created_at
        FROM vault_info WHERE id = 1 FOR UPDATE`).Scan(&info.Administrator, &info.Paused, &info.Pooled, &info.Invested, &info.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VaultInfo{}, ErrNotInitialized
		}
		return VaultInfo{}, err
	}
	return info, nil
}

func existingReserveTx(ctx context.Context, tx pgx.Tx, clientTxID, kind string) (ReserveResult, error) {
	var res ReserveResult
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id, owner, reserve_after, pooled_after
        FROM vault_transactions WHERE client_tx_id = $1 AND kind = $2`, clientTxID, kind).
		Scan(&id, &res.Owner, &res.Reserve, &res.Pooled)
	if err != nil {
		return ReserveResult{}, err
	}
	res.TransactionID = id.String()
	return res, nil
}

func existingInvestTx(ctx context.Context, tx pgx.Tx, clientTxID, kind string) (InvestResult, error) {
	var res InvestResult
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id, pooled_after, invested_after
        FROM vault_transactions WHERE client_tx_id = $1 AND kind = $2`, clientTxID, kind).
		Scan(&id, &res.Pooled, &res.Invested)
	if err != nil {
		return InvestResult{}, err
	}
	res.TransactionID = id.String()
	return res, nil
}

func existingTokenTx(ctx context.Context, tx pgx.Tx, clientTxID, kind string) (TokenResult, error) {
	var res TokenResult
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id, owner, mint, reserve_after, pooled_after
        FROM vault_transactions WHERE client_tx_id = $1 AND kind = $2`, clientTxID, kind).
		Scan(&id, &res.Owner, &res.Mint, &res.Reserve, &res.Pooled)
	if err != nil {
		return TokenResult{}, err
	}
	res.TransactionID = id.String()
	return res, nil
}

func journal(ctx context.Context, tx pgx.Tx, id uuid.UUID, clientTxID, kind, owner, mint string, amount, reserveAfter, pooledAfter, investedAfter int64) error {
	_, err := tx.Exec(ctx, `INSERT INTO vault_transactions
        (id, client_tx_id, kind, owner, mint, amount, reserve_after, pooled_after, invested_after, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, clientTxID, kind, owner, mint, amount, reserveAfter, pooledAfter, investedAfter, time.Now().UTC())
	return err
}
