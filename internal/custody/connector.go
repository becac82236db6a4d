package custody

import (
	"context"

	"github.com/google/uuid"
)

// Authorization is the delegated signing capability presented to the external
// custody program. It is scoped to the vault's derived authority, never to an
// ambient administrator privilege.
type Authorization struct {
	ProgramID string
	Authority string
	Bump      uint8
}

// StakeRequest captures details for moving pooled funds into external custody.
type StakeRequest struct {
	Authorization Authorization
	Amount        int64
}

// UnstakeRequest captures details for returning funds from external custody.
type UnstakeRequest struct {
	Authorization Authorization
	Amount        int64
}

// Receipt is the external program's acknowledgement of a custody call.
type Receipt struct {
	Reference string
	Status    string
}

// Connector represents a connector to an external custody program. A call
// either fully succeeds or returns an error; the vault's accounting never
// runs for a rejected call.
type Connector interface {
	Stake(ctx context.Context, req StakeRequest) (Receipt, error)
	Unstake(ctx context.Context, req UnstakeRequest) (Receipt, error)
}

// StaticConnector simulates a successful external custody integration.
type StaticConnector struct{}

// Stake approves the custody deposit with a synthetic reference.
func (StaticConnector) Stake(_ context.Context, _ StakeRequest) (Receipt, error) {
	return Receipt{Reference: uuid.NewString(), Status: "confirmed"}, nil
}

// Unstake approves the custody withdrawal with a synthetic reference.
func (StaticConnector) Unstake(_ context.Context, _ UnstakeRequest) (Receipt, error) {
	return Receipt{Reference: uuid.NewString(), Status: "confirmed"}, nil
}
