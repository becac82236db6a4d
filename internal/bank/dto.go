package bank

// DepositRequest captures user-provided data to deposit into the vault.
type DepositRequest struct {
	Amount     int64  `json:"amount_lamports"`
	ClientTxID string `json:"client_tx_id"`
}

// WithdrawRequest captures user-provided data to withdraw from the vault.
type WithdrawRequest struct {
	Amount     int64  `json:"amount_lamports"`
	ClientTxID string `json:"client_tx_id"`
}

// TokenOperationRequest captures user-provided data for token-denominated
// deposits and withdrawals. Amount is in the mint's base units.
type TokenOperationRequest struct {
	Mint       string `json:"mint"`
	Amount     int64  `json:"amount"`
	ClientTxID string `json:"client_tx_id"`
}

// OperationResponse represents the API response for deposit and withdrawal
// actions.
type OperationResponse struct {
	TransactionID string `json:"transaction_id"`
	Owner         string `json:"owner"`
	Reserve       int64  `json:"reserve_lamports"`
	Pooled        int64  `json:"pooled_lamports"`
}

// TokenOperationResponse represents the API response for token deposit and
// withdrawal actions.
type TokenOperationResponse struct {
	TransactionID string `json:"transaction_id"`
	Owner         string `json:"owner"`
	Mint          string `json:"mint"`
	Reserve       int64  `json:"reserve"`
	Pooled        int64  `json:"pooled"`
}

// VaultResponse represents the API view of the vault configuration record.
type VaultResponse struct {
	Administrator string `json:"administrator"`
	Paused        bool   `json:"paused"`
	Pooled        int64  `json:"pooled_lamports"`
	Invested      int64  `json:"invested_lamports"`
	CreatedAt     string `json:"created_at"`
}
