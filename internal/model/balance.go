package model

// SolanaBalanceResponse represents response for GET /wallet/balance
type SolanaBalanceResponse struct {
	Address  string `json:"address"`
	Network  string `json:"network"`
	SOL      string `json:"sol"`
	Lamports uint64 `json:"lamports"`
}
