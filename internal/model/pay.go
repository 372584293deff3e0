package model

// PayRequest represents request for POST /solana/pay/sol
type PayRequest struct {
	ToAddress string `json:"toAddress" binding:"required"`
	Amount    string `json:"amount" binding:"required"` // SOL, e.g. "0.25"
}

// PayResponse represents response for POST /solana/pay/sol
type PayResponse struct {
	TxID     string `json:"txId"`
	Network  string `json:"network"`
	Lamports uint64 `json:"lamports"`
}
