package solana

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/token-dapp/internal/common"
	"github.com/AlexZinkM/token-dapp/internal/model"
)

// GetBalance gets the SOL balance of the connected account on the selected network
func GetBalance(ctx context.Context, s Session) (*model.SolanaBalanceResponse, error) {
	owner, err := payer(s)
	if err != nil {
		return nil, err
	}

	lamports, err := s.Connection().GetBalance(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &model.SolanaBalanceResponse{
		Address:  owner.String(),
		Network:  string(s.Network()),
		SOL:      common.LamportsToSOL(lamports),
		Lamports: lamports,
	}, nil
}
