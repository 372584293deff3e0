package solana

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/AlexZinkM/token-dapp/internal/common"
	"github.com/AlexZinkM/token-dapp/internal/model"
)

const (
	solFeeLamports = 5000 // Fee in lamports (0.000005 SOL)
)

var (
	lastPayTime time.Time
	payMutex    sync.Mutex
)

// PaySOL sends SOL from the connected wallet. Payments are rate limited to one
// per cooldownMinutes.
func PaySOL(ctx context.Context, s Session, toAddress, amount string, cooldownMinutes int) (*model.PayResponse, error) {
	if !isValidSolanaAddress(toAddress) {
		return nil, invalid("invalid Solana address")
	}
	to := solana.MustPublicKeyFromBase58(toAddress)

	// Convert amount to lamports (string-based, no float precision loss)
	solAmountLamports, err := common.SOLToLamports(amount)
	if err != nil {
		return nil, invalid(fmt.Sprintf("invalid amount: %v", err))
	}
	if solAmountLamports == 0 {
		return nil, invalid("amount must be positive")
	}

	payMutex.Lock()
	defer payMutex.Unlock()

	if !lastPayTime.IsZero() {
		cooldownDuration := time.Duration(cooldownMinutes) * time.Minute
		if time.Since(lastPayTime) < cooldownDuration {
			remaining := cooldownDuration - time.Since(lastPayTime)
			return nil, fmt.Errorf("cooldown active, please wait %v", remaining.Round(time.Second))
		}
	}

	from, err := payer(s)
	if err != nil {
		return nil, err
	}
	conn := s.Connection()

	solBalLamports, err := conn.GetBalance(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}

	// Check SOL sufficiency (amount + fee)
	requiredLamports := solAmountLamports + solFeeLamports
	if solBalLamports < requiredLamports {
		var maxLamports uint64
		if solBalLamports > solFeeLamports {
			maxLamports = solBalLamports - solFeeLamports
		}
		return nil, fmt.Errorf("insufficient SOL balance. Transaction fee: %s SOL. Max you can send: %s SOL",
			common.LamportsToSOL(solFeeLamports), common.LamportsToSOL(maxLamports))
	}

	recent, err := conn.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(solAmountLamports, from, to).Build()},
		recent,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	sig, err := s.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	lastPayTime = time.Now()
	s.FetchBalance(ctx)

	return &model.PayResponse{
		TxID:     sig.String(),
		Network:  string(s.Network()),
		Lamports: solAmountLamports,
	}, nil
}
