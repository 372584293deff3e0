package solana

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/AlexZinkM/token-dapp/internal/common"
	"github.com/AlexZinkM/token-dapp/internal/metadata"
	"github.com/AlexZinkM/token-dapp/internal/model"
	"github.com/AlexZinkM/token-dapp/internal/wallet"
)

const (
	mintAccountSize = 82 // SPL token mint account
	maxDecimals     = 9
)

// CreateToken creates a new SPL token owned by the connected wallet: the mint
// account, its metadata account, the wallet's token account and the initial
// supply, all in one transaction. The fresh mint key signs first, then the
// wallet signs and sends.
func CreateToken(ctx context.Context, s Session, req *model.CreateTokenRequest) (*model.CreateTokenResponse, error) {
	if err := validateContent(req.Name, req.Symbol, req.URI); err != nil {
		return nil, err
	}
	if req.Name == "" || req.Symbol == "" {
		return nil, invalid("name and symbol are required")
	}
	if req.Decimals > maxDecimals {
		return nil, invalid(fmt.Sprintf("decimals must be at most %d", maxDecimals))
	}
	if req.SellerFeeBasisPoints > metadata.MaxSellerFeeBasisPoints {
		return nil, invalid(fmt.Sprintf("sellerFeeBasisPoints must be at most %d", metadata.MaxSellerFeeBasisPoints))
	}
	var supply uint64
	if req.Supply != "" {
		var err error
		if supply, err = common.TokenAmountToBaseUnits(req.Supply, req.Decimals); err != nil {
			return nil, invalid(fmt.Sprintf("invalid supply: %v", err))
		}
	}
	isMutable := true
	if req.IsMutable != nil {
		isMutable = *req.IsMutable
	}

	owner, err := payer(s)
	if err != nil {
		return nil, err
	}
	conn := s.Connection()
	rc, ok := conn.(rentCalculator)
	if !ok {
		return nil, fmt.Errorf("connection %s cannot compute rent", conn.Endpoint())
	}
	rent, err := rc.MinimumBalanceForRentExemption(ctx, mintAccountSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get rent exemption: %w", err)
	}

	mintKey := solana.NewWallet().PrivateKey
	defer clear(mintKey)
	mint := mintKey.PublicKey()

	tokenAccount, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to find token account address: %w", err)
	}
	metadataAddress, err := metadata.FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}

	metadataIx, err := metadata.NewCreateMetadataInstruction(
		metadata.CreateAccounts{
			Metadata:        metadataAddress,
			Mint:            mint,
			MintAuthority:   owner,
			Payer:           owner,
			UpdateAuthority: owner,
		},
		metadata.CreateArgs{
			Data: metadata.DataV2{
				Name:                 req.Name,
				Symbol:               req.Symbol,
				URI:                  req.URI,
				SellerFeeBasisPoints: req.SellerFeeBasisPoints,
			},
			IsMutable: isMutable,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata instruction: %w", err)
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(rent, mintAccountSize, solana.TokenProgramID, owner, mint).Build(),
		token.NewInitializeMintInstruction(req.Decimals, owner, owner, mint, solana.SysVarRentPubkey).Build(),
		associatedtokenaccount.NewCreateInstruction(owner, owner, mint).Build(),
	}
	if supply > 0 {
		instructions = append(instructions,
			token.NewMintToInstruction(supply, mint, tokenAccount, owner, []solana.PublicKey{}).Build())
	}
	instructions = append(instructions, metadataIx)

	recent, err := conn.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(instructions, recent, solana.TransactionPayer(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := wallet.PartialSign(tx, mintKey); err != nil {
		return nil, fmt.Errorf("failed to sign with mint key: %w", err)
	}

	sig, err := s.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	s.FetchBalance(ctx)

	return &model.CreateTokenResponse{
		Mint:         mint.String(),
		Metadata:     metadataAddress.String(),
		TokenAccount: tokenAccount.String(),
		Signature:    sig.String(),
	}, nil
}

// UpdateMetadata updates the metadata of mint. The connected wallet must be
// its update authority.
func UpdateMetadata(ctx context.Context, s Session, req *model.UpdateMetadataRequest) (*model.UpdateMetadataResponse, error) {
	mint, err := solana.PublicKeyFromBase58(req.Mint)
	if err != nil {
		return nil, invalid("invalid mint address")
	}
	if err := validateContent(req.Name, req.Symbol, req.URI); err != nil {
		return nil, err
	}
	if req.SellerFeeBasisPoints > metadata.MaxSellerFeeBasisPoints {
		return nil, invalid(fmt.Sprintf("sellerFeeBasisPoints must be at most %d", metadata.MaxSellerFeeBasisPoints))
	}
	args := metadata.UpdateArgs{
		Name:                 req.Name,
		Symbol:               req.Symbol,
		URI:                  req.URI,
		SellerFeeBasisPoints: req.SellerFeeBasisPoints,
		PrimarySaleHappened:  req.PrimarySaleHappened,
		IsMutable:            req.IsMutable,
	}
	if req.NewUpdateAuthority != nil {
		pk, err := solana.PublicKeyFromBase58(*req.NewUpdateAuthority)
		if err != nil {
			return nil, invalid("invalid newUpdateAuthority address")
		}
		args.NewUpdateAuthority = &pk
	}

	authority, err := payer(s)
	if err != nil {
		return nil, err
	}
	metadataAddress, err := metadata.FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	ix, err := metadata.NewUpdateMetadataInstruction(
		metadata.UpdateAccounts{Metadata: metadataAddress, UpdateAuthority: authority},
		args,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata instruction: %w", err)
	}

	recent, err := s.Connection().LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, recent, solana.TransactionPayer(authority))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	sig, err := s.SendTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	return &model.UpdateMetadataResponse{
		Metadata:  metadataAddress.String(),
		Signature: sig.String(),
	}, nil
}

func validateContent(name, symbol, uri string) error {
	switch {
	case len(name) > metadata.MaxNameLength:
		return invalid(fmt.Sprintf("name must be at most %d bytes", metadata.MaxNameLength))
	case len(symbol) > metadata.MaxSymbolLength:
		return invalid(fmt.Sprintf("symbol must be at most %d bytes", metadata.MaxSymbolLength))
	case len(uri) > metadata.MaxURILength:
		return invalid(fmt.Sprintf("uri must be at most %d bytes", metadata.MaxURILength))
	case !utf8.ValidString(name) || !utf8.ValidString(symbol) || !utf8.ValidString(uri):
		return invalid("name, symbol and uri must be valid UTF-8")
	}
	return nil
}
