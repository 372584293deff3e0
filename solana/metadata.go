package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/AlexZinkM/token-dapp/internal/metadata"
)

// MetadataReader fetches decoded token metadata.
type MetadataReader interface {
	Fetch(ctx context.Context, mint solana.PublicKey) (*metadata.Record, error)
}

// GetMetadata reads the metadata of mint on the selected network. A nil
// record means the mint has no readable metadata.
func GetMetadata(ctx context.Context, reader MetadataReader, mint string) (*metadata.Record, error) {
	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return nil, invalid("invalid mint address")
	}
	return reader.Fetch(ctx, pk)
}
