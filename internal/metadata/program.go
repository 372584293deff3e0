// Package metadata builds and parses token metadata program instructions and accounts,
// and resolves the off-chain JSON a metadata URI points at.
package metadata

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the token metadata program.
var ProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

const (
	metadataSeed = "metadata"

	// Instruction discriminants of the metadata program.
	instructionUpdateV2 uint8 = 15
	instructionCreateV3 uint8 = 33

	// MaxSellerFeeBasisPoints is 100%.
	MaxSellerFeeBasisPoints = 10000

	// On-chain field limits; names and symbols are NUL-padded up to these.
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
	MaxCreators     = 5

	// MinAccountSize is the smallest account the decoder will look at.
	MinAccountSize = 100
)

// FindMetadataAddress derives the metadata account address for a mint.
func FindMetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte(metadataSeed),
			ProgramID.Bytes(),
			mint.Bytes(),
		},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive metadata address: %w", err)
	}
	return addr, nil
}
