package metadata

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// CreateAccounts are the accounts of a create-metadata instruction.
type CreateAccounts struct {
	Metadata        solana.PublicKey
	Mint            solana.PublicKey
	MintAuthority   solana.PublicKey
	Payer           solana.PublicKey
	UpdateAuthority solana.PublicKey
}

// CreateArgs are the arguments of a create-metadata instruction.
type CreateArgs struct {
	Data      DataV2
	IsMutable bool
}

// NewCreateMetadataInstruction builds CreateMetadataAccountV3. Creators, collection,
// uses and collection details are always None.
func NewCreateMetadataInstruction(accounts CreateAccounts, args CreateArgs) (solana.Instruction, error) {
	data, err := EncodeCreateMetadata(args)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(accounts.Metadata, true, false),
		solana.NewAccountMeta(accounts.Mint, false, false),
		solana.NewAccountMeta(accounts.MintAuthority, false, true),
		solana.NewAccountMeta(accounts.Payer, true, true),
		solana.NewAccountMeta(accounts.UpdateAuthority, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, data), nil
}

// EncodeCreateMetadata encodes the instruction data of CreateMetadataAccountV3.
func EncodeCreateMetadata(args CreateArgs) ([]byte, error) {
	d := args.Data
	d.Creators = nil
	if err := d.validate(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint8(instructionCreateV3); err != nil {
		return nil, err
	}
	if err := writeDataV2(enc, d); err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}
	if err := enc.WriteBool(args.IsMutable); err != nil {
		return nil, err
	}
	// collection details
	if err := writeOptionTag(enc, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UpdateAccounts are the accounts of an update-metadata instruction.
type UpdateAccounts struct {
	Metadata        solana.PublicKey
	UpdateAuthority solana.PublicKey
}

// UpdateArgs are the arguments of an update-metadata instruction. Nil fields encode as None.
// Data is sent only when at least one of name, symbol or uri is non-empty.
type UpdateArgs struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16

	NewUpdateAuthority  *solana.PublicKey
	PrimarySaleHappened *bool
	IsMutable           *bool
}

func (a UpdateArgs) hasData() bool {
	return a.Name != "" || a.Symbol != "" || a.URI != ""
}

// NewUpdateMetadataInstruction builds UpdateMetadataAccountV2.
func NewUpdateMetadataInstruction(accounts UpdateAccounts, args UpdateArgs) (solana.Instruction, error) {
	data, err := EncodeUpdateMetadata(args)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		solana.NewAccountMeta(accounts.Metadata, true, false),
		solana.NewAccountMeta(accounts.UpdateAuthority, false, true),
	}
	return solana.NewInstruction(ProgramID, metas, data), nil
}

// EncodeUpdateMetadata encodes the instruction data of UpdateMetadataAccountV2.
func EncodeUpdateMetadata(args UpdateArgs) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint8(instructionUpdateV2); err != nil {
		return nil, err
	}

	if args.hasData() {
		d := DataV2{
			Name:                 args.Name,
			Symbol:               args.Symbol,
			URI:                  args.URI,
			SellerFeeBasisPoints: args.SellerFeeBasisPoints,
		}
		if err := d.validate(); err != nil {
			return nil, err
		}
		if err := writeOptionTag(enc, true); err != nil {
			return nil, err
		}
		if err := writeDataV2(enc, d); err != nil {
			return nil, fmt.Errorf("failed to encode data: %w", err)
		}
	} else if err := writeOptionTag(enc, false); err != nil {
		return nil, err
	}

	if err := writeOptionTag(enc, args.NewUpdateAuthority != nil); err != nil {
		return nil, err
	}
	if args.NewUpdateAuthority != nil {
		if err := enc.WriteBytes(args.NewUpdateAuthority.Bytes(), false); err != nil {
			return nil, err
		}
	}

	for _, flag := range []*bool{args.PrimarySaleHappened, args.IsMutable} {
		if err := writeOptionTag(enc, flag != nil); err != nil {
			return nil, err
		}
		if flag != nil {
			if err := enc.WriteBool(*flag); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}
