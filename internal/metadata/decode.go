package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrInvalidAccount means the bytes are not a metadata account this decoder understands.
// Callers treat it as "no metadata".
var ErrInvalidAccount = errors.New("invalid metadata account")

// Layout identifies which parse strategy produced a Record.
type Layout string

const (
	// LayoutTagged has an explicit Some tag before the content block.
	LayoutTagged Layout = "tagged"
	// LayoutUntagged starts the content block right after the mint.
	LayoutUntagged Layout = "untagged"
)

// headerSize is key + update authority + mint.
const headerSize = 1 + solana.PublicKeyLength + solana.PublicKeyLength

// Record is a decoded metadata account.
type Record struct {
	Key                  uint8            `json:"key"`
	UpdateAuthority      solana.PublicKey `json:"updateAuthority"`
	Mint                 solana.PublicKey `json:"mint"`
	Name                 string           `json:"name"`
	Symbol               string           `json:"symbol"`
	URI                  string           `json:"uri"`
	SellerFeeBasisPoints uint16           `json:"sellerFeeBasisPoints"`
	Creators             []Creator        `json:"creators,omitempty"`
	LogoURI              string           `json:"logoURI,omitempty"`
	Layout               Layout           `json:"layout"`
}

// DecodeAccount parses raw metadata account bytes. It never panics; any
// structural problem yields an error wrapping ErrInvalidAccount.
//
// A tag byte of 1 after the mint is first read as a Some tag. If that does not
// produce a plausible record, or the byte is anything else, the same bytes are
// re-read assuming the content block starts right after the mint.
func DecodeAccount(data []byte) (*Record, error) {
	if len(data) < MinAccountSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrInvalidAccount, len(data), MinAccountSize)
	}

	rec := &Record{
		Key:             data[0],
		UpdateAuthority: solana.PublicKeyFromBytes(data[1 : 1+solana.PublicKeyLength]),
		Mint:            solana.PublicKeyFromBytes(data[1+solana.PublicKeyLength : headerSize]),
	}

	var taggedErr error
	if data[headerSize] == optionSome {
		taggedErr = decodeContent(data[headerSize+1:], rec, false)
		if taggedErr == nil {
			rec.Layout = LayoutTagged
			return rec, nil
		}
	}

	if err := decodeContent(data[headerSize:], rec, true); err != nil {
		if taggedErr != nil {
			return nil, fmt.Errorf("%w: tagged: %v; untagged: %v", ErrInvalidAccount, taggedErr, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	rec.Layout = LayoutUntagged
	return rec, nil
}

// decodeContent fills the content fields of rec from b, or leaves rec untouched on error.
// Without a tag there is nothing confirming the layout, so untagged requires
// name, symbol and uri to all be present.
func decodeContent(b []byte, rec *Record, untagged bool) error {
	dec := bin.NewBorshDecoder(b)

	name, err := readBoundedString(dec, "name", MaxNameLength)
	if err != nil {
		return err
	}
	symbol, err := readBoundedString(dec, "symbol", MaxSymbolLength)
	if err != nil {
		return err
	}
	uri, err := readBoundedString(dec, "uri", MaxURILength)
	if err != nil {
		return err
	}
	if untagged && (name == "" || symbol == "" || uri == "") {
		return errors.New("untagged content needs name, symbol and uri")
	}
	if name == "" && uri == "" {
		return errors.New("empty name and uri")
	}

	fee, err := dec.ReadUint16(binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("seller fee: %w", ErrShortBuffer)
	}
	if fee > MaxSellerFeeBasisPoints {
		return fmt.Errorf("implausible seller fee %d", fee)
	}
	creators, err := readCreators(dec)
	if err != nil {
		return fmt.Errorf("creators: %w", err)
	}

	rec.Name = name
	rec.Symbol = symbol
	rec.URI = uri
	rec.SellerFeeBasisPoints = fee
	rec.Creators = creators
	return nil
}

func readBoundedString(dec *bin.Decoder, field string, limit int) (string, error) {
	s, err := readString(dec)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	s = strings.TrimRight(s, "\x00")
	if len(s) > limit {
		return "", fmt.Errorf("%s: implausible length %d", field, len(s))
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%s: not valid UTF-8", field)
	}
	return s, nil
}
