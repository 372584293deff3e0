package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	// ErrShortBuffer is returned when a read would run past the end of the input.
	ErrShortBuffer = errors.New("read past end of buffer")

	// ErrBadOptionTag is returned for an option tag other than 0 or 1.
	ErrBadOptionTag = errors.New("invalid option tag")

	// ErrSellerFeeTooHigh is returned by the instruction builders for fees above 10000 basis points.
	ErrSellerFeeTooHigh = errors.New("seller fee basis points above 10000")
)

const (
	optionNone uint8 = 0
	optionSome uint8 = 1
)

// Creator is one entry of the optional creators list.
type Creator struct {
	Address  solana.PublicKey `json:"address"`
	Verified bool             `json:"verified"`
	Share    uint8            `json:"share"`
}

// DataV2 is the content block shared by the create and update instructions.
// Collection and uses are never set by this codec and always encode as None.
type DataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
}

func (d DataV2) validate() error {
	if d.SellerFeeBasisPoints > MaxSellerFeeBasisPoints {
		return fmt.Errorf("%w: %d", ErrSellerFeeTooHigh, d.SellerFeeBasisPoints)
	}
	return nil
}

func writeString(enc *bin.Encoder, s string) error {
	if err := enc.WriteUint32(uint32(len(s)), binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteBytes([]byte(s), false)
}

func writeOptionTag(enc *bin.Encoder, present bool) error {
	if present {
		return enc.WriteUint8(optionSome)
	}
	return enc.WriteUint8(optionNone)
}

func writeDataV2(enc *bin.Encoder, d DataV2) error {
	if err := writeString(enc, d.Name); err != nil {
		return err
	}
	if err := writeString(enc, d.Symbol); err != nil {
		return err
	}
	if err := writeString(enc, d.URI); err != nil {
		return err
	}
	if err := enc.WriteUint16(d.SellerFeeBasisPoints, binary.LittleEndian); err != nil {
		return err
	}
	if err := writeCreators(enc, d.Creators); err != nil {
		return err
	}
	// collection, uses
	if err := writeOptionTag(enc, false); err != nil {
		return err
	}
	return writeOptionTag(enc, false)
}

func writeCreators(enc *bin.Encoder, creators []Creator) error {
	if len(creators) == 0 {
		return writeOptionTag(enc, false)
	}
	if err := writeOptionTag(enc, true); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(creators)), binary.LittleEndian); err != nil {
		return err
	}
	for _, c := range creators {
		if err := enc.WriteBytes(c.Address.Bytes(), false); err != nil {
			return err
		}
		if err := enc.WriteBool(c.Verified); err != nil {
			return err
		}
		if err := enc.WriteUint8(c.Share); err != nil {
			return err
		}
	}
	return nil
}

// DecodeString reads a u32 LE length-prefixed UTF-8 string at offset and returns
// the value and the offset just past it.
func DecodeString(data []byte, offset int) (string, int, error) {
	if offset < 0 || offset > len(data) {
		return "", offset, ErrShortBuffer
	}
	dec := bin.NewBorshDecoder(data[offset:])
	s, err := readString(dec)
	if err != nil {
		return "", offset, err
	}
	return s, offset + int(dec.Position()), nil
}

func readString(dec *bin.Decoder) (string, error) {
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return "", ErrShortBuffer
	}
	if uint64(n) > uint64(dec.Remaining()) {
		return "", fmt.Errorf("%w: string length %d, %d bytes left", ErrShortBuffer, n, dec.Remaining())
	}
	b, err := dec.ReadNBytes(int(n))
	if err != nil {
		return "", ErrShortBuffer
	}
	return string(b), nil
}

func readOptionTag(dec *bin.Decoder) (bool, error) {
	tag, err := dec.ReadUint8()
	if err != nil {
		return false, ErrShortBuffer
	}
	switch tag {
	case optionNone:
		return false, nil
	case optionSome:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrBadOptionTag, tag)
	}
}

func readPublicKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, ErrShortBuffer
	}
	return solana.PublicKeyFromBytes(b), nil
}

func readCreators(dec *bin.Decoder) ([]Creator, error) {
	present, err := readOptionTag(dec)
	if err != nil || !present {
		return nil, err
	}
	n, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, ErrShortBuffer
	}
	if n > MaxCreators {
		return nil, fmt.Errorf("too many creators: %d", n)
	}

	creators := make([]Creator, 0, n)
	for i := uint32(0); i < n; i++ {
		addr, err := readPublicKey(dec)
		if err != nil {
			return nil, err
		}
		verified, err := dec.ReadUint8()
		if err != nil {
			return nil, ErrShortBuffer
		}
		share, err := dec.ReadUint8()
		if err != nil {
			return nil, ErrShortBuffer
		}
		creators = append(creators, Creator{Address: addr, Verified: verified == 1, Share: share})
	}
	return creators, nil
}

// DecodeDataV2 decodes a DataV2 block starting at offset and returns the offset past it.
// Collection and uses must be None.
func DecodeDataV2(data []byte, offset int) (*DataV2, int, error) {
	if offset < 0 || offset > len(data) {
		return nil, offset, ErrShortBuffer
	}
	dec := bin.NewBorshDecoder(data[offset:])

	var d DataV2
	var err error
	if d.Name, err = readString(dec); err != nil {
		return nil, offset, fmt.Errorf("name: %w", err)
	}
	if d.Symbol, err = readString(dec); err != nil {
		return nil, offset, fmt.Errorf("symbol: %w", err)
	}
	if d.URI, err = readString(dec); err != nil {
		return nil, offset, fmt.Errorf("uri: %w", err)
	}
	if d.SellerFeeBasisPoints, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return nil, offset, fmt.Errorf("seller fee: %w", ErrShortBuffer)
	}
	if d.Creators, err = readCreators(dec); err != nil {
		return nil, offset, fmt.Errorf("creators: %w", err)
	}
	for _, field := range []string{"collection", "uses"} {
		present, err := readOptionTag(dec)
		if err != nil {
			return nil, offset, fmt.Errorf("%s: %w", field, err)
		}
		if present {
			return nil, offset, fmt.Errorf("%s: unsupported value", field)
		}
	}

	return &d, offset + int(dec.Position()), nil
}
