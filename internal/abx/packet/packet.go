package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Size is the fixed length of one ABX record on the wire.
const Size = 17

const symbolLen = 4

// Wire offsets
const (
	offSymbol   = 0
	offSide     = 4
	offQuantity = 5
	offPrice    = 9
	offSequence = 13
)

// ErrInvalidPacket is matched by every DecodeError.
var ErrInvalidPacket = errors.New("packet: invalid packet")

// Side is the order direction carried in byte 4 of a record.
type Side byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

// Valid reports whether s is one of the two wire values.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// String returns the wire character.
func (s Side) String() string {
	return string(rune(s))
}

// MarshalJSON encodes the side as its wire character.
func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON accepts "B" or "S".
func (s *Side) UnmarshalJSON(b []byte) error {
	if len(b) != 3 || b[0] != '"' || b[2] != '"' || !Side(b[1]).Valid() {
		return fmt.Errorf("packet: invalid side %s", b)
	}
	*s = Side(b[1])
	return nil
}

// Packet is one decoded order record.
type Packet struct {
	Symbol   string `json:"symbol"`
	Side     Side   `json:"side"`
	Quantity int32  `json:"quantity"`
	Price    int32  `json:"price"`
	Sequence int32  `json:"sequence"`
}

// String renders the packet the way the display step prints it.
func (p Packet) String() string {
	return fmt.Sprintf("[%d] %s %s Qty:%d Price:%d", p.Sequence, p.Symbol, p.Side, p.Quantity, p.Price)
}

// DecodeError describes the first field that failed validation.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("packet: invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidPacket) true for any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidPacket
}

func invalid(field, format string, args ...interface{}) error {
	return &DecodeError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Decode parses one 17-byte record. Malformed input is reported through the
// returned error, never a panic.
func Decode(b []byte) (Packet, error) {
	if len(b) != Size {
		return Packet{}, invalid("length", "got %d bytes, want %d", len(b), Size)
	}

	sym := b[offSymbol : offSymbol+symbolLen]
	for i, c := range sym {
		if !printable(c) {
			return Packet{}, invalid("symbol", "byte %d is 0x%02x", i, c)
		}
	}

	side := Side(b[offSide])
	if !side.Valid() {
		return Packet{}, invalid("side", "0x%02x is not 'B' or 'S'", b[offSide])
	}

	quantity := int32(binary.BigEndian.Uint32(b[offQuantity:offPrice]))
	if quantity < 0 {
		return Packet{}, invalid("quantity", "%d is negative", quantity)
	}

	price := int32(binary.BigEndian.Uint32(b[offPrice:offSequence]))
	if price < 0 {
		return Packet{}, invalid("price", "%d is negative", price)
	}

	sequence := int32(binary.BigEndian.Uint32(b[offSequence:Size]))
	if sequence <= 0 {
		return Packet{}, invalid("sequence", "%d is not positive", sequence)
	}

	return Packet{
		Symbol:   strings.TrimRight(string(sym), " "),
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Sequence: sequence,
	}, nil
}

// Encode is the inverse of Decode. The symbol is right-padded with spaces.
// A packet that Decode would reject is refused.
func Encode(p Packet) ([]byte, error) {
	if len(p.Symbol) > symbolLen {
		return nil, invalid("symbol", "%q is longer than %d bytes", p.Symbol, symbolLen)
	}
	for i := 0; i < len(p.Symbol); i++ {
		if !printable(p.Symbol[i]) {
			return nil, invalid("symbol", "byte %d is 0x%02x", i, p.Symbol[i])
		}
	}
	if !p.Side.Valid() {
		return nil, invalid("side", "0x%02x is not 'B' or 'S'", byte(p.Side))
	}
	if p.Quantity < 0 {
		return nil, invalid("quantity", "%d is negative", p.Quantity)
	}
	if p.Price < 0 {
		return nil, invalid("price", "%d is negative", p.Price)
	}
	if p.Sequence <= 0 {
		return nil, invalid("sequence", "%d is not positive", p.Sequence)
	}

	buf := make([]byte, Size)
	copy(buf[offSymbol:offSide], p.Symbol)
	for i := len(p.Symbol); i < symbolLen; i++ {
		buf[offSymbol+i] = ' '
	}
	buf[offSide] = byte(p.Side)
	binary.BigEndian.PutUint32(buf[offQuantity:offPrice], uint32(p.Quantity))
	binary.BigEndian.PutUint32(buf[offPrice:offSequence], uint32(p.Price))
	binary.BigEndian.PutUint32(buf[offSequence:Size], uint32(p.Sequence))
	return buf, nil
}

// MustEncode panics on an invalid packet. Intended for fixtures.
func MustEncode(p Packet) []byte {
	b, err := Encode(p)
	if err != nil {
		panic(err)
	}
	return b
}

func printable(c byte) bool {
	return c >= 32 && c <= 126
}
