// Package gameid generates the identifiers used for hands and rooms: a
// UUIDv7 written as 26 lower-case Crockford base32 characters, in the style
// of TypeID. IDs sort by creation time.
package gameid

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Length is the number of characters in an encoded ID.
const Length = 26

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator produces IDs from a source of random bytes.
type Generator struct {
	rand io.Reader
}

// NewGenerator creates a generator reading randomness from r. A nil r uses
// the uuid package's default source.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// New creates an ID with the default random source.
func New() string {
	return NewGenerator(nil).New()
}

// New creates an ID.
func (g *Generator) New() string {
	var (
		u   uuid.UUID
		err error
	)
	if g.rand == nil {
		u, err = uuid.NewV7()
	} else {
		u, err = uuid.NewV7FromReader(g.rand)
	}
	if err != nil {
		panic("gameid: " + err.Error())
	}
	return Encode(u)
}

// Encode writes u as 26 base32 characters. The 128 bits are left-padded with
// two zero bits, so the first character is always 0-7.
func Encode(u uuid.UUID) string {
	hi := binary.BigEndian.Uint64(u[:8])
	lo := binary.BigEndian.Uint64(u[8:])
	var b [Length]byte
	for i := range Length {
		shift := uint(125 - 5*i)
		b[i] = alphabet[shr(hi, lo, shift)&0x1f]
	}
	return string(b[:])
}

// shr returns the low 64 bits of the 128-bit value hi:lo shifted right by n.
func shr(hi, lo uint64, n uint) uint64 {
	switch {
	case n == 0:
		return lo
	case n < 64:
		return lo>>n | hi<<(64-n)
	default:
		return hi >> (n - 64)
	}
}

// Parse decodes an ID. Upper-case input is accepted.
func Parse(id string) (uuid.UUID, error) {
	if err := Validate(id); err != nil {
		return uuid.Nil, err
	}
	var hi, lo uint64
	for _, c := range strings.ToLower(id) {
		v := uint64(strings.IndexRune(alphabet, c))
		hi = hi<<5 | lo>>59
		lo = lo<<5 | v
	}
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[:8], hi)
	binary.BigEndian.PutUint64(u[8:], lo)
	return u, nil
}

// Validate checks that id is 26 base32 characters and fits in 128 bits.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("id must be exactly %d characters, got %d", Length, len(id))
	}
	id = strings.ToLower(id)
	if id[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}

// Time returns the creation time carried in the ID, to the millisecond.
func Time(id string) (time.Time, error) {
	u, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	if u.Version() != 7 {
		return time.Time{}, fmt.Errorf("id %s is not time-ordered (version %d)", id, u.Version())
	}
	ms := int64(binary.BigEndian.Uint64(u[:8]) >> 16)
	return time.UnixMilli(ms), nil
}

// Short returns the random tail of an ID, for log lines.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
