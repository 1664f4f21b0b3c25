package codec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// IdentitySize is the length of an identity in bytes.
const IdentitySize = 32

// Identity is an opaque 32-byte account identity. It names payers, slots and
// programs alike. The zero value is the system program.
type Identity [IdentitySize]byte

// NewIdentity returns a random identity.
func NewIdentity() (Identity, error) {
	var id Identity
	if _, err := rand.Read(id[:]); err != nil {
		return Identity{}, fmt.Errorf("failed to generate identity: %w", err)
	}
	return id, nil
}

// ParseIdentity parses the 64-character hex form produced by String.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	if len(s) != hex.EncodedLen(IdentitySize) {
		return id, fmt.Errorf("invalid identity %q: want %d hex characters, got %d",
			s, hex.EncodedLen(IdentitySize), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return id, nil
}

// IdentityFromBytes copies b into an identity. b must be exactly IdentitySize bytes.
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentitySize {
		return id, fmt.Errorf("invalid identity length %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns a copy of the identity bytes.
func (id Identity) Bytes() []byte {
	b := make([]byte, IdentitySize)
	copy(b, id[:])
	return b
}

func (id Identity) IsZero() bool {
	return id == Identity{}
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
