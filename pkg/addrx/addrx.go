// Package addrx derives public account addresses from Ed25519 seeds using the
// Aptos single-signer authentication key scheme.
package addrx

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// singleSignerScheme is appended to the public key before hashing.
	singleSignerScheme byte = 0x00

	// Length is the length of a formatted address, prefix included.
	Length = 2 + sha3Size*2

	sha3Size = 32
)

var (
	ErrInvalidKeyMaterial = errors.New("addrx: key material is not a 32-byte seed")
	ErrInvalidAddress     = errors.New("addrx: malformed address")
)

// Address is a "0x"-prefixed lowercase hex account address. It is public
// and safe to log.
type Address string

func (a Address) String() string { return string(a) }

// PublicKey returns the Ed25519 public key for seed.
func PublicKey(seed []byte) (ed25519.PublicKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKeyMaterial
	}
	priv := ed25519.NewKeyFromSeed(seed)
	defer wipe(priv)

	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, priv[ed25519.SeedSize:])
	return pub, nil
}

// Derive computes the account address for seed:
// "0x" || hex(sha3_256(pubkey || 0x00)).
func Derive(seed []byte) (Address, error) {
	pub, err := PublicKey(seed)
	if err != nil {
		return "", err
	}
	return FromPublicKey(pub), nil
}

// FromPublicKey computes the address of an already derived public key.
func FromPublicKey(pub ed25519.PublicKey) Address {
	buf := make([]byte, 0, len(pub)+1)
	buf = append(buf, pub...)
	buf = append(buf, singleSignerScheme)

	sum := sha3.Sum256(buf)
	return Address("0x" + hex.EncodeToString(sum[:]))
}

// ParseAddress checks that s is a well-formed address and returns it in
// canonical lowercase form.
func ParseAddress(s string) (Address, error) {
	if len(s) != Length || !strings.HasPrefix(s, "0x") {
		return "", fmt.Errorf("%w: want %d characters with 0x prefix", ErrInvalidAddress, Length)
	}
	if _, err := hex.DecodeString(s[2:]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return Address(strings.ToLower(s)), nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
