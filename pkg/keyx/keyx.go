// Package keyx validates raw private key input before any derivation is
// attempted. It never logs, stores or returns the input on failure.
package keyx

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// SecretKeySize is the length in bytes of an Ed25519 seed.
	SecretKeySize = 32

	// HexLength is the number of hex characters that encode SecretKeySize bytes.
	HexLength = SecretKeySize * 2

	hexPrefix = "0x"
)

var (
	// ErrInvalidKey is wrapped by every validation failure.
	ErrInvalidKey = errors.New("keyx: invalid key")

	// ErrInvalidLength reports input that is not exactly HexLength characters
	// after prefix stripping.
	ErrInvalidLength = errors.New("keyx: invalid key length")

	// ErrInvalidHex reports input of the right length containing a non-hex character.
	ErrInvalidHex = errors.New("keyx: invalid hex")
)

// ValidationError describes why a key was rejected. The offending input is
// deliberately not part of the error.
type ValidationError struct {
	Reason error // ErrInvalidLength or ErrInvalidHex
	Length int   // character count after prefix stripping
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Reason, ErrInvalidLength) {
		return fmt.Sprintf("%v: got %d characters, want %d", e.Reason, e.Length, HexLength)
	}
	return e.Reason.Error()
}

// Unwrap exposes both the specific reason and ErrInvalidKey to errors.Is.
func (e *ValidationError) Unwrap() []error { return []error{e.Reason, ErrInvalidKey} }

// SecretKey is a raw 32-byte Ed25519 seed. Callers must Wipe it once they are done.
type SecretKey [SecretKeySize]byte

// Bytes returns the key as a slice backed by the array itself.
func (k *SecretKey) Bytes() []byte { return k[:] }

// AppendHex appends the lowercase hex encoding of the key to dst. Using a byte
// slice instead of a string keeps the encoding wipeable.
func (k *SecretKey) AppendHex(dst []byte) []byte {
	return hex.AppendEncode(dst, k[:])
}

// Wipe zeroes the key in place.
func (k *SecretKey) Wipe() {
	for i := range k {
		k[i] = 0
	}
}

// IsZero reports whether every byte of the key is zero.
func (k *SecretKey) IsZero() bool {
	var acc byte
	for _, b := range k {
		acc |= b
	}
	return acc == 0
}

// Validate strips an optional 0x prefix, checks the remaining input is exactly
// 64 hex characters (any case) and decodes it.
func Validate(raw string) (SecretKey, error) {
	var key SecretKey

	trimmed := strings.TrimPrefix(raw, hexPrefix)

	// Count runes so multi-byte characters are reported as bad hex, not bad length.
	n := utf8.RuneCountInString(trimmed)
	if n != HexLength {
		return key, &ValidationError{Reason: ErrInvalidLength, Length: n}
	}
	if len(trimmed) != HexLength {
		return key, &ValidationError{Reason: ErrInvalidHex, Length: n}
	}

	if _, err := hex.Decode(key[:], []byte(trimmed)); err != nil {
		key.Wipe()
		return key, &ValidationError{Reason: ErrInvalidHex, Length: n}
	}

	return key, nil
}

// Decode is like Validate but accepts a byte slice, so the caller can wipe the
// hex input afterwards. Used when re-validating decrypted plaintext.
func Decode(raw []byte) (SecretKey, error) {
	var key SecretKey

	if len(raw) >= len(hexPrefix) && string(raw[:len(hexPrefix)]) == hexPrefix {
		raw = raw[len(hexPrefix):]
	}

	n := utf8.RuneCount(raw)
	if n != HexLength {
		return key, &ValidationError{Reason: ErrInvalidLength, Length: n}
	}
	if len(raw) != HexLength {
		return key, &ValidationError{Reason: ErrInvalidHex, Length: n}
	}

	if _, err := hex.Decode(key[:], raw); err != nil {
		key.Wipe()
		return key, &ValidationError{Reason: ErrInvalidHex, Length: n}
	}

	return key, nil
}
