package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrWrongPasswordOrCorrupt is returned for every decryption failure. A
	// wrong password and a tampered envelope cannot be told apart.
	ErrWrongPasswordOrCorrupt = errors.New("cryptox: wrong password or corrupt data")

	// ErrEmptyPassword is returned when encrypting under an empty password.
	ErrEmptyPassword = errors.New("cryptox: empty password")
)

const (
	envelopeTag     = "custody"
	envelopeVersion = "v=1"
	envelopeKDF     = "argon2id"
	envelopePrefix  = "$" + envelopeTag + "$" + envelopeVersion + "$" + envelopeKDF + "$"
)

// SecretCipher encrypts secrets under a user password. The output is a
// self-describing envelope:
//
//	$custody$v=1$argon2id$m=<KiB>,t=<iter>,p=<par>$<salt>$<nonce||ciphertext||tag>
//
// Salt and payload are unpadded standard base64. Everything before the salt is
// authenticated as GCM additional data.
type SecretCipher struct {
	Params Params

	// Rand is the randomness source for salts and nonces. Defaults to crypto/rand.
	Rand io.Reader
}

// NewSecretCipher returns a cipher that writes envelopes using p.
func NewSecretCipher(p Params) (*SecretCipher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &SecretCipher{Params: p}, nil
}

func (c *SecretCipher) rand() io.Reader {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.Reader
}

// Encrypt seals plaintext under password with a fresh salt and nonce, so two
// calls with the same input never produce the same envelope.
func (c *SecretCipher) Encrypt(plaintext []byte, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := c.Params.Validate(); err != nil {
		return "", err
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(c.rand(), salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(password, salt, c.Params)
	defer Wipe(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(c.rand(), nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	header := envelopePrefix + c.Params.String()
	sealed := gcm.Seal(nonce, nonce, plaintext, []byte(header))

	return header +
		"$" + base64.RawStdEncoding.EncodeToString(salt) +
		"$" + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt, or a legacy passphrase
// envelope. The caller owns the returned buffer and should Wipe it.
func (c *SecretCipher) Decrypt(envelope, password string) ([]byte, error) {
	if IsLegacy(envelope) {
		return decryptLegacy(envelope, password)
	}

	env, err := parseEnvelope(envelope)
	if err != nil {
		return nil, ErrWrongPasswordOrCorrupt
	}

	key := deriveKey(password, env.salt, env.params)
	defer Wipe(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(env.payload) < gcm.NonceSize()+gcm.Overhead() {
		return nil, ErrWrongPasswordOrCorrupt
	}
	nonce, sealed := env.payload[:gcm.NonceSize()], env.payload[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, []byte(env.header))
	if err != nil {
		return nil, ErrWrongPasswordOrCorrupt
	}
	return plaintext, nil
}

type envelope struct {
	header  string
	params  Params
	salt    []byte
	payload []byte
}

// parseEnvelope splits a v1 envelope into its parts:
// ["", "custody", "v=1", "argon2id", "m=X,t=Y,p=Z", salt, payload].
func parseEnvelope(s string) (envelope, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 7 || parts[0] != "" {
		return envelope{}, errors.New("expected 7 parts")
	}
	if parts[1] != envelopeTag || parts[2] != envelopeVersion || parts[3] != envelopeKDF {
		return envelope{}, errors.New("unknown envelope version")
	}

	params, err := parseParams(parts[4])
	if err != nil {
		return envelope{}, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(salt) != saltLength {
		return envelope{}, errors.New("bad salt")
	}
	payload, err := base64.RawStdEncoding.DecodeString(parts[6])
	if err != nil {
		return envelope{}, errors.New("bad payload")
	}

	return envelope{
		header:  strings.Join(parts[:5], "$"),
		params:  params,
		salt:    salt,
		payload: payload,
	}, nil
}

func deriveKey(password string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, keyLength)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Format identifies which envelope layout a stored secret uses.
type Format string

const (
	FormatV1     Format = "v1"
	FormatLegacy Format = "legacy"
)

// Inspect checks the structure of an envelope without decrypting it.
func Inspect(s string) (Format, Params, error) {
	if IsLegacy(s) {
		if _, _, err := splitLegacy(s); err != nil {
			return "", Params{}, err
		}
		return FormatLegacy, Params{}, nil
	}
	env, err := parseEnvelope(s)
	if err != nil {
		return "", Params{}, fmt.Errorf("cryptox: malformed envelope: %w", err)
	}
	return FormatV1, env.params, nil
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	clear(b)
}
