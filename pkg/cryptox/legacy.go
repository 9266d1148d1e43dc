package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" // #nosec G501 - required to read OpenSSL EVP_BytesToKey output
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
)

// Legacy envelopes are OpenSSL passphrase output as written by CryptoJS:
// base64("Salted__" || salt[8] || AES-256-CBC ciphertext), with key and IV
// derived by EVP_BytesToKey(MD5, 1 iteration). They are read, never written.

const (
	legacyMagic      = "Salted__"
	legacySaltLength = 8

	// First ten base64 characters of "Salted__", shared by every legacy envelope.
	legacyPrefix = "U2FsdGVkX1"
)

// IsLegacy reports whether s looks like a legacy passphrase envelope.
func IsLegacy(s string) bool {
	return strings.HasPrefix(s, legacyPrefix)
}

func splitLegacy(s string) (salt, ct []byte, err error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) < len(legacyMagic)+legacySaltLength+aes.BlockSize || !bytes.HasPrefix(raw, []byte(legacyMagic)) {
		return nil, nil, errors.New("cryptox: legacy envelope too short")
	}
	salt = raw[len(legacyMagic) : len(legacyMagic)+legacySaltLength]
	ct = raw[len(legacyMagic)+legacySaltLength:]
	if len(ct)%aes.BlockSize != 0 {
		return nil, nil, errors.New("cryptox: legacy ciphertext not block aligned")
	}
	return salt, ct, nil
}

func decryptLegacy(s, password string) ([]byte, error) {
	salt, ct, err := splitLegacy(s)
	if err != nil {
		return nil, ErrWrongPasswordOrCorrupt
	}

	key, iv := evpBytesToKey([]byte(password), salt, 32, aes.BlockSize)
	defer Wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrWrongPasswordOrCorrupt
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)

	plaintext, ok := unpadPKCS7(out)
	if !ok {
		Wipe(out)
		return nil, ErrWrongPasswordOrCorrupt
	}
	return plaintext, nil
}

// evpBytesToKey implements OpenSSL's EVP_BytesToKey with MD5 and one round.
func evpBytesToKey(password, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var (
		out  = make([]byte, 0, keyLen+ivLen+md5.Size)
		prev []byte
	)
	for len(out) < keyLen+ivLen {
		h := md5.New() // #nosec G401
		h.Write(prev)
		h.Write(password)
		h.Write(salt)
		prev = h.Sum(nil)
		out = append(out, prev...)
	}
	return out[:keyLen], out[keyLen : keyLen+ivLen]
}

func unpadPKCS7(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	pad := bytes.Repeat([]byte{byte(n)}, n)
	if subtle.ConstantTimeCompare(b[len(b)-n:], pad) != 1 {
		return nil, false
	}
	return b[:len(b)-n], true
}
