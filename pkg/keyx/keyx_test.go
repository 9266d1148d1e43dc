package keyx_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/aussiebroadwan/custodian/pkg/keyx"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	ones := strings.Repeat("1", 64)

	t.Run("accepts plain hex", func(t *testing.T) {
		key, err := keyx.Validate(ones)
		require.NoError(t, err)
		require.Equal(t, byte(0x11), key[0])
		require.Equal(t, byte(0x11), key[31])
	})

	t.Run("strips 0x prefix", func(t *testing.T) {
		a, err := keyx.Validate("0x" + ones)
		require.NoError(t, err)
		b, err := keyx.Validate(ones)
		require.NoError(t, err)
		require.Equal(t, a, b)
	})

	t.Run("rejects short input", func(t *testing.T) {
		_, err := keyx.Validate("abc")
		require.ErrorIs(t, err, keyx.ErrInvalidLength)
		require.ErrorIs(t, err, keyx.ErrInvalidKey)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := keyx.Validate("")
		require.ErrorIs(t, err, keyx.ErrInvalidLength)
	})

	t.Run("prefix alone is too short", func(t *testing.T) {
		_, err := keyx.Validate("0x")
		require.ErrorIs(t, err, keyx.ErrInvalidLength)
	})

	t.Run("rejects 66 chars without prefix", func(t *testing.T) {
		_, err := keyx.Validate(ones + "11")
		require.ErrorIs(t, err, keyx.ErrInvalidLength)
	})

	t.Run("rejects non-hex character", func(t *testing.T) {
		_, err := keyx.Validate(strings.Repeat("1", 63) + "g")
		require.ErrorIs(t, err, keyx.ErrInvalidHex)
		require.NotErrorIs(t, err, keyx.ErrInvalidLength)
	})

	t.Run("multi-byte character is bad hex not bad length", func(t *testing.T) {
		_, err := keyx.Validate(strings.Repeat("1", 63) + "é")
		require.ErrorIs(t, err, keyx.ErrInvalidHex)
	})

	t.Run("error does not echo input", func(t *testing.T) {
		secret := strings.Repeat("z", 64)
		_, err := keyx.Validate(secret)
		require.Error(t, err)
		require.NotContains(t, err.Error(), secret)
	})

	t.Run("uppercase prefix is not stripped", func(t *testing.T) {
		_, err := keyx.Validate("0X" + ones)
		require.ErrorIs(t, err, keyx.ErrInvalidLength)
	})
}

func TestValidate_CaseInsensitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), keyx.SecretKeySize, keyx.SecretKeySize).Draw(t, "raw")
		flips := rapid.SliceOfN(rapid.Bool(), keyx.HexLength, keyx.HexLength).Draw(t, "flips")
		prefixed := rapid.Bool().Draw(t, "prefixed")

		enc := []byte(hex.EncodeToString(raw))
		for i, up := range flips {
			if up {
				enc[i] = strings.ToUpper(string(enc[i]))[0]
			}
		}
		input := string(enc)
		if prefixed {
			input = "0x" + input
		}

		key, err := keyx.Validate(input)
		if err != nil {
			t.Fatalf("valid input rejected: %v", err)
		}
		if !strings.EqualFold(hex.EncodeToString(key[:]), hex.EncodeToString(raw)) {
			t.Fatalf("decoded bytes differ")
		}
	})
}

func TestValidate_WrongLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[0-9a-fA-F]{0,130}`).Draw(t, "s")
		if len(s) == keyx.HexLength {
			t.Skip("exact length")
		}
		_, err := keyx.Validate(s)
		if !strings.Contains(errString(err), "invalid key length") {
			t.Fatalf("want invalid length, got %v", err)
		}
	})
}

func TestValidate_NonHex(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.StringMatching(`[0-9a-f]{63}`).Draw(t, "prefix")
		bad := rapid.SampledFrom([]string{"g", "z", "x", " ", "-", "_", "G", "!"}).Draw(t, "bad")
		pos := rapid.IntRange(0, 63).Draw(t, "pos")

		input := prefix[:pos] + bad + prefix[pos:]
		_, err := keyx.Validate(input)
		if !strings.Contains(errString(err), "invalid hex") {
			t.Fatalf("want invalid hex for %d-char input, got %v", len(input), err)
		}
	})
}

func TestDecode_MatchesValidate(t *testing.T) {
	in := "0x" + strings.Repeat("aB", 32)

	a, err := keyx.Validate(in)
	require.NoError(t, err)
	b, err := keyx.Decode([]byte(in))
	require.NoError(t, err)
	require.Equal(t, a, b)

	_, err = keyx.Decode([]byte("0123"))
	require.ErrorIs(t, err, keyx.ErrInvalidLength)
}

func TestSecretKey_HexAndWipe(t *testing.T) {
	key, err := keyx.Validate(strings.Repeat("Ab", 32))
	require.NoError(t, err)

	require.Equal(t, strings.Repeat("ab", 32), string(key.AppendHex(nil)))
	require.False(t, key.IsZero())

	key.Wipe()
	require.True(t, key.IsZero())
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
