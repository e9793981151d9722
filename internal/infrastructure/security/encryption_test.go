package security

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashArgon2idFormat(t *testing.T) {
	encoded, err := HashArgon2id("secreto123", 1, 1024, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"), "hash: %s", encoded)

	parts := strings.Split(encoded, "$")
	require.Len(t, parts, 6)
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	require.NoError(t, err)
	assert.Len(t, salt, 16)
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	require.NoError(t, err)
	assert.Len(t, hash, 32)
}

func TestHashArgon2idSaltsDiffer(t *testing.T) {
	first, err := HashArgon2id("secreto123", 1, 1024, 1)
	require.NoError(t, err)
	second, err := HashArgon2id("secreto123", 1, 1024, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyArgon2id(t *testing.T) {
	encoded, err := HashArgon2id("secreto123", 1, 1024, 1)
	require.NoError(t, err)

	ok, err := VerifyArgon2id("secreto123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyArgon2id("incorrecta", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyArgon2idUsesStoredParams(t *testing.T) {
	// Verification must read costs from the hash itself, so hashes
	// minted under older settings keep working after an upgrade.
	encoded, err := HashArgon2id("secreto123", 3, 2048, 2)
	require.NoError(t, err)

	ok, err := VerifyArgon2id("secreto123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyArgon2idRejectsMalformed(t *testing.T) {
	cases := []struct {
		name    string
		encoded string
	}{
		{"plain string", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA"},
		{"unsupported version", "$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA"},
		{"bad cost params", "$argon2id$v=19$nonsense$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA"},
		{"missing segments", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := VerifyArgon2id("secreto123", tc.encoded)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key := "abcdefghijklmnop" // 16 raw bytes

	encrypted, err := Encrypt(`{"db_name":"tenant_acme"}`, key)
	require.NoError(t, err)
	assert.NotEmpty(t, encrypted)

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, `{"db_name":"tenant_acme"}`, decrypted)
}

func TestEncryptNoncesDiffer(t *testing.T) {
	key := "abcdefghijklmnop"
	first, err := Encrypt("mismo texto", key)
	require.NoError(t, err)
	second, err := Encrypt("mismo texto", key)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt("secreto", "abcdefghijklmnop")
	require.NoError(t, err)

	_, err = Decrypt(encrypted, "ponmlkjihgfedcba")
	assert.Error(t, err)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key := "abcdefghijklmnop"
	encrypted, err := Encrypt("secreto", key)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = Decrypt(tampered, key)
	assert.Error(t, err)
}

func TestDecryptRejectsBadInput(t *testing.T) {
	_, err := Decrypt("not base64!!!", "abcdefghijklmnop")
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("tiny"))
	_, err = Decrypt(short, "abcdefghijklmnop")
	assert.Error(t, err)
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		wantLen int
		wantErr bool
	}{
		{"raw 16 bytes", "abcdefghijklmnop", 16, false},
		{"raw 24 bytes", strings.Repeat("k", 24), 24, false},
		{"hex of 32 bytes", strings.Repeat("0f", 32), 32, false},
		{"hex of 16 bytes", strings.Repeat("a1", 16), 16, false},
		{"32 chars but not hex", strings.Repeat("z", 32), 32, false},
		{"empty", "", 0, true},
		{"too short", "short", 0, true},
		{"odd length", strings.Repeat("x", 21), 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeKey(tc.key)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tc.wantLen)
		})
	}
}
