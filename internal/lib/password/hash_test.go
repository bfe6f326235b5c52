package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "regular password", password: "password123"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "long password", password: "verylongpasswordwithmorethanfiftycharacters"},
		{name: "unicode password", password: "пароль-ёжик"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotHash, err := GetHash(tt.password)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(gotHash, "$argon2id$v=19$m=15000,t=2,p=1$"), gotHash)
			assert.False(t, NeedsUpgrade(gotHash))
			assert.NoError(t, CompareHash(gotHash, tt.password))
		})
	}
}

func TestCompareHash(t *testing.T) {
	correctHash, err := GetHash("correct_password")
	require.NoError(t, err)

	anotherHash, err := GetHash("another_password")
	require.NoError(t, err)

	legacyHash, err := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
	}{
		{name: "matching password", hash: correctHash, password: "correct_password"},
		{name: "wrong password", hash: correctHash, password: "wrong_password", wantErr: ErrMismatch},
		{name: "different hash same password", hash: anotherHash, password: "correct_password", wantErr: ErrMismatch},
		{name: "empty password", hash: correctHash, password: "", wantErr: ErrMismatch},
		{name: "legacy bcrypt hash", hash: string(legacyHash), password: "correct_password"},
		{name: "legacy bcrypt mismatch", hash: string(legacyHash), password: "wrong_password", wantErr: ErrMismatch},
		{name: "garbage hash", hash: "not-a-hash", password: "correct_password", wantErr: ErrInvalidHash},
		{name: "unknown algorithm", hash: "$scrypt$v=19$m=15000,t=2,p=1$c2FsdA$a2V5", password: "x", wantErr: ErrInvalidHash},
		{name: "bad parameters", hash: "$argon2id$v=19$m=15000,t=0,p=1$c2FsdA$a2V5", password: "x", wantErr: ErrInvalidHash},
		{name: "bad base64", hash: "$argon2id$v=19$m=15000,t=2,p=1$!!!$a2V5", password: "x", wantErr: ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareHash(tt.hash, tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetHash_DifferentSaltsProduceDifferentHashes(t *testing.T) {
	hash1, err := GetHash("password")
	require.NoError(t, err)
	hash2, err := GetHash("password")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestNeedsUpgrade(t *testing.T) {
	assert.True(t, NeedsUpgrade("$2a$10$abcdefghijklmnopqrstuv"))
	assert.False(t, NeedsUpgrade("$argon2id$v=19$m=15000,t=2,p=1$c2FsdA$a2V5"))
}
