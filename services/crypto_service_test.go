package services

import (
	"bytes"
	"encoding/hex"
	"testing"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCipher(t *testing.T) *AddressCipher {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 32)
	c, err := NewAddressCipher(key)
	require.NoError(t, err)
	return c
}

func testAddress() models.AddressRecord {
	return models.AddressRecord{
		Street:     "12 Rosewood Lane",
		City:       "Portland",
		State:      "OR",
		PostalCode: "97201",
		Country:    "USA",
	}
}

func TestAddressCipherRoundTrip(t *testing.T) {
	c := testCipher(t)

	env, err := c.Encrypt(testAddress())
	require.NoError(t, err)

	got, err := c.Decrypt(env)
	require.NoError(t, err)
	assert.Equal(t, testAddress(), got)
}

func TestAddressCipherFreshIVPerEncrypt(t *testing.T) {
	c := testCipher(t)

	a, err := c.Encrypt(testAddress())
	require.NoError(t, err)
	b, err := c.Encrypt(testAddress())
	require.NoError(t, err)

	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestAddressCipherRejectsTampering(t *testing.T) {
	c := testCipher(t)

	env, err := c.Encrypt(testAddress())
	require.NoError(t, err)

	// Flip one bit of the ciphertext.
	raw, err := hex.DecodeString(env.Ciphertext)
	require.NoError(t, err)
	raw[0] ^= 0x01
	tampered := env
	tampered.Ciphertext = hex.EncodeToString(raw)

	_, err = c.Decrypt(tampered)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeCrypto))

	// Same for the auth tag.
	rawTag, err := hex.DecodeString(env.AuthTag)
	require.NoError(t, err)
	rawTag[0] ^= 0x01
	tampered = env
	tampered.AuthTag = hex.EncodeToString(rawTag)

	_, err = c.Decrypt(tampered)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeCrypto))

	// And the IV.
	rawIV, err := hex.DecodeString(env.IV)
	require.NoError(t, err)
	rawIV[0] ^= 0x01
	tampered = env
	tampered.IV = hex.EncodeToString(rawIV)

	_, err = c.Decrypt(tampered)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeCrypto))
}

func TestAddressCipherRejectsMalformedEnvelope(t *testing.T) {
	c := testCipher(t)

	_, err := c.Decrypt(models.Envelope{Ciphertext: "zz", IV: "00", AuthTag: "00"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeCrypto))

	// Never expose detail about what failed.
	assert.Equal(t, "decryption failed", err.(*apperrors.AppError).Message)
}

func TestNewAddressCipherRejectsShortKey(t *testing.T) {
	_, err := NewAddressCipher([]byte("too short"))
	require.Error(t, err)
}
