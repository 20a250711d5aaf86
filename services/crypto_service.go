package services

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"penpal_server/apperrors"
	"penpal_server/config"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// AddressCipher encrypts postal addresses at rest with AES-256-GCM. The
// key is read-only after construction, so a single instance is safe for
// concurrent use.
type AddressCipher struct {
	aead cipher.AEAD
}

func NewAddressCipher(key []byte) (*AddressCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("address key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AddressCipher{aead: aead}, nil
}

// Encrypt serializes the address as JSON and seals it under a fresh
// random nonce. Struct serialization keeps field order stable, so
// decrypt-then-parse round-trips exactly.
func (c *AddressCipher) Encrypt(addr models.AddressRecord) (models.Envelope, error) {
	plaintext, err := json.Marshal(addr)
	if err != nil {
		return models.Envelope{}, apperrors.Internal("failed to serialize address", err)
	}

	iv := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return models.Envelope{}, apperrors.Internal("failed to generate iv", err)
	}

	sealed := c.aead.Seal(nil, iv, plaintext, nil)
	tagStart := len(sealed) - c.aead.Overhead()

	return models.Envelope{
		Ciphertext: hex.EncodeToString(sealed[:tagStart]),
		IV:         hex.EncodeToString(iv),
		AuthTag:    hex.EncodeToString(sealed[tagStart:]),
	}, nil
}

// Decrypt opens the envelope, verifying the authentication tag. Any
// tampering with ciphertext, iv or tag fails closed with a crypto error;
// corrupted plaintext is never returned.
func (c *AddressCipher) Decrypt(env models.Envelope) (models.AddressRecord, error) {
	ciphertext, err := hex.DecodeString(env.Ciphertext)
	if err != nil {
		return models.AddressRecord{}, apperrors.Crypto(fmt.Errorf("malformed ciphertext: %w", err))
	}
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return models.AddressRecord{}, apperrors.Crypto(fmt.Errorf("malformed iv: %w", err))
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil {
		return models.AddressRecord{}, apperrors.Crypto(fmt.Errorf("malformed auth tag: %w", err))
	}
	if len(iv) != c.aead.NonceSize() || len(tag) != c.aead.Overhead() {
		return models.AddressRecord{}, apperrors.Crypto(fmt.Errorf("malformed envelope"))
	}

	plaintext, err := c.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return models.AddressRecord{}, apperrors.Crypto(err)
	}

	var addr models.AddressRecord
	if err := json.Unmarshal(plaintext, &addr); err != nil {
		return models.AddressRecord{}, apperrors.Crypto(fmt.Errorf("decrypted payload is not an address: %w", err))
	}
	return addr, nil
}

// LoadAddressKey resolves the process-wide address key at startup:
// either the hex key from configuration, or the KMS-encrypted blob
// unwrapped through the KMS client. Missing key material is a startup
// failure, never an ephemeral fallback.
func LoadAddressKey(ctx context.Context, cfg *config.Config, kmsClient *kms.Client) ([]byte, error) {
	if cfg.AddressKeyHex != "" {
		return hex.DecodeString(cfg.AddressKeyHex)
	}

	if cfg.KMSEnabled && cfg.AddressKeyKMSB64 != "" {
		if kmsClient == nil {
			return nil, fmt.Errorf("KMS key configured but KMS client unavailable")
		}
		blob, err := base64.StdEncoding.DecodeString(cfg.AddressKeyKMSB64)
		if err != nil {
			return nil, fmt.Errorf("ADDRESS_KEY_KMS_CIPHERTEXT_B64 is not valid base64: %w", err)
		}
		out, err := kmsClient.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt address key via KMS: %w", err)
		}
		if len(out.Plaintext) != 32 {
			return nil, fmt.Errorf("KMS-decrypted address key must be 32 bytes, got %d", len(out.Plaintext))
		}
		return out.Plaintext, nil
	}

	return nil, fmt.Errorf("no address encryption key configured")
}
