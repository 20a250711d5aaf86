package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the process needs at startup. The address
// encryption key is deliberately fail-fast: without it every stored
// address would become undecryptable, so we refuse to boot instead of
// generating a throwaway key.
type Config struct {
	Port        string
	Environment string

	JWTSecret string

	// AddressKeyHex is the 256-bit address encryption key, hex encoded.
	// Alternatively the key may arrive as a KMS-encrypted blob that is
	// unwrapped at startup (see services.LoadAddressKey).
	AddressKeyHex         string
	AddressKeyKMSB64      string
	KMSEnabled            bool
	AWSRegion             string
	S3Bucket              string
	UseMemoryObjectStore  bool
	AllowRerequestAfterReject bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		AddressKeyHex:         os.Getenv("ADDRESS_ENCRYPTION_KEY"),
		AddressKeyKMSB64:      os.Getenv("ADDRESS_KEY_KMS_CIPHERTEXT_B64"),
		AWSRegion:             os.Getenv("AWS_REGION"),
		S3Bucket:              os.Getenv("S3_BUCKET_NAME"),
		KMSEnabled:            getBool("KMS_ENABLED"),
		UseMemoryObjectStore:  getBool("USE_MEMORY_OBJECT_STORE"),
		AllowRerequestAfterReject: getBool("ALLOW_REREQUEST_AFTER_REJECT"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	if cfg.AddressKeyHex == "" && !(cfg.KMSEnabled && cfg.AddressKeyKMSB64 != "") {
		return nil, errors.New("ADDRESS_ENCRYPTION_KEY is required (or KMS_ENABLED with ADDRESS_KEY_KMS_CIPHERTEXT_B64)")
	}
	if cfg.AddressKeyHex != "" {
		key, err := hex.DecodeString(cfg.AddressKeyHex)
		if err != nil {
			return nil, fmt.Errorf("ADDRESS_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("ADDRESS_ENCRYPTION_KEY must be 32 bytes, got %d", len(key))
		}
	}

	if !cfg.UseMemoryObjectStore && cfg.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET_NAME is required unless USE_MEMORY_OBJECT_STORE is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
