// Package security signs and verifies history entries with Ed25519 keys
// stored as hex text files.
package security

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrKeySize   = errors.New("security: invalid key size")
	ErrSignature = errors.New("security: signature mismatch")
)

// GenerateKeyPair creates a new Ed25519 key pair.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// SaveKeyPair writes both keys hex encoded. The private key file is 0600.
func SaveKeyPair(pub ed25519.PublicKey, priv ed25519.PrivateKey, pubPath, privPath string) error {
	for _, p := range []string{pubPath, privPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("security: mkdir: %w", err)
		}
	}
	if err := os.WriteFile(pubPath, []byte(hex.EncodeToString(pub)), 0o644); err != nil {
		return fmt.Errorf("security: write public key: %w", err)
	}
	if err := os.WriteFile(privPath, []byte(hex.EncodeToString(priv)), 0o600); err != nil {
		return fmt.Errorf("security: write private key: %w", err)
	}
	return nil
}

// LoadPrivateKey reads a hex encoded private key.
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	b, err := readHex(path)
	if err != nil {
		return nil, err
	}
	if len(b) != ed25519.PrivateKeySize {
		return nil, ErrKeySize
	}
	return ed25519.PrivateKey(b), nil
}

// LoadPublicKey reads a hex encoded public key.
func LoadPublicKey(path string) (ed25519.PublicKey, error) {
	b, err := readHex(path)
	if err != nil {
		return nil, err
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, ErrKeySize
	}
	return ed25519.PublicKey(b), nil
}

func readHex(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("security: read key: %w", err)
	}
	b, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("security: decode key: %w", err)
	}
	return b, nil
}

// Sign returns the hex signature of data.
func Sign(priv ed25519.PrivateKey, data []byte) string {
	return hex.EncodeToString(ed25519.Sign(priv, data))
}

// Verify checks a hex signature against a hex public key.
func Verify(pubHex string, data []byte, sigHex string) error {
	pub, err := hex.DecodeString(pubHex)
	if err != nil {
		return fmt.Errorf("security: decode public key: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return ErrKeySize
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("security: decode signature: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), data, sig) {
		return ErrSignature
	}
	return nil
}
