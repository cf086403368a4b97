package history

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"photobox/internal/security"
)

var (
	ErrUnsigned     = errors.New("history: entry is not signed")
	ErrUntrustedKey = errors.New("history: entry signed by an untrusted key")
)

// VerifyChain recomputes every hash and link to detect tampering.
// Signed entries must also carry a valid signature. When trusted is set,
// every entry must be signed by that key; the key stored in an entry is
// only compared against it, never believed.
func (l *Ledger) VerifyChain(trusted ed25519.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.Index != i {
			return fmt.Errorf("history: index mismatch: expected %d got %d", i, e.Index)
		}
		h, err := e.ComputeHash()
		if err != nil {
			return fmt.Errorf("history: compute hash for index %d: %w", i, err)
		}
		if h != e.Hash {
			return fmt.Errorf("history: hash mismatch at index %d", i)
		}
		if i > 0 && e.PrevHash != l.entries[i-1].Hash {
			return fmt.Errorf("history: prev hash mismatch at index %d", i)
		}

		pub := e.PubKey
		if trusted != nil {
			if e.Signature == "" {
				return fmt.Errorf("%w at index %d", ErrUnsigned, i)
			}
			stored, err := hex.DecodeString(e.PubKey)
			if err != nil || !bytes.Equal(stored, trusted) {
				return fmt.Errorf("%w at index %d", ErrUntrustedKey, i)
			}
			pub = hex.EncodeToString(trusted)
		}
		if e.Signature == "" {
			continue
		}
		if err := security.Verify(pub, []byte(e.Hash), e.Signature); err != nil {
			return fmt.Errorf("history: index %d: %w", i, err)
		}
	}
	return nil
}
