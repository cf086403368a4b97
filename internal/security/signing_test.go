package security

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	sig := Sign(priv, []byte("entry hash"))
	assert.NoError(t, Verify(hex.EncodeToString(pub), []byte("entry hash"), sig))
	assert.ErrorIs(t, Verify(hex.EncodeToString(pub), []byte("other hash"), sig), ErrSignature)
	assert.ErrorIs(t, Verify("abcd", []byte("entry hash"), sig), ErrKeySize)
	assert.Error(t, Verify(hex.EncodeToString(pub), []byte("entry hash"), "zz"))
}

func TestSaveAndLoadKeyPair(t *testing.T) {
	dir := t.TempDir()
	pubPath := filepath.Join(dir, "keys", "photobox.pub")
	privPath := filepath.Join(dir, "keys", "photobox.priv")

	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, SaveKeyPair(pub, priv, pubPath, privPath))

	info, err := os.Stat(privPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	gotPub, err := LoadPublicKey(pubPath)
	require.NoError(t, err)
	assert.Equal(t, pub, gotPub)
	gotPriv, err := LoadPrivateKey(privPath)
	require.NoError(t, err)
	assert.Equal(t, priv, gotPriv)

	// keys edited by hand often end with a newline
	require.NoError(t, os.WriteFile(pubPath, []byte(hex.EncodeToString(pub)+"\n"), 0o644))
	gotPub, err = LoadPublicKey(pubPath)
	require.NoError(t, err)
	assert.Equal(t, pub, gotPub)
}

func TestLoadKeyErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadPrivateKey(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	short := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(short, []byte("abcd"), 0o600))
	_, err = LoadPrivateKey(short)
	assert.ErrorIs(t, err, ErrKeySize)
	_, err = LoadPublicKey(short)
	assert.ErrorIs(t, err, ErrKeySize)

	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(bad, []byte("not hex"), 0o600))
	_, err = LoadPublicKey(bad)
	assert.Error(t, err)
}
