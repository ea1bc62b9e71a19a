package go_smcu

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

const testKDFIterations = 1000

func TestKeystoreRoundTrip(t *testing.T) {
	seed, pub, _ := helloWorldKeys(t)
	path := filepath.Join(t.TempDir(), "smcu.yml")

	f, err := NewKeystoreFile(pub, seed, KeyFormatSeed, "")
	if err != nil {
		t.Fatalf("NewKeystoreFile failed: %v", err)
	}
	if err := SaveKeystore(path, f); err != nil {
		t.Fatalf("SaveKeystore failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Keystore permissions = %o, want 600", perm)
	}

	kp, err := LoadKeystore(path, "")
	if err != nil {
		t.Fatalf("LoadKeystore failed: %v", err)
	}
	if !bytes.Equal(kp.PublicKey(), pub) {
		t.Error("Loaded public key mismatch")
	}
	if !kp.Consistent() {
		t.Error("Loaded keypair should be consistent")
	}
}

func TestKeystoreDerivesMissingPublicKey(t *testing.T) {
	seed, pub, _ := helloWorldKeys(t)

	f, err := NewKeystoreFile(nil, seed, KeyFormatSeed, "")
	if err != nil {
		t.Fatalf("NewKeystoreFile failed: %v", err)
	}
	f.PublicKey = ""

	kp, err := f.Keypair("")
	if err != nil {
		t.Fatalf("Keypair failed: %v", err)
	}
	if !bytes.Equal(kp.PublicKey(), pub) {
		t.Error("Derived public key mismatch")
	}
}

func TestKeystoreSealed(t *testing.T) {
	_, pub, priv := helloWorldKeys(t)
	path := filepath.Join(t.TempDir(), "sealed.yml")

	f, err := NewKeystoreFile(pub, priv, KeyFormatSeedPublic, "")
	if err != nil {
		t.Fatalf("NewKeystoreFile failed: %v", err)
	}
	if err := f.Seal("correct horse", testKDFIterations); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if !f.IsSealed() || f.SecretKey != "" {
		t.Fatal("Seal should replace the plaintext secret key")
	}
	if err := SaveKeystore(path, f); err != nil {
		t.Fatalf("SaveKeystore failed: %v", err)
	}

	saved, err := ReadKeystoreFile(path)
	if err != nil {
		t.Fatalf("ReadKeystoreFile failed: %v", err)
	}
	if saved.SecretKey != "" || !saved.IsSealed() {
		t.Errorf("Saved keystore should only hold the sealed secret: %+v", saved)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "\nsecret_key:") || strings.HasPrefix(string(raw), "secret_key:") {
		t.Error("Sealed keystore file still contains a plaintext secret_key")
	}
	if strings.Contains(string(raw), base58.Encode(priv)) {
		t.Error("Sealed keystore file leaks the encoded secret key")
	}

	kp, err := LoadKeystore(path, "correct horse")
	if err != nil {
		t.Fatalf("LoadKeystore failed: %v", err)
	}
	emu, err := NewFromKeypair(kp)
	if err != nil {
		t.Fatalf("NewFromKeypair failed: %v", err)
	}
	sig, _ := emu.Sign([]byte("awesome"))
	if !Verify(pub, []byte("awesome"), sig[:]) {
		t.Error("Signature from sealed keystore does not verify")
	}

	if _, err := LoadKeystore(path, "wrong"); !errors.Is(err, ErrKeystoreSealed) {
		t.Errorf("Expected ErrKeystoreSealed for wrong passphrase, got %v", err)
	}
	if _, err := LoadKeystore(path, ""); !errors.Is(err, ErrKeystoreSealed) {
		t.Errorf("Expected ErrKeystoreSealed for missing passphrase, got %v", err)
	}
	if err := f.Seal("again", testKDFIterations); !errors.Is(err, ErrKeystore) {
		t.Errorf("Sealing twice should fail, got %v", err)
	}
}

func TestKeystoreSealedPublicKeyIsAuthenticated(t *testing.T) {
	seed, pub, _ := helloWorldKeys(t)
	f, _ := NewKeystoreFile(pub, seed, KeyFormatSeed, "")
	if err := f.Seal("pw", testKDFIterations); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	other, err := NewKeystoreFile(nil, bytes.Repeat([]byte{7}, SMCU_SEED_SIZE), KeyFormatSeed, "")
	if err != nil {
		t.Fatalf("NewKeystoreFile failed: %v", err)
	}
	f.PublicKey = other.PublicKey

	if _, err := f.Keypair("pw"); !errors.Is(err, ErrKeystoreSealed) {
		t.Errorf("Swapping the public key should break the seal, got %v", err)
	}
}

func TestLoadKeystoreMissingFile(t *testing.T) {
	_, err := LoadKeystore(filepath.Join(t.TempDir(), "absent.yml"), "")
	if !errors.Is(err, ErrKeystore) {
		t.Errorf("Expected ErrKeystore, got %v", err)
	}
}

func TestLoadKeystoreMalformed(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"yaml":       "public_key: [unterminated",
		"base58":     "public_key: 0OIl\nsecret_key: abc\n",
		"format":     "key_format: pem\nsecret_key: abc\n",
		"no secret":  "key_format: seed\n",
		"bad length": "key_format: seed\nsecret_key: 2g\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".yml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			if _, err := LoadKeystore(path, ""); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
