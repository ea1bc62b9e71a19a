package go_smcu

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
	yaml "gopkg.in/yaml.v3"
)

// Keystore file support
//
// A keystore is a YAML document holding base58-encoded key material:
//
//	key_format: seed
//	public_key: 8Rb1...
//	secret_key: 4Nd2...
//
// or, when protected by a passphrase, a sealed_secret_key block instead of
// secret_key. Sealing derives a key with PBKDF2-SHA256 and encrypts the secret
// with ChaCha20-Poly1305, authenticating the public key string as additional
// data. A missing keystore is an error; keys are never generated here.

// KeystoreFile is the on-disk keystore document.
type KeystoreFile struct {
	KeyFormat string        `yaml:"key_format,omitempty"`
	PublicKey string        `yaml:"public_key,omitempty"`
	SecretKey string        `yaml:"secret_key,omitempty"`
	Sealed    *SealedSecret `yaml:"sealed_secret_key,omitempty"`
}

// SealedSecret is a passphrase-encrypted secret key.
type SealedSecret struct {
	KDFIterations int    `yaml:"kdf_iterations"`
	Salt          string `yaml:"salt"`
	Nonce         string `yaml:"nonce"`
	Ciphertext    string `yaml:"ciphertext"`
}

// NewKeystoreFile encodes key material for storage. A nil publicKey is derived
// from privateKey. A non-empty passphrase seals the secret key.
func NewKeystoreFile(publicKey, privateKey []byte, format KeyFormat, passphrase string) (*KeystoreFile, error) {
	if len(privateKey) == 0 {
		return nil, ErrInvalidInput
	}
	if _, err := resolveKeyFormat(privateKey, publicKey, format); err != nil {
		return nil, err
	}
	if publicKey == nil {
		derived, err := DerivePublicKey(privateKey, format)
		if err != nil {
			return nil, err
		}
		publicKey = derived
	}

	f := &KeystoreFile{
		KeyFormat: format.String(),
		PublicKey: base58.Encode(publicKey),
		SecretKey: base58.Encode(privateKey),
	}
	if passphrase != "" {
		if err := f.Seal(passphrase, KEYSTORE_DEFAULT_KDF_ITERATIONS); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ReadKeystoreFile parses the keystore at path without decoding any keys.
func ReadKeystoreFile(path string) (*KeystoreFile, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystore, err)
	}
	var f KeystoreFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrKeystore, path, err)
	}
	return &f, nil
}

// SaveKeystore writes f to path with owner-only permissions.
func SaveKeystore(path string, f *KeystoreFile) error {
	if f == nil {
		return ErrInvalidInput
	}
	b, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrKeystore, err)
	}
	if err := os.WriteFile(filepath.Clean(path), b, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrKeystore, err)
	}
	return nil
}

// LoadKeystore reads path and builds a Keypair from it. passphrase is only
// used when the secret key is sealed.
func LoadKeystore(path, passphrase string) (*Keypair, error) {
	f, err := ReadKeystoreFile(path)
	if err != nil {
		return nil, err
	}
	kp, err := f.Keypair(passphrase)
	if err != nil {
		return nil, err
	}
	if !kp.Consistent() {
		logInstance.WithField("path", path).
			WithField("fingerprint", kp.Fingerprint()).
			Warn("keystore public key does not match its secret key")
	}
	return kp, nil
}

// Keypair decodes the keystore into a Keypair.
func (f *KeystoreFile) Keypair(passphrase string) (*Keypair, error) {
	format, err := ParseKeyFormat(f.KeyFormat)
	if err != nil {
		return nil, err
	}

	secret, err := f.secretKey(passphrase)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(secret)

	var pub []byte
	if f.PublicKey != "" {
		pub, err = base58.Decode(f.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: public_key: %v", ErrKeystore, err)
		}
	} else {
		pub, err = DerivePublicKey(secret, format)
		if err != nil {
			return nil, err
		}
	}
	return NewKeypair(pub, secret, format)
}

// IsSealed reports whether the secret key is passphrase protected.
func (f *KeystoreFile) IsSealed() bool {
	return f.Sealed != nil
}

// Seal encrypts the plaintext secret key with passphrase and removes it from f.
func (f *KeystoreFile) Seal(passphrase string, iterations int) error {
	if f.Sealed != nil {
		return fmt.Errorf("%w: already sealed", ErrKeystore)
	}
	if passphrase == "" || f.SecretKey == "" {
		return ErrInvalidInput
	}
	if iterations <= 0 {
		iterations = KEYSTORE_DEFAULT_KDF_ITERATIONS
	}

	secret, err := base58.Decode(f.SecretKey)
	if err != nil {
		return fmt.Errorf("%w: secret_key: %v", ErrKeystore, err)
	}
	defer zeroBytes(secret)

	salt := make([]byte, KEYSTORE_SALT_SIZE)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("%w: salt: %v", ErrKeystore, err)
	}
	aead, err := keystoreAEAD(passphrase, salt, iterations)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("%w: nonce: %v", ErrKeystore, err)
	}

	ciphertext := aead.Seal(nil, nonce, secret, []byte(f.PublicKey))
	f.Sealed = &SealedSecret{
		KDFIterations: iterations,
		Salt:          base58.Encode(salt),
		Nonce:         base58.Encode(nonce),
		Ciphertext:    base58.Encode(ciphertext),
	}
	f.SecretKey = ""
	return nil
}

func (f *KeystoreFile) secretKey(passphrase string) ([]byte, error) {
	if f.Sealed == nil {
		if f.SecretKey == "" {
			return nil, fmt.Errorf("%w: no secret_key", ErrInvalidInput)
		}
		secret, err := base58.Decode(f.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("%w: secret_key: %v", ErrKeystore, err)
		}
		return secret, nil
	}

	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase required", ErrKeystoreSealed)
	}
	salt, err := base58.Decode(f.Sealed.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrKeystore, err)
	}
	nonce, err := base58.Decode(f.Sealed.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrKeystore, err)
	}
	ciphertext, err := base58.Decode(f.Sealed.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %v", ErrKeystore, err)
	}

	aead, err := keystoreAEAD(passphrase, salt, f.Sealed.KDFIterations)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce has %d bytes", ErrKeystore, len(nonce))
	}
	secret, err := aead.Open(nil, nonce, ciphertext, []byte(f.PublicKey))
	if err != nil {
		return nil, errors.Join(ErrKeystoreSealed, err)
	}
	return secret, nil
}

func keystoreAEAD(passphrase string, salt []byte, iterations int) (cipher.AEAD, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("%w: invalid kdf_iterations %d", ErrKeystore, iterations)
	}
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, chacha20poly1305.KeySize, sha256.New)
	defer zeroBytes(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystore, err)
	}
	return aead, nil
}
