package go_smcu

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync/atomic"

	"filippo.io/edwards25519"
	"github.com/go-i2p/common/base32"
	cryptoed25519 "github.com/go-i2p/crypto/ed25519"
)

// KeyFormat selects how private key bytes handed to NewKeypair are interpreted.
//
// Whatever the input format, the keypair keeps a single canonical form: the
// 64-byte expanded secret key (clamped scalar || nonce prefix) from RFC 8032
// section 5.1.5. Seeds are expanded with SHA-512 on the way in and the seed
// itself is not retained.
type KeyFormat int

const (
	// KeyFormatAuto infers the format from the length: 32 bytes is a seed,
	// 64 bytes is seed||public when the tail equals the public key, otherwise
	// an expanded key.
	KeyFormatAuto KeyFormat = iota
	// KeyFormatSeed is a 32-byte RFC 8032 private key seed.
	KeyFormatSeed
	// KeyFormatSeedPublic is seed||public (crypto/ed25519.PrivateKey layout).
	KeyFormatSeedPublic
	// KeyFormatExpanded is the 64-byte expanded secret key (ref10/orlp layout).
	KeyFormatExpanded
)

// String returns the keystore name of the format.
func (f KeyFormat) String() string {
	switch f {
	case KeyFormatAuto:
		return "auto"
	case KeyFormatSeed:
		return "seed"
	case KeyFormatSeedPublic:
		return "seed+public"
	case KeyFormatExpanded:
		return "expanded"
	default:
		return fmt.Sprintf("KeyFormat(%d)", int(f))
	}
}

// ParseKeyFormat parses a keystore/config format name. The empty string is auto.
func ParseKeyFormat(s string) (KeyFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return KeyFormatAuto, nil
	case "seed":
		return KeyFormatSeed, nil
	case "seed+public", "seed-public", "keypair":
		return KeyFormatSeedPublic, nil
	case "expanded":
		return KeyFormatExpanded, nil
	default:
		return KeyFormatAuto, fmt.Errorf("%w: unknown key format %q", ErrInvalidKeyFormat, s)
	}
}

// Keypair holds the emulated secure element's key material.
// It is immutable after construction except for Zero(), and can be handed to
// at most one Emulator.
type Keypair struct {
	publicKey cryptoed25519.Ed25519PublicKey
	expanded  [SMCU_EXPANDED_KEY_SIZE]byte
	zeroed    bool
	owned     atomic.Bool
}

// NewKeypair copies publicKey and privateKey into a new Keypair.
//
// The pair is not checked for consistency; a public key that does not belong to
// the private key produces signatures that fail verification. Use Consistent()
// when that matters to the caller.
func NewKeypair(publicKey, privateKey []byte, format KeyFormat) (*Keypair, error) {
	if len(publicKey) == 0 || len(privateKey) == 0 {
		return nil, ErrInvalidInput
	}
	if len(publicKey) != SMCU_PUBLIC_KEY_SIZE {
		return nil, &KeyError{Field: "public key", Size: len(publicKey), Expected: "32", Err: ErrInvalidInput}
	}

	pub, err := cryptoed25519.CreateEd25519PublicKeyFromBytes(append([]byte(nil), publicKey...))
	if err != nil {
		return nil, fmt.Errorf("failed to create public key: %w", err)
	}

	kp := &Keypair{publicKey: pub}
	if err := expandPrivateKey(&kp.expanded, privateKey, publicKey, format); err != nil {
		return nil, err
	}
	return kp, nil
}

// expandPrivateKey writes the canonical expanded form of privateKey into dst.
func expandPrivateKey(dst *[SMCU_EXPANDED_KEY_SIZE]byte, privateKey, publicKey []byte, format KeyFormat) error {
	format, err := resolveKeyFormat(privateKey, publicKey, format)
	if err != nil {
		return err
	}

	switch format {
	case KeyFormatSeed, KeyFormatSeedPublic:
		digest := sha512.Sum512(privateKey[:SMCU_SEED_SIZE])
		copy(dst[:], digest[:])
		zeroBytes(digest[:])
	case KeyFormatExpanded:
		copy(dst[:], privateKey)
	}
	return nil
}

// resolveKeyFormat validates the private key length for format and resolves
// KeyFormatAuto to a concrete format.
func resolveKeyFormat(privateKey, publicKey []byte, format KeyFormat) (KeyFormat, error) {
	switch format {
	case KeyFormatAuto:
		switch len(privateKey) {
		case SMCU_SEED_SIZE:
			return KeyFormatSeed, nil
		case SMCU_EXPANDED_KEY_SIZE:
			if publicKey != nil && subtle.ConstantTimeCompare(privateKey[SMCU_SEED_SIZE:], publicKey) == 1 {
				return KeyFormatSeedPublic, nil
			}
			return KeyFormatExpanded, nil
		}
		return format, &KeyError{Field: "private key", Size: len(privateKey), Expected: "32 or 64", Err: ErrInvalidKeyFormat}
	case KeyFormatSeed:
		if len(privateKey) != SMCU_SEED_SIZE {
			return format, &KeyError{Field: "private key", Size: len(privateKey), Expected: "32", Err: ErrInvalidKeyFormat}
		}
	case KeyFormatSeedPublic, KeyFormatExpanded:
		if len(privateKey) != SMCU_EXPANDED_KEY_SIZE {
			return format, &KeyError{Field: "private key", Size: len(privateKey), Expected: "64", Err: ErrInvalidKeyFormat}
		}
	default:
		return format, fmt.Errorf("%w: %v", ErrInvalidKeyFormat, format)
	}
	return format, nil
}

// DerivePublicKey recovers the public key that belongs to privateKey.
// KeyFormatAuto treats 64-byte input as an expanded key, since there is no
// public key to compare the tail against.
func DerivePublicKey(privateKey []byte, format KeyFormat) ([]byte, error) {
	if len(privateKey) == 0 {
		return nil, ErrInvalidInput
	}
	var expanded [SMCU_EXPANDED_KEY_SIZE]byte
	defer zeroBytes(expanded[:])
	if err := expandPrivateKey(&expanded, privateKey, nil, format); err != nil {
		return nil, err
	}
	return publicFromExpanded(&expanded)
}

func publicFromExpanded(expanded *[SMCU_EXPANDED_KEY_SIZE]byte) ([]byte, error) {
	s, err := edwards25519.NewScalar().SetBytesWithClamping(expanded[:32])
	if err != nil {
		return nil, fmt.Errorf("failed to load secret scalar: %w", err)
	}
	A := (&edwards25519.Point{}).ScalarBaseMult(s)
	return A.Bytes(), nil
}

// PublicKey returns a copy of the public key as stdlib ed25519.PublicKey.
func (kp *Keypair) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(append([]byte(nil), kp.publicKey.Bytes()...))
}

// Consistent reports whether the stored public key is the one derived from the
// stored private key.
func (kp *Keypair) Consistent() bool {
	if kp.zeroed {
		return false
	}
	derived, err := publicFromExpanded(&kp.expanded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derived, kp.publicKey.Bytes()) == 1
}

// Fingerprint returns the I2P base32 encoding of SHA-256(public key), used to
// identify a key in logs without printing key material.
func (kp *Keypair) Fingerprint() string {
	sum := sha256.Sum256(kp.publicKey.Bytes())
	return base32.EncodeToString(sum[:])
}

// claim marks kp as owned by an emulator. It reports false if kp already has
// an owner.
func (kp *Keypair) claim() bool {
	return kp.owned.CompareAndSwap(false, true)
}

// Zero overwrites the private key. The keypair cannot sign afterwards.
func (kp *Keypair) Zero() {
	zeroBytes(kp.expanded[:])
	kp.zeroed = true
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
