package go_smcu

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"filippo.io/edwards25519"
)

// Signature is a 64-byte Ed25519 signature (R || S).
type Signature [SMCU_SIGNATURE_SIZE]byte

// Bytes returns the signature as a new slice.
func (s Signature) Bytes() []byte {
	return append([]byte(nil), s[:]...)
}

// String returns the lowercase hex encoding of the signature.
func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// SignatureFromBytes copies a 64-byte signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SMCU_SIGNATURE_SIZE {
		return sig, fmt.Errorf("%w: signature has %d bytes, expected %d", ErrInvalidInput, len(b), SMCU_SIGNATURE_SIZE)
	}
	copy(sig[:], b)
	return sig, nil
}

// signExpanded computes the RFC 8032 Ed25519 signature of message with an
// expanded secret key. The result equals crypto/ed25519.Sign for the key the
// expanded form was derived from.
//
// All state is local to the call, so concurrent calls sharing a key are safe.
func signExpanded(expanded *[SMCU_EXPANDED_KEY_SIZE]byte, publicKey, message []byte) (Signature, error) {
	var sig Signature

	s, err := edwards25519.NewScalar().SetBytesWithClamping(expanded[:32])
	if err != nil {
		return sig, fmt.Errorf("failed to load secret scalar: %w", err)
	}
	prefix := expanded[32:]

	var digest [64]byte
	defer zeroBytes(digest[:])

	mh := sha512.New()
	mh.Write(prefix)
	mh.Write(message)
	mh.Sum(digest[:0])
	r, err := edwards25519.NewScalar().SetUniformBytes(digest[:])
	if err != nil {
		return sig, fmt.Errorf("failed to derive nonce: %w", err)
	}

	R := (&edwards25519.Point{}).ScalarBaseMult(r)

	kh := sha512.New()
	kh.Write(R.Bytes())
	kh.Write(publicKey)
	kh.Write(message)
	var hram [64]byte
	kh.Sum(hram[:0])
	k, err := edwards25519.NewScalar().SetUniformBytes(hram[:])
	if err != nil {
		return sig, fmt.Errorf("failed to derive challenge: %w", err)
	}

	S := edwards25519.NewScalar().MultiplyAdd(k, s, r)

	copy(sig[:32], R.Bytes())
	copy(sig[32:], S.Bytes())
	return sig, nil
}

// Verify reports whether sig is a valid Ed25519 signature of message by
// publicKey. Malformed keys or signatures are reported as invalid.
func Verify(publicKey, message, sig []byte) bool {
	if len(publicKey) != SMCU_PUBLIC_KEY_SIZE || len(sig) != SMCU_SIGNATURE_SIZE {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, sig)
}
