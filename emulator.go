package go_smcu

import (
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"
)

// Emulator is an emulated secure microcontroller holding one Ed25519 keypair.
//
// An Emulator can only be obtained from New or NewFromKeypair, so a usable
// instance always has a key. Signing is read-only and may run concurrently;
// Close wipes the key and waits for in-flight signatures.
type Emulator struct {
	mu       sync.RWMutex
	keys     *Keypair
	encoding PacketEncoding
	metrics  MetricsCollector
}

// Option configures an Emulator.
type Option func(*Emulator)

// WithPacketEncoding selects the bytes SignPacket covers.
// The default, PacketEncodingPayload, signs the payload only.
func WithPacketEncoding(enc PacketEncoding) Option {
	return func(e *Emulator) {
		e.encoding = enc
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(e *Emulator) {
		e.metrics = m
	}
}

// New creates an emulator from raw key material. privateKey may be a 32-byte
// seed, a 64-byte seed||public key or a 64-byte expanded key; the format is
// inferred as described for KeyFormatAuto. Use NewKeypair and NewFromKeypair
// to pin the format.
func New(publicKey, privateKey []byte, opts ...Option) (*Emulator, error) {
	kp, err := NewKeypair(publicKey, privateKey, KeyFormatAuto)
	if err != nil {
		return nil, err
	}
	return NewFromKeypair(kp, opts...)
}

// NewFromKeypair creates an emulator that takes ownership of kp.
// kp is zeroed when the emulator is closed. A keypair that is already owned
// by another emulator, or has been zeroed, is rejected with ErrInvalidInput.
func NewFromKeypair(kp *Keypair, opts ...Option) (*Emulator, error) {
	if kp == nil || kp.zeroed {
		return nil, ErrInvalidInput
	}
	e := &Emulator{keys: kp}
	for _, opt := range opts {
		opt(e)
	}
	if _, err := ParsePacketEncoding(e.encoding.String()); err != nil {
		return nil, err
	}
	if !kp.claim() {
		return nil, fmt.Errorf("%w: keypair already owned by an emulator", ErrInvalidInput)
	}

	logInstance.WithField("fingerprint", kp.Fingerprint()).
		WithField("encoding", e.encoding.String()).
		Debug("smcu emulator initialized")
	return e, nil
}

// PublicKey returns the emulator's public key, or nil once closed.
func (e *Emulator) PublicKey() ed25519.PublicKey {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.keys == nil {
		return nil
	}
	return e.keys.PublicKey()
}

// Fingerprint returns the public key fingerprint, or "" once closed.
func (e *Emulator) Fingerprint() string {
	if e == nil {
		return ""
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.keys == nil {
		return ""
	}
	return e.keys.Fingerprint()
}

// Sign signs all of payload. An empty or nil payload yields a valid signature
// over the empty message.
func (e *Emulator) Sign(payload []byte) (Signature, error) {
	return e.sign(SIGN_KIND_PAYLOAD, payload)
}

// SignN signs the first n bytes of payload.
//
// n must lie in [0, len(payload)], otherwise a *LengthError is returned. When
// n is 0 the buffer is never read and may be nil.
func (e *Emulator) SignN(payload []byte, n int) (Signature, error) {
	if n == 0 {
		return e.sign(SIGN_KIND_PAYLOAD, nil)
	}
	if err := checkLength(n, len(payload)); err != nil {
		e.recordError(err)
		return Signature{}, err
	}
	return e.sign(SIGN_KIND_PAYLOAD, payload[:n])
}

// SignPacket signs the payload of pkt, bounded by pkt.DataLen. With
// PacketEncodingPayloadMetadata the signed message also covers the length,
// timestamp and RSSI fields.
func (e *Emulator) SignPacket(pkt *LoraPacket) (Signature, error) {
	if pkt == nil {
		e.recordError(ErrInvalidInput)
		return Signature{}, ErrInvalidInput
	}
	msg, err := pkt.SigningMessage(e.encodingOrDefault())
	if err != nil {
		Warning("rejecting packet with data_len %d: %v", pkt.DataLen, err)
		e.recordError(err)
		return Signature{}, err
	}
	return e.sign(SIGN_KIND_PACKET, msg)
}

// Verify reports whether sig is a valid signature of payload under the
// emulator's public key.
func (e *Emulator) Verify(payload []byte, sig Signature) bool {
	pub := e.PublicKey()
	if pub == nil {
		return false
	}
	return Verify(pub, payload, sig[:])
}

// VerifyPacket verifies sig against pkt using the emulator's packet encoding.
func (e *Emulator) VerifyPacket(pkt *LoraPacket, sig Signature) bool {
	if pkt == nil {
		return false
	}
	msg, err := pkt.SigningMessage(e.encodingOrDefault())
	if err != nil {
		return false
	}
	return e.Verify(msg, sig)
}

// Close zeroes the private key. Subsequent signing returns ErrKeyNotInitialized.
// Close is idempotent.
func (e *Emulator) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.keys == nil {
		return nil
	}
	e.keys.Zero()
	e.keys = nil
	Debug("smcu emulator closed, key material zeroed")
	return nil
}

func (e *Emulator) encodingOrDefault() PacketEncoding {
	if e == nil {
		return PacketEncodingPayload
	}
	return e.encoding
}

func (e *Emulator) sign(kind string, msg []byte) (Signature, error) {
	if e == nil {
		return Signature{}, ErrKeyNotInitialized
	}

	start := time.Now()
	e.mu.RLock()
	if e.keys == nil || e.keys.zeroed {
		e.mu.RUnlock()
		e.recordError(ErrKeyNotInitialized)
		return Signature{}, ErrKeyNotInitialized
	}
	sig, err := signExpanded(&e.keys.expanded, e.keys.publicKey.Bytes(), msg)
	e.mu.RUnlock()
	if err != nil {
		Error("signing failed: %v", err)
		e.recordError(err)
		return Signature{}, err
	}

	if e.metrics != nil {
		e.metrics.IncrementSignature(kind)
		e.metrics.AddBytesSigned(uint64(len(msg)))
		e.metrics.RecordSignLatency(kind, time.Since(start))
	}
	logInstance.WithField("kind", kind).WithField("len", len(msg)).Debug("signed message")
	return sig, nil
}

func (e *Emulator) recordError(err error) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.IncrementError(errorType(err))
}
