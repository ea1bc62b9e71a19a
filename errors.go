package go_smcu

import (
	"errors"
	"fmt"
)

// Standard SMCU Error Types
//
// These errors follow Go 1.13+ error wrapping conventions and can be
// checked using errors.Is() and errors.As().

// Sentinel errors for precondition failures
var (
	// ErrInvalidInput indicates a nil or empty buffer was passed where key material
	// or a packet record is required.
	ErrInvalidInput = errors.New("smcu: invalid input (nil or empty value)")

	// ErrKeyNotInitialized indicates signing was attempted on an emulator that holds
	// no key. Emulators must be created using New() or NewFromKeypair();
	// zero-value Emulator{} instances and closed emulators report this error.
	ErrKeyNotInitialized = errors.New("smcu: key not initialized (use New)")

	// ErrPayloadLength indicates a declared payload length is negative or exceeds
	// the capacity of the buffer it describes.
	ErrPayloadLength = errors.New("smcu: declared payload length exceeds capacity")

	// ErrInvalidKeyFormat indicates a private key whose length does not match the
	// requested KeyFormat.
	ErrInvalidKeyFormat = errors.New("smcu: invalid private key format")

	// ErrUnknownDatarate indicates a LoRa spreading factor outside SF5..SF12.
	ErrUnknownDatarate = errors.New("smcu: unknown datarate")

	// ErrUnknownBandwidth indicates a LoRa bandwidth code outside the HAL's set.
	ErrUnknownBandwidth = errors.New("smcu: unknown bandwidth")

	// ErrInvalidFrequency indicates a frequency that is not positive or does not
	// fit the packet record.
	ErrInvalidFrequency = errors.New("smcu: invalid frequency")

	// ErrUnknownEncoding indicates an unsupported packet encoding name.
	ErrUnknownEncoding = errors.New("smcu: unknown packet encoding")

	// ErrKeystore indicates a keystore file could not be read, parsed or written.
	ErrKeystore = errors.New("smcu: keystore error")

	// ErrKeystoreSealed indicates the sealed secret key could not be opened,
	// usually because of a missing or wrong passphrase.
	ErrKeystoreSealed = errors.New("smcu: cannot open sealed keystore")
)

// KeyError describes rejected key material.
type KeyError struct {
	Field    string // "public key" or "private key"
	Size     int    // length that was supplied
	Expected string // accepted lengths, e.g. "32 or 64"
	Err      error  // Underlying error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("smcu: %s has %d bytes, expected %s: %v", e.Field, e.Size, e.Expected, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// LengthError reports a declared payload length that cannot be honoured.
// It always unwraps to ErrPayloadLength.
type LengthError struct {
	Declared int
	Capacity int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("smcu: declared payload length %d exceeds capacity %d", e.Declared, e.Capacity)
}

func (e *LengthError) Unwrap() error {
	return ErrPayloadLength
}

// checkLength returns nil when declared fits in [0, capacity].
func checkLength(declared, capacity int) error {
	if declared < 0 || declared > capacity {
		return &LengthError{Declared: declared, Capacity: capacity}
	}
	return nil
}

// errorType maps an error to the label used for metrics.
func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPayloadLength):
		return "length"
	case errors.Is(err, ErrKeyNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "other"
	}
}
