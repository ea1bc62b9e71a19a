package go_smcu

// SMCU Emulator Constants
//
// Sizes follow RFC 8032 Ed25519. The emulator stores every private key in the
// 64-byte expanded form (clamped scalar || nonce prefix), which is also the layout
// the ref10 family of C implementations calls the "private key".

// Key and signature sizes
const (
	SMCU_PUBLIC_KEY_SIZE   = 32
	SMCU_SEED_SIZE         = 32
	SMCU_EXPANDED_KEY_SIZE = 64
	SMCU_SIGNATURE_SIZE    = 64
)

// LoRa Packet Constants
// Mirrors the gateway HAL rx record (lgw_pkt_rx_s).
const (
	LORA_PAYLOAD_CAPACITY = 256
)

// Packet encoding identifiers
const (
	PACKET_ENCODING_PAYLOAD          = "payload"
	PACKET_ENCODING_PAYLOAD_METADATA = "payload+metadata"
)

// Keystore Constants
const (
	KEYSTORE_DEFAULT_PATH           = "smcu.yml"
	KEYSTORE_DEFAULT_KDF_ITERATIONS = 600000
	KEYSTORE_SALT_SIZE              = 16
)

// Metrics kinds
const (
	SIGN_KIND_PAYLOAD = "payload"
	SIGN_KIND_PACKET  = "packet"
)

// Logger Level Constants
const (
	DEBUG   = 1 << 4
	INFO    = 1 << 5
	WARNING = 1 << 6
	ERROR   = 1 << 7
	FATAL   = 1 << 8
)
