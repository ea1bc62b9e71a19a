package go_smcu

import (
	"encoding/binary"
	"fmt"
)

// LoraPacket mirrors the gateway driver's received-packet record.
//
// Data has a fixed capacity of LORA_PAYLOAD_CAPACITY bytes and DataLen declares
// how many of them are in use. DataLen is supplied by the radio driver and is
// never trusted: every extraction checks it against the capacity first.
type LoraPacket struct {
	Data      [LORA_PAYLOAD_CAPACITY]byte
	DataLen   uint16
	RSSI      int32
	FreqHz    uint32
	Timestamp uint32 // concentrator counter, microseconds
	Bandwidth Bandwidth
	Datarate  Datarate
}

// NewLoraPacket returns a packet carrying a copy of payload.
func NewLoraPacket(payload []byte) (*LoraPacket, error) {
	pkt := &LoraPacket{}
	if err := pkt.SetPayload(payload); err != nil {
		return nil, err
	}
	return pkt, nil
}

// SetPayload copies payload into Data and sets DataLen.
func (p *LoraPacket) SetPayload(payload []byte) error {
	if err := checkLength(len(payload), LORA_PAYLOAD_CAPACITY); err != nil {
		return err
	}
	n := copy(p.Data[:], payload)
	p.DataLen = uint16(n)
	return nil
}

// Payload returns the first DataLen bytes of Data, or a *LengthError when
// DataLen exceeds the capacity. The returned slice aliases the packet.
func (p *LoraPacket) Payload() ([]byte, error) {
	if err := checkLength(int(p.DataLen), LORA_PAYLOAD_CAPACITY); err != nil {
		return nil, err
	}
	return p.Data[:p.DataLen], nil
}

// Datr returns the packet's combined datarate identifier.
func (p *LoraPacket) Datr() Datr {
	return Datr{Datarate: p.Datarate, Bandwidth: p.Bandwidth}
}

// PacketEncoding selects which packet bytes are covered by a signature.
type PacketEncoding int

const (
	// PacketEncodingPayload signs the payload bytes only.
	PacketEncodingPayload PacketEncoding = iota
	// PacketEncodingPayloadMetadata signs
	// payload || u32be(DataLen) || u32be(Timestamp) || i32be(RSSI).
	PacketEncodingPayloadMetadata
)

func (e PacketEncoding) String() string {
	switch e {
	case PacketEncodingPayload:
		return PACKET_ENCODING_PAYLOAD
	case PacketEncodingPayloadMetadata:
		return PACKET_ENCODING_PAYLOAD_METADATA
	default:
		return fmt.Sprintf("PacketEncoding(%d)", int(e))
	}
}

// ParsePacketEncoding parses an encoding name. The empty string is PacketEncodingPayload.
func ParsePacketEncoding(s string) (PacketEncoding, error) {
	switch s {
	case "", PACKET_ENCODING_PAYLOAD:
		return PacketEncodingPayload, nil
	case PACKET_ENCODING_PAYLOAD_METADATA:
		return PacketEncodingPayloadMetadata, nil
	default:
		return PacketEncodingPayload, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
	}
}

// SigningMessage returns the bytes a signature over p covers under enc.
func (p *LoraPacket) SigningMessage(enc PacketEncoding) ([]byte, error) {
	payload, err := p.Payload()
	if err != nil {
		return nil, err
	}

	switch enc {
	case PacketEncodingPayload:
		return payload, nil
	case PacketEncodingPayloadMetadata:
		msg := make([]byte, 0, len(payload)+12)
		msg = append(msg, payload...)
		msg = binary.BigEndian.AppendUint32(msg, uint32(p.DataLen))
		msg = binary.BigEndian.AppendUint32(msg, p.Timestamp)
		msg = binary.BigEndian.AppendUint32(msg, uint32(p.RSSI))
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownEncoding, enc)
	}
}
