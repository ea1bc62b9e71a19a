package go_smcu

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestLoraPacketPayload(t *testing.T) {
	pkt, err := NewLoraPacket([]byte("hello"))
	if err != nil {
		t.Fatalf("NewLoraPacket failed: %v", err)
	}
	if pkt.DataLen != 5 {
		t.Errorf("DataLen = %d, want 5", pkt.DataLen)
	}
	got, err := pkt.Payload()
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Errorf("Payload = %q, want %q", got, "hello")
	}

	empty := &LoraPacket{}
	got, err = empty.Payload()
	if err != nil {
		t.Fatalf("Empty payload failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Empty packet payload has %d bytes", len(got))
	}
}

func TestLoraPacketCapacity(t *testing.T) {
	full := bytes.Repeat([]byte{1}, LORA_PAYLOAD_CAPACITY)
	if _, err := NewLoraPacket(full); err != nil {
		t.Errorf("Full-capacity payload should be accepted: %v", err)
	}

	_, err := NewLoraPacket(append(full, 2))
	if !errors.Is(err, ErrPayloadLength) {
		t.Errorf("Expected ErrPayloadLength for oversized payload, got %v", err)
	}

	pkt := &LoraPacket{DataLen: 0xffff}
	if _, err := pkt.Payload(); !errors.Is(err, ErrPayloadLength) {
		t.Errorf("Expected ErrPayloadLength for DataLen 0xffff, got %v", err)
	}
}

func TestSigningMessageMetadataLayout(t *testing.T) {
	pkt, _ := NewLoraPacket([]byte{0xaa, 0xbb})
	pkt.Timestamp = 0x01020304
	pkt.RSSI = -13

	msg, err := pkt.SigningMessage(PacketEncodingPayloadMetadata)
	if err != nil {
		t.Fatalf("SigningMessage failed: %v", err)
	}
	want := []byte{
		0xaa, 0xbb, // payload
		0x00, 0x00, 0x00, 0x02, // data length
		0x01, 0x02, 0x03, 0x04, // timestamp
		0xff, 0xff, 0xff, 0xf3, // rssi (-13)
	}
	if !bytes.Equal(msg, want) {
		t.Errorf("SigningMessage =\n %x\nwant\n %x", msg, want)
	}

	plain, err := pkt.SigningMessage(PacketEncodingPayload)
	if err != nil {
		t.Fatalf("SigningMessage failed: %v", err)
	}
	if !bytes.Equal(plain, []byte{0xaa, 0xbb}) {
		t.Errorf("Payload encoding = %x", plain)
	}

	if _, err := pkt.SigningMessage(PacketEncoding(9)); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Expected ErrUnknownEncoding, got %v", err)
	}
}

func TestParsePacketEncoding(t *testing.T) {
	tests := map[string]PacketEncoding{
		"":                               PacketEncodingPayload,
		PACKET_ENCODING_PAYLOAD:          PacketEncodingPayload,
		PACKET_ENCODING_PAYLOAD_METADATA: PacketEncodingPayloadMetadata,
	}
	for in, want := range tests {
		got, err := ParsePacketEncoding(in)
		if err != nil {
			t.Fatalf("ParsePacketEncoding(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePacketEncoding(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParsePacketEncoding("rssi"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Expected ErrUnknownEncoding, got %v", err)
	}
}

func TestDatarate(t *testing.T) {
	dr, err := ParseDatarate(6)
	if err != nil || dr != SF6 {
		t.Errorf("ParseDatarate(6) = %v, %v", dr, err)
	}
	for _, n := range []uint8{0, 4, 13} {
		if _, err := ParseDatarate(n); !errors.Is(err, ErrUnknownDatarate) {
			t.Errorf("ParseDatarate(%d): expected ErrUnknownDatarate, got %v", n, err)
		}
	}

	bw, err := ParseBandwidth(0x04)
	if err != nil || bw != BW_125KHZ {
		t.Errorf("ParseBandwidth(0x04) = %v, %v", bw, err)
	}
	if _, err := ParseBandwidth(0x07); !errors.Is(err, ErrUnknownBandwidth) {
		t.Errorf("Expected ErrUnknownBandwidth, got %v", err)
	}
	if BW_500KHZ.KHz() != 500 {
		t.Errorf("BW_500KHZ.KHz() = %d", BW_500KHZ.KHz())
	}
}

func TestDatrString(t *testing.T) {
	d := Datr{Datarate: SF10, Bandwidth: BW_125KHZ}
	if d.String() != "SF10BW125" {
		t.Errorf("Datr.String() = %q, want SF10BW125", d.String())
	}

	parsed, err := ParseDatr("sf7bw250")
	if err != nil {
		t.Fatalf("ParseDatr failed: %v", err)
	}
	if parsed != (Datr{Datarate: SF7, Bandwidth: BW_250KHZ}) {
		t.Errorf("ParseDatr = %+v", parsed)
	}

	for _, bad := range []string{"", "SF7", "SF13BW125", "SF7BW400", "BW125"} {
		if _, err := ParseDatr(bad); err == nil {
			t.Errorf("ParseDatr(%q) should fail", bad)
		}
	}
}

func TestFrequencyKHz(t *testing.T) {
	tests := []struct {
		mhz  float64
		want uint32
	}{
		{902.5246, 902525},
		{868.1, 868100},
		{0.0004, 0},
	}
	for _, tt := range tests {
		got, err := FrequencyKHz(tt.mhz)
		if tt.want == 0 {
			if !errors.Is(err, ErrInvalidFrequency) {
				t.Errorf("FrequencyKHz(%v): expected ErrInvalidFrequency, got %v", tt.mhz, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("FrequencyKHz(%v) failed: %v", tt.mhz, err)
		}
		if got != tt.want {
			t.Errorf("FrequencyKHz(%v) = %d, want %d", tt.mhz, got, tt.want)
		}
	}
}

func TestFrequencyHzRange(t *testing.T) {
	if got, err := FrequencyHz(868.1); err != nil || got != 868100000 {
		t.Errorf("FrequencyHz(868.1) = %d, %v; want 868100000", got, err)
	}
	if got, err := FrequencyHz(4294.967); err != nil || got != 4294967000 {
		t.Errorf("FrequencyHz(4294.967) = %d, %v; want 4294967000", got, err)
	}

	for _, bad := range []float64{-868.1, 0, math.NaN(), math.Inf(1), 4294.968, 5000} {
		if _, err := FrequencyHz(bad); !errors.Is(err, ErrInvalidFrequency) {
			t.Errorf("FrequencyHz(%v): expected ErrInvalidFrequency, got %v", bad, err)
		}
	}
}
