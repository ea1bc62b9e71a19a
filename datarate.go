package go_smcu

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Datarate is a LoRa spreading factor as reported by the gateway HAL.
type Datarate uint8

const (
	SF5  Datarate = 5
	SF6  Datarate = 6
	SF7  Datarate = 7
	SF8  Datarate = 8
	SF9  Datarate = 9
	SF10 Datarate = 10
	SF11 Datarate = 11
	SF12 Datarate = 12
)

// ParseDatarate validates a raw HAL spreading factor.
func ParseDatarate(n uint8) (Datarate, error) {
	if n < uint8(SF5) || n > uint8(SF12) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownDatarate, n)
	}
	return Datarate(n), nil
}

func (d Datarate) String() string {
	return "SF" + strconv.Itoa(int(d))
}

// Bandwidth is a LoRa channel bandwidth HAL code.
type Bandwidth uint8

const (
	BW_125KHZ Bandwidth = 0x04
	BW_250KHZ Bandwidth = 0x05
	BW_500KHZ Bandwidth = 0x06
)

// ParseBandwidth validates a raw HAL bandwidth code.
func ParseBandwidth(code uint8) (Bandwidth, error) {
	switch Bandwidth(code) {
	case BW_125KHZ, BW_250KHZ, BW_500KHZ:
		return Bandwidth(code), nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownBandwidth, code)
	}
}

// KHz returns the bandwidth in kHz, or 0 for an unknown code.
func (b Bandwidth) KHz() int {
	switch b {
	case BW_125KHZ:
		return 125
	case BW_250KHZ:
		return 250
	case BW_500KHZ:
		return 500
	default:
		return 0
	}
}

func (b Bandwidth) String() string {
	if khz := b.KHz(); khz != 0 {
		return "BW" + strconv.Itoa(khz)
	}
	return fmt.Sprintf("BW(0x%02x)", uint8(b))
}

// Datr is the combined datarate identifier used by packet forwarders, e.g. "SF10BW125".
type Datr struct {
	Datarate  Datarate
	Bandwidth Bandwidth
}

func (d Datr) String() string {
	return d.Datarate.String() + d.Bandwidth.String()
}

// ParseDatr parses identifiers such as "SF7BW125".
func ParseDatr(s string) (Datr, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(u, "SF") {
		return Datr{}, fmt.Errorf("%w: %q", ErrUnknownDatarate, s)
	}
	sf, bw, ok := strings.Cut(u[2:], "BW")
	if !ok {
		return Datr{}, fmt.Errorf("%w: %q", ErrUnknownBandwidth, s)
	}

	n, err := strconv.ParseUint(sf, 10, 8)
	if err != nil {
		return Datr{}, fmt.Errorf("%w: %q", ErrUnknownDatarate, s)
	}
	dr, err := ParseDatarate(uint8(n))
	if err != nil {
		return Datr{}, err
	}

	var band Bandwidth
	switch bw {
	case "125":
		band = BW_125KHZ
	case "250":
		band = BW_250KHZ
	case "500":
		band = BW_500KHZ
	default:
		return Datr{}, fmt.Errorf("%w: %q", ErrUnknownBandwidth, s)
	}
	return Datr{Datarate: dr, Bandwidth: band}, nil
}

// FrequencyKHz rounds a frequency in MHz to the nearest kHz (902.5246 -> 902525).
// The result must be positive and fit a uint32.
func FrequencyKHz(mhz float64) (uint32, error) {
	khz := math.Round(mhz * 1000)
	if math.IsNaN(khz) || khz <= 0 || khz > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %v MHz", ErrInvalidFrequency, mhz)
	}
	return uint32(khz), nil
}

// FrequencyHz is FrequencyKHz scaled to the Hz resolution of LoraPacket.FreqHz.
func FrequencyHz(mhz float64) (uint32, error) {
	khz, err := FrequencyKHz(mhz)
	if err != nil {
		return 0, err
	}
	if khz > math.MaxUint32/1000 {
		return 0, fmt.Errorf("%w: %v MHz overflows FreqHz", ErrInvalidFrequency, mhz)
	}
	return khz * 1000, nil
}
