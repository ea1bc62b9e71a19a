package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	smcu "github.com/go-i2p/go-smcu"
	"github.com/spf13/pflag"
)

// smcu-emu signs payloads and LoRa packets with a keystore-backed emulated SMCU.
//
//	$ smcu-emu --config ./smcu-emu.yml pubkey
//	$ smcu-emu sign "hello"
//	$ smcu-emu sign --hex 48656c6c6f
//	$ smcu-emu sign-packet --freq 902.3 --datr SF7BW125 --rssi=-57 --hex 0102
//	$ smcu-emu verify <public-hex> "hello" <signature-hex>
//	$ SMCU_PASSPHRASE=secret smcu-emu seal
//
// Environment variables (SMCU_KEYSTORE, SMCU_PASSPHRASE, SMCU_ENCODING,
// SMCU_LOG_LEVEL) supersede the config file.

var errVerifyFailed = errors.New("signature verification failed")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "smcu-emu: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("smcu-emu", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	configPath := fs.String("config", "smcu-emu.yml", "path to config file")
	keystore := fs.String("keystore", "", "path to keystore file (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg Config
	if err := parseYAMLConfig(*configPath, &cfg, envPrefix); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	if *keystore != "" {
		cfg.Keystore = *keystore
	}
	cfg.Sanitize()
	smcu.LogInit(smcu.ParseLogLevel(cfg.LogLevel))

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("missing command (pubkey, sign, sign-packet, verify, seal)")
	}
	cmd, cmdArgs := rest[0], rest[1:]

	switch cmd {
	case "verify":
		return runVerify(cmdArgs, out)
	case "seal":
		return runSeal(&cfg, cmdArgs, out)
	}

	emu, err := openEmulator(&cfg)
	if err != nil {
		return err
	}
	defer emu.Close()

	switch cmd {
	case "pubkey":
		fmt.Fprintf(out, "%s\n%s\n", hex.EncodeToString(emu.PublicKey()), emu.Fingerprint())
		return nil
	case "sign":
		return runSign(emu, cmdArgs, out)
	case "sign-packet":
		return runSignPacket(emu, cmdArgs, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func openEmulator(cfg *Config) (*smcu.Emulator, error) {
	enc, err := smcu.ParsePacketEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	kp, err := smcu.LoadKeystore(cfg.Keystore, cfg.Passphrase)
	if err != nil {
		return nil, err
	}
	return smcu.NewFromKeypair(kp, smcu.WithPacketEncoding(enc))
}

func decodePayload(arg string, isHex bool) ([]byte, error) {
	if !isHex {
		return []byte(arg), nil
	}
	b, err := hex.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return b, nil
}

func runSign(emu *smcu.Emulator, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("sign", pflag.ContinueOnError)
	isHex := fs.Bool("hex", false, "payload is hex encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var payload []byte
	if fs.NArg() > 0 {
		b, err := decodePayload(fs.Arg(0), *isHex)
		if err != nil {
			return err
		}
		payload = b
	}
	sig, err := emu.Sign(payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, sig.String())
	return nil
}

func runSignPacket(emu *smcu.Emulator, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("sign-packet", pflag.ContinueOnError)
	isHex := fs.Bool("hex", false, "payload is hex encoded")
	freq := fs.Float64("freq", 868.1, "frequency in MHz")
	datr := fs.String("datr", "SF7BW125", "datarate identifier")
	rssi := fs.Int32("rssi", 0, "received signal strength in dBm")
	tmst := fs.Uint32("tmst", 0, "concentrator timestamp")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var payload []byte
	if fs.NArg() > 0 {
		b, err := decodePayload(fs.Arg(0), *isHex)
		if err != nil {
			return err
		}
		payload = b
	}
	pkt, err := smcu.NewLoraPacket(payload)
	if err != nil {
		return err
	}
	dr, err := smcu.ParseDatr(*datr)
	if err != nil {
		return err
	}
	freqHz, err := smcu.FrequencyHz(*freq)
	if err != nil {
		return err
	}
	pkt.FreqHz = freqHz
	pkt.Datarate = dr.Datarate
	pkt.Bandwidth = dr.Bandwidth
	pkt.RSSI = *rssi
	pkt.Timestamp = *tmst

	sig, err := emu.SignPacket(pkt)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, sig.String())
	return nil
}

func runVerify(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	isHex := fs.Bool("hex", false, "payload is hex encoded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: verify <public-key-hex> <payload> <signature-hex>")
	}

	pub, err := hex.DecodeString(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	payload, err := decodePayload(fs.Arg(1), *isHex)
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(fs.Arg(2))
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	if !smcu.Verify(pub, payload, sig) {
		return errVerifyFailed
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func runSeal(cfg *Config, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("seal", pflag.ContinueOnError)
	iterations := fs.Int("iterations", smcu.KEYSTORE_DEFAULT_KDF_ITERATIONS, "PBKDF2 iterations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.Passphrase == "" {
		return fmt.Errorf("seal requires a passphrase (SMCU_PASSPHRASE or config)")
	}

	f, err := smcu.ReadKeystoreFile(cfg.Keystore)
	if err != nil {
		return err
	}
	if err := f.Seal(cfg.Passphrase, *iterations); err != nil {
		return err
	}
	if err := smcu.SaveKeystore(cfg.Keystore, f); err != nil {
		return err
	}
	fmt.Fprintf(out, "sealed %s\n", cfg.Keystore)
	return nil
}
