package main

import (
	"os"
	"path/filepath"

	smcu "github.com/go-i2p/go-smcu"
	"github.com/vrischmann/envconfig"
	yaml "gopkg.in/yaml.v3"
)

const (
	envPrefix = "SMCU"

	defaultLogLevel = "warn"
	defaultEncoding = smcu.PACKET_ENCODING_PAYLOAD
)

// Config represents the emulator CLI configuration.
type Config struct {
	Keystore   string `yaml:"keystore"`
	Passphrase string `yaml:"passphrase"`
	Encoding   string `yaml:"encoding"`
	LogLevel   string `yaml:"loglevel"`
}

// Sanitize replaces empty config fields with default values.
func (c *Config) Sanitize() {
	if c.Keystore == "" {
		c.Keystore = smcu.KEYSTORE_DEFAULT_PATH
	}
	if c.Encoding == "" {
		c.Encoding = defaultEncoding
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// parseYAMLConfig parses the configuration file, then environment variables;
// receiver must be a pointer. A missing file is not an error.
func parseYAMLConfig(configFile string, receiver any, prefix string) error {
	b, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if b != nil {
		if err := yaml.Unmarshal(b, receiver); err != nil {
			return err
		}
	}
	// environment variables supersede config yaml files
	if err := envconfig.InitWithOptions(receiver, envconfig.Options{Prefix: prefix, AllOptional: true}); err != nil {
		return err
	}
	return nil
}
