// Package hostconfig loads the host tool's YAML device configuration:
// where the secrets live and what protocol parameters the target device
// was built with. The required version floor is pointer-typed so a missing
// YAML key is distinguishable from an explicit zero value, the required
// secret file paths must be non-empty, and they are resolved relative to
// the config file's own directory.
package hostconfig

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the host tool's device configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Secrets SecretsConfig `yaml:"secrets"`
}

// DeviceConfig describes the target device's serial link and the version
// floor it was provisioned with.
type DeviceConfig struct {
	SerialPort    string  `yaml:"serial_port"`
	OldestVersion *uint32 `yaml:"oldest_version"`
}

// SecretsConfig names the hex files holding the provisioned key, IV and
// password. Paths are resolved relative to the config file's directory
// unless already absolute.
type SecretsConfig struct {
	KeyHexFile      string `yaml:"key_hex_file"`
	IVHexFile       string `yaml:"iv_hex_file"`
	PasswordHexFile string `yaml:"password_hex_file"`
}

// Load reads, strictly decodes (unknown fields rejected) and validates the
// YAML config at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hostconfig: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("hostconfig: parse %s: %w", path, err)
	}
	cfg.resolvePaths(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every required field was present in the YAML.
// OldestVersion is pointer-typed so a missing key is distinguishable from
// an explicit zero value; the secret file paths must be non-empty.
func (c *Config) Validate() error {
	if c.Device.OldestVersion == nil {
		return fmt.Errorf("hostconfig: device.oldest_version is required")
	}
	if strings.TrimSpace(c.Secrets.KeyHexFile) == "" {
		return fmt.Errorf("hostconfig: secrets.key_hex_file is required")
	}
	if strings.TrimSpace(c.Secrets.IVHexFile) == "" {
		return fmt.Errorf("hostconfig: secrets.iv_hex_file is required")
	}
	if strings.TrimSpace(c.Secrets.PasswordHexFile) == "" {
		return fmt.Errorf("hostconfig: secrets.password_hex_file is required")
	}
	return nil
}

func (c *Config) resolvePaths(configPath string) {
	dir := filepath.Dir(configPath)
	c.Secrets.KeyHexFile = resolvePath(dir, c.Secrets.KeyHexFile)
	c.Secrets.IVHexFile = resolvePath(dir, c.Secrets.IVHexFile)
	c.Secrets.PasswordHexFile = resolvePath(dir, c.Secrets.PasswordHexFile)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}
