package hostconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, `
device:
  serial_port: /dev/ttyUSB0
  oldest_version: 3
secrets:
  key_hex_file: secrets/key.hex
  iv_hex_file: secrets/iv.hex
  password_hex_file: secrets/password.hex
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", cfg.Device.SerialPort)
	require.NotNil(t, cfg.Device.OldestVersion)
	require.Equal(t, uint32(3), *cfg.Device.OldestVersion)
	require.Equal(t, filepath.Join(dir, "secrets/key.hex"), cfg.Secrets.KeyHexFile)
	require.Equal(t, filepath.Join(dir, "secrets/iv.hex"), cfg.Secrets.IVHexFile)
	require.Equal(t, filepath.Join(dir, "secrets/password.hex"), cfg.Secrets.PasswordHexFile)
}

func TestLoadLeavesAbsolutePathsAlone(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, `
device:
  serial_port: /dev/ttyUSB0
  oldest_version: 0
secrets:
  key_hex_file: /etc/bootloader/key.hex
  iv_hex_file: /etc/bootloader/iv.hex
  password_hex_file: /etc/bootloader/password.hex
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/etc/bootloader/key.hex", cfg.Secrets.KeyHexFile)
}

func TestLoadRejectsMissingOldestVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, `
device:
  serial_port: /dev/ttyUSB0
secrets:
  key_hex_file: key.hex
  iv_hex_file: iv.hex
  password_hex_file: password.hex
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, `
device:
  serial_port: /dev/ttyUSB0
  oldest_version: 0
  bogus_field: true
secrets:
  key_hex_file: key.hex
  iv_hex_file: iv.hex
  password_hex_file: password.hex
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMissingSecretPath(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, `
device:
  serial_port: /dev/ttyUSB0
  oldest_version: 0
secrets:
  key_hex_file: key.hex
  iv_hex_file: iv.hex
  password_hex_file: ""
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadKeyHexFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.hex")
	require.NoError(t, os.WriteFile(path, []byte("0102030405060708090a0b0c0d0e0f10\n"), 0o600))

	key, err := LoadKeyHexFile(path)
	require.NoError(t, err)
	require.Equal(t, [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, key)
}

func TestLoadKeyHexFileRejectsWrongLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.hex")
	require.NoError(t, os.WriteFile(path, []byte("abcd\n"), 0o600))

	_, err := LoadKeyHexFile(path)
	require.Error(t, err)
}

func TestLoadKeyHexFileRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.hex")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o600))

	_, err := LoadKeyHexFile(path)
	require.Error(t, err)
}
