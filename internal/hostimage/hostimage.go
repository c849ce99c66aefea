// Package hostimage builds the encrypted wire payloads the Update and
// Configure handlers expect: it runs their framing and authentication
// steps in reverse, from the host side. cmd/hosttool's build-image/
// build-config subcommands and the internal/bootloader end-to-end tests
// both call into this package rather than duplicating the framing logic.
package hostimage

import (
	"encoding/binary"
	"fmt"

	"github.com/0xDACC/2022-Mitre/internal/cryptobox"
)

// BuildVersionRecord produces the 32-byte ciphertext version record the
// Update handler's step 6 expects: a 2-byte big-endian version, 14 bytes of
// zero padding, and the 16-byte password, CBC-encrypted as two blocks.
func BuildVersionRecord(key, iv, password [16]byte, version uint16) ([]byte, error) {
	buf := make([]byte, 32)
	binary.BigEndian.PutUint16(buf[0:2], version)
	copy(buf[16:32], password[:])
	if err := cryptobox.EncryptInPlace(buf, key[:], iv[:]); err != nil {
		return nil, fmt.Errorf("hostimage: build version record: %w", err)
	}
	return buf, nil
}

// BuildImage appends the password tag to plaintext firmware and encrypts
// the result, producing the ciphertext stream the Update handler's
// image-loading loop consumes. len(plaintext) must leave the total length
// (plaintext + 16-byte tag) a multiple of the AES block size.
func BuildImage(key, iv, password [16]byte, plaintext []byte) ([]byte, error) {
	buf := make([]byte, len(plaintext)+16)
	copy(buf, plaintext)
	copy(buf[len(plaintext):], password[:])
	if err := cryptobox.EncryptInPlace(buf, key[:], iv[:]); err != nil {
		return nil, fmt.Errorf("hostimage: build image: %w", err)
	}
	return buf, nil
}

// BuildConfigFrames splits plaintext configuration data into 1024-byte
// chunks (the last 0xFF-padded), appends the password tag to each, and
// encrypts every 1040-byte frame independently under the same key and IV —
// exactly the stream the Configure handler's per-frame loop expects.
func BuildConfigFrames(key, iv, password [16]byte, plaintext []byte) ([]byte, error) {
	const dataSize = 1024
	frameCount := (len(plaintext) + dataSize - 1) / dataSize
	if frameCount == 0 {
		frameCount = 1
	}
	out := make([]byte, 0, frameCount*(dataSize+16))
	for i := 0; i < frameCount; i++ {
		start := i * dataSize
		end := start + dataSize
		if end > len(plaintext) {
			end = len(plaintext)
		}
		frame := make([]byte, dataSize+16)
		copy(frame, plaintext[start:end])
		for j := end - start; j < dataSize; j++ {
			frame[j] = 0xFF
		}
		copy(frame[dataSize:], password[:])
		if err := cryptobox.EncryptInPlace(frame, key[:], iv[:]); err != nil {
			return nil, fmt.Errorf("hostimage: build config frame %d: %w", i, err)
		}
		out = append(out, frame...)
	}
	return out, nil
}
