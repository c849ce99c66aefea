package hostimage

import (
	"bytes"
	"testing"

	"github.com/0xDACC/2022-Mitre/internal/cryptobox"
	"github.com/stretchr/testify/require"
)

var (
	testKey      = [16]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10}
	testIV       = [16]byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80, 0x90, 0xA0, 0xB0, 0xC0, 0xD0, 0xE0, 0xF0, 0x00}
	testPassword = [16]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0x00}
)

func TestBuildVersionRecordDecryptsToExpectedLayout(t *testing.T) {
	record, err := BuildVersionRecord(testKey, testIV, testPassword, 42)
	require.NoError(t, err)
	require.Len(t, record, 32)

	require.NoError(t, cryptobox.DecryptInPlace(record, testKey[:], testIV[:]))
	require.Equal(t, byte(0), record[0])
	require.Equal(t, byte(42), record[1])
	require.Equal(t, testPassword[:], record[16:32])
}

func TestBuildImageAppendsTagAndEncrypts(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0x5A}, 64)
	image, err := BuildImage(testKey, testIV, testPassword, plaintext)
	require.NoError(t, err)
	require.Len(t, image, len(plaintext)+16)
	require.NotEqual(t, plaintext, image[:len(plaintext)])

	require.NoError(t, cryptobox.DecryptInPlace(image, testKey[:], testIV[:]))
	require.Equal(t, plaintext, image[:len(plaintext)])
	require.Equal(t, testPassword[:], image[len(plaintext):])
}

func TestBuildConfigFramesPadsLastFrame(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0x11}, 1024+100)
	frames, err := BuildConfigFrames(testKey, testIV, testPassword, plaintext)
	require.NoError(t, err)
	require.Len(t, frames, 2*1040)

	for i := 0; i < 2; i++ {
		frame := make([]byte, 1040)
		copy(frame, frames[i*1040:(i+1)*1040])
		require.NoError(t, cryptobox.DecryptInPlace(frame, testKey[:], testIV[:]))
		require.Equal(t, testPassword[:], frame[1024:])
	}

	var second [1040]byte
	copy(second[:], frames[1040:2080])
	require.NoError(t, cryptobox.DecryptInPlace(second[:], testKey[:], testIV[:]))
	require.Equal(t, byte(0x11), second[0])
	require.Equal(t, byte(0x11), second[99])
	for i := 100; i < 1024; i++ {
		require.Equal(t, byte(0xFF), second[i])
	}
}

func TestBuildConfigFramesSingleShortFrame(t *testing.T) {
	plaintext := []byte{0x01, 0x02, 0x03}
	frames, err := BuildConfigFrames(testKey, testIV, testPassword, plaintext)
	require.NoError(t, err)
	require.Len(t, frames, 1040)
}
