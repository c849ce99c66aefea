// Package cryptobox wraps the one block-cipher mode this bootloader's
// protocol needs: AES-CBC, operated in place on a caller-owned buffer. The
// staging buffer this module decrypts into is reused across the Update
// and Boot handlers, so encryption and decryption here must not allocate
// a second copy of the image.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// DecryptInPlace CBC-decrypts buf using key and iv, overwriting buf with the
// plaintext. len(buf) must be a positive multiple of the AES block size.
func DecryptInPlace(buf, key, iv []byte) error {
	return cryptBlocks(buf, key, iv, false)
}

// EncryptInPlace CBC-encrypts buf using key and iv, overwriting buf with the
// ciphertext. len(buf) must be a positive multiple of the AES block size.
func EncryptInPlace(buf, key, iv []byte) error {
	return cryptBlocks(buf, key, iv, true)
}

func cryptBlocks(buf, key, iv []byte, encrypt bool) error {
	if len(buf) == 0 || len(buf)%aes.BlockSize != 0 {
		return fmt.Errorf("cryptobox: buffer length %d is not a positive multiple of %d", len(buf), aes.BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("cryptobox: %w", err)
	}
	if encrypt {
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	} else {
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, buf)
	}
	return nil
}
