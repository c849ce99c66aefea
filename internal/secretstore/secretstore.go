// Package secretstore loads the pre-provisioned key/IV/password triple out
// of the device's small word-addressed non-volatile secret store. The store
// itself is a deliberately out-of-scope external collaborator — on real
// hardware it is EEPROM behind a narrow word-read interface; SimStore stands
// in for it in tests and on development builds.
package secretstore

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const recordWords = 4

const (
	keyWordOffset      = 0
	ivWordOffset       = 4
	passwordWordOffset = 8
)

// ErrOutOfRange is returned by a Store implementation when a read would
// fall outside the provisioned secret region.
var ErrOutOfRange = errors.New("secretstore: word read out of range")

// Store is the narrow, word-addressed interface to the secret store.
type Store interface {
	ReadWords(wordOffset, count int) ([]uint32, error)
}

// Secrets holds the three 16-byte records read out of the secret store at
// startup: the AES key, the CBC IV, and the readback/authentication
// password. Fixed arrays, not slices, so the zero value can never alias
// another Secrets' backing storage.
type Secrets struct {
	Key      [16]byte
	IV       [16]byte
	Password [16]byte
}

// Load reads the key, IV and password records out of store and returns them
// as a single immutable value.
func Load(store Store) (*Secrets, error) {
	s := &Secrets{}
	if err := readRecord(store, keyWordOffset, s.Key[:]); err != nil {
		return nil, fmt.Errorf("secretstore: load key: %w", err)
	}
	if err := readRecord(store, ivWordOffset, s.IV[:]); err != nil {
		return nil, fmt.Errorf("secretstore: load iv: %w", err)
	}
	if err := readRecord(store, passwordWordOffset, s.Password[:]); err != nil {
		return nil, fmt.Errorf("secretstore: load password: %w", err)
	}
	return s, nil
}

// readRecord unpacks four little-endian 32-bit words into a 16-byte record,
// byte 0 of the record being the low byte of the first word.
func readRecord(store Store, wordOffset int, out []byte) error {
	words, err := store.ReadWords(wordOffset, recordWords)
	if err != nil {
		return err
	}
	if len(words) != recordWords {
		return fmt.Errorf("secretstore: expected %d words, got %d", recordWords, len(words))
	}
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return nil
}
