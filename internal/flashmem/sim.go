package flashmem

import (
	"encoding/binary"
	"fmt"
)

// SimIO is an in-memory stand-in for the on-chip NOR flash array. It models
// real flash semantics closely enough to catch handler bugs: erase sets a
// page back to all-ones, and programming can only clear bits (a program
// over already-programmed bits ANDs in the new value rather than
// overwriting), so a handler that forgets to erase before reprogramming
// produces garbled, not merely overwritten, data.
type SimIO struct {
	data []byte
}

// NewSimIO allocates a fully-erased flash array of size bytes.
func NewSimIO(size int) *SimIO {
	d := make([]byte, size)
	for i := range d {
		d[i] = Erased
	}
	return &SimIO{data: d}
}

func (s *SimIO) ErasePage(addr, pageSize uint32) error {
	if int(addr+pageSize) > len(s.data) {
		return fmt.Errorf("simio: erase at 0x%X+%d out of range (size %d)", addr, pageSize, len(s.data))
	}
	for i := addr; i < addr+pageSize; i++ {
		s.data[i] = Erased
	}
	return nil
}

func (s *SimIO) ProgramWords(addr uint32, words []uint32) error {
	n := len(words) * 4
	if int(addr)+n > len(s.data) {
		return fmt.Errorf("simio: program at 0x%X+%d out of range (size %d)", addr, n, len(s.data))
	}
	for i, w := range words {
		var wb [4]byte
		binary.LittleEndian.PutUint32(wb[:], w)
		base := int(addr) + i*4
		for j := 0; j < 4; j++ {
			s.data[base+j] &= wb[j]
		}
	}
	return nil
}

func (s *SimIO) ReadAt(addr uint32, n int) ([]byte, error) {
	if int(addr)+n > len(s.data) {
		return nil, fmt.Errorf("simio: read at 0x%X+%d out of range (size %d)", addr, n, len(s.data))
	}
	out := make([]byte, n)
	copy(out, s.data[int(addr):int(addr)+n])
	return out, nil
}
