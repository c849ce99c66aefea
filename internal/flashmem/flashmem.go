// Package flashmem implements the flash region manager: named, bounds-checked
// views over a shared on-chip flash array. The low-level erase/program
// primitives (IO) are treated as an external collaborator — on real hardware
// they are the target's NOR flash driver; SimIO stands in for it in tests
// and on development builds.
package flashmem

import (
	"encoding/binary"
	"fmt"
)

// Erased is the byte value flash reads back as before it has been
// programmed, and after an erase.
const Erased = 0xFF

// IO is the narrow interface to the on-chip flash driver: page erase and
// word-aligned programming. The driver itself is a deliberately
// out-of-scope external collaborator; Region is built against this
// interface so the handlers never touch raw addresses.
type IO interface {
	ErasePage(addr uint32, pageSize uint32) error
	ProgramWords(addr uint32, words []uint32) error
	ReadAt(addr uint32, n int) ([]byte, error)
}

// Region is a page-indexed, bounds-checked view over a shared IO. It knows
// nothing about what lives in neighboring regions — only its own base and
// capacity; region extents are constants referenced by handlers, not
// something the manager itself tracks.
type Region struct {
	io       IO
	Base     uint32
	Capacity uint32
	PageSize uint32
}

// NewRegion builds a Region view starting at base within io, sized capacity
// bytes, with the given page size for erase/program alignment checks.
func NewRegion(io IO, base, capacity, pageSize uint32) *Region {
	return &Region{io: io, Base: base, Capacity: capacity, PageSize: pageSize}
}

func (r *Region) checkBounds(offset uint32, n int) error {
	if n < 0 {
		return fmt.Errorf("flashmem: negative length %d", n)
	}
	if uint64(offset)+uint64(n) > uint64(r.Capacity) {
		return fmt.Errorf("flashmem: offset %d length %d exceeds region capacity %d", offset, n, r.Capacity)
	}
	return nil
}

// ErasePage erases the page-aligned page starting at offset within the
// region. Callers must erase before reprogramming any byte in that page.
func (r *Region) ErasePage(offset uint32) error {
	if offset%r.PageSize != 0 {
		return fmt.Errorf("flashmem: erase offset %d is not page-aligned (page size %d)", offset, r.PageSize)
	}
	if err := r.checkBounds(offset, int(r.PageSize)); err != nil {
		return err
	}
	return r.io.ErasePage(r.Base+offset, r.PageSize)
}

// ProgramPage programs exactly one page's worth of data at a page-aligned
// offset. data must be exactly PageSize bytes; handlers pad short frames
// with 0xFF before calling this, they do not get a partial-page exception.
func (r *Region) ProgramPage(offset uint32, data []byte) error {
	if offset%r.PageSize != 0 {
		return fmt.Errorf("flashmem: program-page offset %d is not page-aligned (page size %d)", offset, r.PageSize)
	}
	if uint32(len(data)) != r.PageSize {
		return fmt.Errorf("flashmem: ProgramPage requires exactly %d bytes, got %d", r.PageSize, len(data))
	}
	return r.Program(offset, data)
}

// Program writes an arbitrary word-aligned, word-multiple buffer at offset.
// Unlike ProgramPage it is not restricted to a single full page — the
// firmware release-message field and the configuration size field are both
// sub-page writes into an already-erased page, and ProgramPage itself is
// just the full-page special case of this same word-granular operation.
func (r *Region) Program(offset uint32, data []byte) error {
	if offset%4 != 0 {
		return fmt.Errorf("flashmem: program offset %d is not word-aligned", offset)
	}
	if len(data)%4 != 0 {
		return fmt.Errorf("flashmem: program data length %d is not a multiple of 4", len(data))
	}
	if err := r.checkBounds(offset, len(data)); err != nil {
		return err
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return r.io.ProgramWords(r.Base+offset, words)
}

// ProgramWord programs a single 32-bit word at a word-aligned offset.
func (r *Region) ProgramWord(offset uint32, word uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], word)
	return r.Program(offset, buf[:])
}

// Read returns n bytes read starting at offset. Reads are not page- or
// word-aligned; this is the primitive the readback and boot handlers use.
func (r *Region) Read(offset uint32, n int) ([]byte, error) {
	if err := r.checkBounds(offset, n); err != nil {
		return nil, err
	}
	return r.io.ReadAt(r.Base+offset, n)
}

// ReadWord reads a single 32-bit word at a word-aligned offset.
func (r *Region) ReadWord(offset uint32) (uint32, error) {
	b, err := r.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
