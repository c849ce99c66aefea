// Package bootloader implements the device-side command dispatcher and the
// four command handlers (Update, Configure, Readback, Boot) over a shared
// persisted flash layout.
package bootloader

import "github.com/0xDACC/2022-Mitre/internal/flashmem"

// Flash geometry. A page is the erase/program granularity for every region.
const PageSize = 1024

// Firmware metadata: size (4 bytes) + version (4 bytes) + a release message
// that may straddle into the metadata's second page.
const (
	FirmwareMetadataPages    = 2
	FirmwareSizeOffset       = 0
	FirmwareVersionOffset    = 4
	FirmwareReleaseMsgOffset = 8
	FirmwareMetadataCapacity = PageSize * FirmwareMetadataPages
)

// Firmware storage must hold a full ciphertext image plus its trailing
// 16-byte password tag; 17 pages covers 16 KiB of code plus the tag with a
// little headroom, rounded up to a whole page.
const FirmwareStorageCapacity = 17 * PageSize

// FirmwareReadbackCapacity is the number of real firmware bytes the
// Readback handler will ever emit, independent of FirmwareStorageCapacity.
// It is smaller than the physical storage allocation on purpose: readback
// is a diagnostic path, not a full-image dump, so it is capped below the
// region's actual backing size.
const FirmwareReadbackCapacity = 16*1024 + 1

// Configuration metadata: size (4 bytes) at offset 0 — see the Open
// Question decision recorded in DESIGN.md.
const (
	ConfigMetadataCapacity = PageSize
	ConfigSizeOffset       = 0
)

// Configuration storage and its readback capacity are the same size: the
// whole region is always readable back in full.
const (
	ConfigStorageCapacity  = 64 * 1024
	ConfigReadbackCapacity = 64 * 1024
)

// Configure handler frame shape: 1024 bytes of data plus a 16-byte password
// tag, encrypted together as one CBC block sequence.
const (
	ConfigFrameDataSize = 1024
	ConfigFrameTagSize  = 16
	ConfigFrameSize     = ConfigFrameDataSize + ConfigFrameTagSize
)

// MaxReleaseMsgData bounds the release message the Update handler's
// line-read will accept, not counting its terminator.
const MaxReleaseMsgData = 1024

// VersionRecordSize is the Update handler's version-record frame: a 2-byte
// big-endian version, 14 bytes of padding, and the 16-byte password, CBC
// encrypted as two blocks.
const VersionRecordSize = 32

// AllOnes32 is flash's erased-word pattern, used as the "never written"
// sentinel for both the firmware and configuration size fields.
const AllOnes32 = 0xFFFFFFFF

// Region base addresses within the single shared flash address space,
// computed once here so the configure/readback/boot paths can never
// disagree about where a region starts.
const (
	firmwareMetadataBase = 0
	firmwareStorageBase  = firmwareMetadataBase + FirmwareMetadataCapacity
	configMetadataBase   = firmwareStorageBase + FirmwareStorageCapacity
	configStorageBase    = configMetadataBase + ConfigMetadataCapacity
	// TotalFlashSize is the minimum backing array size a flashmem.IO must
	// provide to hold every region this layout declares.
	TotalFlashSize = configStorageBase + ConfigStorageCapacity
)

// NewFlashRegions builds the four bounds-checked region views the
// dispatcher and handlers operate on, all backed by the same shared flash
// IO (on real hardware, the one on-chip NOR part).
func NewFlashRegions(io flashmem.IO) (firmwareMeta, firmwareStorage, configMeta, configStorage *flashmem.Region) {
	firmwareMeta = flashmem.NewRegion(io, firmwareMetadataBase, FirmwareMetadataCapacity, PageSize)
	firmwareStorage = flashmem.NewRegion(io, firmwareStorageBase, FirmwareStorageCapacity, PageSize)
	configMeta = flashmem.NewRegion(io, configMetadataBase, ConfigMetadataCapacity, PageSize)
	configStorage = flashmem.NewRegion(io, configStorageBase, ConfigStorageCapacity, PageSize)
	return
}
