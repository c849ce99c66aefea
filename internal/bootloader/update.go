package bootloader

import (
	"bytes"
	"encoding/binary"

	"github.com/0xDACC/2022-Mitre/internal/cryptobox"
)

// handleUpdate implements the authenticated firmware update path. The
// whole image is staged into RAM and validated before any of it is
// committed to flash; the firmware metadata page is erased as soon as the
// version record authenticates and passes the anti-rollback check, and
// stays erased if the staged image
// later fails its own tag check — that is the documented failure policy,
// not a bug.
func (d *Dispatcher) handleUpdate() error {
	t := d.Transport
	log := d.Logger.With("handler", "update")

	if err := t.WriteByte(byte(CmdUpdate)); err != nil {
		return err
	}

	vbuf := d.versionBuf[:]
	if err := t.ReadFull(vbuf); err != nil {
		return err
	}
	if err := t.Ack(); err != nil {
		return err
	}

	sizeBuf := make([]byte, 4)
	if err := t.ReadFull(sizeBuf); err != nil {
		return err
	}
	size := binary.BigEndian.Uint32(sizeBuf)

	relMsg, err := t.ReadLine(MaxReleaseMsgData)
	if err != nil {
		return err
	}

	if err := cryptobox.DecryptInPlace(vbuf, d.Secrets.Key[:], d.Secrets.IV[:]); err != nil {
		return err
	}
	if !bytes.Equal(vbuf[16:32], d.Secrets.Password[:]) {
		return nackFor(t, log, ErrBadTag)
	}
	version := uint32(vbuf[0])<<8 | uint32(vbuf[1])

	storedVersion, err := d.FirmwareMeta.ReadWord(FirmwareVersionOffset)
	if err != nil {
		return err
	}
	if version != 0 && version < storedVersion {
		return nackFor(t, log, ErrRollback, "offered", version, "stored", storedVersion)
	}

	if err := t.Ack(); err != nil {
		return err
	}
	if err := d.FirmwareMeta.ErasePage(0); err != nil {
		return err
	}

	if size == 0 || size%16 != 0 || int(size) > len(d.staging) {
		return nackFor(t, log, ErrCorruptMetadata, "size", size)
	}

	pageCount := int((size + PageSize - 1) / PageSize)
	offset := 0
	for i := 0; i < pageCount; i++ {
		frameLen := int(size) - offset
		if frameLen > PageSize {
			frameLen = PageSize
		}
		chunk := d.staging[offset : offset+PageSize]
		if err := t.ReadFull(chunk[:frameLen]); err != nil {
			return err
		}
		for j := frameLen; j < PageSize; j++ {
			chunk[j] = 0xFF
		}
		offset += PageSize
		if err := t.Ack(); err != nil {
			return err
		}
	}

	image := d.staging[:size]
	if err := cryptobox.DecryptInPlace(image, d.Secrets.Key[:], d.Secrets.IV[:]); err != nil {
		return err
	}
	if !bytes.Equal(image[size-16:size], d.Secrets.Password[:]) {
		return nackFor(t, log, ErrBadTag)
	}
	if err := cryptobox.EncryptInPlace(image, d.Secrets.Key[:], d.Secrets.IV[:]); err != nil {
		return err
	}

	if err := d.FirmwareMeta.ProgramWord(FirmwareSizeOffset, size); err != nil {
		return err
	}
	for i := 0; i < pageCount; i++ {
		pageOffset := uint32(i * PageSize)
		page := d.staging[i*PageSize : (i+1)*PageSize]
		if err := d.FirmwareStorage.ErasePage(pageOffset); err != nil {
			return err
		}
		if err := d.FirmwareStorage.ProgramPage(pageOffset, page); err != nil {
			return err
		}
	}

	// A host-offered version of 0 means "leave the stored version
	// unchanged". storedVersion was captured before the metadata page was
	// erased, so writing it back here reproduces that intent exactly,
	// rather than letting the erase silently reset the version to 0xFFFFFFFF.
	effectiveVersion := version
	if version == 0 {
		effectiveVersion = storedVersion
	}
	if err := d.FirmwareMeta.ProgramWord(FirmwareVersionOffset, effectiveVersion); err != nil {
		return err
	}

	if err := d.writeReleaseMessage(relMsg); err != nil {
		return err
	}

	log.Info("firmware update committed", "size", size, "version", effectiveVersion)
	return t.Ack()
}

// writeReleaseMessage writes msg plus a null terminator into the firmware
// metadata page(s), splitting the write across the page boundary when the
// message doesn't fit in the first page's remaining PageSize-8 bytes.
func (d *Dispatcher) writeReleaseMessage(msg []byte) error {
	total := len(msg) + 1
	buf := make([]byte, total)
	copy(buf, msg)
	buf[len(msg)] = 0x00

	firstPageCapacity := PageSize - FirmwareReleaseMsgOffset
	if total <= firstPageCapacity {
		return d.FirmwareMeta.Program(FirmwareReleaseMsgOffset, padToWord(buf))
	}

	if err := d.FirmwareMeta.Program(FirmwareReleaseMsgOffset, padToWord(buf[:firstPageCapacity])); err != nil {
		return err
	}
	if err := d.FirmwareMeta.ErasePage(PageSize); err != nil {
		return err
	}
	return d.FirmwareMeta.Program(PageSize, padToWord(buf[firstPageCapacity:]))
}

// padToWord pads b with 0xFF up to the next multiple of 4 bytes, leaving it
// unchanged if it is already word-aligned.
func padToWord(b []byte) []byte {
	if len(b)%4 == 0 {
		return b
	}
	padded := make([]byte, len(b)+(4-len(b)%4))
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = 0xFF
	}
	return padded
}
