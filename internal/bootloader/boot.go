package bootloader

import (
	"bytes"

	"github.com/0xDACC/2022-Mitre/internal/cryptobox"
)

// handleBoot decrypts and authenticates the installed firmware image,
// shifts it into the execution slot, emits the release message, and hands
// off control. When no image is installed it logs ErrNoImage, sends
// FrameBad and returns to the dispatcher rather than halting — the dispatch loop is
// the platform's only supervisory mechanism, and halting it would make a
// blank device unrecoverable.
func (d *Dispatcher) handleBoot() error {
	t := d.Transport
	log := d.Logger.With("handler", "boot")

	if err := t.WriteByte(byte(CmdBoot)); err != nil {
		return err
	}

	size, err := d.FirmwareMeta.ReadWord(FirmwareSizeOffset)
	if err != nil {
		return err
	}
	if size == AllOnes32 {
		return nackFor(t, log, ErrNoImage)
	}
	if size < 16 || size%16 != 0 || int(size) > len(d.staging) {
		return nackFor(t, log, ErrCorruptMetadata)
	}

	image := d.staging[:size]
	data, err := d.FirmwareStorage.Read(0, int(size))
	if err != nil {
		return err
	}
	copy(image, data)

	if err := cryptobox.DecryptInPlace(image, d.Secrets.Key[:], d.Secrets.IV[:]); err != nil {
		return err
	}
	if !bytes.Equal(image[size-16:size], d.Secrets.Password[:]) {
		return nackFor(t, log, ErrBadTag)
	}

	exec := shiftImageForward(image, int(size))

	if err := t.WriteByte('M'); err != nil {
		return err
	}
	if err := d.writeReleaseMessageToHost(); err != nil {
		return err
	}

	log.Info("handing off to firmware", "image_bytes", len(exec))
	d.Handoff(exec)
	return nil
}

// shiftImageForward drops the trailing 16-byte password tag and moves the
// remaining plaintext up 16 bytes within buf, highest index first. On real
// hardware the staging buffer is pinned 16 bytes below the firmware
// execution address, so source and destination overlap; copying
// highest-index-first is what keeps that move correct instead of
// clobbering unread source bytes.
func shiftImageForward(buf []byte, size int) []byte {
	imageLen := size - 16
	for i := imageLen - 1; i >= 0; i-- {
		buf[i+16] = buf[i]
	}
	return buf[16 : 16+imageLen]
}

// writeReleaseMessageToHost streams the stored release message byte-by-byte
// until its null terminator, then writes exactly one trailing null — it
// does not forward the stored terminator byte itself.
func (d *Dispatcher) writeReleaseMessageToHost() error {
	t := d.Transport
	for i := 0; i < MaxReleaseMsgData+1; i++ {
		b, err := d.FirmwareMeta.Read(FirmwareReleaseMsgOffset+uint32(i), 1)
		if err != nil {
			return err
		}
		if b[0] == 0x00 {
			return t.WriteByte(0x00)
		}
		if err := t.WriteByte(b[0]); err != nil {
			return err
		}
	}
	return t.WriteByte(0x00)
}
