package bootloader

import (
	"bytes"
	"encoding/binary"

	"github.com/0xDACC/2022-Mitre/internal/cryptobox"
)

// handleConfigure accepts a stream of independently encrypted
// 1024-data+16-tag frames, each erased-and-programmed into the
// configuration storage region as soon as it authenticates. The first bad
// tag aborts the whole command without writing any further pages; frames
// already committed before the bad one stay committed.
func (d *Dispatcher) handleConfigure() error {
	t := d.Transport
	log := d.Logger.With("handler", "configure")

	if err := t.WriteByte(byte(CmdConfigure)); err != nil {
		return err
	}

	sizeBuf := make([]byte, 4)
	if err := t.ReadFull(sizeBuf); err != nil {
		return err
	}
	remaining := binary.BigEndian.Uint32(sizeBuf)

	if err := t.Ack(); err != nil {
		return err
	}

	var payloadWritten uint32
	var pageIndex uint32

	for remaining > 0 {
		frame := d.configFrame[:]

		if err := t.ReadFull(frame[:ConfigFrameDataSize]); err != nil {
			return err
		}
		if err := t.Ack(); err != nil {
			return err
		}
		if err := t.ReadFull(frame[ConfigFrameDataSize:]); err != nil {
			return err
		}
		if err := t.Ack(); err != nil {
			return err
		}

		if err := cryptobox.DecryptInPlace(frame, d.Secrets.Key[:], d.Secrets.IV[:]); err != nil {
			return err
		}
		if !bytes.Equal(frame[ConfigFrameDataSize:], d.Secrets.Password[:]) {
			return nackFor(t, log, ErrBadTag, "page", pageIndex)
		}

		pageOffset := pageIndex * PageSize
		if err := d.ConfigStorage.ErasePage(pageOffset); err != nil {
			return err
		}
		if err := d.ConfigStorage.ProgramPage(pageOffset, frame[:ConfigFrameDataSize]); err != nil {
			return err
		}

		payloadWritten += ConfigFrameDataSize
		pageIndex++
		if remaining >= ConfigFrameSize {
			remaining -= ConfigFrameSize
		} else {
			remaining = 0
		}
	}

	if err := d.ConfigMeta.ErasePage(0); err != nil {
		return err
	}
	if err := d.ConfigMeta.ProgramWord(ConfigSizeOffset, payloadWritten); err != nil {
		return err
	}

	log.Info("configuration committed", "payload_bytes", payloadWritten)
	return nil
}
