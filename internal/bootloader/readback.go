package bootloader

import (
	"bytes"
	"encoding/binary"

	"github.com/0xDACC/2022-Mitre/internal/flashmem"
)

// handleReadback implements the password-gated readback path: a dump of
// either the firmware or configuration storage region. Requests beyond a
// region's readback capacity are padded with 0xFF rather than rejected,
// so the handler always returns exactly the requested number of bytes.
func (d *Dispatcher) handleReadback() error {
	t := d.Transport
	log := d.Logger.With("handler", "readback")

	if err := t.WriteByte(byte(CmdReadback)); err != nil {
		return err
	}

	pass := make([]byte, 16)
	if err := t.ReadFull(pass); err != nil {
		return err
	}
	if err := t.Ack(); err != nil {
		return err
	}
	if !bytes.Equal(pass, d.Secrets.Password[:]) {
		return nackFor(t, log, ErrBadTag)
	}
	if err := t.Ack(); err != nil {
		return err
	}

	regionByte, err := t.ReadByte()
	if err != nil {
		return err
	}

	var region *flashmem.Region
	var capacity uint32
	switch regionByte {
	case 'F':
		region, capacity = d.FirmwareStorage, FirmwareReadbackCapacity
	case 'C':
		region, capacity = d.ConfigStorage, ConfigReadbackCapacity
	default:
		log.Warn("rejecting unknown readback region", "cause", ErrUnknownRegion, "region", regionByte)
		return t.WriteByte('Q')
	}
	if err := t.WriteByte(regionByte); err != nil {
		return err
	}

	sizeBuf := make([]byte, 4)
	if err := t.ReadFull(sizeBuf); err != nil {
		return err
	}
	size := binary.BigEndian.Uint32(sizeBuf)

	realBytes := size
	if realBytes > capacity {
		realBytes = capacity
	}
	data, err := region.Read(0, int(realBytes))
	if err != nil {
		return err
	}
	if err := t.Write(data); err != nil {
		return err
	}

	if size > capacity {
		pad := make([]byte, size-capacity)
		for i := range pad {
			pad[i] = 0xFF
		}
		return t.Write(pad)
	}
	return nil
}
