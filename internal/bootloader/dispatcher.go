package bootloader

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/0xDACC/2022-Mitre/internal/flashmem"
	"github.com/0xDACC/2022-Mitre/internal/secretstore"
	"github.com/0xDACC/2022-Mitre/internal/transport"
)

// Command is a single dispatch-loop command byte.
type Command byte

const (
	CmdConfigure Command = 'C'
	CmdUpdate    Command = 'U'
	CmdReadback  Command = 'R'
	CmdBoot      Command = 'B'
)

// Handoff transfers control to a staged, authenticated firmware image. On
// real hardware it never returns — it is the one place this module performs
// a raw jump to address. Tests supply a recorder instead.
type Handoff func(image []byte)

// Dispatcher owns the single staging buffer and the four region views, and
// runs a single-threaded command loop: one goroutine, handlers run to
// completion, no locking, no concurrent commands.
type Dispatcher struct {
	Transport       *transport.Transport
	FirmwareMeta    *flashmem.Region
	FirmwareStorage *flashmem.Region
	ConfigMeta      *flashmem.Region
	ConfigStorage   *flashmem.Region
	Secrets         *secretstore.Secrets
	OldestVersion   uint32
	Logger          *slog.Logger
	Handoff         Handoff

	// staging is the single reused buffer both the Update and Boot
	// handlers stage a firmware image into. There is exactly one of these
	// per Dispatcher; aliasing it between handlers is intentional, since
	// they never run concurrently.
	staging     []byte
	configFrame [ConfigFrameSize]byte
	versionBuf  [VersionRecordSize]byte
}

// New builds a Dispatcher over the given collaborators and seeds the
// firmware version floor if it has never been written.
func New(
	t *transport.Transport,
	firmwareMeta, firmwareStorage, configMeta, configStorage *flashmem.Region,
	secrets *secretstore.Secrets,
	oldestVersion uint32,
	handoff Handoff,
	logger *slog.Logger,
) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		Transport:       t,
		FirmwareMeta:    firmwareMeta,
		FirmwareStorage: firmwareStorage,
		ConfigMeta:      configMeta,
		ConfigStorage:   configStorage,
		Secrets:         secrets,
		OldestVersion:   oldestVersion,
		Handoff:         handoff,
		Logger:          logger,
		staging:         make([]byte, FirmwareStorageCapacity),
	}
	if err := d.seedVersionFloor(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) seedVersionFloor() error {
	v, err := d.FirmwareMeta.ReadWord(FirmwareVersionOffset)
	if err != nil {
		return err
	}
	if v == AllOnes32 {
		d.Logger.Info("seeding firmware version floor", "version", d.OldestVersion)
		return d.FirmwareMeta.ProgramWord(FirmwareVersionOffset, d.OldestVersion)
	}
	return nil
}

// Step reads and dispatches exactly one command byte. Unknown command bytes
// are silently discarded, matching the dispatch loop's single-byte
// read/dispatch contract — there is no framing error for a byte that simply
// isn't a recognized command.
func (d *Dispatcher) Step() error {
	b, err := d.Transport.ReadByte()
	if err != nil {
		return err
	}
	switch Command(b) {
	case CmdConfigure:
		return d.handleConfigure()
	case CmdUpdate:
		return d.handleUpdate()
	case CmdReadback:
		return d.handleReadback()
	case CmdBoot:
		return d.handleBoot()
	default:
		d.Logger.Debug("discarding unrecognized command byte", "byte", fmt.Sprintf("0x%02X", b))
		return nil
	}
}

// Run drives the dispatch loop until the transport returns an error, which
// on real hardware never happens — the UART link does not close. It
// returns nil on io.EOF (the link was closed).
func (d *Dispatcher) Run() error {
	for {
		if err := d.Step(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
