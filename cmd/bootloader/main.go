// Command bootloader is the device-side entrypoint: it wires the secret
// store, flash regions, transport and dispatcher together and runs the
// dispatch loop forever.
//
// On real hardware the secretstore.Store, flashmem.IO and io.ReadWriter
// below are backed by the target's EEPROM driver, NOR flash driver and UART
// respectively, and realHandoff performs the actual jump to the staged
// image. This build wires in-memory stand-ins so the dispatch loop can be
// exercised on a development machine; a cross-compiled target replaces
// exactly these three constructions and realHandoff.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/0xDACC/2022-Mitre/internal/bootloader"
	"github.com/0xDACC/2022-Mitre/internal/flashmem"
	"github.com/0xDACC/2022-Mitre/internal/secretstore"
	"github.com/0xDACC/2022-Mitre/internal/transport"
)

// oldestVersion is the compile-time floor a never-updated device boots at.
const oldestVersion = 1

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var logger *slog.Logger
	if *logFormat == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	slog.SetDefault(logger)

	secretIO := secretstore.NewSimStore(devSecret('K'), devSecret('I'), devSecret('P'))
	secrets, err := secretstore.Load(secretIO)
	if err != nil {
		logger.Error("failed to load secrets", "error", err)
		os.Exit(1)
	}

	flashIO := flashmem.NewSimIO(bootloader.TotalFlashSize)
	firmwareMeta, firmwareStorage, configMeta, configStorage := bootloader.NewFlashRegions(flashIO)

	tr := transport.New(stdioReadWriter{})

	d, err := bootloader.New(tr, firmwareMeta, firmwareStorage, configMeta, configStorage, secrets, oldestVersion, realHandoff, logger)
	if err != nil {
		logger.Error("failed to initialize dispatcher", "error", err)
		os.Exit(1)
	}

	logger.Info("bootloader dispatch loop starting")
	if err := d.Run(); err != nil {
		logger.Error("dispatch loop terminated", "error", err)
		os.Exit(1)
	}
}

// stdioReadWriter adapts stdin/stdout to io.ReadWriter for a development
// loop; a real target wires its UART driver here instead.
type stdioReadWriter struct{}

func (stdioReadWriter) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriter) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// realHandoff is the one place this module performs a raw jump to a staged
// image. A cross-compiled target replaces this with the Thumb-mode
// function pointer construction and call that actually transfers control;
// a development build has nowhere safe to jump to.
func realHandoff(image []byte) {
	panic("realHandoff: no executable firmware target on this development build")
}

// devSecret fabricates a fixed, clearly-marked placeholder secret so this
// binary runs out of the box on a development machine. Production
// provisioning never goes through this binary — see cmd/hosttool's
// provision subcommand.
func devSecret(tag byte) [16]byte {
	var b [16]byte
	for i := range b {
		b[i] = tag
	}
	return b
}
