package bootloader

import (
	"errors"
	"log/slog"

	"github.com/0xDACC/2022-Mitre/internal/transport"
)

// Sentinel errors a handler can return, classified the way errors.go
// classifies *SWError by status word: a handful of Is* helpers over a fixed
// set of well-known causes, so code holding one of these errors can classify
// it without parsing an error string. Handlers do not return them to the
// dispatcher; nackFor logs them instead.
var (
	// ErrBadTag means a decrypted buffer's trailing password block did not
	// match the provisioned password.
	ErrBadTag = errors.New("bootloader: authentication tag mismatch")
	// ErrRollback means an offered nonzero firmware version was strictly
	// less than the currently stored version.
	ErrRollback = errors.New("bootloader: firmware version rollback rejected")
	// ErrNoImage means the boot handler found no firmware image installed.
	ErrNoImage = errors.New("bootloader: no firmware image installed")
	// ErrCorruptMetadata means a stored size/version field failed its own
	// sanity bounds, independent of any cryptographic check.
	ErrCorruptMetadata = errors.New("bootloader: firmware metadata is corrupt")
	// ErrUnknownRegion means a readback request named neither 'F' nor 'C'.
	ErrUnknownRegion = errors.New("bootloader: unknown readback region")
)

// IsAuthFailure reports whether err is a cryptographic authentication
// failure (a bad tag, wherever it was checked).
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrBadTag)
}

// IsPolicyFailure reports whether err is a policy rejection rather than a
// cryptographic or structural one (currently: anti-rollback).
func IsPolicyFailure(err error) bool {
	return errors.Is(err, ErrRollback)
}

// IsResourceFailure reports whether err reflects missing or corrupt
// persisted state rather than a bad frame from the host.
func IsResourceFailure(err error) bool {
	return errors.Is(err, ErrNoImage) || errors.Is(err, ErrCorruptMetadata)
}

// nackFor logs cause at the handler's level and sends FrameBad. cause is
// one of this file's sentinels; the wire only ever sees a single byte, but
// the log line carries exactly why so IsAuthFailure/IsPolicyFailure/
// IsResourceFailure can classify it from a log-scraping caller or a test.
// The cause is deliberately not returned to the dispatcher: a rejected
// frame must not stop the dispatch loop, only a transport I/O error may.
func nackFor(t *transport.Transport, log *slog.Logger, cause error, args ...any) error {
	log.Warn("rejecting command", append([]any{"cause", cause}, args...)...)
	return t.Nack()
}
