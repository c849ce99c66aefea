// Command hosttool is the workstation-side counterpart to the device
// bootloader: it provisions a secret triple, and builds the wire-format
// update and configuration payloads the device's Update and Configure
// handlers expect. It is not part of the device's trust boundary.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if *logFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}

	args := flag.Args()
	if len(args) < 1 {
		log.Fatal("usage: hosttool [-v] [-log-format text|json] <provision|build-image|build-config> ...")
	}

	switch args[0] {
	case "provision":
		runProvision(args[1:])
	case "build-image":
		runBuildImage(args[1:])
	case "build-config":
		runBuildConfig(args[1:])
	default:
		log.Fatalf("unknown subcommand %q", args[0])
	}
}
