package main

import (
	"encoding/binary"
	"flag"
	"log"
	"os"

	"github.com/0xDACC/2022-Mitre/internal/hostimage"
)

// runBuildConfig produces the framed 1024-data+16-tag ciphertext stream the
// Configure handler expects, prefixed with the 4-byte declared size.
func runBuildConfig(args []string) {
	fs := flag.NewFlagSet("build-config", flag.ExitOnError)
	configPath := fs.String("config", "hosttool.yaml", "device config path")
	inPath := fs.String("in", "", "plaintext configuration file")
	outPath := fs.String("out", "config.bin", "output file")
	fs.Parse(args)

	key, iv, password := loadSecrets(*configPath)

	plaintext, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("read configuration: %v", err)
	}

	frames, err := hostimage.BuildConfigFrames(key, iv, password, plaintext)
	if err != nil {
		log.Fatalf("build config frames: %v", err)
	}

	sizeBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(sizeBuf, uint32(len(frames)))

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create %s: %v", *outPath, err)
	}
	defer f.Close()
	f.Write(sizeBuf)
	f.Write(frames)

	log.Printf("wrote %s (%d bytes)", *outPath, len(sizeBuf)+len(frames))
}
