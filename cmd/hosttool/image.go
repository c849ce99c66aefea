package main

import (
	"encoding/binary"
	"flag"
	"log"
	"os"

	"github.com/0xDACC/2022-Mitre/internal/hostconfig"
	"github.com/0xDACC/2022-Mitre/internal/hostimage"
)

// runBuildImage produces the exact byte stream the Update handler expects:
// the 32-byte encrypted version record, the 4-byte size, the release
// message line, and the re-encrypted ciphertext image ending in the
// password tag.
func runBuildImage(args []string) {
	fs := flag.NewFlagSet("build-image", flag.ExitOnError)
	configPath := fs.String("config", "hosttool.yaml", "device config path")
	inPath := fs.String("in", "", "plaintext firmware binary")
	outPath := fs.String("out", "image.bin", "output file")
	version := fs.Uint("version", 0, "firmware version (0 = do not change)")
	releaseMsg := fs.String("msg", "", "release message")
	fs.Parse(args)

	key, iv, password := loadSecrets(*configPath)

	plaintext, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("read firmware: %v", err)
	}

	versionRecord, err := hostimage.BuildVersionRecord(key, iv, password, uint16(*version))
	if err != nil {
		log.Fatalf("build version record: %v", err)
	}

	image, err := hostimage.BuildImage(key, iv, password, plaintext)
	if err != nil {
		log.Fatalf("build image: %v", err)
	}

	sizeBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(sizeBuf, uint32(len(image)))

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create %s: %v", *outPath, err)
	}
	defer f.Close()

	f.Write(versionRecord)
	f.Write(sizeBuf)
	f.Write([]byte(*releaseMsg + "\n"))
	f.Write(image)

	log.Printf("wrote %s (%d bytes)", *outPath, len(versionRecord)+len(sizeBuf)+len(*releaseMsg)+1+len(image))
}

func loadSecrets(configPath string) (key, iv, password [16]byte) {
	cfg, err := hostconfig.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	key, err = hostconfig.LoadKeyHexFile(cfg.Secrets.KeyHexFile)
	if err != nil {
		log.Fatalf("load key: %v", err)
	}
	iv, err = hostconfig.LoadKeyHexFile(cfg.Secrets.IVHexFile)
	if err != nil {
		log.Fatalf("load iv: %v", err)
	}
	password, err = hostconfig.LoadKeyHexFile(cfg.Secrets.PasswordHexFile)
	if err != nil {
		log.Fatalf("load password: %v", err)
	}
	return key, iv, password
}
