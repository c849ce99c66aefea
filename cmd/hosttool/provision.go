package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// runProvision writes a fresh key/IV/password triple to hex files. The
// password may instead be typed interactively, read with
// golang.org/x/term.ReadPassword so it never echoes to the terminal.
func runProvision(args []string) {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	outDir := fs.String("out", ".", "directory to write key.hex, iv.hex and password.hex into")
	promptPassword := fs.Bool("prompt-password", false, "read the password interactively instead of generating one")
	fs.Parse(args)

	key := make([]byte, 16)
	iv := make([]byte, 16)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("generate key: %v", err)
	}
	if _, err := rand.Read(iv); err != nil {
		log.Fatalf("generate iv: %v", err)
	}

	var password []byte
	if *promptPassword {
		fmt.Fprint(os.Stderr, "Enter 32-character hex password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			log.Fatalf("read password: %v", err)
		}
		password, err = hex.DecodeString(string(raw))
		if err != nil || len(password) != 16 {
			log.Fatal("password must be exactly 32 hex characters")
		}
	} else {
		password = make([]byte, 16)
		if _, err := rand.Read(password); err != nil {
			log.Fatalf("generate password: %v", err)
		}
	}

	writeHexFile(filepath.Join(*outDir, "key.hex"), key)
	writeHexFile(filepath.Join(*outDir, "iv.hex"), iv)
	writeHexFile(filepath.Join(*outDir, "password.hex"), password)
	fmt.Println("provisioned key.hex, iv.hex, password.hex in", *outDir)
}

func writeHexFile(path string, b []byte) {
	if err := os.WriteFile(path, []byte(hex.EncodeToString(b)+"\n"), 0o600); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}
}
