// Command keygen writes the ES256 session key pair and prints a fresh message encryption key.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/evijayan2/smsmonitor/pkg/encryption"
	"github.com/evijayan2/smsmonitor/pkg/jwt"
)

func main() {
	dir := flag.String("dir", "./keys", "Directory for the session key pair")
	skipJWT := flag.Bool("skip-jwt", false, "Only print an encryption key")
	flag.Parse()

	if !*skipJWT {
		if err := os.MkdirAll(*dir, 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", *dir, err)
			os.Exit(1)
		}

		jwt.MustECDSAGenerateKeys(*dir)
		fmt.Printf("Session keys written to %s (%s, %s)\n", *dir, jwt.PrivateKeyFile, jwt.PublicKeyFile)
	}

	key, err := encryption.GenerateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate encryption key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ENCRYPTION_KEY=%s\n", key)
}
