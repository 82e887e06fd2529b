package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

const (
	PrivateKeyFile = "ecdsa_private.pem"
	PublicKeyFile  = "ecdsa_public.pem"
)

// ECDSAGenerateKeys writes a fresh P-256 key pair into dir.
func ECDSAGenerateKeys(dir string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	privateBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to convert EC private key to SEC 1: %w", err)
	}

	publicBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to convert public key to PKIX: %w", err)
	}

	if err := writePEM(filepath.Join(dir, PrivateKeyFile), "EC PRIVATE KEY", privateBytes, 0o600); err != nil {
		return err
	}

	return writePEM(filepath.Join(dir, PublicKeyFile), "PUBLIC KEY", publicBytes, 0o644)
}

func MustECDSAGenerateKeys(dir string) {
	if err := ECDSAGenerateKeys(dir); err != nil {
		panic(err)
	}
}

func writePEM(path, blockType string, data []byte, perm os.FileMode) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer func() {
		if cErr := file.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cErr)
		}
	}()

	if err = pem.Encode(file, &pem.Block{Type: blockType, Bytes: data}); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
