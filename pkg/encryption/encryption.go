package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	aes256KeySize = 32
	ivSize        = aes.BlockSize
	separator     = ":"
)

var (
	ErrKeyIsEmpty   = errors.New("encryption key is empty")
	ErrKeyNotHex    = errors.New("encryption key is not a hex string")
	ErrKeyTooShort  = errors.New("encryption key must decode to at least 32 bytes")
	errInvalidBlock = errors.New("ciphertext is not a multiple of the block size")
	errBadPadding   = errors.New("invalid padding")
)

type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) string
}

// AESCodec encrypts with AES-256-CBC and PKCS#7 padding. Tokens look like "<ivHex>:<ciphertextHex>".
type AESCodec struct {
	block cipher.Block
}

// New builds a codec from a hex-encoded key. Only the first 32 bytes of the decoded key are used.
func New(hexKey string) (*AESCodec, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, ErrKeyIsEmpty
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyNotHex, err)
	}

	if len(key) < aes256KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrKeyTooShort, len(key))
	}

	block, err := aes.NewCipher(key[:aes256KeySize])
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	return &AESCodec{block: block}, nil
}

func MustNew(hexKey string) *AESCodec {
	codec, err := New(hexKey)
	if err != nil {
		panic(err)
	}

	return codec
}

// GenerateKey returns a random 32-byte key encoded as hex.
func GenerateKey() (string, error) {
	key := make([]byte, aes256KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}

	return hex.EncodeToString(key), nil
}

// Encrypt uses a fresh random IV on every call.
func (c *AESCodec) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))

	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + separator + hex.EncodeToString(ciphertext), nil
}

// Decrypt never fails. Anything that is not a valid token for this key is returned unchanged,
// which keeps legacy plaintext rows readable.
func (c *AESCodec) Decrypt(token string) string {
	plaintext, err := c.decrypt(token)
	if err != nil {
		return token
	}

	return plaintext
}

func (c *AESCodec) decrypt(token string) (string, error) {
	ivHex, cipherHex, ok := strings.Cut(token, separator)
	if !ok {
		return "", errors.New("missing separator")
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("decode iv: %w", err)
	}

	if len(iv) != ivSize {
		return "", fmt.Errorf("invalid iv length: got %d want %d", len(iv), ivSize)
	}

	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", errInvalidBlock
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, ciphertext)

	unpadded, err := unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}

	return string(unpadded), nil
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errBadPadding
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errBadPadding
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errBadPadding
		}
	}

	return data[:len(data)-n], nil
}
