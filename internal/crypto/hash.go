package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// DigestPrefix обозначает алгоритм в строке digest
const DigestPrefix = "sha256-"

// Digest возвращает SHA256 от data в виде "sha256-<hex>"
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return DigestPrefix + hex.EncodeToString(sum[:])
}

// VerifyDigest проверяет, что data соответствует digest
func VerifyDigest(data []byte, digest string) error {
	if digest == "" {
		return fmt.Errorf("digest cannot be empty")
	}
	if !strings.HasPrefix(digest, DigestPrefix) {
		return fmt.Errorf("unsupported digest algorithm: %q", digest)
	}

	computed := Digest(data)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) != 1 {
		return fmt.Errorf("digest mismatch")
	}
	return nil
}
