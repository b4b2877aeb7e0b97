package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize - размер соли в байтах
	SaltSize = 16

	// blobKeyContext отделяет ключ шифрования remote данных от любых других
	// ключей, выведенных из того же пароля
	blobKeyContext = "fitsync-blob"
)

// KDFParams параметры Argon2id. Хранятся рядом с зашифрованными данными,
// чтобы расшифровка не зависела от текущих значений по умолчанию.
type KDFParams struct {
	Time    uint32 `json:"t"` // количество итераций (time cost)
	Memory  uint32 `json:"m"` // объем памяти в KB
	Threads uint8  `json:"p"` // количество параллельных потоков
}

// DefaultKDFParams параметры для новых данных (64MB памяти)
var DefaultKDFParams = KDFParams{Time: 1, Memory: 64 * 1024, Threads: 4}

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey выводит 32-байтовый ключ AES-256 из пароля и соли через Argon2id
func DeriveKey(passphrase string, salt []byte, params KDFParams) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		return nil, fmt.Errorf("invalid kdf params: %+v", params)
	}

	input := append([]byte(passphrase), blobKeyContext...)
	return argon2.IDKey(input, salt, params.Time, params.Memory, params.Threads, KeySize), nil
}
