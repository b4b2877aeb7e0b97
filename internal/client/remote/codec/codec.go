// Package codec turns a collection into a self-describing blob for backends
// that store opaque objects (a folder, an S3 bucket): JSON, then optional
// snappy compression, then optional AES-256-GCM encryption.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/snappy"

	"github.com/iudanet/fitsync/internal/crypto"
	"github.com/iudanet/fitsync/internal/validation"
)

// FormatVersion текущая версия формата конверта
const FormatVersion = 1

const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
)

var (
	// ErrPassphraseRequired блоб зашифрован, а пароль не задан
	ErrPassphraseRequired = errors.New("blob is encrypted, passphrase required")

	// ErrUnsupportedFormat блоб записан неизвестной версией формата
	ErrUnsupportedFormat = errors.New("unsupported blob format")
)

// Envelope формат блоба на диске или в object storage.
type Envelope struct {
	Format      int               `json:"format"`
	Collection  string            `json:"collection"`
	Compression string            `json:"compression"`
	Encrypted   bool              `json:"encrypted"`
	KDF         *crypto.KDFParams `json:"kdf,omitempty"`
	Salt        []byte            `json:"salt,omitempty"`
	Count       int               `json:"count"`
	Checksum    string            `json:"checksum"` // digest JSON до сжатия и шифрования
	Payload     []byte            `json:"payload"`
}

// Options настройки кодека
type Options struct {
	Compression string
	// Passphrase пустой - блобы не шифруются
	Passphrase string
	// KDF параметры Argon2id для новых блобов; нулевое значение - по умолчанию
	KDF crypto.KDFParams
}

// Codec кодирует и декодирует коллекции. Безопасен для конкурентного использования.
type Codec struct {
	opts Options

	mu   sync.Mutex
	salt []byte            // соль для новых блобов, генерируется один раз
	keys map[string][]byte // кеш ключей по соли
}

// New создает кодек
func New(opts Options) (*Codec, error) {
	switch opts.Compression {
	case "":
		opts.Compression = CompressionNone
	case CompressionNone, CompressionSnappy:
	default:
		return nil, fmt.Errorf("unknown compression %q", opts.Compression)
	}

	if opts.Passphrase != "" {
		if err := validation.ValidatePassphrase(opts.Passphrase); err != nil {
			return nil, err
		}
	}
	if opts.KDF == (crypto.KDFParams{}) {
		opts.KDF = crypto.DefaultKDFParams
	}

	return &Codec{opts: opts, keys: make(map[string][]byte)}, nil
}

// Encrypted reports whether new blobs are encrypted.
func (c *Codec) Encrypted() bool {
	return c.opts.Passphrase != ""
}

// Encode упаковывает элементы коллекции в блоб
func (c *Codec) Encode(collection string, items []json.RawMessage) ([]byte, error) {
	if items == nil {
		items = []json.RawMessage{}
	}

	plain, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}

	env := Envelope{
		Format:      FormatVersion,
		Collection:  collection,
		Compression: c.opts.Compression,
		Count:       len(items),
		Checksum:    crypto.Digest(plain),
	}

	payload := plain
	if c.opts.Compression == CompressionSnappy {
		payload = snappy.Encode(nil, payload)
	}

	if c.Encrypted() {
		salt, key, err := c.currentKey()
		if err != nil {
			return nil, err
		}
		payload, err = crypto.Encrypt(payload, key, []byte(collection))
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt %s: %w", collection, err)
		}
		kdf := c.opts.KDF
		env.Encrypted = true
		env.KDF = &kdf
		env.Salt = salt
	}

	env.Payload = payload

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// Decode распаковывает блоб и проверяет контрольную сумму
func (c *Codec) Decode(collection string, data []byte) ([]json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	if env.Format != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, env.Format)
	}
	if env.Collection != collection {
		return nil, fmt.Errorf("blob holds collection %q, expected %q", env.Collection, collection)
	}

	payload := env.Payload
	if env.Encrypted {
		if c.opts.Passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		if env.KDF == nil {
			return nil, fmt.Errorf("encrypted blob without kdf params")
		}
		key, err := c.keyFor(env.Salt, *env.KDF)
		if err != nil {
			return nil, err
		}
		payload, err = crypto.Decrypt(payload, key, []byte(collection))
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt %s (wrong passphrase?): %w", collection, err)
		}
	}

	switch env.Compression {
	case CompressionSnappy:
		decoded, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", collection, err)
		}
		payload = decoded
	case CompressionNone, "":
	default:
		return nil, fmt.Errorf("unknown compression %q", env.Compression)
	}

	if err := crypto.VerifyDigest(payload, env.Checksum); err != nil {
		return nil, fmt.Errorf("blob %s is corrupted: %w", collection, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

func (c *Codec) currentKey() ([]byte, []byte, error) {
	c.mu.Lock()
	if c.salt == nil {
		salt, err := crypto.GenerateSalt()
		if err != nil {
			c.mu.Unlock()
			return nil, nil, err
		}
		c.salt = salt
	}
	salt := c.salt
	c.mu.Unlock()

	key, err := c.keyFor(salt, c.opts.KDF)
	if err != nil {
		return nil, nil, err
	}
	return salt, key, nil
}

// keyFor выводит ключ для соли; Argon2id дорогой, поэтому ключи кешируются
func (c *Codec) keyFor(salt []byte, params crypto.KDFParams) ([]byte, error) {
	cacheKey := fmt.Sprintf("%x/%d/%d/%d", salt, params.Time, params.Memory, params.Threads)

	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[cacheKey]; ok {
		return key, nil
	}

	key, err := crypto.DeriveKey(c.opts.Passphrase, salt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	c.keys[cacheKey] = key
	return key, nil
}
