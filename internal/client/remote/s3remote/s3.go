// Package s3remote implements a backend on an S3 bucket or any S3 compatible
// object storage (MinIO, R2, Backblaze B2). One object per collection plus a
// manifest object, all under an optional key prefix.
package s3remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/iudanet/fitsync/internal/client/remote"
	"github.com/iudanet/fitsync/internal/client/remote/codec"
	"github.com/iudanet/fitsync/internal/config"
	"github.com/iudanet/fitsync/internal/validation"
)

// Kind имя вида backend'а в конфигурации
const Kind = "s3"

const (
	defaultRegion = "us-east-1"
	blobExt       = ".json"
	manifestKey   = "manifest.json"
	contentType   = "application/json"
)

// ObjectAPI подмножество методов *s3.Client, которое использует backend
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store backend на S3
type Store struct {
	name   string
	bucket string
	prefix string
	client ObjectAPI
	codec  *codec.Codec
	logger *slog.Logger
}

// New создает backend поверх готового клиента
func New(name, bucket, prefix string, client ObjectAPI, c *codec.Codec, logger *slog.Logger) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		name:   name,
		bucket: bucket,
		prefix: prefix,
		client: client,
		codec:  c,
		logger: logger,
	}, nil
}

// Factory для remote.Registry. Без явных ключей используется стандартная
// цепочка AWS (переменные окружения, профиль, роль инстанса).
func Factory(ctx context.Context, cfg config.BackendConfig, logger *slog.Logger) (remote.RemoteStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	c, err := codec.New(codec.Options{
		Compression: cfg.Compression,
		Passphrase:  cfg.ResolvePassphrase(),
	})
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return New(cfg.Name, cfg.Bucket, cfg.Prefix, client, c, logger)
}

// Name implements remote.RemoteStore.
func (s *Store) Name() string {
	return s.name
}

// ReadRemote implements remote.RemoteStore.
func (s *Store) ReadRemote(ctx context.Context, collection string) ([]json.RawMessage, error) {
	key, err := s.blobKey(collection)
	if err != nil {
		return nil, err
	}

	data, found, err := s.getObject(ctx, key)
	if err != nil {
		return nil, remote.IOError("read", collection, err)
	}
	if !found {
		return []json.RawMessage{}, nil
	}

	items, err := s.codec.Decode(collection, data)
	if err != nil {
		return nil, remote.IOError("decode", collection, err)
	}

	s.logger.Debug("collection read", "collection", collection, "key", key, "items", len(items))
	return items, nil
}

// WriteRemote implements remote.RemoteStore.
func (s *Store) WriteRemote(ctx context.Context, collection string, items []json.RawMessage) error {
	key, err := s.blobKey(collection)
	if err != nil {
		return err
	}

	data, err := s.codec.Encode(collection, items)
	if err != nil {
		return remote.IOError("encode", collection, err)
	}

	if err := s.putObject(ctx, key, data); err != nil {
		return remote.IOError("write", collection, err)
	}

	s.logger.Debug("collection written", "collection", collection, "key", key, "bytes", len(data))
	return nil
}

// RemoteManifest implements remote.ManifestStore.
func (s *Store) RemoteManifest(ctx context.Context) (*remote.Manifest, error) {
	data, found, err := s.getObject(ctx, s.prefix+manifestKey)
	if err != nil {
		return nil, remote.IOError("read manifest", "", err)
	}
	if !found {
		return nil, nil
	}

	var m remote.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("ignoring unreadable manifest", "error", err)
		return nil, nil
	}
	return &m, nil
}

// UpdateManifest implements remote.ManifestStore.
func (s *Store) UpdateManifest(ctx context.Context, m remote.Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := s.putObject(ctx, s.prefix+manifestKey, data); err != nil {
		return remote.IOError("write manifest", "", err)
	}
	return nil
}

func (s *Store) blobKey(collection string) (string, error) {
	if err := validation.ValidateID(collection); err != nil {
		return "", fmt.Errorf("collection name: %w", err)
	}
	return s.prefix + collection + blobExt, nil
}

// getObject возвращает found=false, если объекта нет
func (s *Store) getObject(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("S3 get object failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("S3 read body failed: %w", err)
	}
	return data, true, nil
}

func (s *Store) putObject(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("S3 put object failed: %w", err)
	}
	return nil
}

var (
	_ remote.RemoteStore   = (*Store)(nil)
	_ remote.ManifestStore = (*Store)(nil)
	_ ObjectAPI            = (*s3.Client)(nil)
)
