package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"report_bridge/internal/config"

	"github.com/sirupsen/logrus"
)

const (
	// Типы хранилищ
	TypeLocal = "local"
	TypeS3    = "s3"

	// Настройки retry
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second

	maxKeyLength = 1024
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("file not found")

// Storage интерфейс для работы с файлами экспорта
type Storage interface {
	Save(ctx context.Context, key string, reader io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	ValidateKey(key string) error
}

// NewFromConfig создает хранилище по конфигурации и оборачивает его в middleware.
func NewFromConfig(cfg config.Storage, logger *logrus.Logger) (Storage, error) {
	var (
		s   Storage
		err error
	)

	switch cfg.Type {
	case TypeS3:
		s, err = NewS3Storage(S3Config{
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			Endpoint:       cfg.S3.Endpoint,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания S3 хранилища: %w", err)
		}
	case TypeLocal:
		base, absErr := filepath.Abs(cfg.BasePath)
		if absErr != nil {
			return nil, fmt.Errorf("неверный базовый путь: %w", absErr)
		}
		s, err = NewLocalStorage(base, cfg.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("ошибка создания локального хранилища: %w", err)
		}
	default:
		return nil, fmt.Errorf("неподдерживаемый тип хранилища: %s", cfg.Type)
	}

	return Wrap(s, logger), nil
}

// Wrap builds the validation -> retry -> logging chain around s.
func Wrap(s Storage, logger *logrus.Logger) Storage {
	if logger != nil {
		s = NewLoggingMiddleware(s, logger)
	}
	s = NewRetryMiddleware(s, DefaultMaxRetries, DefaultRetryDelay, logger)
	return NewValidationMiddleware(s)
}
