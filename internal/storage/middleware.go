package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggingMiddleware добавляет логирование к операциям хранилища
type LoggingMiddleware struct {
	storage Storage
	logger  *logrus.Logger
}

// NewLoggingMiddleware создает новый logging middleware
func NewLoggingMiddleware(storage Storage, logger *logrus.Logger) Storage {
	return &LoggingMiddleware{storage: storage, logger: logger}
}

func (m *LoggingMiddleware) log(operation, key string, start time.Time, err error) {
	logger := m.logger.WithFields(logrus.Fields{
		"operation": operation,
		"key":       key,
		"duration":  time.Since(start),
	})
	if err != nil {
		logger.WithError(err).Error("Ошибка операции с файлом")
		return
	}
	logger.Debug("Операция с файлом выполнена")
}

// Save логирует операцию сохранения
func (m *LoggingMiddleware) Save(ctx context.Context, key string, reader io.Reader) error {
	start := time.Now()
	err := m.storage.Save(ctx, key, reader)
	m.log("save", key, start, err)
	return err
}

// Get логирует операцию получения
func (m *LoggingMiddleware) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := m.storage.Get(ctx, key)
	m.log("get", key, start, err)
	return rc, err
}

// Delete логирует операцию удаления
func (m *LoggingMiddleware) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := m.storage.Delete(ctx, key)
	m.log("delete", key, start, err)
	return err
}

// Остальные методы просто делегируют вызовы
func (m *LoggingMiddleware) Exists(ctx context.Context, key string) (bool, error) {
	return m.storage.Exists(ctx, key)
}

func (m *LoggingMiddleware) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return m.storage.GetPresignedURL(ctx, key, expiration)
}

func (m *LoggingMiddleware) ValidateKey(key string) error {
	return m.storage.ValidateKey(key)
}

// RetryMiddleware добавляет retry логику к операциям хранилища
type RetryMiddleware struct {
	storage    Storage
	maxRetries int
	retryDelay time.Duration
	logger     *logrus.Logger
}

// NewRetryMiddleware создает новый retry middleware
func NewRetryMiddleware(storage Storage, maxRetries int, retryDelay time.Duration, logger *logrus.Logger) Storage {
	return &RetryMiddleware{
		storage:    storage,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Save повторяет сохранение только для читателя, который можно перемотать.
func (m *RetryMiddleware) Save(ctx context.Context, key string, reader io.Reader) error {
	seeker, ok := reader.(io.Seeker)
	if !ok {
		return m.storage.Save(ctx, key, reader)
	}
	return m.retryOperation(ctx, "save", func() error {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return err
		}
		return m.storage.Save(ctx, key, reader)
	})
}

// Get выполняет операцию получения с retry
func (m *RetryMiddleware) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var result io.ReadCloser
	err := m.retryOperation(ctx, "get", func() error {
		var err error
		result, err = m.storage.Get(ctx, key)
		return err
	})
	return result, err
}

// Delete выполняет операцию удаления с retry
func (m *RetryMiddleware) Delete(ctx context.Context, key string) error {
	return m.retryOperation(ctx, "delete", func() error {
		return m.storage.Delete(ctx, key)
	})
}

func (m *RetryMiddleware) Exists(ctx context.Context, key string) (bool, error) {
	return m.storage.Exists(ctx, key)
}

func (m *RetryMiddleware) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return m.storage.GetPresignedURL(ctx, key, expiration)
}

func (m *RetryMiddleware) ValidateKey(key string) error {
	return m.storage.ValidateKey(key)
}

// retryOperation выполняет операцию с retry логикой
func (m *RetryMiddleware) retryOperation(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil || !shouldRetry(lastErr) {
			return lastErr
		}

		if attempt < m.maxRetries {
			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{
					"operation":   operation,
					"attempt":     attempt + 1,
					"max_retries": m.maxRetries,
				}).WithError(lastErr).Warn("Повтор операции после ошибки")
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.retryDelay):
			}
		}
	}

	return lastErr
}

// shouldRetry: отсутствующий файл и отмена контекста не повторяются.
func shouldRetry(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// ValidationMiddleware проверяет ключ перед каждой операцией
type ValidationMiddleware struct {
	storage Storage
}

// NewValidationMiddleware создает новый validation middleware
func NewValidationMiddleware(storage Storage) Storage {
	return &ValidationMiddleware{storage: storage}
}

// Save выполняет валидацию перед сохранением
func (m *ValidationMiddleware) Save(ctx context.Context, key string, reader io.Reader) error {
	if err := m.storage.ValidateKey(key); err != nil {
		return err
	}
	return m.storage.Save(ctx, key, reader)
}

// Get выполняет валидацию перед получением
func (m *ValidationMiddleware) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := m.storage.ValidateKey(key); err != nil {
		return nil, err
	}
	return m.storage.Get(ctx, key)
}

// Delete выполняет валидацию перед удалением
func (m *ValidationMiddleware) Delete(ctx context.Context, key string) error {
	if err := m.storage.ValidateKey(key); err != nil {
		return err
	}
	return m.storage.Delete(ctx, key)
}

func (m *ValidationMiddleware) Exists(ctx context.Context, key string) (bool, error) {
	if err := m.storage.ValidateKey(key); err != nil {
		return false, err
	}
	return m.storage.Exists(ctx, key)
}

func (m *ValidationMiddleware) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if err := m.storage.ValidateKey(key); err != nil {
		return "", err
	}
	return m.storage.GetPresignedURL(ctx, key, expiration)
}

func (m *ValidationMiddleware) ValidateKey(key string) error {
	return m.storage.ValidateKey(key)
}
