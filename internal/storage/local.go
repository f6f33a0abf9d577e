package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// LocalStorage реализация локального файлового хранилища
type LocalStorage struct {
	basePath  string
	publicURL string
}

// NewLocalStorage создает хранилище в basePath. publicURL is the prefix under which
// the HTTP API serves stored files; empty means file:// URLs.
func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("базовый путь не может быть пустым")
	}
	if !filepath.IsAbs(basePath) {
		return nil, fmt.Errorf("базовый путь должен быть абсолютным")
	}
	if err := os.MkdirAll(basePath, dirPermissions); err != nil {
		return nil, fmt.Errorf("ошибка создания базовой директории: %w", err)
	}
	return &LocalStorage{basePath: basePath, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Save сохраняет файл локально
func (l *LocalStorage) Save(_ context.Context, key string, reader io.Reader) error {
	fullPath := l.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), dirPermissions); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return fmt.Errorf("ошибка создания файла: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	return nil
}

// Get получает файл локально
func (l *LocalStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(l.fullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("ошибка открытия файла: %w", err)
	}
	return file, nil
}

// Delete удаляет файл локально
func (l *LocalStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(l.fullPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}
	return nil
}

// Exists проверяет существование файла
func (l *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(l.fullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка проверки существования файла: %w", err)
	}
	return true, nil
}

// GetPresignedURL для локального хранилища возвращает обычный URL
func (l *LocalStorage) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if l.publicURL == "" {
		return "file://" + l.fullPath(key), nil
	}
	return l.publicURL + "/" + key, nil
}

// ValidateKey валидирует ключ файла
func (l *LocalStorage) ValidateKey(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("ключ файла не может содержать '..'")
	}
	return nil
}

func (l *LocalStorage) fullPath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("ключ файла не может быть пустым")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("ключ файла слишком длинный: %d символов (максимум %d)", len(key), maxKeyLength)
	}
	return nil
}
