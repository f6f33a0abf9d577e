package di

import (
	"context"
	"testing"
	"time"

	"report_bridge/internal/config"
	"report_bridge/internal/infrastructure/cache"
	sqlinfra "report_bridge/internal/infrastructure/sql"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger(config.Config{Logging: config.Logging{Level: "debug", Format: "json"}})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger(config.Config{Logging: config.Logging{Level: "bogus"}})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestOpenStoreSQLite(t *testing.T) {
	store, err := OpenStore(config.Store{
		Driver:         sqlinfra.DriverSQLite,
		DSN:            ":memory:",
		MaxOpenConns:   1,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(context.Background()))
	cols, rows, err := store.Query(context.Background(), "SELECT 1 AS one")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, cols)
	assert.Len(t, rows, 1)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(config.Store{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestNewDefinitionCache(t *testing.T) {
	logger := logrus.New()
	lc := fxtest.NewLifecycle(t)

	c, err := newDefinitionCache(lc, config.Config{Cache: config.Cache{Type: CacheNone}}, logger)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = newDefinitionCache(lc, config.Config{Cache: config.Cache{Type: CacheMemory, TTL: time.Minute}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, c)

	_, err = newDefinitionCache(lc, config.Config{Cache: config.Cache{Type: "memcached"}}, logger)
	assert.Error(t, err)
}
