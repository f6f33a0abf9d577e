package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server содержит настройки HTTP-сервера. Без api_key сервер не стартует,
// если явно не задан allow_anonymous.
type Server struct {
	Address        string `mapstructure:"address"`
	Debug          bool   `mapstructure:"debug"`
	APIKey         string `mapstructure:"api_key"`
	AllowAnonymous bool   `mapstructure:"allow_anonymous"`
}

// DB содержит параметры подключения к БД истории выполнений.
type DB struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// Store описывает базу данных LMS, к которой выполняются шаблоны.
type Store struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	ReadOnly        bool          `mapstructure:"read_only"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// Executor содержит настройки переписывания и выполнения шаблонов.
type Executor struct {
	TablePrefix     string        `mapstructure:"table_prefix"`
	PreviewLimit    int           `mapstructure:"preview_limit"`
	ReportLimit     int           `mapstructure:"report_limit"`
	MissingParams   string        `mapstructure:"missing_params"`
	SingleStatement bool          `mapstructure:"single_statement"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Backend описывает удаленный сервис, владеющий определениями отчетов.
type Backend struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Cache описывает общий кеш определений отчетов.
type Cache struct {
	Type  string        `mapstructure:"type"`
	Size  int           `mapstructure:"size"`
	TTL   time.Duration `mapstructure:"ttl"`
	Redis Redis         `mapstructure:"redis"`
}

// Redis содержит параметры подключения к Redis.
type Redis struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Storage описывает настройки хранилища файлов экспорта.
type Storage struct {
	Type       string        `mapstructure:"type"`
	BasePath   string        `mapstructure:"basepath"`
	PublicURL  string        `mapstructure:"public_url"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
	S3         S3            `mapstructure:"s3"`
}

// S3 содержит настройки для S3-совместимого хранилища.
type S3 struct {
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// Logging содержит настройки логирования.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Metrics содержит настройки Prometheus.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config объединяет все разделы конфигурации.
type Config struct {
	Server   Server   `mapstructure:"server"`
	DB       DB       `mapstructure:"database"`
	Store    Store    `mapstructure:"store"`
	Executor Executor `mapstructure:"executor"`
	Backend  Backend  `mapstructure:"backend"`
	Cache    Cache    `mapstructure:"cache"`
	Storage  Storage  `mapstructure:"storage"`
	Logging  Logging  `mapstructure:"logging"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

// Load читает конфигурацию из файла и окружения с помощью viper.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/report-bridge")
	return load(v)
}

// LoadFile reads an explicit config file instead of searching the default paths.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	// Настройка для environment variables
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Чтение файла конфигурации (опционально)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.allow_anonymous", false)

	// History database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:report_bridge.db?_busy_timeout=5000")

	// LMS store defaults
	v.SetDefault("store.driver", "mysql")
	v.SetDefault("store.dsn", "moodle:moodle@tcp(localhost:3306)/moodle?parseTime=true")
	v.SetDefault("store.read_only", true)
	v.SetDefault("store.max_open_conns", 10)
	v.SetDefault("store.max_idle_conns", 5)
	v.SetDefault("store.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("store.connect_timeout", 10*time.Second)

	// Executor defaults
	v.SetDefault("executor.table_prefix", "mdl_")
	v.SetDefault("executor.preview_limit", 10000)
	v.SetDefault("executor.report_limit", 100000)
	v.SetDefault("executor.missing_params", "permissive")
	v.SetDefault("executor.single_statement", false)
	v.SetDefault("executor.timeout", 60*time.Second)

	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:3000")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.timeout", 30*time.Second)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "report-bridge:")

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.basepath", "./exports")
	v.SetDefault("storage.public_url", "/api/v1/exports")
	v.SetDefault("storage.presign_ttl", 15*time.Minute)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "report-bridge")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.force_path_style", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// validateConfig проверяет корректность конфигурации
func validateConfig(cfg Config) error {
	if cfg.Server.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if cfg.Server.APIKey == "" && !cfg.Server.AllowAnonymous {
		return fmt.Errorf("server api_key cannot be empty unless server.allow_anonymous is set")
	}

	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "sqlite" {
		return fmt.Errorf("database driver must be 'postgres' or 'sqlite', got: %s", cfg.DB.Driver)
	}
	if cfg.DB.DSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}

	switch cfg.Store.Driver {
	case "mysql", "postgres", "pgx", "sqlite3":
	default:
		return fmt.Errorf("store driver must be one of mysql, postgres, pgx, sqlite3, got: %s", cfg.Store.Driver)
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("store DSN cannot be empty")
	}

	if cfg.Executor.PreviewLimit <= 0 || cfg.Executor.ReportLimit <= 0 {
		return fmt.Errorf("executor limits must be positive")
	}
	if cfg.Executor.MissingParams != "permissive" && cfg.Executor.MissingParams != "strict" {
		return fmt.Errorf("executor missing_params must be 'permissive' or 'strict', got: %s", cfg.Executor.MissingParams)
	}

	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url cannot be empty")
	}

	switch cfg.Cache.Type {
	case "none", "memory":
	case "redis":
		if cfg.Cache.Redis.Address == "" {
			return fmt.Errorf("redis address cannot be empty for redis cache")
		}
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", cfg.Cache.Type)
	}

	if cfg.Storage.Type != "local" && cfg.Storage.Type != "s3" {
		return fmt.Errorf("storage type must be 'local' or 's3', got: %s", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "local" && cfg.Storage.BasePath == "" {
		return fmt.Errorf("storage basepath cannot be empty for local storage")
	}
	if cfg.Storage.Type == "s3" {
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("S3 region cannot be empty")
		}
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	isValidLevel := false
	for _, level := range validLogLevels {
		if strings.ToLower(cfg.Logging.Level) == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("invalid logging level: %s. Valid levels: %v", cfg.Logging.Level, validLogLevels)
	}

	return nil
}

// IsDevelopment возвращает true, если приложение запущено в режиме разработки
func (c Config) IsDevelopment() bool {
	return c.Server.Debug
}

// String возвращает строковое представление конфигурации (без чувствительных данных)
func (c Config) String() string {
	return fmt.Sprintf("Config{Server: {Address: %s, Debug: %t}, DB: {Driver: %s, DSN: [HIDDEN]}, Store: {Driver: %s, ReadOnly: %t, DSN: [HIDDEN]}, Executor: %+v, Backend: {BaseURL: %s}, Cache: {Type: %s}, Storage: {Type: %s}, Logging: %+v}",
		c.Server.Address, c.Server.Debug, c.DB.Driver, c.Store.Driver, c.Store.ReadOnly,
		c.Executor, c.Backend.BaseURL, c.Cache.Type, c.Storage.Type, c.Logging)
}
