package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"FaceGuardConsole/pkg/validation"
)

// DefaultBaseURL - адрес бэкенда по умолчанию
const DefaultBaseURL = "http://localhost:8000"

// Бэкенды хранилища учетных данных
const (
	CredentialsFile   = "file"
	CredentialsRedis  = "redis"
	CredentialsMemory = "memory"
)

// Config представляет конфигурацию консоли
type Config struct {
	// API настройки
	API struct {
		BaseURL string `yaml:"base_url" json:"base_url"`
		Timeout int    `yaml:"timeout" json:"timeout"` // секунды
	} `yaml:"api" json:"api"`

	// Хранилище учетных данных
	Credentials struct {
		Backend string `yaml:"backend" json:"backend"` // file, redis, memory
		Path    string `yaml:"path" json:"path"`
		Redis   struct {
			Addr     string `yaml:"addr" json:"addr"`
			Password string `yaml:"password" json:"-"`
			DB       int    `yaml:"db" json:"db"`
			Key      string `yaml:"key" json:"key"`
			// Повторы подключения при запуске
			MaxRetries    int `yaml:"max_retries" json:"max_retries"`
			RetryInterval int `yaml:"retry_interval" json:"retry_interval"` // миллисекунды
		} `yaml:"redis" json:"redis"`
	} `yaml:"credentials" json:"credentials"`

	Logger struct {
		Level       string `yaml:"level" json:"level"`
		Environment string `yaml:"environment" json:"environment"`
	} `yaml:"logger" json:"logger"`

	// Настройки вывода
	Output struct {
		Format string `yaml:"format" json:"format"` // table, json, yaml
		Colors bool   `yaml:"colors" json:"colors"`
	} `yaml:"output" json:"output"`

	Detections struct {
		PageSize int `yaml:"page_size" json:"page_size"`
	} `yaml:"detections" json:"detections"`

	Dashboard struct {
		WatchInterval int `yaml:"watch_interval" json:"watch_interval"` // секунды
	} `yaml:"dashboard" json:"dashboard"`

	// Путь к файлу конфигурации
	Path string `yaml:"-" json:"-"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	config := &Config{}

	config.API.BaseURL = DefaultBaseURL
	config.API.Timeout = 30

	config.Credentials.Backend = CredentialsFile
	config.Credentials.Redis.Addr = "localhost:6379"
	config.Credentials.Redis.Key = "faceguard:console:auth_token"
	config.Credentials.Redis.MaxRetries = 2
	config.Credentials.Redis.RetryInterval = 500

	config.Logger.Level = "warn"
	config.Logger.Environment = "production"

	config.Output.Format = "table"
	config.Output.Colors = true

	config.Detections.PageSize = 50
	config.Dashboard.WatchInterval = 10

	return config
}

// LoadConfig загружает конфигурацию из файла и применяет переменные окружения
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	config.Path = path

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// файла нет, остаются значения по умолчанию
		case err != nil:
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
			}
		}
	}

	if err := loadConfigFromEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// dotEnvFiles в порядке приоритета, как у веб-консоли
var dotEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv загружает .env.local и .env из указанных каталогов.
// Уже заданные переменные окружения не перезаписываются, отсутствующие
// файлы пропускаются.
func LoadDotEnv(dirs ...string) error {
	for _, dir := range dirs {
		for _, name := range dotEnvFiles {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := godotenv.Load(path); err != nil {
				return fmt.Errorf("ошибка чтения %s: %w", path, err)
			}
		}
	}
	return nil
}

// loadConfigFromEnv переопределяет значения из переменных окружения
func loadConfigFromEnv(config *Config) error {
	// NEXT_PUBLIC_API_URL оставлен для совместимости с веб-консолью
	if url := os.Getenv("NEXT_PUBLIC_API_URL"); url != "" {
		config.API.BaseURL = url
	}
	if url := os.Getenv("FACEGUARD_API_URL"); url != "" {
		config.API.BaseURL = url
	}
	if timeout := os.Getenv("FACEGUARD_API_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return fmt.Errorf("неверный FACEGUARD_API_TIMEOUT: %w", err)
		}
		config.API.Timeout = t
	}

	if backend := os.Getenv("FACEGUARD_CREDENTIALS"); backend != "" {
		config.Credentials.Backend = backend
	}
	if addr := os.Getenv("FACEGUARD_REDIS_ADDR"); addr != "" {
		config.Credentials.Redis.Addr = addr
	}
	if password := os.Getenv("FACEGUARD_REDIS_PASSWORD"); password != "" {
		config.Credentials.Redis.Password = password
	}

	if level := os.Getenv("FACEGUARD_LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Logger.Environment = env
	}

	return nil
}

// Save сохраняет конфигурацию в файл
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("путь к файлу конфигурации не указан")
	}

	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("ошибка сериализации конфигурации: %w", err)
	}

	// в файле может лежать пароль Redis
	if err := os.WriteFile(c.Path, data, 0600); err != nil {
		return fmt.Errorf("ошибка записи файла конфигурации: %w", err)
	}

	return nil
}

// GetConfigPath возвращает путь к файлу конфигурации
func GetConfigPath() (string, error) {
	if home := os.Getenv("FACEGUARD_HOME"); home != "" {
		return filepath.Join(home, "config.yaml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ошибка получения домашней директории: %w", err)
	}

	return filepath.Join(home, ".faceguard", "config.yaml"), nil
}

// Validate проверяет валидность конфигурации
func (c *Config) Validate() error {
	v := validation.NewValidator()

	if err := v.ValidateURL(c.API.BaseURL, []string{"http", "https"}); err != nil {
		return fmt.Errorf("неверный API base_url: %w", err)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API таймаут должен быть положительным числом")
	}

	if err := v.ValidateEnum(c.Credentials.Backend, []string{CredentialsFile, CredentialsRedis, CredentialsMemory}, "credentials backend"); err != nil {
		return err
	}
	if c.Credentials.Backend == CredentialsRedis {
		if c.Credentials.Redis.Addr == "" {
			return fmt.Errorf("адрес Redis не может быть пустым")
		}
		if c.Credentials.Redis.MaxRetries < 0 {
			return fmt.Errorf("число повторов подключения к Redis не может быть отрицательным")
		}
		if c.Credentials.Redis.RetryInterval <= 0 {
			return fmt.Errorf("интервал повтора подключения к Redis должен быть положительным числом")
		}
	}

	if err := v.ValidateEnum(c.Logger.Level, []string{"debug", "info", "warn", "error"}, "log level"); err != nil {
		return err
	}

	if err := v.ValidateEnum(c.Output.Format, []string{"table", "json", "yaml"}, "output format"); err != nil {
		return err
	}

	if c.Detections.PageSize <= 0 {
		return fmt.Errorf("размер страницы обнаружений должен быть положительным числом")
	}
	if c.Dashboard.WatchInterval <= 0 {
		return fmt.Errorf("интервал обновления панели должен быть положительным числом")
	}

	return nil
}

// RequestTimeout возвращает таймаут запроса к API
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.Timeout) * time.Second
}

// RedisRetryInterval возвращает начальную задержку повтора подключения к Redis
func (c *Config) RedisRetryInterval() time.Duration {
	return time.Duration(c.Credentials.Redis.RetryInterval) * time.Millisecond
}

// WatchInterval возвращает интервал обновления панели
func (c *Config) WatchInterval() time.Duration {
	return time.Duration(c.Dashboard.WatchInterval) * time.Second
}
