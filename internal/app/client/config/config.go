package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Окружения приложения
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultDiagAddress   = "localhost:8090"
	defaultLogLevel      = "info"
	defaultEnv           = EnvLocal
	defaultConfigDir     = ".fanline"
	defaultMaxRetries    = 3
	defaultRetentionDays = 7
)

// Config конфигурация клиента
type Config struct {
	Env                   string `mapstructure:"app_env"`
	ServerAddress         string `mapstructure:"server_address"`
	DiagAddress           string `mapstructure:"diag_address"`
	LogLevel              string `mapstructure:"log_level"`
	ConfigDir             string `mapstructure:"config_dir"`
	DataPath              string `mapstructure:"data_path"`
	MaxRetries            int    `mapstructure:"sync_max_retries"`
	ConflictRetentionDays int    `mapstructure:"conflict_retention_days"`
	APIToken              string `mapstructure:"api_token"`
	EnableTLS             bool   `mapstructure:"enable_tls"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Пробуем найти .env в родительской директории
		envPath = "../.env"
	}

	// Загружаем .env файл если существует
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	viper.AutomaticEnv()

	// Устанавливаем значения по умолчанию
	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	viper.SetDefault("DIAG_ADDRESS", defaultDiagAddress)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("SYNC_MAX_RETRIES", defaultMaxRetries)
	viper.SetDefault("CONFLICT_RETENTION_DAYS", defaultRetentionDays)
	viper.SetDefault("ENABLE_TLS", false)

	// Получаем домашнюю директорию пользователя
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Вычисляем пути для хранения данных
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	// Создаем директории если их нет
	if err := os.MkdirAll(configDir, 0700); err != nil {
		fmt.Printf("Ошибка создания директории конфигурации: %v\n", err)
	}

	dataPath := viper.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "offline.db")
	}

	config := &Config{
		Env:                   viper.GetString("APP_ENV"),
		ServerAddress:         viper.GetString("SERVER_ADDRESS"),
		DiagAddress:           viper.GetString("DIAG_ADDRESS"),
		LogLevel:              viper.GetString("LOG_LEVEL"),
		ConfigDir:             configDir,
		DataPath:              dataPath,
		MaxRetries:            viper.GetInt("SYNC_MAX_RETRIES"),
		ConflictRetentionDays: viper.GetInt("CONFLICT_RETENTION_DAYS"),
		APIToken:              viper.GetString("API_TOKEN"),
		EnableTLS:             viper.GetBool("ENABLE_TLS"),
	}

	// Валидация конфигурации
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}

	return config
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.DataPath == "" {
		return fmt.Errorf("data_path не может быть пустым")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("sync_max_retries не может быть отрицательным")
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
