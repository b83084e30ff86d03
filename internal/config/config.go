package config

import (
	"fmt"
	"os"
	"path/filepath"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	ProviderService = "service"
	ProviderOpenAI  = "openai"
	ProviderTable   = "table"
	ProviderNone    = "none"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Lemmatizer LemmatizerConfig `mapstructure:"lemmatizer"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
}

type ServerConfig struct {
	Name        string     `mapstructure:"name" validate:"required"`
	Version     string     `mapstructure:"version" validate:"required"`
	Description string     `mapstructure:"description"`
	Port        int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS        CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite mysql"`
	// Path is the SQLite file. A relative path is resolved against the
	// directory of the running executable.
	Path string `mapstructure:"path" validate:"required_if=Driver sqlite"`

	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database" validate:"required_if=Driver mysql"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`

	LookupTable      string   `mapstructure:"lookup_table" validate:"required"`
	HeadColumn       string   `mapstructure:"head_column" validate:"required"`
	ExplorableTables []string `mapstructure:"explorable_tables"`
}

type LemmatizerConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=service openai table none"`
	// Model is the pretrained pipeline identifier passed to the annotation backend.
	Model            string `mapstructure:"model"`
	Endpoint         string `mapstructure:"endpoint" validate:"required_if=Provider service,omitempty,url"`
	TableFile        string `mapstructure:"table_file" validate:"required_if=Provider table,omitempty,file"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" validate:"min=0"`
	// MaxRetryAttempts of 0 selects inference.DefaultMaxRetryAttempts.
	MaxRetryAttempts uint   `mapstructure:"max_retry_attempts"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/logeion")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.name", "Logeion MCP Server")
	v.SetDefault("server.version", "1.0.0")
	v.SetDefault("server.description", "Latin dictionary lookup with lemmatization fallback")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "dvlg-wheel-mini.sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.lookup_table", "Entries")
	v.SetDefault("database.head_column", "head")
	v.SetDefault("database.explorable_tables", []string{"Entries"})
	v.SetDefault("lemmatizer.provider", ProviderService)
	v.SetDefault("lemmatizer.model", "la_core_web_lg")
	v.SetDefault("lemmatizer.endpoint", "http://localhost:8000")
	v.SetDefault("lemmatizer.timeout_seconds", 10)
	v.SetDefault("openai.model", "gpt-4o-mini")

	bindings := map[string]string{
		"database.path":       "LOGEION_DATABASE_PATH",
		"database.password":   "DB_PASSWORD",
		"lemmatizer.endpoint": "LEMMATIZER_ENDPOINT",
		// OpenAI credentials come from the environment only
		"openai.api_key": "OPENAI_API_KEY",
		"openai.model":   "OPENAI_MODEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %s", TranslateErrors(err, loader.translator))
	}

	if cfg.Database.Driver == DriverSQLite {
		path, err := ResolvePath(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.Database.Path = path
	}

	return &cfg, nil
}

// ResolvePath makes path absolute relative to the directory of the running executable.
func ResolvePath(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("os.Executable() > %w", err)
	}
	return resolveFrom(filepath.Dir(executable), path), nil
}

func resolveFrom(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
