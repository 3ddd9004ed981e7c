package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Shopee   ShopeeConfig   `mapstructure:"shopee"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Log      LogConfig      `mapstructure:"log"`
}

// ShopeeConfig holds the category API configuration
type ShopeeConfig struct {
	LandingURL string        `mapstructure:"landing_url"`
	APIURL     string        `mapstructure:"api_url"`
	PageSize   int           `mapstructure:"page_size"`
	PageDelay  time.Duration `mapstructure:"page_delay"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Proxies    []string      `mapstructure:"proxies"`

	// Browser headers
	UserAgent      string `mapstructure:"user_agent"`
	Accept         string `mapstructure:"accept"`
	AcceptLanguage string `mapstructure:"accept_language"`
	Referer        string `mapstructure:"referer"`
	Origin         string `mapstructure:"origin"`
}

// OutputConfig holds file sink destinations. An empty path disables the sink.
type OutputConfig struct {
	CSVPath   string `mapstructure:"csv_path"`
	XLSXPath  string `mapstructure:"xlsx_path"`
	XLSXSheet string `mapstructure:"xlsx_sheet"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Table    string `mapstructure:"table"`
	IfExists string `mapstructure:"if_exists"`
}

// RedisConfig holds the run-state store connection
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	Database  int    `mapstructure:"database"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// UploadConfig holds the SFTP destination for generated files
type UploadConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	User                  string `mapstructure:"user"`
	Password              string `mapstructure:"password"`
	RemoteDir             string `mapstructure:"remote_dir"`
	KnownHosts            string `mapstructure:"known_hosts"`
	InsecureIgnoreHostKey bool   `mapstructure:"insecure_ignore_host_key"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Table write modes
const (
	IfExistsReplace = "replace"
	IfExistsAppend  = "append"
	IfExistsFail    = "fail"
)

// Load reads .env, an optional YAML file and the environment into a Config.
// path may be empty, in which case config.yaml is looked up in the working directory.
func Load(path string) (*Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-provided viper instance, so command flags can be bound first
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects values the extractor and sinks cannot work with
func (c *Config) Validate() error {
	if c.Shopee.APIURL == "" {
		return fmt.Errorf("shopee.api_url is required")
	}
	if c.Shopee.PageSize <= 0 {
		return fmt.Errorf("shopee.page_size must be positive, got %d", c.Shopee.PageSize)
	}
	if c.Shopee.PageDelay < 0 {
		return fmt.Errorf("shopee.page_delay must not be negative, got %s", c.Shopee.PageDelay)
	}

	switch c.Database.IfExists {
	case IfExistsReplace, IfExistsAppend, IfExistsFail:
	default:
		return fmt.Errorf("database.if_exists must be one of replace, append, fail; got %q", c.Database.IfExists)
	}

	if c.Database.Enabled && c.Database.Table == "" {
		return fmt.Errorf("database.table is required when the database sink is enabled")
	}

	if c.Upload.Enabled && (c.Upload.Host == "" || c.Upload.User == "" || c.Upload.Password == "") {
		return fmt.Errorf("upload.host, upload.user and upload.password are required when upload is enabled")
	}

	return nil
}

// DSN builds the Postgres connection URL
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Addr returns host:port of the Redis server
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// bindEnv maps the conventional POSTGRES_* variables onto database keys
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.user":     "POSTGRES_USER",
		"database.password": "POSTGRES_PASSWORD",
		"database.host":     "POSTGRES_HOST",
		"database.name":     "POSTGRES_DB",
		"database.port":     "POSTGRES_PORT",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("shopee.landing_url", "https://seller.shopee.com.br/edu/category-guide/")
	v.SetDefault("shopee.api_url", "https://seller.shopee.com.br/help/api/v3/global_category/list/")
	v.SetDefault("shopee.page_size", 100)
	v.SetDefault("shopee.page_delay", 500*time.Millisecond)
	v.SetDefault("shopee.timeout", 60*time.Second)
	v.SetDefault("shopee.proxies", []string{})
	v.SetDefault("shopee.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")
	v.SetDefault("shopee.accept", "application/json, text/plain, */*")
	v.SetDefault("shopee.accept_language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	v.SetDefault("shopee.referer", "https://seller.shopee.com.br/edu/category-guide/")
	v.SetDefault("shopee.origin", "https://seller.shopee.com.br")

	v.SetDefault("output.csv_path", "categorias_shopee_api.csv")
	v.SetDefault("output.xlsx_path", "categorias_shopee_api.xlsx")
	v.SetDefault("output.xlsx_sheet", "Sheet1")

	v.SetDefault("database.enabled", true)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.table", "categorias_shopee")
	v.SetDefault("database.if_exists", IfExistsReplace)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "shopee:categories:")

	v.SetDefault("upload.enabled", false)
	v.SetDefault("upload.host", "")
	v.SetDefault("upload.port", 22)
	v.SetDefault("upload.user", "")
	v.SetDefault("upload.password", "")
	v.SetDefault("upload.remote_dir", "/")
	v.SetDefault("upload.known_hosts", "")
	v.SetDefault("upload.insecure_ignore_host_key", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "extrator_api_shopee.log")
}
