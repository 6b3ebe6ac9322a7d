// Package config loads newsdailly configuration from defaults, an optional
// YAML file, .env files and environment variables, and keeps user
// preferences in SQLite.
//
// Precedence, highest first:
//
//  1. process environment
//  2. .env.local, then .env in the working directory
//  3. the YAML file (~/.newsdailly/config.yaml unless a path is given)
//  4. built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/newsdailly/newsdailly/logger"
)

// Store backends.
const (
	BackendSQLite        = "sqlite"
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
)

// Image backends.
const (
	ImagesHTTP = "http"
	ImagesDir  = "dir"
)

// Config is the full runtime configuration.
type Config struct {
	Site          SiteConfig          `yaml:"site"`
	Store         StoreConfig         `yaml:"store"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Images        ImagesConfig        `yaml:"images"`
	Markets       MarketsConfig       `yaml:"markets"`
	Preferences   PreferencesConfig   `yaml:"preferences"`
	Theme         ThemeConfig         `yaml:"theme"`
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
}

type SiteConfig struct {
	Name string `yaml:"name" env:"NEWSDAILLY_SITE_NAME"`
	URL  string `yaml:"url" env:"NEWSDAILLY_SITE_URL"`
}

// StoreConfig selects the document store. Collection names the table or
// index holding articles.
type StoreConfig struct {
	Backend    string `yaml:"backend" env:"NEWSDAILLY_STORE_BACKEND"`
	DSN        string `yaml:"dsn" env:"NEWSDAILLY_STORE_DSN"`
	Collection string `yaml:"collection" env:"NEWSDAILLY_COLLECTION"`
}

type ElasticsearchConfig struct {
	URL      string `yaml:"url" env:"NEWSDAILLY_ELASTICSEARCH_URL"`
	Username string `yaml:"username" env:"NEWSDAILLY_ELASTICSEARCH_USERNAME"`
	Password string `yaml:"password" env:"NEWSDAILLY_ELASTICSEARCH_PASSWORD"`
	APIKey   string `yaml:"api_key" env:"NEWSDAILLY_ELASTICSEARCH_API_KEY"`
}

// ImagesConfig locates hero images. For the http backend BaseURL is the
// public bucket URL; for dir it is the local root served under /images.
type ImagesConfig struct {
	Backend  string `yaml:"backend" env:"NEWSDAILLY_IMAGES_BACKEND"`
	BaseURL  string `yaml:"base_url" env:"NEWSDAILLY_IMAGES_BASE_URL"`
	Dir      string `yaml:"dir" env:"NEWSDAILLY_IMAGES_DIR"`
	Folder   string `yaml:"folder" env:"NEWSDAILLY_STORAGE_FOLDER"`
	URLStyle string `yaml:"url_style" env:"NEWSDAILLY_IMAGES_URL_STYLE"`
}

type MarketsConfig struct {
	APIURL   string        `yaml:"api_url" env:"NEWSDAILLY_MARKETS_API_URL"`
	Interval time.Duration `yaml:"interval" env:"NEWSDAILLY_MARKETS_INTERVAL"`
	Symbols  []string      `yaml:"symbols" env:"NEWSDAILLY_MARKETS_SYMBOLS"`
}

type PreferencesConfig struct {
	DSN string `yaml:"dsn" env:"NEWSDAILLY_PREFERENCES_DSN"`
}

type ThemeConfig struct {
	Default string `yaml:"default" env:"NEWSDAILLY_THEME"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" env:"NEWSDAILLY_SERVER_ADDR"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"NEWSDAILLY_LOG_LEVEL"`
	Development bool   `yaml:"development" env:"NEWSDAILLY_LOG_DEVELOPMENT"`
}

// Logger converts the log section into a logger configuration.
func (l LogConfig) Logger() logger.Config {
	return logger.Config{Level: l.Level, Development: l.Development}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Site:  SiteConfig{Name: "NewsDailly", URL: "http://localhost:5173"},
		Store: StoreConfig{Backend: BackendSQLite, DSN: "newsdailly.db", Collection: "newarticles"},
		Elasticsearch: ElasticsearchConfig{
			URL: "http://localhost:9200",
		},
		Images: ImagesConfig{
			Backend:  ImagesHTTP,
			Dir:      "images",
			Folder:   "newimages",
			URLStyle: "path",
		},
		Markets: MarketsConfig{
			APIURL:   "https://api.binance.com",
			Interval: 20 * time.Second,
			Symbols:  []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT", "BNBUSDT"},
		},
		Preferences: PreferencesConfig{DSN: filepath.Join("~", ".newsdailly", "preferences.db")},
		Theme:       ThemeConfig{Default: "dark"},
		Server:      ServerConfig{Addr: "localhost:8080"},
		Log:         LogConfig{Level: "info"},
	}
}

// DefaultPath returns ~/.newsdailly/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newsdailly", "config.yaml"), nil
}

// Load builds the configuration. An empty path means the default file,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := loadFile(path, explicit, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	expanded, err := expandHome(cfg.Preferences.DSN)
	if err != nil {
		return nil, err
	}
	cfg.Preferences.DSN = expanded

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env.local and then .env. Neither overrides variables
// already set, so .env.local wins over .env and the environment wins over
// both.
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func loadFile(path string, required bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnvOverrides sets every field carrying an env tag whose variable is
// non-empty.
func applyEnvOverrides(cfg *Config) error {
	return applyEnvToStruct(reflect.ValueOf(cfg).Elem())
}

func applyEnvToStruct(v reflect.Value) error {
	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		if err := setFieldFromString(field, val); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func setFieldFromString(field reflect.Value, val string) error {
	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(val)
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		var parts []string
		for _, p := range strings.Split(val, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Site.URL); err != nil {
		return fmt.Errorf("invalid site.url %q: %w", c.Site.URL, err)
	}

	switch c.Store.Backend {
	case BackendSQLite, BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s backend", c.Store.Backend)
		}
	case BackendElasticsearch:
		if c.Elasticsearch.URL == "" {
			return errors.New("elasticsearch.url is required for the elasticsearch backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q: must be sqlite, postgres or elasticsearch", c.Store.Backend)
	}
	if c.Store.Collection == "" {
		return errors.New("store.collection is required")
	}

	switch c.Images.Backend {
	case ImagesHTTP:
		if c.Images.URLStyle != "path" && c.Images.URLStyle != "firebase" {
			return fmt.Errorf("unknown images.url_style %q: must be path or firebase", c.Images.URLStyle)
		}
	case ImagesDir:
		if c.Images.Dir == "" {
			return errors.New("images.dir is required for the dir backend")
		}
	default:
		return fmt.Errorf("unknown images.backend %q: must be http or dir", c.Images.Backend)
	}

	if c.Markets.Interval <= 0 {
		return fmt.Errorf("invalid markets.interval %s: must be positive", c.Markets.Interval)
	}
	if len(c.Markets.Symbols) == 0 {
		return errors.New("markets.symbols must not be empty")
	}

	if c.Theme.Default != "light" && c.Theme.Default != "dark" {
		return fmt.Errorf("invalid theme.default %q: must be light or dark", c.Theme.Default)
	}
	return nil
}
