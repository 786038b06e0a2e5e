package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Intake IntakeConfig `mapstructure:"intake"`
	Viewer ViewerConfig `mapstructure:"viewer"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig configures the upload receiver.
type ServerConfig struct {
	Name          string `mapstructure:"name"`
	Addr          string `mapstructure:"addr"`
	LiveAddr      string `mapstructure:"live_addr"`
	UploadDir     string `mapstructure:"upload_dir"`
	ExampleDir    string `mapstructure:"example_dir"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
	HTTPS         bool   `mapstructure:"https"`
	PIN           string `mapstructure:"pin"`
	LedgerPath    string `mapstructure:"ledger_path"`
}

// ClientConfig configures the upload dispatcher.
type ClientConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PIN         string        `mapstructure:"pin"`
	Fingerprint string        `mapstructure:"fingerprint"`
}

// IntakeConfig holds the extension allow-lists.
type IntakeConfig struct {
	Allowed []string `mapstructure:"allowed"`
	Models  []string `mapstructure:"models"`
}

// ViewerConfig holds viewport defaults.
type ViewerConfig struct {
	Fov        float64 `mapstructure:"fov"`
	Background string  `mapstructure:"background"`
	Offset     float64 `mapstructure:"offset"`
	CacheSize  int     `mapstructure:"cache_size"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func dataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "meshview")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "meshview")
	v.SetDefault("server.addr", constants.DefaultAddr)
	v.SetDefault("server.live_addr", constants.DefaultLiveAddr)
	v.SetDefault("server.upload_dir", filepath.Join(dataDir(), "upload-temp"))
	v.SetDefault("server.example_dir", "example-models")
	v.SetDefault("server.max_upload_size", constants.MaxUploadSize)
	v.SetDefault("server.https", false)
	v.SetDefault("server.pin", "")
	v.SetDefault("server.ledger_path", filepath.Join(dataDir(), "uploads.db"))

	v.SetDefault("client.endpoint", "http://127.0.0.1:53380")
	v.SetDefault("client.timeout", 60*time.Second)
	v.SetDefault("client.pin", "")
	v.SetDefault("client.fingerprint", "")

	v.SetDefault("intake.allowed", constants.AllowedExtensions)
	v.SetDefault("intake.models", constants.ModelExtensions)

	v.SetDefault("viewer.fov", 75.0)
	v.SetDefault("viewer.background", "#000000")
	v.SetDefault("viewer.offset", 0.0)
	v.SetDefault("viewer.cache_size", 8)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from file and env. Env var overrides use prefix
// MESHVIEW_. A .env file in the working directory is loaded first when present.
func Load(cfgPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Fail to load .env", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	if cfgPath == "" {
		cfgPath = os.Getenv("MESHVIEW_CONFIG")
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "meshview"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("meshview")
	}

	v.SetEnvPrefix("MESHVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgPath != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
