package configuration

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/spf13/viper"
)

// maxRequestBytes caps max_files * max_file_size, the body limit of one upload.
const maxRequestBytes int64 = 1 << 40

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MinIO     MinIOConfig
	OAuth     OAuthConfig
	Session   SessionConfig
	Redis     RedisConfig
	Log       logger.Config
	Tracing   TracingConfig
	NATSURL   string
	CLAMAVURL string
}

type ServerConfig struct {
	Port string
}

type StorageConfig struct {
	Root        string
	Backend     string // local or minio
	MaxFileSize int64
	MaxFiles    int
}

type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Issuer       string
}

// Enabled reports whether routes are gated behind a login.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != ""
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieSecure bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled bool
	Service string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("storage_root", "uploads")
	v.SetDefault("storage_backend", "local")
	v.SetDefault("max_file_size", int64(50<<20))
	v.SetDefault("max_files", 10)

	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_bucket", "photos")
	v.SetDefault("minio_use_ssl", false)

	v.SetDefault("nats_url", "")
	v.SetDefault("clamav_url", "")

	v.SetDefault("oauth_client_id", "")
	v.SetDefault("oauth_client_secret", "")
	v.SetDefault("oauth_redirect_url", "")
	v.SetDefault("oauth_issuer", "https://accounts.google.com")

	v.SetDefault("session_secret", "")
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("session_cookie_secure", false)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_output", "console")
	v.SetDefault("log_file", "logs/photo-service.log")

	v.SetDefault("dd_trace_enabled", false)
	v.SetDefault("dd_service", "photo-service")
}

// Load reads configuration from the environment, optionally layered over the
// file named by CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	logCfg := logger.DefaultConfig()
	logCfg.Level = v.GetString("log_level")
	logCfg.Format = v.GetString("log_format")
	logCfg.Output = v.GetString("log_output")
	logCfg.File.Filename = v.GetString("log_file")

	return &Config{
		Server: ServerConfig{
			Port: v.GetString("port"),
		},
		Storage: StorageConfig{
			Root:        v.GetString("storage_root"),
			Backend:     v.GetString("storage_backend"),
			MaxFileSize: v.GetInt64("max_file_size"),
			MaxFiles:    v.GetInt("max_files"),
		},
		MinIO: MinIOConfig{
			Endpoint:   v.GetString("minio_endpoint"),
			AccessKey:  v.GetString("minio_access_key"),
			SecretKey:  v.GetString("minio_secret_key"),
			BucketName: v.GetString("minio_bucket"),
			UseSSL:     v.GetBool("minio_use_ssl"),
		},
		OAuth: OAuthConfig{
			ClientID:     v.GetString("oauth_client_id"),
			ClientSecret: v.GetString("oauth_client_secret"),
			RedirectURL:  v.GetString("oauth_redirect_url"),
			Issuer:       v.GetString("oauth_issuer"),
		},
		Session: SessionConfig{
			Secret:       v.GetString("session_secret"),
			TTL:          v.GetDuration("session_ttl"),
			CookieSecure: v.GetBool("session_cookie_secure"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Log: *logCfg,
		Tracing: TracingConfig{
			Enabled: v.GetBool("dd_trace_enabled"),
			Service: v.GetString("dd_service"),
		},
		NATSURL:   v.GetString("nats_url"),
		CLAMAVURL: v.GetString("clamav_url"),
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port must not be empty")
	}
	if c.Storage.MaxFileSize <= 0 {
		return errors.New("max_file_size must be greater than 0")
	}
	if c.Storage.MaxFiles <= 0 {
		return errors.New("max_files must be greater than 0")
	}
	if int64(c.Storage.MaxFiles) > maxRequestBytes/c.Storage.MaxFileSize {
		return fmt.Errorf("max_files * max_file_size must not exceed %d bytes", maxRequestBytes)
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.Root == "" {
			return errors.New("storage_root is required for the local backend")
		}
	case "minio":
		if c.MinIO.Endpoint == "" || c.MinIO.BucketName == "" {
			return errors.New("minio_endpoint and minio_bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown storage_backend %q", c.Storage.Backend)
	}

	if c.OAuth.Enabled() {
		if c.OAuth.ClientSecret == "" || c.OAuth.RedirectURL == "" {
			return errors.New("oauth_client_secret and oauth_redirect_url are required when oauth is enabled")
		}
		if len(c.Session.Secret) < 32 {
			return errors.New("session_secret must be at least 32 bytes when oauth is enabled")
		}
		if c.Session.TTL <= 0 {
			return errors.New("session_ttl must be positive")
		}
	}

	return c.Log.Validate()
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}
