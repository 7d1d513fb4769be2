// Package config loads potluck settings from a TOML file and POTLUCK_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/iw2rmb/potluck/internal/logging"
)

type Config struct {
	Server  ServerConfig
	Upload  UploadConfig
	Storage StorageConfig
	Render  RenderConfig
	Log     logging.Config
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// UploadConfig is the attachment policy, enforced by the editor before
// embedding and again by the server.
type UploadConfig struct {
	MaxFileSize  int64
	AllowedTypes []string

	// Endpoint is where the editor posts files. Empty stores them directly.
	Endpoint string
}

type StorageConfig struct {
	Driver    string // fs or s3
	Dir       string
	URLPrefix string
	S3        S3Config
}

type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
}

type RenderConfig struct {
	CacheSize int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("upload.max_file_size", 10<<20)
	v.SetDefault("upload.allowed_types", []string{"image/*", "application/pdf", "text/plain"})
	v.SetDefault("upload.endpoint", "")

	v.SetDefault("storage.driver", "fs")
	v.SetDefault("storage.dir", "./blobs")
	v.SetDefault("storage.url_prefix", "/blobs")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.use_ssl", false)
	v.SetDefault("storage.s3.use_path_style", true)

	v.SetDefault("render.cache_size", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
}

// Load reads path, or potluck.toml from the working directory when path is
// empty. A missing default file is not an error.
//
// Priority (highest to lowest):
// 1. Environment variables with POTLUCK_ prefix (e.g., POTLUCK_STORAGE_DRIVER)
// 2. the TOML file
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("potluck")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("POTLUCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Upload: UploadConfig{
			MaxFileSize:  v.GetInt64("upload.max_file_size"),
			AllowedTypes: v.GetStringSlice("upload.allowed_types"),
			Endpoint:     v.GetString("upload.endpoint"),
		},
		Storage: StorageConfig{
			Driver:    strings.ToLower(v.GetString("storage.driver")),
			Dir:       v.GetString("storage.dir"),
			URLPrefix: v.GetString("storage.url_prefix"),
			S3: S3Config{
				Bucket:       v.GetString("storage.s3.bucket"),
				Region:       v.GetString("storage.s3.region"),
				Endpoint:     v.GetString("storage.s3.endpoint"),
				AccessKey:    v.GetString("storage.s3.access_key"),
				SecretKey:    v.GetString("storage.s3.secret_key"),
				UseSSL:       v.GetBool("storage.s3.use_ssl"),
				UsePathStyle: v.GetBool("storage.s3.use_path_style"),
			},
		},
		Render: RenderConfig{
			CacheSize: v.GetInt("render.cache_size"),
		},
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Upload.MaxFileSize < 0 {
		return fmt.Errorf("upload.max_file_size cannot be negative")
	}
	if c.Render.CacheSize < 0 {
		return fmt.Errorf("render.cache_size cannot be negative")
	}
	switch c.Storage.Driver {
	case "fs":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the fs driver")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("storage.driver must be fs or s3, got %q", c.Storage.Driver)
	}
	return nil
}
