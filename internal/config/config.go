package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	ListenAddr     string `yaml:"listen_addr"`
	StoreBaseURL   string `yaml:"store_base_url"`   // remote facility store API
	DeviceAgentURL string `yaml:"device_agent_url"` // local geolocation/permission agent
	ListingPath    string `yaml:"listing_path"`     // where a successful submit navigates to

	MaxAttachments         int      `yaml:"max_attachments"`
	MaxAttachmentSizeBytes int64    `yaml:"max_attachment_size_bytes"`
	AllowedImageMimeTypes  []string `yaml:"allowed_image_mime_types"`

	PreviewDir    string `yaml:"preview_dir"`
	PreviewMaxDim int    `yaml:"preview_max_dim"` // longest side of generated thumbnails, px

	SessionTTL time.Duration `yaml:"session_ttl"`

	SubmitRatePerSecond float64 `yaml:"submit_rate_per_second"` // token refill rate for write endpoints
	SubmitBurst         float64 `yaml:"submit_burst"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

type Private struct {
	SessionKey string `yaml:"session_key"`
}

func (c *Config) SessionKey() string {
	return c.private.SessionKey
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Public.ListenAddr == "" {
		c.Public.ListenAddr = ":8081"
	}
	if c.Public.ListingPath == "" {
		c.Public.ListingPath = "/facilities"
	}
	if c.Public.MaxAttachments == 0 {
		c.Public.MaxAttachments = 5
	}
	if c.Public.MaxAttachmentSizeBytes == 0 {
		c.Public.MaxAttachmentSizeBytes = 10 * 1024 * 1024
	}
	if len(c.Public.AllowedImageMimeTypes) == 0 {
		c.Public.AllowedImageMimeTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	}
	if c.Public.PreviewDir == "" {
		c.Public.PreviewDir = "previews"
	}
	if c.Public.PreviewMaxDim == 0 {
		c.Public.PreviewMaxDim = 320
	}
	if c.Public.SessionTTL == 0 {
		c.Public.SessionTTL = 2 * time.Hour
	}
	if c.Public.SubmitRatePerSecond == 0 {
		c.Public.SubmitRatePerSecond = 1
	}
	if c.Public.SubmitBurst == 0 {
		c.Public.SubmitBurst = 5
	}
	if c.Public.LogLevel == "" {
		c.Public.LogLevel = "info"
	}
}
