package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/cadencehq/cadence/pkg/logger"
)

type Config struct {
	Server       ServerConfig    `yaml:"server"`
	Database     DatabaseConfig  `yaml:"database"`
	Logger       logger.Config   `yaml:"logger"`
	Engine       EngineConfig    `yaml:"engine"`
	TextBackend  BackendConfig   `yaml:"text_backend"`
	ImageBackend BackendConfig   `yaml:"image_backend"`
	Scheduler    SchedulerConfig `yaml:"scheduler"`
	Stats        StatsConfig     `yaml:"stats"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

// EngineConfig controls the generation pipeline: how many generation calls
// may be in flight at once, how long a single call may take, and how failed
// calls are retried.
type EngineConfig struct {
	Concurrency       int    `yaml:"concurrency"`
	GenerationTimeout string `yaml:"generation_timeout"`
	MaxRetries        int    `yaml:"max_retries"`
	RetryInterval     string `yaml:"retry_interval"`
	RandomSeed        int64  `yaml:"random_seed"`
}

type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

type SchedulerConfig struct {
	PollInterval string `yaml:"poll_interval"`
	Enabled      bool   `yaml:"enabled"`
}

type StatsConfig struct {
	UpdateInterval string `yaml:"update_interval"`
	RetentionDays  int    `yaml:"retention_days"`
	Enabled        bool   `yaml:"enabled"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	return cfg, nil
}

// ApplyDefaults fills in the default values for any unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5840
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Engine.Concurrency == 0 {
		cfg.Engine.Concurrency = 3
	}
	if cfg.Engine.GenerationTimeout == "" {
		cfg.Engine.GenerationTimeout = "60s"
	}
	if cfg.Engine.MaxRetries == 0 {
		cfg.Engine.MaxRetries = 3
	}
	if cfg.Engine.RetryInterval == "" {
		cfg.Engine.RetryInterval = "2s"
	}
	if cfg.TextBackend.Timeout == "" {
		cfg.TextBackend.Timeout = "60s"
	}
	if cfg.ImageBackend.Timeout == "" {
		cfg.ImageBackend.Timeout = "120s"
	}
	if cfg.Scheduler.PollInterval == "" {
		cfg.Scheduler.PollInterval = "1m"
	}
	if cfg.Stats.UpdateInterval == "" {
		cfg.Stats.UpdateInterval = "10m"
	}
	if cfg.Stats.RetentionDays == 0 {
		cfg.Stats.RetentionDays = 90
	}
}
