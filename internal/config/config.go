package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Validator ValidatorConfig `mapstructure:"validator"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Gate      GateConfig      `mapstructure:"gate"`
	LogLevel  string          `mapstructure:"log_level"`
}

// GateConfig identifies the physical gate this instance watches.
type GateConfig struct {
	ID        string `mapstructure:"id"`
	Lane      int    `mapstructure:"lane"`
	Direction string `mapstructure:"direction"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type OCRConfig struct {
	AgentURL   string        `mapstructure:"agent_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type PipelineConfig struct {
	QueueSize    int           `mapstructure:"queue_size"`
	Workers      int           `mapstructure:"workers"`
	FrameTimeout time.Duration `mapstructure:"frame_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ValidatorConfig struct {
	// MinConfidence is the reject threshold, AutoAccept the second,
	// higher threshold below which a grammar match stays ambiguous.
	MinConfidence float64           `mapstructure:"min_confidence"`
	AutoAccept    float64           `mapstructure:"auto_accept"`
	Patterns      []string          `mapstructure:"patterns"`
	Substitutions map[string]string `mapstructure:"substitutions"`
}

type BackupConfig struct {
	Dir        string `mapstructure:"dir"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "sentry.db")
	v.SetDefault("ocr.timeout", 5*time.Second)
	v.SetDefault("ocr.max_retries", 3)
	v.SetDefault("pipeline.queue_size", 16)
	v.SetDefault("pipeline.workers", 2)
	v.SetDefault("pipeline.frame_timeout", 10*time.Second)
	v.SetDefault("pipeline.write_timeout", 5*time.Second)
	v.SetDefault("validator.min_confidence", 0.50)
	v.SetDefault("validator.auto_accept", 0.90)
	v.SetDefault("validator.patterns", []string{
		`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`,
		`^[A-Z]{3}[0-9]{4}$`,
	})
	v.SetDefault("validator.substitutions", map[string]string{
		"0": "O", "1": "I", "5": "S", "8": "B",
	})
	v.SetDefault("gate.id", "gate-1")
	v.SetDefault("gate.lane", 1)
	v.SetDefault("gate.direction", "entry")
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.max_backups", 10)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("SENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Validator.MinConfidence < 0 || c.Validator.MinConfidence > 1 {
		return fmt.Errorf("validator.min_confidence must be in [0,1]")
	}
	if c.Validator.AutoAccept < c.Validator.MinConfidence || c.Validator.AutoAccept > 1 {
		return fmt.Errorf("validator.auto_accept must be in [min_confidence,1]")
	}
	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("pipeline.queue_size must be positive")
	}
	return nil
}
