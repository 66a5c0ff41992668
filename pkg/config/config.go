package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SeriesSpec describes one monitored series and how to pull it from its
// provider.
type SeriesSpec struct {
	ID          string `yaml:"id" validate:"required"`
	URL         string `yaml:"url" validate:"required,url"`
	Format      string `yaml:"format" default:"csv" validate:"oneof=csv json"`
	DateField   string `yaml:"date_field" default:"date"`
	ValueField  string `yaml:"value_field" default:"value"`
	DateLayout  string `yaml:"date_layout" default:"2006-01-02"`
	CadenceDays int    `yaml:"cadence_days" default:"1" validate:"gte=1"`
	Notes       string `yaml:"notes"`
}

// ModuleSpec is one series family evaluated as a unit: its own observation
// snapshot, its own ledger partition.
type ModuleSpec struct {
	Name   string       `yaml:"name" validate:"required"`
	Series []SeriesSpec `yaml:"series" validate:"required,min=1,dive"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	StateDir  string `yaml:"state_dir" default:"state"`
	ReportDir string `yaml:"report_dir" default:"reports"`

	// HistoryTail bounds each series to its most recent N observations.
	HistoryTail int `yaml:"history_tail" default:"600" validate:"gte=1"`

	Windows struct {
		Short int `yaml:"short" default:"60" validate:"gte=2"`
		Long  int `yaml:"long" default:"252" validate:"gte=2"`
	} `yaml:"windows"`

	RulesetFile   string `yaml:"ruleset_file" default:"config/rulesets.yaml"`
	ActiveRuleset string `yaml:"active_ruleset" validate:"required"`

	Modules []ModuleSpec `yaml:"modules" validate:"required,min=1,dive"`

	Freshness struct {
		MaxLagDaysDefault int            `yaml:"max_lag_days_default" default:"5" validate:"gte=0"`
		PerSeries         map[string]int `yaml:"per_series"`
		ClampTo           string         `yaml:"clamp_to" default:"INFO" validate:"oneof=NONE INFO"`
	} `yaml:"freshness"`

	Fetch struct {
		Timeout time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"fetch"`

	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		TTL     time.Duration `yaml:"ttl" default:"4h"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"riskpulse"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`

	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"riskpulse.transitions"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
	} `yaml:"kafka"`

	Server struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port" default:"8087"`
	} `yaml:"server"`

	// Schedule is a cron expression for daemon mode; empty means once-only.
	Schedule string `yaml:"schedule"`
}

var validate = validator.New()

// Load reads a YAML configuration file, fills defaults, and validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("RISKPULSE_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("RISKPULSE_RULESET"); v != "" {
		c.ActiveRuleset = v
	}
	if v := os.Getenv("RISKPULSE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	return c, nil
}

// Validate checks structural constraints plus the cross-field rules the tag
// language cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Windows.Short >= c.Windows.Long {
		return fmt.Errorf("windows.short (%d) must be below windows.long (%d)", c.Windows.Short, c.Windows.Long)
	}
	if c.HistoryTail < c.Windows.Long+1 {
		return fmt.Errorf("history_tail (%d) too small for windows.long (%d): deltas need one extra point", c.HistoryTail, c.Windows.Long)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka.enabled")
	}
	seen := map[string]string{}
	for _, m := range c.Modules {
		for _, s := range m.Series {
			if prev, dup := seen[s.ID]; dup {
				return fmt.Errorf("series %q appears in both %q and %q", s.ID, prev, m.Name)
			}
			seen[s.ID] = m.Name
		}
	}
	return nil
}
