package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"RiskOffRotator/internal/model"
	"RiskOffRotator/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		Timeout           time.Duration `yaml:"timeout" default:"30s"`
		RequestsPerSecond float64       `yaml:"requests_per_second" default:"2" validate:"gt=0"`
		Burst             int           `yaml:"burst" default:"4" validate:"gt=0"`
	} `yaml:"data_source"`
	Strategy struct {
		SuspendDays    int `yaml:"suspend_days" default:"14" validate:"gt=0"`
		ReturnWindow   int `yaml:"return_window" default:"60" validate:"gte=2"`
		LookbackWindow int `yaml:"lookback_window" default:"60" validate:"gt=1"`
		Instruments    struct {
			Metals      string `yaml:"metals" default:"DBB" validate:"required"`
			Industrials string `yaml:"industrials" default:"XLI" validate:"required"`
			ShortBonds  string `yaml:"short_bonds" default:"SHY" validate:"required"`
			Dollar      string `yaml:"dollar" default:"UUP" validate:"required"`
		} `yaml:"instruments"`
		Thresholds struct {
			MetalsDown      float64 `yaml:"metals_down" default:"-0.07"`
			IndustrialsDown float64 `yaml:"industrials_down" default:"-0.07"`
			ShortBondDown   float64 `yaml:"short_bond_down" default:"-0.01"`
			DollarUp        float64 `yaml:"dollar_up" default:"0.07"`
		} `yaml:"thresholds"`
	} `yaml:"strategy"`
	Allocations struct {
		Market model.TargetWeights `yaml:"market" validate:"min=1,dive,keys,required,endkeys,gte=0"`
		Safe   model.TargetWeights `yaml:"safe" validate:"min=1,dive,keys,required,endkeys,gte=0"`
	} `yaml:"allocations"`
	Schedule struct {
		DailyCron   string        `yaml:"daily_cron" default:"0 31 9 * * 1-5"`
		WeeklyCron  string        `yaml:"weekly_cron" default:"0 31 9 * * 5"`
		RecordCron  string        `yaml:"record_cron" default:"0 32 9 * * 1-5"`
		Timezone    string        `yaml:"timezone" default:"America/New_York"`
		TaskTimeout time.Duration `yaml:"task_timeout" default:"2m" validate:"gt=0"`
	} `yaml:"schedule"`
	Portfolio struct {
		StateFile string `yaml:"state_file" default:"data/portfolio_state.json"`
	} `yaml:"portfolio"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/risk_off_rotator.db"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl" default:"4h"`
	} `yaml:"redis"`
	HTTP struct {
		Addr string `yaml:"addr" default:":9108"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SUSPEND_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse SUSPEND_DAYS: %w", err)
		}
		cfg.Strategy.SuspendDays = n
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Weight maps are defaulted here rather than by tag so a YAML map replaces
	// the default instead of merging into it.
	if cfg.Allocations.Market == nil {
		cfg.Allocations.Market = model.TargetWeights{"SPY": 1.0}
	}
	if cfg.Allocations.Safe == nil {
		cfg.Allocations.Safe = model.TargetWeights{"IEF": 0.5, "TLT": 0.5}
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.StrategyParams().Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	for name, w := range map[string]model.TargetWeights{"market": c.Allocations.Market, "safe": c.Allocations.Safe} {
		for sym, v := range w {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("allocations.%s: %s weight %v is not finite", name, sym, v)
			}
		}
	}
	for sym := range c.Allocations.Market {
		if _, ok := c.Allocations.Safe[sym]; ok {
			return fmt.Errorf("allocations: %s appears in both market and safe", sym)
		}
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, expr := range map[string]string{
		"daily_cron":  c.Schedule.DailyCron,
		"weekly_cron": c.Schedule.WeeklyCron,
		"record_cron": c.Schedule.RecordCron,
	} {
		if _, err := parser.Parse(expr); err != nil {
			return fmt.Errorf("schedule.%s: %w", name, err)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// StrategyParams builds the immutable evaluation parameters.
func (c *Config) StrategyParams() strategy.Params {
	s := c.Strategy
	return strategy.Params{
		Instruments: strategy.Instruments{
			Metals:      s.Instruments.Metals,
			Industrials: s.Instruments.Industrials,
			ShortBonds:  s.Instruments.ShortBonds,
			Dollar:      s.Instruments.Dollar,
		},
		Thresholds: strategy.Thresholds{
			MetalsDown:      s.Thresholds.MetalsDown,
			IndustrialsDown: s.Thresholds.IndustrialsDown,
			ShortBondDown:   s.Thresholds.ShortBondDown,
			DollarUp:        s.Thresholds.DollarUp,
		},
		SuspendDays: s.SuspendDays,
		Window:      s.LookbackWindow,
	}
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}

// RequiredBars is the number of daily bars per instrument one evaluation needs.
func (c *Config) RequiredBars() int {
	return c.Strategy.LookbackWindow + c.Strategy.ReturnWindow - 1
}

// TelegramEnabled reports whether Telegram credentials are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
