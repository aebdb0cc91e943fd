package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SignalDesk/internal/calculator"
	"SignalDesk/internal/model"
	"SignalDesk/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		Range     string `yaml:"range"`
		BarsLimit int    `yaml:"bars_limit"`
	} `yaml:"data_source"`
	Assets     []model.Asset `yaml:"assets"`
	Timeframes []string      `yaml:"timeframes"`
	Strategy   Strategy      `yaml:"strategy"`
	Schedule   struct {
		SignalCron string `yaml:"signal_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Tracker struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"tracker"`
	Proxy string `yaml:"proxy"`
}

// Strategy holds indicator periods and rule thresholds. Zero values fall back to defaults.
type Strategy struct {
	MinBars int `yaml:"min_bars"`

	EMAFast    int     `yaml:"ema_fast"`
	EMASlow    int     `yaml:"ema_slow"`
	ADXPeriod  int     `yaml:"adx_period"`
	RSIPeriod  int     `yaml:"rsi_period"`
	StochFastK int     `yaml:"stoch_fast_k"`
	StochSlowK int     `yaml:"stoch_slow_k"`
	StochSlowD int     `yaml:"stoch_slow_d"`
	BBLength   int     `yaml:"bb_length"`
	BBStdDev   float64 `yaml:"bb_std"`

	RSIOverbought   float64 `yaml:"rsi_overbought"`
	RSIOversold     float64 `yaml:"rsi_oversold"`
	StochOverbought float64 `yaml:"stoch_overbought"`
	StochOversold   float64 `yaml:"stoch_oversold"`
	ADXTrend        float64 `yaml:"adx_trend"`
	ClassifyAt      int     `yaml:"classify_at"`
}

// DefaultAssets are the pairs offered by the dashboard, mapped to Yahoo Finance tickers.
var DefaultAssets = []model.Asset{
	{Label: "FOREX: EUR/USD", Symbol: "EURUSD=X"},
	{Label: "FOREX: GBP/USD", Symbol: "GBPUSD=X"},
	{Label: "FOREX: USD/JPY", Symbol: "JPY=X"},
	{Label: "FOREX: AUD/CAD", Symbol: "AUDCAD=X"},
	{Label: "CRYPTO: BTC/USD", Symbol: "BTC-USD"},
	{Label: "CRYPTO: ETH/USD", Symbol: "ETH-USD"},
	{Label: "OTC: GOLD", Symbol: "GC=F"},
}

// Load reads config from a YAML file, loads .env if present, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BARS_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BARS_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SIGNAL_CRON"); v != "" {
		cfg.Schedule.SignalCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("TIMEFRAMES"); v != "" {
		cfg.Timeframes = splitList(v)
	}
	if v := os.Getenv("BARS_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.BarsLimit = n
		}
	}

	// Defaults
	if cfg.App.Name == "" {
		cfg.App.Name = "SignalDesk"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "2.4.0"
	}
	if cfg.DataSource.Range == "" {
		cfg.DataSource.Range = "1d"
	}
	if cfg.DataSource.BarsLimit == 0 {
		cfg.DataSource.BarsLimit = 300
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = append([]model.Asset(nil), DefaultAssets...)
	}
	if len(cfg.Timeframes) == 0 {
		cfg.Timeframes = []string{"1m", "5m"}
	}
	if cfg.Schedule.SignalCron == "" {
		cfg.Schedule.SignalCron = "5 * * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/signaldesk.db"
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 30 * time.Second
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9102"
	}
	if cfg.Tracker.StateFile == "" {
		cfg.Tracker.StateFile = "data/signal_state.json"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.DataSource.BarsLimit < 1 {
		return fmt.Errorf("data_source.bars_limit must be positive")
	}
	seen := make(map[string]bool)
	for _, a := range c.Assets {
		if a.Label == "" || a.Symbol == "" {
			return fmt.Errorf("assets: label and symbol are required (got %q -> %q)", a.Label, a.Symbol)
		}
		if seen[a.Label] {
			return fmt.Errorf("assets: duplicate label %q", a.Label)
		}
		seen[a.Label] = true
	}
	for _, tf := range c.Timeframes {
		switch tf {
		case "1m", "2m", "5m", "15m", "30m", "1h":
		default:
			return fmt.Errorf("timeframes: unsupported %q", tf)
		}
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	return nil
}

// Params builds the indicator parameters, filling unset fields with defaults.
func (c *Config) Params() calculator.Params {
	p := calculator.DefaultParams()
	s := c.Strategy
	setInt(&p.MinBars, s.MinBars)
	setInt(&p.EMAFast, s.EMAFast)
	setInt(&p.EMASlow, s.EMASlow)
	setInt(&p.ADXPeriod, s.ADXPeriod)
	setInt(&p.RSIPeriod, s.RSIPeriod)
	setInt(&p.StochFastK, s.StochFastK)
	setInt(&p.StochSlowK, s.StochSlowK)
	setInt(&p.StochSlowD, s.StochSlowD)
	setInt(&p.BBLength, s.BBLength)
	if s.BBStdDev != 0 {
		p.BBStdDev = s.BBStdDev
	}
	return p
}

// Thresholds builds the rule matrix thresholds, filling unset fields with defaults.
func (c *Config) Thresholds() strategy.Thresholds {
	t := strategy.DefaultThresholds()
	s := c.Strategy
	if s.RSIOverbought != 0 {
		t.RSIOverbought = s.RSIOverbought
	}
	if s.RSIOversold != 0 {
		t.RSIOversold = s.RSIOversold
	}
	if s.StochOverbought != 0 {
		t.StochOverbought = s.StochOverbought
	}
	if s.StochOversold != 0 {
		t.StochOversold = s.StochOversold
	}
	if s.ADXTrend != 0 {
		t.ADXTrend = s.ADXTrend
	}
	setInt(&t.ClassifyAt, s.ClassifyAt)
	return t
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
