package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const DateLayout = "2006-01-02"

var ErrInvalidConfig = errors.New("Некорректная конфигурация")

type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Strategy StrategyConfig `yaml:"strategy"`
	Backtest BacktestConfig `yaml:"backtest"`
	Storage  StorageConfig  `yaml:"storage"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
}

type ExchangeConfig struct {
	BaseUrl           string        `yaml:"base_url"`
	WSUrl             string        `yaml:"ws_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Retry             RetryConfig   `yaml:"retry"`
}

// RetryConfig bounds the candle download retries. MaxAttempts == 0 retries forever.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Multiplier  float64       `yaml:"multiplier"`
}

type StrategyConfig struct {
	Symbol            string   `yaml:"symbol" json:"symbol"`
	Interval          string   `yaml:"interval" json:"interval"`
	GridRange         float64  `yaml:"grid_range" json:"gridRange"`
	OrderQty          int      `yaml:"order_qty" json:"orderQty"`
	OrderDollarValue  float64  `yaml:"order_dollar_value" json:"orderDollarValue"`
	InitialAmount     float64  `yaml:"initial_amount" json:"initialAmount"`
	TickRound         int      `yaml:"tick_round" json:"tickRound"`
	QtyRound          int      `yaml:"qty_round" json:"qtyRound"`
	Comm              float64  `yaml:"comm" json:"comm"`
	TakeProfitPercent *float64 `yaml:"take_profit_percent,omitempty" json:"takeProfitPercent,omitempty"`
}

type BacktestConfig struct {
	StartDate     string `yaml:"start_date"`
	EndDate       string `yaml:"end_date"`
	Source        string `yaml:"source"`
	CandlesFile   string `yaml:"candles_file"`
	ResultFile    string `yaml:"result_file"`
	TradesCSV     string `yaml:"trades_csv"`
	ProgressEvery int    `yaml:"progress_every"`
}

type StorageConfig struct {
	Journal       string `yaml:"journal"`
	SQLitePath    string `yaml:"sqlite_path"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

type RuntimeConfig struct {
	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads the config file (configs/config.yaml when path is empty), the
// GRIDBOT_* environment and an optional .env file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("Не удалось прочитать .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	v.SetEnvPrefix("GRIDBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Не удалось прочитать конфигурацию: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Exchange = ExchangeConfig{
		BaseUrl:           v.GetString("exchange.base_url"),
		WSUrl:             v.GetString("exchange.ws_url"),
		Timeout:           v.GetDuration("exchange.timeout"),
		RequestsPerSecond: v.GetFloat64("exchange.requests_per_second"),
		Burst:             v.GetInt("exchange.burst"),
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("exchange.retry.max_attempts"),
			Delay:       v.GetDuration("exchange.retry.delay"),
			MaxDelay:    v.GetDuration("exchange.retry.max_delay"),
			Multiplier:  v.GetFloat64("exchange.retry.multiplier"),
		},
	}

	cfg.Strategy = StrategyConfig{
		Symbol:           strings.ToUpper(v.GetString("strategy.symbol")),
		Interval:         v.GetString("strategy.interval"),
		GridRange:        v.GetFloat64("strategy.grid_range"),
		OrderQty:         v.GetInt("strategy.order_qty"),
		OrderDollarValue: v.GetFloat64("strategy.order_dollar_value"),
		InitialAmount:    v.GetFloat64("strategy.initial_amount"),
		TickRound:        v.GetInt("strategy.tick_round"),
		QtyRound:         v.GetInt("strategy.qty_round"),
		Comm:             v.GetFloat64("strategy.comm"),
	}
	// 0 disables take-profit.
	if tp := v.GetFloat64("strategy.take_profit_percent"); tp != 0 {
		cfg.Strategy.TakeProfitPercent = &tp
	}

	cfg.Backtest = BacktestConfig{
		StartDate:     v.GetString("backtest.start_date"),
		EndDate:       v.GetString("backtest.end_date"),
		Source:        strings.ToLower(v.GetString("backtest.source")),
		CandlesFile:   v.GetString("backtest.candles_file"),
		ResultFile:    v.GetString("backtest.result_file"),
		TradesCSV:     v.GetString("backtest.trades_csv"),
		ProgressEvery: v.GetInt("backtest.progress_every"),
	}

	cfg.Storage = StorageConfig{
		Journal:       strings.ToLower(v.GetString("storage.journal")),
		SQLitePath:    v.GetString("storage.sqlite_path"),
		PostgresDSN:   envSub(v.GetString("storage.postgres_dsn")),
		ClickHouseDSN: envSub(v.GetString("storage.clickhouse_dsn")),
	}

	cfg.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      v.GetString("runtime.log.level"),
			Format:     v.GetString("runtime.log.format"),
			File:       v.GetString("runtime.log.file"),
			MaxSize:    v.GetInt("runtime.log.max_size"),
			MaxBackups: v.GetInt("runtime.log.max_backups"),
			MaxAge:     v.GetInt("runtime.log.max_age"),
			Compress:   v.GetBool("runtime.log.compress"),
		},
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("exchange.base_url", d.Exchange.BaseUrl)
	v.SetDefault("exchange.ws_url", d.Exchange.WSUrl)
	v.SetDefault("exchange.timeout", d.Exchange.Timeout)
	v.SetDefault("exchange.requests_per_second", d.Exchange.RequestsPerSecond)
	v.SetDefault("exchange.burst", d.Exchange.Burst)
	v.SetDefault("exchange.retry.max_attempts", d.Exchange.Retry.MaxAttempts)
	v.SetDefault("exchange.retry.delay", d.Exchange.Retry.Delay)
	v.SetDefault("exchange.retry.max_delay", d.Exchange.Retry.MaxDelay)
	v.SetDefault("exchange.retry.multiplier", d.Exchange.Retry.Multiplier)

	v.SetDefault("strategy.symbol", d.Strategy.Symbol)
	v.SetDefault("strategy.interval", d.Strategy.Interval)
	v.SetDefault("strategy.grid_range", d.Strategy.GridRange)
	v.SetDefault("strategy.order_qty", d.Strategy.OrderQty)
	v.SetDefault("strategy.order_dollar_value", d.Strategy.OrderDollarValue)
	v.SetDefault("strategy.initial_amount", d.Strategy.InitialAmount)
	v.SetDefault("strategy.tick_round", d.Strategy.TickRound)
	v.SetDefault("strategy.qty_round", d.Strategy.QtyRound)
	v.SetDefault("strategy.comm", d.Strategy.Comm)
	v.SetDefault("strategy.take_profit_percent", *d.Strategy.TakeProfitPercent)

	v.SetDefault("backtest.start_date", d.Backtest.StartDate)
	v.SetDefault("backtest.end_date", d.Backtest.EndDate)
	v.SetDefault("backtest.source", d.Backtest.Source)
	v.SetDefault("backtest.candles_file", d.Backtest.CandlesFile)
	v.SetDefault("backtest.result_file", d.Backtest.ResultFile)
	v.SetDefault("backtest.trades_csv", d.Backtest.TradesCSV)
	v.SetDefault("backtest.progress_every", d.Backtest.ProgressEvery)

	v.SetDefault("storage.journal", d.Storage.Journal)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.clickhouse_dsn", d.Storage.ClickHouseDSN)

	v.SetDefault("runtime.log.level", d.Runtime.Log.Level)
	v.SetDefault("runtime.log.format", d.Runtime.Log.Format)
	v.SetDefault("runtime.log.file", d.Runtime.Log.File)
	v.SetDefault("runtime.log.max_size", d.Runtime.Log.MaxSize)
	v.SetDefault("runtime.log.max_backups", d.Runtime.Log.MaxBackups)
	v.SetDefault("runtime.log.max_age", d.Runtime.Log.MaxAge)
	v.SetDefault("runtime.log.compress", d.Runtime.Log.Compress)
}

func Default() *Config {
	tp := 0.03
	return &Config{
		Exchange: ExchangeConfig{
			BaseUrl:           "https://api.binance.com",
			WSUrl:             "wss://stream.binance.com:9443/ws",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
			Retry: RetryConfig{
				MaxAttempts: 5,
				Delay:       5 * time.Second,
				MaxDelay:    30 * time.Second,
				Multiplier:  2,
			},
		},
		Strategy: StrategyConfig{
			Symbol:            "BTCUSDT",
			Interval:          "1m",
			GridRange:         0.05,
			OrderQty:          10,
			OrderDollarValue:  20,
			InitialAmount:     500,
			TickRound:         2,
			QtyRound:          4,
			Comm:              0.001,
			TakeProfitPercent: &tp,
		},
		Backtest: BacktestConfig{
			StartDate:     "2024-11-15",
			EndDate:       "2024-12-30",
			Source:        "binance",
			CandlesFile:   "",
			ResultFile:    "result.json",
			TradesCSV:     "",
			ProgressEvery: 1000,
		},
		Storage: StorageConfig{
			Journal:    "",
			SQLitePath: "gridbot.sqlite",
		},
		Runtime: RuntimeConfig{
			Log: LogConfig{
				Level:      "info",
				Format:     "text",
				File:       "stdout",
				MaxSize:    50,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
	}
}

// SaveToFile writes the config as YAML, the same layout Load reads.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("Не удалось сериализовать конфигурацию: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("Не удалось создать каталог %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("Не удалось записать конфигурацию: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	start, end, err := c.Backtest.Range()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end_date должна быть позже start_date", ErrInvalidConfig)
	}

	switch c.Backtest.Source {
	case "binance", "clickhouse":
	case "file":
		if c.Backtest.CandlesFile == "" {
			return fmt.Errorf("%w: для source=file нужен candles_file", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: неизвестный источник свечей %q", ErrInvalidConfig, c.Backtest.Source)
	}
	if c.Backtest.Source == "clickhouse" && c.Storage.ClickHouseDSN == "" {
		return fmt.Errorf("%w: для source=clickhouse нужен clickhouse_dsn", ErrInvalidConfig)
	}

	switch c.Storage.Journal {
	case "", "none":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: для journal=sqlite нужен sqlite_path", ErrInvalidConfig)
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: для journal=postgres нужен postgres_dsn", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: неизвестный журнал %q", ErrInvalidConfig, c.Storage.Journal)
	}

	if c.Exchange.Retry.MaxAttempts < 0 {
		return fmt.Errorf("%w: retry.max_attempts не может быть отрицательным", ErrInvalidConfig)
	}
	return nil
}

func (s StrategyConfig) Validate() error {
	switch {
	case s.Symbol == "":
		return fmt.Errorf("%w: не задана торговая пара", ErrInvalidConfig)
	case s.Interval == "":
		return fmt.Errorf("%w: не задан интервал свечей", ErrInvalidConfig)
	case s.OrderQty < 1:
		return fmt.Errorf("%w: order_qty должен быть >= 1, получено %d", ErrInvalidConfig, s.OrderQty)
	case s.GridRange < 0:
		return fmt.Errorf("%w: grid_range не может быть отрицательным", ErrInvalidConfig)
	case s.OrderDollarValue <= 0:
		return fmt.Errorf("%w: order_dollar_value должен быть > 0", ErrInvalidConfig)
	case s.InitialAmount <= 0:
		return fmt.Errorf("%w: initial_amount должен быть > 0", ErrInvalidConfig)
	case s.TickRound < 0 || s.QtyRound < 0:
		return fmt.Errorf("%w: tick_round и qty_round не могут быть отрицательными", ErrInvalidConfig)
	case s.Comm < 0 || s.Comm >= 1:
		return fmt.Errorf("%w: comm должна быть в диапазоне [0, 1), получено %v", ErrInvalidConfig, s.Comm)
	case s.TakeProfitPercent != nil && *s.TakeProfitPercent <= 0:
		return fmt.Errorf("%w: take_profit_percent должен быть > 0", ErrInvalidConfig)
	}
	return nil
}

// Range returns the backtest window in UTC; dates use DateLayout.
func (b BacktestConfig) Range() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, b.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %q: %v", ErrInvalidConfig, b.StartDate, err)
	}
	end, err := time.ParseInLocation(DateLayout, b.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %q: %v", ErrInvalidConfig, b.EndDate, err)
	}
	return start, end, nil
}

func envSub(val string) string {
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
