package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/argo-bh/internal/notifier"
	"github.com/rxtech-lab/argo-bh/internal/scanner"
	"github.com/rxtech-lab/argo-bh/internal/scheduler"
	"github.com/rxtech-lab/argo-bh/internal/strategy"
	"github.com/rxtech-lab/argo-bh/internal/version"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata"
	"github.com/rxtech-lab/argo-bh/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPairsFile  = "trading_pairs.csv"
	DefaultSQLitePath = "data/bhbot.db"
	DefaultLogLevel   = "info"
)

// Environment variables that override values from the config file.
const (
	EnvTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID    = "TELEGRAM_CHAT_ID"
	EnvTelegramBotToken2 = "TELEGRAM_BOT_TOKEN_2"
	EnvTelegramChatID2   = "TELEGRAM_CHAT_ID_2"
	EnvPairsFile         = "BH_PAIRS_FILE"
	EnvTimeframe         = "BH_TIMEFRAME"
	EnvSchedule          = "BH_SCHEDULE"
	EnvRunOnStart        = "BH_RUN_ON_START"
	EnvPolygonAPIKey     = "POLYGON_API_KEY"
	EnvSQLitePath        = "BH_SQLITE_PATH"
	EnvLogLevel          = "BH_LOG_LEVEL"
)

type TelegramConfig struct {
	Bots []notifier.Target `yaml:"bots" json:"bots" validate:"dive" jsonschema:"title=Bots,description=Every bot receives each signal message"`
	// BaseURL overrides the Bot API endpoint.
	BaseURL    string `yaml:"base_url" json:"base_url,omitempty" validate:"omitempty,url" jsonschema:"title=Bot API base URL"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries" validate:"gte=0" jsonschema:"title=Max retries,minimum=0,default=3"`
}

type MarketConfig struct {
	Provider       string `yaml:"provider" json:"provider" validate:"required,oneof=binance polygon" jsonschema:"title=Provider,enum=binance,enum=polygon,default=binance"`
	BinanceBaseURL string `yaml:"binance_base_url" json:"binance_base_url,omitempty" validate:"omitempty,url" jsonschema:"title=Binance base URL"`
	PolygonAPIKey  string `yaml:"polygon_api_key" json:"polygon_api_key,omitempty" validate:"required_if=Provider polygon" jsonschema:"title=Polygon API key"`
}

type ScanConfig struct {
	PairsFile   string `yaml:"pairs_file" json:"pairs_file" validate:"required" jsonschema:"title=Pairs file,description=CSV file with a symbol column,default=trading_pairs.csv"`
	Timeframe   string `yaml:"timeframe" json:"timeframe" validate:"required" jsonschema:"title=Timeframe,default=2h"`
	Limit       int    `yaml:"limit" json:"limit" validate:"gte=0" jsonschema:"title=Candle limit,description=Candles fetched per pair,default=100"`
	Concurrency int    `yaml:"concurrency" json:"concurrency" validate:"gte=1" jsonschema:"title=Concurrency,minimum=1,default=8"`
}

type ScheduleConfig struct {
	Cron       string `yaml:"cron" json:"cron" validate:"required" jsonschema:"title=Cron schedule,description=Five field cron expression with optional CRON_TZ prefix"`
	RunOnStart bool   `yaml:"run_on_start" json:"run_on_start" jsonschema:"title=Run on start"`
}

type DatabaseConfig struct {
	// SQLitePath enables scan history recording. Empty disables it.
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path" jsonschema:"title=SQLite path"`
}

// Config is the bot configuration file.
type Config struct {
	Version  string          `yaml:"version" json:"version,omitempty" jsonschema:"title=Config version,description=bhbot version the file was written for"`
	LogLevel string          `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error" jsonschema:"title=Log level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Telegram TelegramConfig  `yaml:"telegram" json:"telegram"`
	Market   MarketConfig    `yaml:"market" json:"market"`
	Scan     ScanConfig      `yaml:"scan" json:"scan"`
	Schedule ScheduleConfig  `yaml:"schedule" json:"schedule"`
	Strategy strategy.Config `yaml:"strategy" json:"strategy"`
	Database DatabaseConfig  `yaml:"database" json:"database"`
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Version:  "",
		LogLevel: DefaultLogLevel,
		Telegram: TelegramConfig{Bots: nil, BaseURL: "", MaxRetries: 3},
		Market: MarketConfig{
			Provider:       string(provider.ProviderBinance),
			BinanceBaseURL: "",
			PolygonAPIKey:  "",
		},
		Scan: ScanConfig{
			PairsFile:   DefaultPairsFile,
			Timeframe:   scanner.DefaultInterval,
			Limit:       scanner.DefaultLimit,
			Concurrency: scanner.DefaultConcurrency,
		},
		Schedule: ScheduleConfig{Cron: scheduler.DefaultSchedule, RunOnStart: false},
		Strategy: strategy.DefaultConfig(),
		Database: DatabaseConfig{SQLitePath: DefaultSQLitePath},
	}
}

// Load reads path on top of Default and applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
		}

		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setBot := func(index int, tokenEnv, chatEnv string) {
		token, hasToken := os.LookupEnv(tokenEnv)
		chat, hasChat := os.LookupEnv(chatEnv)

		if !hasToken && !hasChat {
			return
		}

		for len(c.Telegram.Bots) <= index {
			c.Telegram.Bots = append(c.Telegram.Bots, notifier.Target{})
		}

		if hasToken {
			c.Telegram.Bots[index].BotToken = token
		}

		if hasChat {
			c.Telegram.Bots[index].ChatID = chat
		}
	}

	setBot(0, EnvTelegramBotToken, EnvTelegramChatID)
	setBot(1, EnvTelegramBotToken2, EnvTelegramChatID2)

	if v, ok := os.LookupEnv(EnvPairsFile); ok {
		c.Scan.PairsFile = v
	}

	if v, ok := os.LookupEnv(EnvTimeframe); ok {
		c.Scan.Timeframe = v
	}

	if v, ok := os.LookupEnv(EnvSchedule); ok {
		c.Schedule.Cron = v
	}

	if v, ok := os.LookupEnv(EnvRunOnStart); ok {
		runOnStart, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "%s must be a boolean", EnvRunOnStart)
		}

		c.Schedule.RunOnStart = runOnStart
	}

	if v, ok := os.LookupEnv(EnvPolygonAPIKey); ok {
		c.Market.PolygonAPIKey = v
	}

	if v, ok := os.LookupEnv(EnvSQLitePath); ok {
		c.Database.SQLitePath = v
	}

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}

	return nil
}

// Validate checks field constraints, the timeframe, the schedule, the strategy and the config version.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if _, err := marketdata.ParseTimespan(c.Scan.Timeframe); err != nil {
		return err
	}

	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schedule %q", c.Schedule.Cron)
	}

	strategyConfig := c.Strategy.WithDefaults()
	if err := strategyConfig.Validate(); err != nil {
		return err
	}

	if c.Scan.Limit > 0 && c.Scan.Limit < strategyConfig.BollingerPeriod+1 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"scan limit %d is below the %d candles a signal needs", c.Scan.Limit, strategyConfig.BollingerPeriod+1)
	}

	if c.Version != "" {
		if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
			return err
		}
	}

	return nil
}

// ValidateForDelivery additionally requires at least one notification target.
func (c Config) ValidateForDelivery() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if len(c.Telegram.Bots) == 0 {
		return errors.Newf(errors.ErrCodeMissingParameter,
			"no telegram bot configured: set telegram.bots or %s and %s", EnvTelegramBotToken, EnvTelegramChatID)
	}

	return nil
}

// ProviderConfig returns the fetcher settings.
func (c Config) ProviderConfig() provider.Config {
	return provider.Config{
		PolygonApiKey:  c.Market.PolygonAPIKey,
		BinanceBaseURL: c.Market.BinanceBaseURL,
	}
}

// ScannerConfig returns the scanner settings.
func (c Config) ScannerConfig() scanner.Config {
	return scanner.Config{
		Interval:    c.Scan.Timeframe,
		Limit:       c.Scan.Limit,
		Concurrency: c.Scan.Concurrency,
	}
}

// SchedulerConfig returns the scheduler settings.
func (c Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Schedule:   c.Schedule.Cron,
		Timeframe:  c.Scan.Timeframe,
		RunOnStart: c.Schedule.RunOnStart,
	}
}

// GenerateSchemaJSON returns the JSON schema of the config file.
func GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "bhbot-config"
	schema.Description = "Configuration of the Bollinger Heikin-Ashi signal bot"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(data), nil
}
