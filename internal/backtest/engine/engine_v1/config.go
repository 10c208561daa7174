package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-bh/internal/strategy"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInitialCapital = 10000.0
	DefaultWarmUp         = 30
	DefaultConcurrency    = 4
)

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital of every replayed symbol,exclusiveMinimum=0,default=10000"`
	WarmUp         int                        `yaml:"warm_up" json:"warm_up" jsonschema:"title=Warm Up,description=Index of the first evaluated candle. Must be at least the Bollinger period,minimum=2,default=30"`
	Concurrency    int                        `yaml:"concurrency" json:"concurrency" jsonschema:"title=Concurrency,description=Maximum number of symbols replayed at the same time,minimum=1,default=4"`
	Interval       datasource.Interval        `yaml:"interval" json:"interval,omitempty" jsonschema:"title=Interval,description=Optional resampling interval applied to parquet data,enum=1m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d,enum=1w"`
	Strategy       strategy.Config            `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Detector parameters"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
}

// UnmarshalYAML decodes on top of the current values, so fields missing from the
// document keep their defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		InitialCapital float64             `yaml:"initial_capital"`
		WarmUp         int                 `yaml:"warm_up"`
		Concurrency    int                 `yaml:"concurrency"`
		Interval       datasource.Interval `yaml:"interval"`
		Strategy       strategy.Config     `yaml:"strategy"`
		StartTime      *time.Time          `yaml:"start_time"`
		EndTime        *time.Time          `yaml:"end_time"`
	}

	raw := rawConfig{
		InitialCapital: c.InitialCapital,
		WarmUp:         c.WarmUp,
		Concurrency:    c.Concurrency,
		Interval:       c.Interval,
		Strategy:       c.Strategy,
		StartTime:      nil,
		EndTime:        nil,
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.InitialCapital = raw.InitialCapital
	c.WarmUp = raw.WarmUp
	c.Concurrency = raw.Concurrency
	c.Interval = raw.Interval
	c.Strategy = raw.Strategy

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Validate checks the engine parameters and the strategy parameters.
func (c BacktestEngineV1Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "initial capital must be positive, got %f", c.InitialCapital)
	}

	if c.Concurrency < 1 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "concurrency must be at least 1, got %d", c.Concurrency)
	}

	strategyConfig := c.Strategy.WithDefaults()
	if err := strategyConfig.Validate(); err != nil {
		return err
	}

	if c.WarmUp < strategyConfig.BollingerPeriod {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"warm up %d must be at least the bollinger period %d", c.WarmUp, strategyConfig.BollingerPeriod)
	}

	if c.Interval != "" {
		if _, err := datasource.ParseInterval(string(c.Interval)); err != nil {
			return err
		}
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end time is before start time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time) BacktestEngineV1Config {
	config := EmptyConfig()
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: DefaultInitialCapital,
		WarmUp:         DefaultWarmUp,
		Concurrency:    DefaultConcurrency,
		Interval:       "",
		Strategy:       strategy.DefaultConfig(),
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}
