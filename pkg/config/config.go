package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/limaJavier/coursetable/pkg/logger"
	"github.com/limaJavier/coursetable/pkg/model"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const EnvPrefix = "TIMETABLE"

type Config struct {
	Log       logger.LogConfig `mapstructure:"log"`
	Scheduler SchedulerConfig  `mapstructure:"scheduler"`
}

type SchedulerConfig struct {
	MaxHoursPerDay     uint64            `mapstructure:"max_hours_per_day" validate:"min=1,max=12"`
	MaxSteps           uint64            `mapstructure:"max_steps" validate:"min=1"`
	Timeout            time.Duration     `mapstructure:"timeout" validate:"min=1ms"`
	Weights            model.SoftWeights `mapstructure:"weights"`
	DisablePropagation bool              `mapstructure:"disable_propagation"`
	MaxBlockingUnits   int               `mapstructure:"max_blocking_units" validate:"min=1"`
	TraceLimit         int               `mapstructure:"trace_limit" validate:"min=0"`
	Concurrency        int               `mapstructure:"concurrency" validate:"min=1"`
	Slots              model.SlotPolicy  `mapstructure:"slots"`

	DisableCapacityCheck bool `mapstructure:"disable_capacity_check"`
}

// Options converts the scheduler section into allocator options
func (config SchedulerConfig) Options(logger *zap.Logger) model.Options {
	return model.Options{
		MaxSteps:           config.MaxSteps,
		Timeout:            config.Timeout,
		Weights:            config.Weights,
		DisablePropagation: config.DisablePropagation,
		MaxBlockingUnits:   config.MaxBlockingUnits,
		TraceLimit:         config.TraceLimit,
		Logger:             logger,

		DisableCapacityCheck: config.DisableCapacityCheck,
	}
}

// Default returns the configuration Load yields when neither a file nor the environment set anything
func Default() Config {
	weights := model.DefaultSoftWeights()
	return Config{
		Log: logger.LogConfig{Level: "info", Format: "json"},
		Scheduler: SchedulerConfig{
			MaxHoursPerDay:   model.DefaultMaxHoursPerDay,
			MaxSteps:         model.DefaultMaxSteps,
			Timeout:          model.DefaultTimeout,
			Weights:          weights,
			MaxBlockingUnits: model.DefaultMaxBlockingUnits,
			TraceLimit:       model.DefaultTraceLimit,
			Concurrency:      4,
			Slots:            model.DefaultSlotPolicy(),
		},
	}
}

// Load reads the configuration from path (or ./config.{json,yaml} when path is empty) and TIMETABLE_* environment variables. A .env file in the working directory is loaded into the environment first
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	defaults := Default()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetDefault("scheduler.max_hours_per_day", defaults.Scheduler.MaxHoursPerDay)
	v.SetDefault("scheduler.max_steps", defaults.Scheduler.MaxSteps)
	v.SetDefault("scheduler.timeout", defaults.Scheduler.Timeout)
	v.SetDefault("scheduler.weights.load_balance", defaults.Scheduler.Weights.LoadBalance)
	v.SetDefault("scheduler.weights.back_to_back", defaults.Scheduler.Weights.BackToBack)
	v.SetDefault("scheduler.weights.day_spread", defaults.Scheduler.Weights.DaySpread)
	v.SetDefault("scheduler.weights.early_slot", defaults.Scheduler.Weights.EarlySlot)
	v.SetDefault("scheduler.disable_propagation", defaults.Scheduler.DisablePropagation)
	v.SetDefault("scheduler.max_blocking_units", defaults.Scheduler.MaxBlockingUnits)
	v.SetDefault("scheduler.trace_limit", defaults.Scheduler.TraceLimit)
	v.SetDefault("scheduler.concurrency", defaults.Scheduler.Concurrency)
	v.SetDefault("scheduler.disable_capacity_check", defaults.Scheduler.DisableCapacityCheck)
	v.SetDefault("scheduler.slots.lunch_start", defaults.Scheduler.Slots.LunchStart.String())
	v.SetDefault("scheduler.slots.lunch_end", defaults.Scheduler.Slots.LunchEnd.String())
	v.SetDefault("scheduler.slots.min_slot_minutes", defaults.Scheduler.Slots.MinMinutes)
	v.SetDefault("scheduler.slots.max_slot_minutes", defaults.Scheduler.Slots.MaxMinutes)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
	}

	var config Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&config, hooks); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (config *Config) Validate() error {
	if err := validate.Struct(config.Scheduler); err != nil {
		return fmt.Errorf("invalid scheduler config: %w", err)
	}
	weights := config.Scheduler.Weights
	if weights.LoadBalance < 0 || weights.BackToBack < 0 || weights.DaySpread < 0 || weights.EarlySlot < 0 {
		return fmt.Errorf("invalid scheduler config: soft weights cannot be negative: %+v", weights)
	}
	if err := config.Scheduler.Slots.Validate(); err != nil {
		return fmt.Errorf("invalid scheduler config: %w", err)
	}
	return nil
}

var validate = validator.New()
