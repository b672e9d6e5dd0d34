package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/sysmond/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultTickInterval   = 25   // milliseconds between feed ticks
	defaultCapacity       = 15   // samples retained per chart buffer
	defaultCheckInterval  = 1    // seconds between alert predicate polls
	defaultDebounceWindow = 2    // seconds a predicate must hold before firing
	defaultProbeInterval  = 10   // milliseconds between debounce probes
	defaultRearmDelay     = 300  // seconds before a fired alert may fire again
	defaultSummaryPeriod  = 3600 // seconds between periodic summaries

	defaultCPUThreshold    = 90.0
	defaultMemoryThreshold = 90.0
	defaultSwapThreshold   = 80.0
	defaultBatteryMinimum  = 15.0
)

type Config struct {
	TickInterval   int `mapstructure:"tick_interval"`
	Capacity       int `mapstructure:"capacity"`
	CheckInterval  int `mapstructure:"check_interval"`
	DebounceWindow int `mapstructure:"debounce_window"`
	ProbeInterval  int `mapstructure:"probe_interval"`
	RearmDelay     int `mapstructure:"rearm_delay"`
	SummaryPeriod  int `mapstructure:"summary_period"`

	CPUThreshold    float64 `mapstructure:"cpu_threshold"`
	MemoryThreshold float64 `mapstructure:"memory_threshold"`
	SwapThreshold   float64 `mapstructure:"swap_threshold"`
	BatteryMinimum  float64 `mapstructure:"battery_minimum"`

	LogDir    string `mapstructure:"log_dir"`
	LogLevel  string `mapstructure:"log_level"`
	History   bool   `mapstructure:"history"`
	HistoryDB string `mapstructure:"history_db"`

	Monitor bool `mapstructure:"monitor"`
	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	errFactory := errors.New()
	v := viper.New()

	setDefaults(v)

	flags := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	// Tolerate foreign flags so Load works inside test binaries.
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Int("tick-interval", defaultTickInterval, "Milliseconds between chart feed ticks")
	flags.Int("check-interval", defaultCheckInterval, "Seconds between alert condition polls")
	flags.Int("rearm-delay", defaultRearmDelay, "Seconds before a fired alert re-arms")
	flags.Int("summary-period", defaultSummaryPeriod, "Seconds between periodic summaries")
	flags.String("log-dir", "logs", "Directory for per-stream audit logs")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("monitor", false, "Only sample metrics; do not arm notifications")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	bindings := map[string]string{
		"tick-interval":  "tick_interval",
		"check-interval": "check_interval",
		"rearm-delay":    "rearm_delay",
		"summary-period": "summary_period",
		"log-dir":        "log_dir",
		"log-level":      "log_level",
		"monitor":        "monitor",
		"debug":          "debug",
		"verbose":        "verbose",
	}
	for flagName, key := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("SYSMOND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tick_interval", defaultTickInterval)
	v.SetDefault("capacity", defaultCapacity)
	v.SetDefault("check_interval", defaultCheckInterval)
	v.SetDefault("debounce_window", defaultDebounceWindow)
	v.SetDefault("probe_interval", defaultProbeInterval)
	v.SetDefault("rearm_delay", defaultRearmDelay)
	v.SetDefault("summary_period", defaultSummaryPeriod)
	v.SetDefault("cpu_threshold", defaultCPUThreshold)
	v.SetDefault("memory_threshold", defaultMemoryThreshold)
	v.SetDefault("swap_threshold", defaultSwapThreshold)
	v.SetDefault("battery_minimum", defaultBatteryMinimum)
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("history", false)
	v.SetDefault("history_db", "/var/lib/sysmond/history.db")
	v.SetDefault("monitor", false)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
}

func readConfigFile(v *viper.Viper) error {
	errFactory := errors.New()

	if path := os.Getenv("SYSMOND_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sysmond")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
	}

	return nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	for name, value := range map[string]int{
		"tick_interval":  c.TickInterval,
		"capacity":       c.Capacity,
		"check_interval": c.CheckInterval,
		"probe_interval": c.ProbeInterval,
		"rearm_delay":    c.RearmDelay,
		"summary_period": c.SummaryPeriod,
	} {
		if value <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, name)
		}
	}

	if c.DebounceWindow < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, "debounce_window")
	}

	for name, value := range map[string]float64{
		"cpu_threshold":    c.CPUThreshold,
		"memory_threshold": c.MemoryThreshold,
		"swap_threshold":   c.SwapThreshold,
		"battery_minimum":  c.BatteryMinimum,
	} {
		if value < 0 || value > 100 {
			return errFactory.WithData(errors.ErrInvalidConfig, name)
		}
	}

	return nil
}
