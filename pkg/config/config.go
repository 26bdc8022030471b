// Package config loads bstviz configuration from a YAML file, BSTVIZ_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
	"github.com/Sumatoshi-tech/bstviz/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrInvalidPort      = errors.New("invalid server port")
	ErrInvalidTickRate  = errors.New("tick rate must be positive")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidCapacity  = errors.New("recorder capacity must be positive")
	ErrInvalidSeedKey   = errors.New("invalid seed key")
	ErrInvalidRatio     = errors.New("sample ratio must be within [0, 1]")
)

const (
	maxPort   = 65535
	envPrefix = "BSTVIZ"
)

var logFormats = []string{"text", "json"}

// Config holds all configuration for bstviz.
type Config struct {
	Layout    LayoutConfig    `mapstructure:"layout"`
	Animation AnimationConfig `mapstructure:"animation"`
	Tree      TreeConfig      `mapstructure:"tree"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LayoutConfig holds the node geometry.
type LayoutConfig struct {
	HorizontalSpacing float64 `mapstructure:"horizontal_spacing"`
	VerticalSpacing   float64 `mapstructure:"vertical_spacing"`
	NodeRadius        float64 `mapstructure:"node_radius"`
	AnchorX           float64 `mapstructure:"anchor_x"`
	AnchorY           float64 `mapstructure:"anchor_y"`
	CameraMargin      float64 `mapstructure:"camera_margin"`
	InitialViewSize   float64 `mapstructure:"initial_view_size"`
}

// AnimationConfig holds motion and timing knobs.
type AnimationConfig struct {
	MoveSpeed      float64       `mapstructure:"move_speed"`
	Epsilon        float64       `mapstructure:"epsilon"`
	SearchStep     time.Duration `mapstructure:"search_step"`
	SearchDecay    time.Duration `mapstructure:"search_decay"`
	HighlightDecay time.Duration `mapstructure:"highlight_decay"`
	// TickRate is the number of ticks per second driven by a session.
	TickRate int `mapstructure:"tick_rate"`
	// SettleTicks bounds the ticks spent waiting for a layout to rest.
	SettleTicks int `mapstructure:"settle_ticks"`
}

// TreeConfig holds the initial tree content.
type TreeConfig struct {
	Seed []int `mapstructure:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecorderConfig holds the frame recorder settings.
type RecorderConfig struct {
	Capacity int `mapstructure:"capacity"`
	// Every keeps one frame out of Every ticks.
	Every int `mapstructure:"every"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	Prometheus   bool    `mapstructure:"prometheus"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
	TraceVerbose bool    `mapstructure:"trace_verbose"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// LoadConfig loads configuration from configPath, or from bstviz.yaml in the
// working directory, ./config or /etc/bstviz when configPath is empty. A
// missing default file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("bstviz")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/bstviz")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults always decode.
	_ = viperCfg.Unmarshal(&config)

	return &config
}

func setDefaults(viperCfg *viper.Viper) {
	params := layout.DefaultParams()

	// Layout defaults.
	viperCfg.SetDefault("layout.horizontal_spacing", params.HorizontalSpacing)
	viperCfg.SetDefault("layout.vertical_spacing", params.VerticalSpacing)
	viperCfg.SetDefault("layout.node_radius", params.NodeRadius)
	viperCfg.SetDefault("layout.anchor_x", params.Anchor.X)
	viperCfg.SetDefault("layout.anchor_y", params.Anchor.Y)
	viperCfg.SetDefault("layout.camera_margin", params.CameraMargin)
	viperCfg.SetDefault("layout.initial_view_size", params.InitialViewSize)

	// Animation defaults.
	viperCfg.SetDefault("animation.move_speed", params.MoveSpeed)
	viperCfg.SetDefault("animation.epsilon", params.Epsilon)
	viperCfg.SetDefault("animation.search_step", params.SearchStep)
	viperCfg.SetDefault("animation.search_decay", params.SearchDecay)
	viperCfg.SetDefault("animation.highlight_decay", params.HighlightDecay)
	viperCfg.SetDefault("animation.tick_rate", DefaultTickRate)
	viperCfg.SetDefault("animation.settle_ticks", DefaultSettleTicks)

	viperCfg.SetDefault("tree.seed", DefaultSeed)

	// Server defaults.
	viperCfg.SetDefault("server.host", DefaultHost)
	viperCfg.SetDefault("server.port", DefaultPort)
	viperCfg.SetDefault("server.read_timeout", DefaultReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	viperCfg.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("recorder.capacity", DefaultRecorderCapacity)
	viperCfg.SetDefault("recorder.every", DefaultRecorderEvery)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.prometheus", true)
	viperCfg.SetDefault("telemetry.debug_trace", false)
	viperCfg.SetDefault("telemetry.trace_verbose", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
}

// Validate checks the values that the layout parameters do not cover.
func (config *Config) Validate() error {
	if config.Server.Port <= 0 || config.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if config.Animation.TickRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTickRate, config.Animation.TickRate)
	}

	if _, err := config.LogLevel(); err != nil {
		return err
	}

	if !slices.Contains(logFormats, config.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Recorder.Capacity <= 0 || config.Recorder.Every <= 0 {
		return fmt.Errorf("%w: capacity %d, every %d", ErrInvalidCapacity, config.Recorder.Capacity, config.Recorder.Every)
	}

	for _, key := range config.Tree.Seed {
		if key < 0 || key > command.MaxKey {
			return fmt.Errorf("%w: %d outside 0..%d", ErrInvalidSeedKey, key, command.MaxKey)
		}
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidRatio, config.Telemetry.SampleRatio)
	}

	if err := config.LayoutParams().Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	return nil
}

// LayoutParams converts the layout and animation sections.
func (config *Config) LayoutParams() layout.Params {
	return layout.Params{
		HorizontalSpacing: config.Layout.HorizontalSpacing,
		VerticalSpacing:   config.Layout.VerticalSpacing,
		MoveSpeed:         config.Animation.MoveSpeed,
		Epsilon:           config.Animation.Epsilon,
		NodeRadius:        config.Layout.NodeRadius,
		SearchStep:        config.Animation.SearchStep,
		SearchDecay:       config.Animation.SearchDecay,
		HighlightDecay:    config.Animation.HighlightDecay,
		CameraMargin:      config.Layout.CameraMargin,
		InitialViewSize:   config.Layout.InitialViewSize,
		Anchor:            layout.Vec2{X: config.Layout.AnchorX, Y: config.Layout.AnchorY},
	}
}

// TickInterval returns the wall-clock period between two session ticks.
func (config *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(config.Animation.TickRate)
}

// LogLevel parses the logging level.
func (config *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(config.Logging.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	return level, nil
}

// Observability converts the logging and telemetry sections for the given
// launch mode and binary version.
func (config *Config) Observability(mode observability.AppMode, version string) observability.Config {
	obs := observability.DefaultConfig()
	obs.Mode = mode
	obs.ServiceVersion = version
	obs.Environment = config.Telemetry.Environment
	obs.OTLPEndpoint = config.Telemetry.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(config.Telemetry.OTLPHeaders)
	obs.OTLPInsecure = config.Telemetry.OTLPInsecure
	obs.Prometheus = config.Telemetry.Prometheus
	obs.DebugTrace = config.Telemetry.DebugTrace
	obs.TraceVerbose = config.Telemetry.TraceVerbose
	obs.SampleRatio = config.Telemetry.SampleRatio
	obs.LogJSON = config.Logging.Format == "json"

	if level, err := config.LogLevel(); err == nil {
		obs.LogLevel = level
	}

	return obs
}
