package sweep

import (
	"errors"
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("sweep: invalid configuration")

// Config fixes one sweep run. Everything is settled before the run starts;
// nothing is reconfigurable mid-flight.
type Config struct {
	IDs      []uint8
	Port     string
	BaudRate int

	MinCommand int
	MaxCommand int
	SweepStep  int
	// SweepSettle is the pause between commanding a sweep point and sampling
	// feedback, so measured speed reflects the new command.
	SweepSettle time.Duration

	RampStep   int
	RampDelay  time.Duration
	RampSettle time.Duration

	Acceleration uint8
	ConfigDelay  time.Duration
	ConfigSettle time.Duration
	// ShutdownSettle is the wait between the all-zero speed batch and torque
	// release, giving the command time to take mechanical effect.
	ShutdownSettle time.Duration
}

// Default returns the configuration of the bench harness this tool grew
// from: three wheel-mode servos on a 1 Mbaud bus, swept across their full
// command range.
func Default() Config {
	return Config{
		IDs:            []uint8{7, 8, 9},
		Port:           "/dev/ttySERVO",
		BaudRate:       1_000_000,
		MinCommand:     -2400,
		MaxCommand:     2400,
		SweepStep:      100,
		SweepSettle:    500 * time.Millisecond,
		RampStep:       200,
		RampDelay:      250 * time.Millisecond,
		RampSettle:     200 * time.Millisecond,
		Acceleration:   254,
		ConfigDelay:    100 * time.Millisecond,
		ConfigSettle:   500 * time.Millisecond,
		ShutdownSettle: 500 * time.Millisecond,
	}
}

// Validate checks the run invariants before any bus traffic.
func (c Config) Validate() error {
	if len(c.IDs) == 0 {
		return fmt.Errorf("%w: no servo ids", ErrInvalidConfig)
	}
	seen := make(map[uint8]bool, len(c.IDs))
	for _, id := range c.IDs {
		if id == 0 {
			return fmt.Errorf("%w: servo id must be positive", ErrInvalidConfig)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate servo id %d", ErrInvalidConfig, id)
		}
		seen[id] = true
	}
	if c.Port == "" {
		return fmt.Errorf("%w: port not set", ErrInvalidConfig)
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("%w: baud rate must be positive", ErrInvalidConfig)
	}
	if c.MinCommand > c.MaxCommand {
		return fmt.Errorf("%w: min command %d above max %d", ErrInvalidConfig, c.MinCommand, c.MaxCommand)
	}
	if c.SweepStep <= 0 {
		return fmt.Errorf("%w: sweep step must be positive", ErrInvalidConfig)
	}
	if c.RampStep <= 0 {
		return fmt.Errorf("%w: ramp step must be positive", ErrInvalidConfig)
	}
	return nil
}

// FileConfig mirrors Config but uses strings for durations to make TOML
// friendly. Pointer fields distinguish "absent" from legitimate zero or
// negative values.
type FileConfig struct {
	IDs            []int  `toml:"ids"`
	Port           string `toml:"port"`
	BaudRate       int    `toml:"baud_rate"`
	MinCommand     *int   `toml:"min_command"`
	MaxCommand     *int   `toml:"max_command"`
	SweepStep      int    `toml:"sweep_step"`
	SweepSettle    string `toml:"sweep_settle"`
	RampStep       int    `toml:"ramp_step"`
	RampDelay      string `toml:"ramp_delay"`
	RampSettle     string `toml:"ramp_settle"`
	Acceleration   *int   `toml:"acceleration"`
	ConfigDelay    string `toml:"config_delay"`
	ConfigSettle   string `toml:"config_settle"`
	ShutdownSettle string `toml:"shutdown_settle"`
}

// LoadFile reads a TOML config and applies it over the built-in defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var fc FileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := fc.apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (fc FileConfig) apply(cfg *Config) error {
	if len(fc.IDs) > 0 {
		ids := make([]uint8, 0, len(fc.IDs))
		for _, id := range fc.IDs {
			if id < 1 || id > 253 {
				return fmt.Errorf("%w: servo id %d out of range", ErrInvalidConfig, id)
			}
			ids = append(ids, uint8(id))
		}
		cfg.IDs = ids
	}
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.BaudRate != 0 {
		cfg.BaudRate = fc.BaudRate
	}
	if fc.MinCommand != nil {
		cfg.MinCommand = *fc.MinCommand
	}
	if fc.MaxCommand != nil {
		cfg.MaxCommand = *fc.MaxCommand
	}
	if fc.SweepStep != 0 {
		cfg.SweepStep = fc.SweepStep
	}
	if fc.RampStep != 0 {
		cfg.RampStep = fc.RampStep
	}
	if fc.Acceleration != nil {
		if *fc.Acceleration < 0 || *fc.Acceleration > 254 {
			return fmt.Errorf("%w: acceleration %d out of range", ErrInvalidConfig, *fc.Acceleration)
		}
		cfg.Acceleration = uint8(*fc.Acceleration)
	}
	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"sweep_settle", fc.SweepSettle, &cfg.SweepSettle},
		{"ramp_delay", fc.RampDelay, &cfg.RampDelay},
		{"ramp_settle", fc.RampSettle, &cfg.RampSettle},
		{"config_delay", fc.ConfigDelay, &cfg.ConfigDelay},
		{"config_settle", fc.ConfigSettle, &cfg.ConfigSettle},
		{"shutdown_settle", fc.ShutdownSettle, &cfg.ShutdownSettle},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}
