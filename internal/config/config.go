// Package config loads process configuration from MUDRA_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/ayusman/mudra/internal/filter"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/pointer"
)

// Config is the process configuration.
type Config struct {
	Env       string `env:"MUDRA_ENV" envDefault:"development"`
	Addr      string `env:"MUDRA_ADDR" envDefault:"127.0.0.1:8080"`
	DataDir   string `env:"MUDRA_DATA_DIR"`
	StaticDir string `env:"MUDRA_WEB_DIR"`
	LogLevel  string `env:"MUDRA_LOG_LEVEL" envDefault:"info"`
	Tray      bool   `env:"MUDRA_TRAY" envDefault:"false"`
	// Profile names the stored profile applied at startup, overriding the
	// remembered active one.
	Profile string `env:"MUDRA_PROFILE"`

	CameraID     int     `env:"MUDRA_CAMERA" envDefault:"0"`
	FPS          int     `env:"MUDRA_FPS" envDefault:"30"`
	Width        int     `env:"MUDRA_CAMERA_WIDTH" envDefault:"640"`
	Height       int     `env:"MUDRA_CAMERA_HEIGHT" envDefault:"480"`
	Mirror       bool    `env:"MUDRA_MIRROR" envDefault:"true"`
	MotionThresh float64 `env:"MUDRA_MOTION_THRESHOLD" envDefault:"1.0"`
	MaxHands     int     `env:"MUDRA_MAX_HANDS" envDefault:"2"`
	ScriptPath   string  `env:"MUDRA_DETECTOR_SCRIPT"`

	ScreenWidth  float64 `env:"MUDRA_SCREEN_WIDTH" envDefault:"1920"`
	ScreenHeight float64 `env:"MUDRA_SCREEN_HEIGHT" envDefault:"1080"`

	Smoother      string  `env:"MUDRA_SMOOTHER" envDefault:"one_euro"`
	MinCutoff     float64 `env:"MUDRA_MIN_CUTOFF" envDefault:"1.0"`
	Beta          float64 `env:"MUDRA_BETA" envDefault:"0.007"`
	Predict       bool    `env:"MUDRA_PREDICT" envDefault:"false"`
	Lookahead     float64 `env:"MUDRA_LOOKAHEAD" envDefault:"3"`
	GateEnterDeg  float64 `env:"MUDRA_GATE_ENTER" envDefault:"25"`
	GateExitDeg   float64 `env:"MUDRA_GATE_EXIT" envDefault:"35"`
	MinConfidence float64 `env:"MUDRA_MIN_CONFIDENCE" envDefault:"0.7"`
	ArmStableMs   int64   `env:"MUDRA_ARM_STABLE_MS" envDefault:"200"`
	CmdWindowMs   int64   `env:"MUDRA_CMD_WINDOW_MS" envDefault:"500"`
	PointerType   string  `env:"MUDRA_POINTER_TYPE" envDefault:"touch"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Production reports whether MUDRA_ENV selects production.
func (c Config) Production() bool {
	return c.Env == "production"
}

// DataPath returns the data directory, ~/.mudra unless overridden.
func (c Config) DataPath() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, ".mudra"), nil
}

// Screen returns the rectangle pointer events map onto.
func (c Config) Screen() pointer.Bounds {
	return pointer.Bounds{Width: c.ScreenWidth, Height: c.ScreenHeight}
}

// Pipeline builds and validates the pipeline configuration described by
// the environment.
func (c Config) Pipeline() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()

	kind, err := filter.ParseKind(c.Smoother)
	if err != nil {
		return cfg, err
	}
	cfg.Smoother.Kind = kind
	cfg.Smoother.OneEuro.MinCutoff = c.MinCutoff
	cfg.Smoother.OneEuro.Beta = c.Beta
	cfg.Smoother.OneEuro.Frequency = float64(c.FPS)

	if c.Predict {
		p := filter.DefaultDESPConfig()
		p.Lookahead = c.Lookahead
		p.Frequency = float64(c.FPS)
		cfg.Predictor = &p
	}

	cfg.Orientation.EnterDeg = c.GateEnterDeg
	cfg.Orientation.ExitDeg = c.GateExitDeg
	cfg.FSM.MinConfidence = c.MinConfidence
	cfg.FSM.ArmStableMs = c.ArmStableMs
	cfg.FSM.CmdWindowMs = c.CmdWindowMs
	cfg.PointerType = pointer.Type(c.PointerType)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
