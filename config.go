// SPDX-License-Identifier: MIT

package uniplay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/uniplay/internal/live"
	"github.com/ManuGH/uniplay/internal/log"
)

// Config carries the player tunables. The zero value is not usable; start
// from DefaultConfig, ConfigFromEnv or LoadConfigFile.
type Config struct {
	// UserAgent identifies the embedding client for backend selection.
	UserAgent string `yaml:"userAgent"`
	// NativeHLS reports whether the runtime can decode HLS natively.
	NativeHLS bool `yaml:"nativeHLS"`

	// ProbeTimeout bounds each manifest classification request.
	ProbeTimeout time.Duration `yaml:"probeTimeout"`

	// LiveEdgeMargin is the distance (seconds) from the live-sync position
	// still counted as at the edge.
	LiveEdgeMargin float64 `yaml:"liveEdgeMargin"`
	// MinSeekableWindow is the live window (seconds) required before live
	// seeking is enabled.
	MinSeekableWindow float64 `yaml:"minSeekableWindow"`

	// StartVolume is the element volume applied at construction, 0..1.
	StartVolume float64 `yaml:"startVolume"`
	// StartMuted mutes the element at construction.
	StartMuted bool `yaml:"startMuted"`

	// LogLevel sets the global log level ("debug", "info", ...).
	LogLevel string `yaml:"logLevel"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ProbeTimeout:      5 * time.Second,
		LiveEdgeMargin:    live.DefaultEdgeMargin,
		MinSeekableWindow: live.DefaultMinSeekableWindow,
		StartVolume:       1,
	}
}

// ConfigFromEnv builds a config from UNIPLAY_* environment variables on top
// of the defaults. Unparseable values are logged and skipped.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("UNIPLAY_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("UNIPLAY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	envBool("UNIPLAY_NATIVE_HLS", &cfg.NativeHLS)
	envBool("UNIPLAY_START_MUTED", &cfg.StartMuted)
	envDuration("UNIPLAY_PROBE_TIMEOUT", &cfg.ProbeTimeout)
	envFloat("UNIPLAY_LIVE_EDGE_MARGIN", &cfg.LiveEdgeMargin)
	envFloat("UNIPLAY_MIN_SEEKABLE_WINDOW", &cfg.MinSeekableWindow)
	envFloat("UNIPLAY_START_VOLUME", &cfg.StartVolume)
	return cfg
}

func envBool(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().Str("key", key).Str("value", v).Msg("ignoring unparseable boolean")
		return
	}
	*dst = parsed
}

func envFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().Str("key", key).Str("value", v).Msg("ignoring unparseable float")
		return
	}
	*dst = parsed
}

func envDuration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().Str("key", key).Str("value", v).Msg("ignoring unparseable duration")
		return
	}
	*dst = parsed
}

// LoadConfigFile reads a YAML config file on top of the defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.StartVolume < 0 || c.StartVolume > 1 {
		return fmt.Errorf("startVolume %v out of range [0,1]", c.StartVolume)
	}
	if c.LiveEdgeMargin < 0 {
		return fmt.Errorf("liveEdgeMargin %v must not be negative", c.LiveEdgeMargin)
	}
	if c.MinSeekableWindow < 0 {
		return fmt.Errorf("minSeekableWindow %v must not be negative", c.MinSeekableWindow)
	}
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("probeTimeout %v must not be negative", c.ProbeTimeout)
	}
	return nil
}

func (c Config) livePolicy() live.Policy {
	return live.Policy{
		EdgeMargin:        c.LiveEdgeMargin,
		MinSeekableWindow: c.MinSeekableWindow,
	}
}

// WatchConfig reloads path on every write and hands the parsed result to
// onChange. Invalid intermediate states are logged and skipped. The watcher
// stops when ctx is cancelled.
func WatchConfig(ctx context.Context, path string, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	// Watch the directory: editors replace files atomically, which would
	// otherwise drop the watch on the first write.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("config watcher: %w", err)
	}

	logger := log.WithComponent("config")
	target := filepath.Clean(path)
	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Debug().Err(err).Msg("failed to close config watcher")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadConfigFile(target)
				if err != nil {
					logger.Warn().Err(err).Str("path", target).Msg("config reload skipped")
					continue
				}
				logger.Info().Str("path", target).Msg("config reloaded")
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("config watcher error")
			}
		}
	}()
	return nil
}
