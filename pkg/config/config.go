// Package config loads a Detector's settings from YAML/JSON/env, the way
// the teacher's pkg/config loads bond settings from a JSON file - a
// mutex-guarded struct with watch channels for live updates - except the
// parsing here is delegated to viper instead of hand-rolled encoding/json.
// The file is not watched: watchers are notified each time Load is called.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/protosentry/detector/pkg/engine"
	"github.com/protosentry/detector/pkg/probe"
	"github.com/protosentry/detector/pkg/protocol"
)

// FileConfig is the on-disk/env shape viper binds into, one field per
// engine.DetectionConfig / probe.Config knob. Durations and protocol
// names are strings here so the file stays human-editable; Build parses
// them into the typed engine config.
type FileConfig struct {
	EnabledProtocols []string `mapstructure:"enabled_protocols"`
	MinConfidence    float64  `mapstructure:"min_confidence"`
	MinDataSize      int      `mapstructure:"min_data_size"`
	MaxDataSize      int      `mapstructure:"max_data_size"`

	Probe struct {
		Strategy        string `mapstructure:"strategy"`
		MaxProbeTime    string `mapstructure:"max_probe_time"`
		MinConfidence   float64 `mapstructure:"min_confidence"`
		EnableSIMD      bool   `mapstructure:"enable_simd"`
		EnableHeuristic bool   `mapstructure:"enable_heuristic"`
		BufferSize      int    `mapstructure:"buffer_size"`
	} `mapstructure:"probe"`
}

// Config wraps a loaded FileConfig with the teacher's watch/reload
// machinery: a mutex-guarded current value and channels subscribers can
// receive updates on.
type Config struct {
	v       *viper.Viper
	hasFile bool

	mu       sync.RWMutex
	current  FileConfig
	watchers []chan FileConfig
}

// New returns a Config ready to Load from path. path may be empty, in
// which case only defaults and environment variables apply.
func New(path string) *Config {
	v := viper.New()
	hasFile := path != ""
	if hasFile {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix("PROTOSENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{v: v, hasFile: hasFile}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("min_confidence", 0.8)
	v.SetDefault("min_data_size", 4)
	v.SetDefault("max_data_size", 1<<20)
	v.SetDefault("probe.strategy", "passive")
	v.SetDefault("probe.max_probe_time", "100ms")
	v.SetDefault("probe.min_confidence", 0.8)
	v.SetDefault("probe.enable_simd", true)
	v.SetDefault("probe.enable_heuristic", true)
	v.SetDefault("probe.buffer_size", 4096)
}

// Load reads the configured file (if any) and environment variables into
// the current FileConfig, notifying any watchers of the new value.
func (c *Config) Load() error {
	if c.hasFile {
		if err := c.v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	var fc FileConfig
	if err := c.v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	c.mu.Lock()
	c.current = fc
	watchers := append([]chan FileConfig(nil), c.watchers...)
	c.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- fc:
		default:
		}
	}
	return nil
}

// Watch returns a channel that receives the new FileConfig every time
// Load succeeds after this call.
func (c *Config) Watch() <-chan FileConfig {
	ch := make(chan FileConfig, 1)
	c.mu.Lock()
	c.watchers = append(c.watchers, ch)
	c.mu.Unlock()
	return ch
}

// Current returns the most recently loaded FileConfig.
func (c *Config) Current() FileConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Build parses the current FileConfig into an engine.DetectionConfig,
// returning an engine.DetectorError (via DetectionConfig.Validate) if the
// result would be invalid.
func (c *Config) Build() (engine.DetectionConfig, error) {
	fc := c.Current()

	maxProbeTime, err := time.ParseDuration(fc.Probe.MaxProbeTime)
	if err != nil {
		maxProbeTime = 100 * time.Millisecond
	}

	strategy := parseStrategy(fc.Probe.Strategy)

	dc := engine.DetectionConfig{
		EnabledProtocols: parseProtocols(fc.EnabledProtocols),
		MinConfidence:    fc.MinConfidence,
		MinDataSize:      fc.MinDataSize,
		MaxDataSize:      fc.MaxDataSize,
		Probe: probe.Config{
			Strategy:        strategy,
			MaxProbeTime:    maxProbeTime,
			MinConfidence:   fc.Probe.MinConfidence,
			EnableSIMD:      fc.Probe.EnableSIMD,
			EnableHeuristic: fc.Probe.EnableHeuristic,
			BufferSize:      fc.Probe.BufferSize,
		},
	}

	if err := dc.Validate(); err != nil {
		return engine.DetectionConfig{}, err
	}
	return dc, nil
}

func parseStrategy(s string) probe.Strategy {
	switch s {
	case "active":
		return probe.StrategyActive
	case "hybrid":
		return probe.StrategyHybrid
	case "adaptive":
		return probe.StrategyAdaptive
	default:
		return probe.StrategyPassive
	}
}

var protocolsByName = func() map[string]protocol.Type {
	m := make(map[string]protocol.Type)
	for _, t := range protocol.All() {
		m[strings.ToLower(t.String())] = t
	}
	return m
}()

func parseProtocols(names []string) []protocol.Type {
	if len(names) == 0 {
		return nil
	}
	out := make([]protocol.Type, 0, len(names))
	for _, n := range names {
		if t, ok := protocolsByName[strings.ToLower(n)]; ok {
			out = append(out, t)
		}
	}
	return out
}
