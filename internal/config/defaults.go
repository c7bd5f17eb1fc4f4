package config

import (
	"time"

	"grimm.is/swarmctl/internal/brand"
	"grimm.is/swarmctl/internal/gate"
)

// Defaults.
const (
	DefaultHost             = "localhost:8000"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultBaseDelay        = time.Second
	DefaultMaxDelay         = 30 * time.Second
	DefaultMaxRetries       = 10
	DefaultDebounceWindow   = 100 * time.Millisecond
)

// DefaultParameterRules returns the built-in parameter table, taken from
// the gate so the two never disagree.
func DefaultParameterRules() []ParameterRule {
	builtin := gate.DefaultRules()
	rules := make([]ParameterRule, 0, len(builtin))
	for _, r := range builtin {
		rules = append(rules, ParameterRule{Name: r.Name, Policy: r.Policy.String(), Min: r.Min, Max: r.Max})
	}
	return rules
}

// Default returns a fully populated configuration.
func Default() *Config {
	cfg := &Config{SchemaVersion: CurrentSchemaVersion}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every omitted block and value.
func (c *Config) ApplyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.HandshakeTimeout == "" {
		c.Server.HandshakeTimeout = DefaultHandshakeTimeout.String()
	}

	if c.Reconnect == nil {
		c.Reconnect = &ReconnectConfig{}
	}
	if c.Reconnect.BaseDelay == "" {
		c.Reconnect.BaseDelay = DefaultBaseDelay.String()
	}
	if c.Reconnect.MaxDelay == "" {
		c.Reconnect.MaxDelay = DefaultMaxDelay.String()
	}
	if c.Reconnect.MaxRetries == 0 {
		c.Reconnect.MaxRetries = DefaultMaxRetries
	}

	if c.Gate == nil {
		c.Gate = &GateConfig{}
	}
	if c.Gate.DebounceWindow == "" {
		c.Gate.DebounceWindow = DefaultDebounceWindow.String()
	}

	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if s := c.Logging.Syslog; s != nil {
		if s.Port == 0 {
			s.Port = 514
		}
		if s.Protocol == "" {
			s.Protocol = "udp"
		}
		if s.Tag == "" {
			s.Tag = "swarmctl"
		}
		if s.Facility == 0 {
			s.Facility = 1
		}
	}

	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}

	if c.Recordings == nil {
		c.Recordings = &RecordingsConfig{}
	}
	if c.Recordings.Path == "" {
		c.Recordings.Path = brand.DefaultRecordingsPath()
	}
}
