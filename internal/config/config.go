package config

import "time"

// CurrentSchemaVersion defines the current schema version of the configuration.
const CurrentSchemaVersion = "1.0"

// Parameter pacing policies.
const (
	PolicyImmediate = "immediate"
	PolicyDebounced = "debounced"
)

// Config is the top-level swarmctl configuration.
type Config struct {
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty" yaml:"schema_version,omitempty"`

	Server     *ServerConfig     `hcl:"server,block" json:"server,omitempty" yaml:"server,omitempty"`
	Reconnect  *ReconnectConfig  `hcl:"reconnect,block" json:"reconnect,omitempty" yaml:"reconnect,omitempty"`
	Gate       *GateConfig       `hcl:"gate,block" json:"gate,omitempty" yaml:"gate,omitempty"`
	Parameters []ParameterConfig `hcl:"parameter,block" json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Logging    *LoggingConfig    `hcl:"logging,block" json:"logging,omitempty" yaml:"logging,omitempty"`
	Metrics    *MetricsConfig    `hcl:"metrics,block" json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Recordings *RecordingsConfig `hcl:"recordings,block" json:"recordings,omitempty" yaml:"recordings,omitempty"`
}

// ServerConfig locates the simulation server.
type ServerConfig struct {
	Host             string `hcl:"host" json:"host" yaml:"host"`
	Secure           bool   `hcl:"secure,optional" json:"secure,omitempty" yaml:"secure,omitempty"`
	HandshakeTimeout string `hcl:"handshake_timeout,optional" json:"handshake_timeout,omitempty" yaml:"handshake_timeout,omitempty"`
}

// ReconnectConfig bounds the session's reconnect backoff.
type ReconnectConfig struct {
	BaseDelay  string `hcl:"base_delay,optional" json:"base_delay,omitempty" yaml:"base_delay,omitempty"`
	MaxDelay   string `hcl:"max_delay,optional" json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
	MaxRetries int    `hcl:"max_retries,optional" json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

// GateConfig tunes outbound pacing.
type GateConfig struct {
	DebounceWindow string `hcl:"debounce_window,optional" json:"debounce_window,omitempty" yaml:"debounce_window,omitempty"`
}

// ParameterConfig overrides the policy or range of one tunable parameter.
type ParameterConfig struct {
	Name   string   `hcl:"name,label" json:"name" yaml:"name"`
	Policy string   `hcl:"policy,optional" json:"policy,omitempty" yaml:"policy,omitempty"`
	Min    *float64 `hcl:"min,optional" json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `hcl:"max,optional" json:"max,omitempty" yaml:"max,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `hcl:"level,optional" json:"level,omitempty" yaml:"level,omitempty"`
	JSON  bool   `hcl:"json,optional" json:"json,omitempty" yaml:"json,omitempty"`
	// File receives log output while the full-screen viewer owns the terminal.
	File   string        `hcl:"file,optional" json:"file,omitempty" yaml:"file,omitempty"`
	Syslog *SyslogConfig `hcl:"syslog,block" json:"syslog,omitempty" yaml:"syslog,omitempty"`
}

// SyslogConfig forwards log lines to a remote syslog server.
type SyslogConfig struct {
	Host     string `hcl:"host" json:"host" yaml:"host"`
	Port     int    `hcl:"port,optional" json:"port,omitempty" yaml:"port,omitempty"`
	Protocol string `hcl:"protocol,optional" json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Tag      string `hcl:"tag,optional" json:"tag,omitempty" yaml:"tag,omitempty"`
	Facility int    `hcl:"facility,optional" json:"facility,omitempty" yaml:"facility,omitempty"`
}

// MetricsConfig exposes Prometheus metrics.
type MetricsConfig struct {
	Listen string `hcl:"listen,optional" json:"listen,omitempty" yaml:"listen,omitempty"`
}

// RecordingsConfig locates the recording library.
type RecordingsConfig struct {
	Path string `hcl:"path,optional" json:"path,omitempty" yaml:"path,omitempty"`
}

// ParameterRule is a resolved parameter policy.
type ParameterRule struct {
	Name   string
	Policy string
	Min    float64
	Max    float64
}

// BaseDelay returns the resolved reconnect base delay.
func (c *Config) BaseDelay() time.Duration {
	return durationOr(c.Reconnect.BaseDelay, DefaultBaseDelay)
}

// MaxDelay returns the resolved reconnect ceiling.
func (c *Config) MaxDelay() time.Duration {
	return durationOr(c.Reconnect.MaxDelay, DefaultMaxDelay)
}

// HandshakeTimeout returns the resolved WebSocket handshake timeout.
func (c *Config) HandshakeTimeout() time.Duration {
	return durationOr(c.Server.HandshakeTimeout, DefaultHandshakeTimeout)
}

// DebounceWindow returns the resolved trailing debounce window.
func (c *Config) DebounceWindow() time.Duration {
	return durationOr(c.Gate.DebounceWindow, DefaultDebounceWindow)
}

// ParameterRules merges configured overrides onto the default table.
// Order follows the default table, then any extra configured names.
func (c *Config) ParameterRules() []ParameterRule {
	rules := DefaultParameterRules()
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.Name] = i
	}

	for _, p := range c.Parameters {
		i, ok := index[p.Name]
		if !ok {
			rules = append(rules, ParameterRule{Name: p.Name, Policy: PolicyDebounced})
			i = len(rules) - 1
			index[p.Name] = i
		}
		if p.Policy != "" {
			rules[i].Policy = p.Policy
		}
		if p.Min != nil {
			rules[i].Min = *p.Min
		}
		if p.Max != nil {
			rules[i].Max = *p.Max
		}
	}
	return rules
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
