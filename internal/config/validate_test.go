package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"host with scheme", func(c *Config) { c.Server.Host = "ws://localhost:8000" }, "server.host"},
		{"negative retries", func(c *Config) { c.Reconnect.MaxRetries = -1 }, "reconnect.max_retries"},
		{"base above max", func(c *Config) { c.Reconnect.BaseDelay = "1m" }, "base_delay exceeds max_delay"},
		{"zero debounce", func(c *Config) { c.Gate.DebounceWindow = "0s" }, "gate.debounce_window"},
		{"unknown policy", func(c *Config) {
			c.Parameters = []ParameterConfig{{Name: "agentSpeed", Policy: "throttled"}}
		}, "parameter.agentSpeed.policy"},
		{"inverted range", func(c *Config) {
			c.Parameters = []ParameterConfig{{Name: "agentCount", Min: ptr(60)}}
		}, "min 60 exceeds max 50"},
		{"duplicate parameter", func(c *Config) {
			c.Parameters = []ParameterConfig{{Name: "agentSpeed"}, {Name: "agentSpeed"}}
		}, "declared more than once"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"syslog without host", func(c *Config) { c.Logging.Syslog = &SyslogConfig{} }, "logging.syslog.host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if tt.wantErr == "" {
				assert.False(t, errs.HasErrors(), errs.Error())
				return
			}
			assert.True(t, errs.HasErrors())
			assert.Contains(t, errs.Error(), tt.wantErr)
		})
	}
}

func TestParameterRules_ExtraName(t *testing.T) {
	cfg := Default()
	cfg.Parameters = []ParameterConfig{{Name: "turbulence", Min: ptr(0), Max: ptr(3)}}

	rules := cfg.ParameterRules()
	last := rules[len(rules)-1]
	assert.Equal(t, "turbulence", last.Name)
	assert.Equal(t, PolicyDebounced, last.Policy)
	assert.Equal(t, 3.0, last.Max)
}
