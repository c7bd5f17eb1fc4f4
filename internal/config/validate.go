package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate validates the configuration. Call ApplyDefaults first.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Server != nil {
		if strings.Contains(c.Server.Host, "://") || strings.Contains(c.Server.Host, "/") {
			errs = append(errs, ValidationError{"server.host", "must be host[:port] without scheme or path"})
		}
		errs = append(errs, checkDuration("server.handshake_timeout", c.Server.HandshakeTimeout)...)
	}

	if r := c.Reconnect; r != nil {
		errs = append(errs, checkDuration("reconnect.base_delay", r.BaseDelay)...)
		errs = append(errs, checkDuration("reconnect.max_delay", r.MaxDelay)...)
		if r.MaxRetries < 0 {
			errs = append(errs, ValidationError{"reconnect.max_retries", "must not be negative"})
		}
		if len(errs) == 0 && c.BaseDelay() > c.MaxDelay() {
			errs = append(errs, ValidationError{"reconnect", "base_delay exceeds max_delay"})
		}
	}

	if c.Gate != nil {
		errs = append(errs, checkDuration("gate.debounce_window", c.Gate.DebounceWindow)...)
	}

	seen := make(map[string]bool)
	for _, p := range c.Parameters {
		field := fmt.Sprintf("parameter.%s", p.Name)
		if p.Name == "" {
			errs = append(errs, ValidationError{"parameter", "name label is required"})
			continue
		}
		if seen[p.Name] {
			errs = append(errs, ValidationError{field, "declared more than once"})
		}
		seen[p.Name] = true
		if p.Policy != "" && p.Policy != PolicyImmediate && p.Policy != PolicyDebounced {
			errs = append(errs, ValidationError{field + ".policy", fmt.Sprintf("unknown policy %q", p.Policy)})
		}
	}
	for _, r := range c.ParameterRules() {
		if r.Min > r.Max {
			errs = append(errs, ValidationError{fmt.Sprintf("parameter.%s", r.Name), fmt.Sprintf("min %g exceeds max %g", r.Min, r.Max)})
		}
	}

	if l := c.Logging; l != nil {
		switch strings.ToLower(l.Level) {
		case "", "debug", "info", "warn", "warning", "error":
		default:
			errs = append(errs, ValidationError{"logging.level", fmt.Sprintf("unknown level %q", l.Level)})
		}
		if s := l.Syslog; s != nil {
			if s.Host == "" {
				errs = append(errs, ValidationError{"logging.syslog.host", "is required"})
			}
			if s.Protocol != "" && s.Protocol != "udp" && s.Protocol != "tcp" {
				errs = append(errs, ValidationError{"logging.syslog.protocol", "must be udp or tcp"})
			}
		}
	}

	return errs
}

func checkDuration(field, value string) ValidationErrors {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return ValidationErrors{{field, fmt.Sprintf("invalid duration %q", value)}}
	}
	if d <= 0 {
		return ValidationErrors{{field, "must be positive"}}
	}
	return nil
}
