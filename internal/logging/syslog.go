package logging

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

// SyslogConfig locates a remote syslog collector.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int    // default 514
	Protocol string // udp or tcp, default udp
	Tag      string // default swarmctl
	Facility int    // default 1 (user)
}

// Syslog severities used for the four log levels.
const (
	sevError = 3
	sevWarn  = 4
	sevInfo  = 6
	sevDebug = 7
)

var errSyslogClosed = errors.New("syslog connection closed")

// SyslogWriter forwards each written line to a remote syslog server in
// RFC 3164 framing. The severity is read back from the line's level tag.
type SyslogWriter struct {
	mu       sync.Mutex
	conn     net.Conn
	addr     string
	network  string
	tag      string
	facility int
	hostname string
	now      func() time.Time
}

// NewSyslogWriter dials the collector.
func NewSyslogWriter(cfg SyslogConfig) (*SyslogWriter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "swarmctl"
	}
	if cfg.Facility == 0 {
		cfg.Facility = 1
	}

	w := &SyslogWriter{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		network:  cfg.Protocol,
		tag:      cfg.Tag,
		facility: cfg.Facility,
		now:      time.Now,
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		w.hostname = h
	} else {
		w.hostname = "localhost"
	}

	if err := w.dial(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *SyslogWriter) dial() error {
	conn, err := net.DialTimeout(w.network, w.addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect to syslog server %s: %w", w.addr, err)
	}
	w.conn = conn
	return nil
}

// Write sends p as one syslog message. A failed write redials once so the
// next line has a fresh connection.
func (w *SyslogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return 0, errSyslogClosed
	}

	line := bytes.TrimRight(p, "\n")
	msg := fmt.Sprintf("<%d>%s %s %s: %s\n",
		w.facility*8+severityOf(line), w.now().Format(time.Stamp), w.hostname, w.tag, line)

	if _, err := io.WriteString(w.conn, msg); err != nil {
		w.conn.Close()
		if derr := w.dial(); derr != nil {
			w.conn = nil
		}
		return 0, err
	}
	return len(p), nil
}

// severityOf recognises console ("[warn]") and JSON ("level":"WARN") lines.
func severityOf(line []byte) int {
	switch {
	case bytes.Contains(line, []byte("[error]")), bytes.Contains(line, []byte(`"level":"ERROR"`)):
		return sevError
	case bytes.Contains(line, []byte("[warn]")), bytes.Contains(line, []byte(`"level":"WARN"`)):
		return sevWarn
	case bytes.Contains(line, []byte("[debug]")), bytes.Contains(line, []byte(`"level":"DEBUG"`)):
		return sevDebug
	default:
		return sevInfo
	}
}

// Close closes the connection. Later writes fail.
func (w *SyslogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

// MultiWriter duplicates log output, e.g. to a file and syslog.
func MultiWriter(writers ...io.Writer) io.Writer {
	return io.MultiWriter(writers...)
}
