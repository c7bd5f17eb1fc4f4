package logging

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyslogWriter_MissingHost(t *testing.T) {
	_, err := NewSyslogWriter(SyslogConfig{Enabled: true})
	assert.Error(t, err)
}

func listenUDP(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on udp: %v", err)
	}
	t.Cleanup(func() { pc.Close() })
	return pc
}

func readPacket(t *testing.T, pc net.PacketConn) string {
	t.Helper()
	buf := make([]byte, 1024)
	pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestSyslogWriter_FormatsRFC3164(t *testing.T) {
	pc := listenUDP(t)
	port := pc.LocalAddr().(*net.UDPAddr).Port

	w, err := NewSyslogWriter(SyslogConfig{Host: "127.0.0.1", Port: port})
	require.NoError(t, err)
	defer w.Close()

	n, err := w.Write([]byte("hello swarm\n"))
	require.NoError(t, err)
	assert.Equal(t, len("hello swarm\n"), n)

	msg := readPacket(t, pc)
	// facility user (1) * 8 + info (6)
	assert.True(t, strings.HasPrefix(msg, "<14>"), msg)
	assert.Contains(t, msg, "swarmctl: hello swarm")
}

func TestSyslogWriter_SeverityFromLevelTag(t *testing.T) {
	pc := listenUDP(t)
	port := pc.LocalAddr().(*net.UDPAddr).Port

	w, err := NewSyslogWriter(SyslogConfig{Host: "127.0.0.1", Port: port, Tag: "swarm-test"})
	require.NoError(t, err)
	defer w.Close()

	logger := New(Config{Level: LevelDebug, Output: w, Ring: NewRingBuffer(4)})
	logger.WithComponent("session").Warn("reconnecting", "attempt", 2)

	msg := readPacket(t, pc)
	assert.True(t, strings.HasPrefix(msg, "<12>"), msg)
	assert.Contains(t, msg, "swarm-test: ")
	assert.Contains(t, msg, "session: reconnecting attempt=2")
}

func TestSeverityOf(t *testing.T) {
	assert.Equal(t, sevError, severityOf([]byte("x [error] gate: rejected")))
	assert.Equal(t, sevWarn, severityOf([]byte(`{"level":"WARN","msg":"m"}`)))
	assert.Equal(t, sevDebug, severityOf([]byte("x [debug] router: frame")))
	assert.Equal(t, sevInfo, severityOf([]byte("plain")))
}

func TestSyslogWriter_WriteAfterClose(t *testing.T) {
	pc := listenUDP(t)
	port := pc.LocalAddr().(*net.UDPAddr).Port

	w, err := NewSyslogWriter(SyslogConfig{Host: "127.0.0.1", Port: port})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, errSyslogClosed)
}
