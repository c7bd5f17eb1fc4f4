package session

import "time"

// Backoff returns the delay before reconnect attempt number retries
// (0-based): min(base * 2^retries, max).
func Backoff(retries int, base, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if max > 0 && base >= max {
		return max
	}

	d := base
	for i := 0; i < retries; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
		// overflow with no ceiling configured
		if d <= 0 {
			return time.Duration(1<<63 - 1)
		}
	}
	return d
}

// EndpointURL builds the WebSocket endpoint for host. The scheme follows the
// page convention: wss when the server is reached over TLS, ws otherwise.
func EndpointURL(host string, secure bool) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	return scheme + "://" + host + "/ws"
}
