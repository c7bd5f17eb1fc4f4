package recording

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultExportName is the file name used when no export path is given.
const DefaultExportName = "swarm-recording.json"

// ErrInvalidPayload is returned for payloads that are not a JSON array.
var ErrInvalidPayload = errors.New("recording must be a JSON array of states")

// Inspect validates payload and returns its frame count. The frames
// themselves stay opaque.
func Inspect(payload json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, ErrInvalidPayload
	}
	var frames []json.RawMessage
	if err := json.Unmarshal(trimmed, &frames); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return len(frames), nil
}

// ExportFile writes payload to path as compact JSON.
func ExportFile(path string, payload json.RawMessage) error {
	if _, err := Inspect(payload); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return fmt.Errorf("compact recording: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	return nil
}

// LoadFile reads and validates a recording file.
func LoadFile(path string) (json.RawMessage, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read recording: %w", err)
	}
	frames, err := Inspect(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return json.RawMessage(bytes.TrimSpace(data)), frames, nil
}
