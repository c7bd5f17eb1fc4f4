package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"grimm.is/swarmctl/internal/protocol"
	"grimm.is/swarmctl/internal/recording"
)

// RecordingSaver persists received recordings. *recording.Store satisfies it.
type RecordingSaver interface {
	Save(ctx context.Context, name string, payload json.RawMessage) (recording.Recording, error)
}

// RecordingSink stores every recording_data payload in the library and,
// when an export directory is set, writes it out as a JSON file too.
type RecordingSink struct {
	store     RecordingSaver
	exportDir string
	timeout   time.Duration

	mu       sync.RWMutex
	last     recording.Recording
	exported string
	notify   func(recording.Recording, string)
}

// SinkOption configures a RecordingSink.
type SinkOption func(*RecordingSink)

// WithExportDir also writes each recording to dir/swarm-recording.json.
func WithExportDir(dir string) SinkOption {
	return func(s *RecordingSink) { s.exportDir = dir }
}

// WithSavedHook is called after each save with the export path (empty when
// not exported).
func WithSavedHook(fn func(rec recording.Recording, exportPath string)) SinkOption {
	return func(s *RecordingSink) { s.notify = fn }
}

// NewRecordingSink creates a sink over store.
func NewRecordingSink(store RecordingSaver, opts ...SinkOption) *RecordingSink {
	s := &RecordingSink{store: store, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConsumeMessage handles recording_data and ignores other types.
func (s *RecordingSink) ConsumeMessage(msg protocol.Message) error {
	if msg.Type != protocol.TypeRecordingData {
		return nil
	}

	var data protocol.RecordingData
	if err := msg.Decode(&data); err != nil {
		return fmt.Errorf("decode recording_data: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rec, err := s.store.Save(ctx, "", data.Recording)
	if err != nil {
		return fmt.Errorf("store recording: %w", err)
	}

	path := ""
	if s.exportDir != "" {
		path = filepath.Join(s.exportDir, recording.DefaultExportName)
		if err := recording.ExportFile(path, data.Recording); err != nil {
			return fmt.Errorf("export recording %s: %w", rec.ID, err)
		}
	}

	rec.Payload = nil
	s.mu.Lock()
	s.last = rec
	s.exported = path
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(rec, path)
	}
	return nil
}

// Last returns the most recently stored recording (without payload) and
// where it was exported.
func (s *RecordingSink) Last() (recording.Recording, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.exported
}
