package protocol

import "encoding/json"

// Intent is an immutable outbound message. Construct one with the
// helpers below and hand it to the gate or session.
type Intent interface {
	Type() string
}

// Command actions accepted by the server.
const (
	ActionStart          = "start"
	ActionStop           = "stop"
	ActionReset          = "reset"
	ActionStartRecording = "start_recording"
	ActionStopRecording  = "stop_recording"
	ActionStartPlayback  = "start_playback"
	ActionStopPlayback   = "stop_playback"
)

// CommandActions lists every valid command action.
var CommandActions = []string{
	ActionStart,
	ActionStop,
	ActionReset,
	ActionStartRecording,
	ActionStopRecording,
	ActionStartPlayback,
	ActionStopPlayback,
}

// Custom behavior actions.
const (
	BehaviorSave = "save"
	BehaviorTest = "test"
)

// Command is a discrete simulation command.
type Command struct {
	Action    string
	Recording json.RawMessage
}

func (Command) Type() string { return TypeCommand }

// MarshalJSON writes {type, action, recording?}.
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string          `json:"type"`
		Action    string          `json:"action"`
		Recording json.RawMessage `json:"recording,omitempty"`
	}{TypeCommand, c.Action, c.Recording})
}

// GetRecording asks the server for the current recording.
type GetRecording struct{}

func (GetRecording) Type() string { return TypeGetRecording }

func (GetRecording) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{TypeGetRecording})
}

// Parameter sets a numeric simulation parameter.
type Parameter struct {
	Name  string
	Value float64
}

func (Parameter) Type() string { return TypeParameter }

func (p Parameter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string  `json:"type"`
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}{TypeParameter, p.Name, p.Value})
}

// Pattern selects a behavior pattern.
type Pattern struct {
	Name string
}

func (Pattern) Type() string { return TypePattern }

func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}{TypePattern, p.Name})
}

// CustomBehavior submits behavior script source for saving or testing.
type CustomBehavior struct {
	Action string
	Code   string
}

func (CustomBehavior) Type() string { return TypeCustomBehavior }

func (b CustomBehavior) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Action string `json:"action"`
		Code   string `json:"code"`
	}{TypeCustomBehavior, b.Action, b.Code})
}

// IsCommandAction reports whether action is a known command action.
func IsCommandAction(action string) bool {
	for _, a := range CommandActions {
		if a == action {
			return true
		}
	}
	return false
}
