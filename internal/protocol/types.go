// Package protocol defines the JSON-over-WebSocket wire format spoken between
// swarmctl and the swarm simulation server. Every frame is an object whose
// `type` field discriminates the payload.
package protocol

import "encoding/json"

// Inbound message types (server -> client).
const (
	TypeStateUpdate      = "state_update"
	TypeRecordingData    = "recording_data"
	TypeBehaviorResponse = "behavior_response"
)

// Outbound message types (client -> server).
const (
	TypeCommand        = "command"
	TypeGetRecording   = "get_recording"
	TypeParameter      = "parameter"
	TypePattern        = "pattern"
	TypeCustomBehavior = "custom_behavior"
)

// Role tags an agent. The set is closed.
type Role string

const (
	RoleNormal   Role = "normal"
	RolePredator Role = "predator"
	RolePrey     Role = "prey"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleNormal, RolePredator, RolePrey:
		return true
	}
	return false
}

// Envelope is the minimal decode of any frame: just the discriminator.
type Envelope struct {
	Type string `json:"type"`
}

// Agent is one identity-free agent snapshot.
type Agent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	Role  Role    `json:"role,omitempty"`
}

// StateUpdate is the high-frequency frame carrying the full agent set.
type StateUpdate struct {
	Type      string     `json:"type"`
	Agents    []Agent    `json:"agents"`
	Analytics *Analytics `json:"analytics,omitempty"`
}

// Clone returns a deep copy. A nil update clones to nil.
func (u *StateUpdate) Clone() *StateUpdate {
	if u == nil {
		return nil
	}
	out := &StateUpdate{Type: u.Type}
	if u.Agents != nil {
		out.Agents = append(make([]Agent, 0, len(u.Agents)), u.Agents...)
	}
	if u.Analytics != nil {
		a := *u.Analytics
		if a.PredatorPreyDistances != nil {
			a.PredatorPreyDistances = append([]float64(nil), a.PredatorPreyDistances...)
		}
		out.Analytics = &a
	}
	return out
}

// Analytics is the optional server-computed summary attached to a state update.
type Analytics struct {
	RoleCounts            RoleCounts       `json:"role_counts"`
	AvgDistance           float64          `json:"avg_distance"`
	PredatorPreyDistances []float64        `json:"predator_prey_distances"`
	CohesionScore         float64          `json:"cohesion_score"`
	AlignmentScore        float64          `json:"alignment_score"`
	InteractionZones      InteractionZones `json:"interaction_zones"`
}

// RoleCounts counts agents per role.
type RoleCounts struct {
	Normal   int `json:"normal"`
	Predator int `json:"predator"`
	Prey     int `json:"prey"`
}

// InteractionZones counts agent pairs by distance band.
type InteractionZones struct {
	Close  int `json:"close"`
	Medium int `json:"medium"`
	Far    int `json:"far"`
}

// LatestPredatorPreyDistance returns the most recent predator/prey distance.
func (a *Analytics) LatestPredatorPreyDistance() (float64, bool) {
	if a == nil || len(a.PredatorPreyDistances) == 0 {
		return 0, false
	}
	return a.PredatorPreyDistances[len(a.PredatorPreyDistances)-1], true
}

// RecordingData carries a recording requested with get_recording.
// The recording itself is opaque to the client.
type RecordingData struct {
	Type      string          `json:"type"`
	Recording json.RawMessage `json:"recording"`
}

// BehaviorResponse acknowledges a custom_behavior save or test.
type BehaviorResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Message is any non-state frame, handed to generic subscribers with its raw bytes.
type Message struct {
	Type string
	Raw  json.RawMessage
}

// Decode unmarshals the raw frame into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Raw, v)
}
