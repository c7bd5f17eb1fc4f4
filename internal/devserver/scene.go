package devserver

import (
	"encoding/json"
	"math"
	"strings"
	"sync"

	"grimm.is/swarmctl/internal/protocol"
)

// Field dimensions the scripted agents move in.
const (
	FieldWidth  = 800.0
	FieldHeight = 600.0

	DefaultAgents = 20
	maxRecording  = 3000
)

// Scene is the scripted world behind the dev server. Agents follow fixed
// orbits around the field centre; nothing is simulated.
type Scene struct {
	mu sync.Mutex

	tick    uint64
	running bool
	agents  int
	pattern string
	params  map[string]float64

	recording bool
	recorded  []json.RawMessage

	playback []json.RawMessage
	playIdx  int
}

// NewScene creates a stopped scene with n agents.
func NewScene(n int) *Scene {
	if n <= 0 {
		n = DefaultAgents
	}
	return &Scene{
		agents:  n,
		pattern: "flocking",
		params: map[string]float64{
			"agentSpeed":     5,
			"swarmCohesion":  5,
			"swarmAlignment": 5,
			"waveFrequency":  1,
			"waveAmplitude":  10,
		},
	}
}

// Running reports whether the scene advances on Step.
func (s *Scene) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running || s.playback != nil
}

// Pattern returns the active orbit pattern.
func (s *Scene) Pattern() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern
}

// Param returns a parameter's current value.
func (s *Scene) Param(name string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "agentCount" {
		return float64(s.agents)
	}
	return s.params[name]
}

// Recorded returns how many frames are held for get_recording.
func (s *Scene) Recorded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded)
}

// Step advances one tick and returns the frame to broadcast, or nil when
// the scene is stopped.
func (s *Scene) Step() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playback != nil {
		if s.playIdx >= len(s.playback) {
			s.playback = nil
			s.playIdx = 0
			return nil
		}
		frame := s.playback[s.playIdx]
		s.playIdx++
		return frame
	}
	if !s.running {
		return nil
	}

	s.tick++
	frame := s.frameLocked()
	if s.recording && len(s.recorded) < maxRecording {
		s.recorded = append(s.recorded, frame)
	}
	return frame
}

// Frame returns the current state without advancing.
func (s *Scene) Frame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Scene) frameLocked() []byte {
	update := protocol.StateUpdate{
		Type:   protocol.TypeStateUpdate,
		Agents: s.agentsLocked(),
	}
	update.Analytics = analyze(update.Agents)
	b, _ := json.Marshal(update)
	return b
}

func (s *Scene) agentsLocked() []protocol.Agent {
	cx, cy := FieldWidth/2, FieldHeight/2
	speed := s.params["agentSpeed"] * 0.01
	phase := float64(s.tick) * speed
	amp := s.params["waveAmplitude"]
	freq := s.params["waveFrequency"]

	agents := make([]protocol.Agent, s.agents)
	for i := range agents {
		slot := 2 * math.Pi * float64(i) / float64(s.agents)
		var x, y, heading float64

		switch s.pattern {
		case "circle":
			r := 200.0
			a := slot + phase
			x, y = cx+r*math.Cos(a), cy+r*math.Sin(a)
			heading = a + math.Pi/2
		case "scatter":
			a := slot + phase*0.5
			x = cx + 350*math.Sin(3*a+slot)
			y = cy + 250*math.Sin(2*a)
			heading = math.Atan2(500*math.Cos(2*a), 1050*math.Cos(3*a+slot))
		default:
			spread := 40 + 8*(10-s.params["swarmCohesion"])
			a := phase + slot*0.15
			ox, oy := cx+150*math.Cos(phase), cy+100*math.Sin(phase)
			x = ox + spread*math.Cos(slot+a)
			y = oy + spread*math.Sin(slot+a)
			heading = phase + math.Pi/2
		}
		y += amp * math.Sin(freq*phase+slot)

		role := protocol.RoleNormal
		switch {
		case i == 0 && s.agents > 2:
			role = protocol.RolePredator
		case i <= 2 && s.agents > 2:
			role = protocol.RolePrey
		}

		agents[i] = protocol.Agent{
			X:     math.Mod(x+FieldWidth, FieldWidth),
			Y:     math.Mod(y+FieldHeight, FieldHeight),
			Angle: math.Mod(heading, 2*math.Pi),
			Role:  role,
		}
	}
	return agents
}

// analyze produces a plausible analytics block from positions alone.
func analyze(agents []protocol.Agent) *protocol.Analytics {
	a := &protocol.Analytics{}
	n := len(agents)
	if n == 0 {
		return a
	}

	var sinSum, cosSum float64
	for _, ag := range agents {
		switch ag.Role {
		case protocol.RolePredator:
			a.RoleCounts.Predator++
		case protocol.RolePrey:
			a.RoleCounts.Prey++
		default:
			a.RoleCounts.Normal++
		}
		sinSum += math.Sin(ag.Angle)
		cosSum += math.Cos(ag.Angle)
	}

	var total float64
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(agents[i].X-agents[j].X, agents[i].Y-agents[j].Y)
			total += d
			pairs++
			switch {
			case d < 50:
				a.InteractionZones.Close++
			case d < 150:
				a.InteractionZones.Medium++
			default:
				a.InteractionZones.Far++
			}
			if agents[i].Role == protocol.RolePredator && agents[j].Role == protocol.RolePrey {
				a.PredatorPreyDistances = append(a.PredatorPreyDistances, d)
			}
		}
	}
	if pairs > 0 {
		a.AvgDistance = total / float64(pairs)
	}
	diag := math.Hypot(FieldWidth, FieldHeight)
	a.CohesionScore = math.Max(0, 1-a.AvgDistance/diag)
	a.AlignmentScore = math.Hypot(sinSum, cosSum) / float64(n)
	return a
}

// command applies a command action.
func (s *Scene) command(action string, recording json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case protocol.ActionStart:
		s.running = true
	case protocol.ActionStop:
		s.running = false
	case protocol.ActionReset:
		s.tick = 0
	case protocol.ActionStartRecording:
		s.recording = true
		s.recorded = nil
	case protocol.ActionStopRecording:
		s.recording = false
	case protocol.ActionStartPlayback:
		s.playback = playbackFrames(recording)
		s.playIdx = 0
	case protocol.ActionStopPlayback:
		s.playback = nil
		s.playIdx = 0
	}
}

// playbackFrames turns a recording into broadcastable state_update frames.
// Entries that are not agent states are skipped.
func playbackFrames(recording json.RawMessage) []json.RawMessage {
	var entries []json.RawMessage
	if err := json.Unmarshal(recording, &entries); err != nil {
		return []json.RawMessage{}
	}
	frames := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		var update protocol.StateUpdate
		if err := json.Unmarshal(e, &update); err != nil || update.Agents == nil {
			continue
		}
		update.Type = protocol.TypeStateUpdate
		b, err := json.Marshal(update)
		if err != nil {
			continue
		}
		frames = append(frames, b)
	}
	return frames
}

func (s *Scene) setParameter(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "agentCount" {
		if n := int(value); n > 0 {
			s.agents = n
		}
		return
	}
	if _, ok := s.params[name]; ok {
		s.params[name] = value
	}
}

func (s *Scene) setPattern(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern = name
}

func (s *Scene) recordingPayload() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := json.Marshal(append([]json.RawMessage{}, s.recorded...))
	return b
}

// checkBehavior stands in for running a behavior script: it only checks
// that the entry point is defined.
func checkBehavior(action, code string) protocol.BehaviorResponse {
	resp := protocol.BehaviorResponse{Type: protocol.TypeBehaviorResponse}
	if !strings.Contains(code, "def update_agents") {
		resp.Message = "behavior must define update_agents(agents)"
		return resp
	}
	resp.Success = true
	if action == protocol.BehaviorSave {
		resp.Message = "Behavior saved"
	} else {
		resp.Message = "Behavior test passed"
	}
	return resp
}
