package devserver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/swarmctl/internal/protocol"
)

func decodeFrame(t *testing.T, b []byte) protocol.StateUpdate {
	t.Helper()
	var u protocol.StateUpdate
	require.NoError(t, json.Unmarshal(b, &u))
	return u
}

func TestScene_StoppedProducesNothing(t *testing.T) {
	s := NewScene(0)
	assert.False(t, s.Running())
	assert.Nil(t, s.Step())

	u := decodeFrame(t, s.Frame())
	assert.Equal(t, protocol.TypeStateUpdate, u.Type)
	assert.Len(t, u.Agents, DefaultAgents)
}

func TestScene_StepStaysInsideField(t *testing.T) {
	for _, pattern := range []string{"flocking", "circle", "scatter"} {
		s := NewScene(12)
		s.setPattern(pattern)
		s.command(protocol.ActionStart, nil)

		for i := 0; i < 50; i++ {
			u := decodeFrame(t, s.Step())
			require.Len(t, u.Agents, 12, pattern)
			for _, a := range u.Agents {
				assert.GreaterOrEqual(t, a.X, 0.0, pattern)
				assert.Less(t, a.X, FieldWidth, pattern)
				assert.GreaterOrEqual(t, a.Y, 0.0, pattern)
				assert.Less(t, a.Y, FieldHeight, pattern)
			}
		}
	}
}

func TestScene_AnalyticsAndRoles(t *testing.T) {
	s := NewScene(5)
	s.command(protocol.ActionStart, nil)
	u := decodeFrame(t, s.Step())

	require.NotNil(t, u.Analytics)
	assert.Equal(t, protocol.RoleCounts{Normal: 2, Predator: 1, Prey: 2}, u.Analytics.RoleCounts)
	assert.Len(t, u.Analytics.PredatorPreyDistances, 2)
	zones := u.Analytics.InteractionZones
	assert.Equal(t, 10, zones.Close+zones.Medium+zones.Far)
	assert.Greater(t, u.Analytics.AvgDistance, 0.0)
}

func TestScene_ParametersAndPattern(t *testing.T) {
	s := NewScene(20)
	s.setParameter("agentCount", 7)
	s.setParameter("agentSpeed", 9)
	s.setParameter("bogus", 1)
	s.setPattern("circle")

	assert.Equal(t, 7.0, s.Param("agentCount"))
	assert.Equal(t, 9.0, s.Param("agentSpeed"))
	assert.Equal(t, 0.0, s.Param("bogus"))
	assert.Equal(t, "circle", s.Pattern())
	assert.Len(t, decodeFrame(t, s.Frame()).Agents, 7)
}

func TestScene_RecordAndPlayback(t *testing.T) {
	s := NewScene(3)
	s.command(protocol.ActionStart, nil)
	s.command(protocol.ActionStartRecording, nil)
	s.Step()
	s.Step()
	s.Step()
	s.command(protocol.ActionStopRecording, nil)
	s.Step()
	assert.Equal(t, 3, s.Recorded())

	payload := s.recordingPayload()
	var frames []json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &frames))
	require.Len(t, frames, 3)

	s.command(protocol.ActionStop, nil)
	s.command(protocol.ActionStartPlayback, payload)
	assert.True(t, s.Running())

	for i := 0; i < 3; i++ {
		assert.JSONEq(t, string(frames[i]), string(s.Step()))
	}
	assert.Nil(t, s.Step())
	assert.False(t, s.Running())
}

func TestPlaybackFrames_AddsTypeAndSkipsJunk(t *testing.T) {
	frames := playbackFrames(json.RawMessage(`[{"agents":[{"x":1,"y":2,"angle":0}]}, 42, {"foo":1}]`))
	require.Len(t, frames, 1)
	u := decodeFrame(t, frames[0])
	assert.Equal(t, protocol.TypeStateUpdate, u.Type)
	assert.Len(t, u.Agents, 1)

	assert.Empty(t, playbackFrames(json.RawMessage(`{"not":"an array"}`)))
}

func TestCheckBehavior(t *testing.T) {
	ok := checkBehavior(protocol.BehaviorTest, "def update_agents(agents):\n    pass")
	assert.True(t, ok.Success)
	assert.Equal(t, "Behavior test passed", ok.Message)

	saved := checkBehavior(protocol.BehaviorSave, "def update_agents(agents): pass")
	assert.Equal(t, "Behavior saved", saved.Message)

	bad := checkBehavior(protocol.BehaviorTest, "print('hi')")
	assert.False(t, bad.Success)
	assert.NotEmpty(t, bad.Message)
}
