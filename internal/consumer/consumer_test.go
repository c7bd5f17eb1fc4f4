package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/swarmctl/internal/clock"
	"grimm.is/swarmctl/internal/protocol"
	"grimm.is/swarmctl/internal/recording"
	"grimm.is/swarmctl/internal/router"
)

func update(points ...float64) *protocol.StateUpdate {
	u := &protocol.StateUpdate{Type: protocol.TypeStateUpdate}
	for i := 0; i+1 < len(points); i += 2 {
		u.Agents = append(u.Agents, protocol.Agent{X: points[i], Y: points[i+1], Role: protocol.RoleNormal})
	}
	return u
}

func TestField_ReplacesAgentsAndAgesTrail(t *testing.T) {
	f := NewField(3)

	require.NoError(t, f.ConsumeState(update(1, 1, 2, 2)))
	require.NoError(t, f.ConsumeState(update(5, 5)))

	snap := f.Snapshot()
	require.Len(t, snap.Agents, 1)
	assert.Equal(t, 5.0, snap.Agents[0].X)
	assert.Equal(t, []TrailPoint{{X: 1, Y: 1, Age: 1}, {X: 2, Y: 2, Age: 1}, {X: 5, Y: 5}}, snap.Trail)
	assert.Equal(t, uint64(2), snap.Updates)

	require.NoError(t, f.ConsumeState(update(6, 6)))
	require.NoError(t, f.ConsumeState(update(7, 7)))

	snap = f.Snapshot()
	for _, p := range snap.Trail {
		assert.Less(t, p.Age, 3)
	}
	assert.Len(t, snap.Trail, 3)
}

func TestField_CopiesIncomingAgents(t *testing.T) {
	f := NewField(3)
	u := update(1, 1)
	require.NoError(t, f.ConsumeState(u))

	u.Agents[0].X = 42
	assert.Equal(t, 1.0, f.Snapshot().Agents[0].X)
}

func TestField_TrailKeepsFiftyUpdates(t *testing.T) {
	f := NewField(0)
	for i := 0; i < 51; i++ {
		require.NoError(t, f.ConsumeState(update(float64(i), 0)))
	}

	snap := f.Snapshot()
	assert.Equal(t, DefaultTrailAge, snap.MaxAge)
	require.Len(t, snap.Trail, DefaultTrailAge)
	assert.Equal(t, 1.0, snap.Trail[0].X)
	assert.Equal(t, DefaultTrailAge-1, snap.Trail[0].Age)
}

func TestField_SnapshotIsACopy(t *testing.T) {
	f := NewField(5)
	require.NoError(t, f.ConsumeState(update(1, 1)))

	snap := f.Snapshot()
	snap.Agents[0].X = 99
	snap.Trail[0].X = 99

	again := f.Snapshot()
	assert.Equal(t, 1.0, again.Agents[0].X)
	assert.Equal(t, 1.0, again.Trail[0].X)

	f.Reset()
	assert.Empty(t, f.Snapshot().Agents)
	assert.Empty(t, f.Snapshot().Trail)
}

func TestAnalyticsPanel_KeepsLastBlock(t *testing.T) {
	p := NewAnalyticsPanel()

	u := update(1, 1, 2, 2)
	u.Analytics = &protocol.Analytics{
		RoleCounts:            protocol.RoleCounts{Normal: 2},
		AvgDistance:           4.2,
		PredatorPreyDistances: []float64{10, 7.5},
	}
	require.NoError(t, p.ConsumeState(u))

	view := p.View()
	assert.Equal(t, 2, view.Agents)
	require.NotNil(t, view.Analytics)
	assert.Equal(t, 4.2, view.Analytics.AvgDistance)
	assert.True(t, view.HasPredatorPrey)
	assert.Equal(t, 7.5, view.PredatorPrey)

	require.NoError(t, p.ConsumeState(update(1, 1, 2, 2, 3, 3)))
	view = p.View()
	assert.Equal(t, 3, view.Agents)
	assert.Equal(t, 4.2, view.Analytics.AvgDistance)
}

func TestAnalyticsPanel_NoPredatorPrey(t *testing.T) {
	p := NewAnalyticsPanel()
	u := update(1, 1)
	u.Analytics = &protocol.Analytics{}
	require.NoError(t, p.ConsumeState(u))
	assert.False(t, p.View().HasPredatorPrey)
}

func TestBehaviorStatus(t *testing.T) {
	mc := clock.NewMockClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	var notified []BehaviorResult
	b := NewBehaviorStatus(mc, func(r BehaviorResult) { notified = append(notified, r) })

	_, seen := b.Last()
	assert.False(t, seen)

	require.NoError(t, b.ConsumeMessage(protocol.Message{Type: "ack", Raw: json.RawMessage(`{"type":"ack"}`)}))
	_, seen = b.Last()
	assert.False(t, seen)

	err := b.ConsumeMessage(protocol.Message{
		Type: protocol.TypeBehaviorResponse,
		Raw:  json.RawMessage(`{"type":"behavior_response","success":false,"message":"SyntaxError on line 2"}`),
	})
	require.NoError(t, err)

	last, seen := b.Last()
	require.True(t, seen)
	assert.False(t, last.Success)
	assert.Equal(t, "SyntaxError on line 2", last.Message)
	assert.Equal(t, mc.Now(), last.ReceivedAt)
	assert.Len(t, notified, 1)

	err = b.ConsumeMessage(protocol.Message{Type: protocol.TypeBehaviorResponse, Raw: json.RawMessage(`{"success":"yes"}`)})
	assert.Error(t, err)
}

type fakeSaver struct {
	saved []json.RawMessage
	err   error
}

func (f *fakeSaver) Save(_ context.Context, name string, payload json.RawMessage) (recording.Recording, error) {
	if f.err != nil {
		return recording.Recording{}, f.err
	}
	f.saved = append(f.saved, payload)
	return recording.Recording{ID: "rec-1", Name: "swarm", Frames: 2, Payload: payload}, nil
}

func recordingFrame(payload string) protocol.Message {
	return protocol.Message{
		Type: protocol.TypeRecordingData,
		Raw:  json.RawMessage(`{"type":"recording_data","recording":` + payload + `}`),
	}
}

func TestRecordingSink_SavesAndExports(t *testing.T) {
	dir := t.TempDir()
	saver := &fakeSaver{}

	var hookPath string
	sink := NewRecordingSink(saver, WithExportDir(dir), WithSavedHook(func(_ recording.Recording, path string) {
		hookPath = path
	}))

	require.NoError(t, sink.ConsumeMessage(recordingFrame(`[{"agents":[]},{"agents":[]}]`)))
	require.Len(t, saver.saved, 1)
	assert.JSONEq(t, `[{"agents":[]},{"agents":[]}]`, string(saver.saved[0]))

	rec, path := sink.Last()
	assert.Equal(t, "rec-1", rec.ID)
	assert.Nil(t, rec.Payload)
	assert.Equal(t, filepath.Join(dir, recording.DefaultExportName), path)
	assert.Equal(t, path, hookPath)

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestRecordingSink_IgnoresOtherTypesAndReportsErrors(t *testing.T) {
	saver := &fakeSaver{err: errors.New("disk full")}
	sink := NewRecordingSink(saver)

	require.NoError(t, sink.ConsumeMessage(protocol.Message{Type: protocol.TypeBehaviorResponse}))

	err := sink.ConsumeMessage(recordingFrame(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRecordingSink_WithStore(t *testing.T) {
	store, err := recording.Open(recording.Options{Path: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	sink := NewRecordingSink(store)
	require.NoError(t, sink.ConsumeMessage(recordingFrame(`[{"agents":[{"x":1,"y":2,"angle":0}]}]`)))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Frames)

	rec, path := sink.Last()
	assert.Equal(t, list[0].ID, rec.ID)
	assert.Empty(t, path)
}

func TestAttach_SubscribesByInterface(t *testing.T) {
	r := router.New()

	field := NewField(0)
	fieldSubs := Attach(r, "field", field)
	require.Len(t, fieldSubs, 1)
	assert.Equal(t, router.ClassState, fieldSubs[0].Class())

	status := NewBehaviorStatus(nil, nil)
	statusSubs := Attach(r, "behavior", status)
	require.Len(t, statusSubs, 1)
	assert.Equal(t, router.ClassMessage, statusSubs[0].Class())

	r.Dispatch([]byte(`{"type":"state_update","agents":[{"x":3,"y":4,"angle":0}]}`))
	r.Dispatch([]byte(`{"type":"behavior_response","success":true,"message":"saved"}`))

	assert.Len(t, field.Snapshot().Agents, 1)
	last, seen := status.Last()
	require.True(t, seen)
	assert.Equal(t, "saved", last.Message)

	Detach(r, fieldSubs)
	r.Dispatch([]byte(`{"type":"state_update","agents":[]}`))
	assert.Len(t, field.Snapshot().Agents, 1)
}
