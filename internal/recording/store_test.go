package recording

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/swarmctl/internal/clock"
)

const sample = `[{"agents":[{"x":1,"y":2,"angle":0}]},{"agents":[{"x":2,"y":3,"angle":0.1}]}]`

func newTestStore(t *testing.T) (*Store, *clock.MockClock) {
	t.Helper()
	mc := clock.NewMockClock(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))
	s, err := Open(Options{Path: filepath.Join(t.TempDir(), "recordings.db"), Clock: mc})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mc
}

func TestStore_SaveGetList(t *testing.T) {
	s, mc := newTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "", json.RawMessage(sample))
	require.NoError(t, err)
	assert.Equal(t, "swarm-20260301-093000", first.Name)
	assert.Equal(t, 2, first.Frames)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err)

	mc.Advance(time.Minute)
	second, err := s.Save(ctx, "circle-demo", json.RawMessage(`[]`))
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
	assert.Nil(t, list[0].Payload)
	assert.Equal(t, len(sample), list[1].Size)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.JSONEq(t, sample, string(got.Payload))
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt))
}

func TestStore_PrefixLookup(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Save(ctx, "a", json.RawMessage(sample))
	require.NoError(t, err)

	got, err := s.Get(ctx, rec.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = s.Get(ctx, "zzzz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Save(ctx, "gone", json.RawMessage(sample))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rec.ID))
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), ErrNotFound)

	_, err = s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsNonArray(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Save(context.Background(), "bad", json.RawMessage(`{"agents":[]}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestStore_InMemory(t *testing.T) {
	s, err := Open(Options{Path: ":memory:"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Save(context.Background(), "mem", json.RawMessage(sample))
	require.NoError(t, err)
	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
