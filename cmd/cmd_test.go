package cmd

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/swarmctl/internal/config"
	"grimm.is/swarmctl/internal/devserver"
	"grimm.is/swarmctl/internal/recording"
)

// isolate points the config and data directories at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SWARMCTL_CONFIG_DIR", filepath.Join(dir, "config"))
	t.Setenv("SWARMCTL_DATA_DIR", filepath.Join(dir, "data"))
	return dir
}

func startDevServer(t *testing.T, interval time.Duration) (*devserver.Server, string) {
	t.Helper()
	srv := devserver.New(devserver.Options{FrameInterval: interval, Agents: 6})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Run(ctx)

	return srv, strings.TrimPrefix(ts.URL, "http://")
}

func TestLoadConfig_MissingDefaultUsesBuiltins(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHost, cfg.Server.Host)
	assert.Equal(t, config.DefaultMaxRetries, cfg.Reconnect.MaxRetries)
}

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	isolate(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	assert.Error(t, err)
}

func TestClientFlags_Override(t *testing.T) {
	isolate(t)

	cf := clientFlags{host: "sim.example:443", secure: true}
	cfg, err := cf.load()
	require.NoError(t, err)
	assert.Equal(t, "sim.example:443", cfg.Server.Host)
	assert.True(t, cfg.Server.Secure)
}

func TestConfigInitValidateShow(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "swarmctl.hcl")

	require.NoError(t, RunConfig([]string{"init", path}))
	_, err := os.Stat(path)
	require.NoError(t, err)

	// Refuses to clobber without -force.
	assert.Error(t, RunConfig([]string{"init", path}))
	assert.NoError(t, RunConfig([]string{"init", "-force", path}))

	assert.NoError(t, RunConfig([]string{"validate", path}))
	assert.NoError(t, RunConfig([]string{"show", path}))

	assert.Error(t, RunConfig([]string{"bogus"}))
	assert.Error(t, RunConfig(nil))
}

func TestConfigValidate_RejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`reconnect { base_delay = "soon" }`), 0644))

	assert.Error(t, RunConfig([]string{"validate", path}))
}

func TestRecordings_ImportListExportDelete(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "lib.db")

	src := filepath.Join(dir, "flock-demo.json")
	payload := `[{"type":"state_update","agents":[]},{"type":"state_update","agents":[]}]`
	require.NoError(t, os.WriteFile(src, []byte(payload), 0644))

	require.NoError(t, RunRecordings([]string{"import", "-db", db, src}))

	store, err := recording.Open(recording.Options{Path: db})
	require.NoError(t, err)
	recs, err := store.List(context.Background())
	require.NoError(t, err)
	store.Close()
	require.Len(t, recs, 1)
	assert.Equal(t, "flock-demo", recs[0].Name)
	assert.Equal(t, 2, recs[0].Frames)
	id := recs[0].ID[:8]

	require.NoError(t, RunRecordings([]string{"list", "-db", db}))
	require.NoError(t, RunRecordings([]string{"show", "-db", db, id}))

	out := filepath.Join(dir, "out", "copy.json")
	require.NoError(t, RunRecordings([]string{"export", "-db", db, id, out}))
	_, frames, err := recording.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, frames)

	require.NoError(t, RunRecordings([]string{"delete", "-db", db, id}))
	assert.Error(t, RunRecordings([]string{"show", "-db", db, id}))
}

func TestRecordings_ImportRejectsNonArray(t *testing.T) {
	dir := isolate(t)
	src := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"agents":[]}`), 0644))

	assert.Error(t, RunRecordings([]string{"import", "-db", filepath.Join(dir, "lib.db"), src}))
}

func TestRecordings_UnknownSubcommand(t *testing.T) {
	assert.Error(t, RunRecordings([]string{"frobnicate"}))
	assert.Error(t, RunRecordings(nil))
	assert.NoError(t, RunRecordings([]string{"help"}))
}

func TestRunSend_Start(t *testing.T) {
	isolate(t)
	srv, host := startDevServer(t, 10*time.Millisecond)

	require.NoError(t, RunSend([]string{"-host", host, "start"}))
	assert.Eventually(t, srv.Scene().Running, 2*time.Second, 10*time.Millisecond)
}

func TestRunSend_RejectsUnknownAction(t *testing.T) {
	isolate(t)

	assert.Error(t, RunSend([]string{"explode"}))
	// Playback needs a payload; use recordings play.
	assert.Error(t, RunSend([]string{"start_playback"}))
}

func TestRunParam_FlushesDebouncedValue(t *testing.T) {
	isolate(t)
	srv, host := startDevServer(t, 10*time.Millisecond)

	require.NoError(t, RunParam([]string{"-host", host, "agentSpeed", "7.5"}))
	assert.Eventually(t, func() bool {
		return srv.Scene().Param("agentSpeed") == 7.5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunParam_OutOfRange(t *testing.T) {
	isolate(t)
	_, host := startDevServer(t, 10*time.Millisecond)

	assert.Error(t, RunParam([]string{"-host", host, "agentCount", "99"}))
	assert.Error(t, RunParam([]string{"-host", host, "agentCount", "many"}))
}

func TestRunPattern(t *testing.T) {
	isolate(t)
	srv, host := startDevServer(t, 10*time.Millisecond)

	require.NoError(t, RunPattern([]string{"-host", host, "circle"}))
	assert.Eventually(t, func() bool {
		return srv.Scene().Pattern() == "circle"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunBehavior_ServerVerdict(t *testing.T) {
	dir := isolate(t)
	_, host := startDevServer(t, 10*time.Millisecond)

	good := filepath.Join(dir, "good.py")
	require.NoError(t, os.WriteFile(good, []byte("def update_agents(agents):\n    return agents\n"), 0644))
	assert.NoError(t, RunBehavior([]string{"-host", host, "-f", good}))

	bad := filepath.Join(dir, "bad.py")
	require.NoError(t, os.WriteFile(bad, []byte("print('hi')\n"), 0644))
	assert.Error(t, RunBehavior([]string{"-host", host, "-action", "save", "-f", bad}))
}

func TestRecordingsFetch_StoresReply(t *testing.T) {
	dir := isolate(t)
	_, host := startDevServer(t, 10*time.Millisecond)

	out := filepath.Join(dir, "fetched.json")
	require.NoError(t, RunRecordings([]string{"fetch", "-host", host, "-o", out}))

	_, _, err := recording.LoadFile(out)
	require.NoError(t, err)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	store, err := openLibrary(cfg, "")
	require.NoError(t, err)
	defer store.Close()
	recs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRecordingsPlay_FromFile(t *testing.T) {
	dir := isolate(t)
	srv, host := startDevServer(t, time.Hour)

	src := filepath.Join(dir, "replay.json")
	frame := `{"type":"state_update","agents":[{"x":1,"y":2,"angle":0,"role":"normal"}]}`
	require.NoError(t, os.WriteFile(src, []byte("["+frame+","+frame+"]"), 0644))

	// Frames are slow enough that the loaded playback is still pending.
	require.NoError(t, RunRecordings([]string{"play", "-host", host, src}))
	assert.Eventually(t, srv.Scene().Running, 2*time.Second, 10*time.Millisecond)
}
