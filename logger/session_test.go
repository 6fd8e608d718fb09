package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/itohio/voltlog/pkg/config"
	"github.com/itohio/voltlog/pkg/metrics"
	"github.com/itohio/voltlog/pkg/sample"
	"github.com/itohio/voltlog/pkg/sink"
	"github.com/itohio/voltlog/pkg/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	mu      sync.Mutex
	paths   []string
	records []sink.Record
}

func (f *fakePusher) Push(_ context.Context, path string, rec sink.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	f.records = append(f.records, rec)
	return nil
}

func (f *fakePusher) voltages() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.records))
	for i, r := range f.records {
		out[i] = r.Voltage
	}
	return out
}

func writeReplay(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "capture.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0644))
	return path
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(dir, "arduino_data.csv")
	cfg.Acquisition.PollInterval = 0
	return cfg
}

func loggedVoltages(t *testing.T, filename string) []float64 {
	t.Helper()
	table, err := waveform.Load(filename)
	require.NoError(t, err)
	var out []float64
	for _, p := range table.Points() {
		out = append(out, p.Value)
	}
	return out
}

func TestEchoSink(t *testing.T) {
	var buf bytes.Buffer
	e := &echoSink{w: &buf}

	require.NoError(t, e.Write(context.Background(), sample.Sample{Time: 1.234, Value: 3.456}))
	assert.Equal(t, "Time: 1.23s, Voltage: 3.46V\n", buf.String())
	assert.Equal(t, "echo", e.Name())
	assert.NoError(t, e.Close())
}

func TestSession_ReplayToCSV(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	var echo bytes.Buffer

	s, err := newSession(context.Background(), cfg, sessionOptions{
		mode:    sourceMode{replay: writeReplay(t, dir, "1.00", "bad", "2.00")},
		metrics: metrics.New(),
		echo:    &echo,
	})
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, s.Close())

	assert.Len(t, s.pipeline.History(), 2)
	assert.Equal(t, []float64{1, 2}, loggedVoltages(t, cfg.Log.File))
	assert.Equal(t, 2, strings.Count(echo.String(), "Voltage:"))
}

func TestSession_RemoteQueued(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Remote.Enabled = true
	cfg.Remote.DatabaseURL = "https://example.invalid"
	cfg.Remote.QueueSize = 8

	pusher := &fakePusher{}
	s, err := newSession(context.Background(), cfg, sessionOptions{
		mode: sourceMode{replay: writeReplay(t, dir, "0.50", "1.50")},
		pushers: func(context.Context, *config.Config) (sink.Pusher, error) {
			return pusher, nil
		},
	})
	require.NoError(t, err)
	require.Len(t, s.sinks, 2)
	assert.IsType(t, &sink.Async{}, s.sinks[1])

	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, s.Close())

	assert.Equal(t, []float64{0.5, 1.5}, pusher.voltages())
	assert.Equal(t, []string{config.RemotePathPlain, config.RemotePathPlain}, pusher.paths)
}

func TestSession_WaveformCombined(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Remote.Enabled = true
	cfg.Remote.DatabaseURL = "https://example.invalid"

	points := make([]waveform.Point, 0, 100)
	for i := 0; i < 100; i++ {
		points = append(points, waveform.Point{Time: float64(i) * 10, Value: 45})
	}
	cfg.Waveform.File = filepath.Join(dir, "waveform.csv")
	require.NoError(t, waveform.WriteFile(cfg.Waveform.File, points))

	pusher := &fakePusher{}
	s, err := newSession(context.Background(), cfg, sessionOptions{
		mode: sourceMode{replay: writeReplay(t, dir, "1.00", "2.00")},
		pushers: func(context.Context, *config.Config) (sink.Pusher, error) {
			return pusher, nil
		},
	})
	require.NoError(t, err)
	assert.IsType(t, &sink.Remote{}, s.sinks[1])

	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, s.Close())

	assert.Equal(t, []float64{46, 47}, loggedVoltages(t, cfg.Log.File))
	assert.Equal(t, []float64{46, 47}, pusher.voltages())
	assert.Equal(t, []string{config.RemotePathCombined, config.RemotePathCombined}, pusher.paths)
}

func TestSession_PusherError(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Remote.Enabled = true

	_, err := newSession(context.Background(), cfg, sessionOptions{
		mode: sourceMode{replay: writeReplay(t, dir, "1.00")},
		pushers: func(context.Context, *config.Config) (sink.Pusher, error) {
			return nil, errors.New("no credentials")
		},
	})
	assert.EqualError(t, err, "no credentials")
}

func TestSession_BadLogPath(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "missing", "log.csv")

	_, err := newSession(context.Background(), cfg, sessionOptions{})
	assert.Error(t, err)
}

func TestSession_CloseTwice(t *testing.T) {
	dir := t.TempDir()
	s, err := newSession(context.Background(), testConfig(dir), sessionOptions{
		mode: sourceMode{replay: writeReplay(t, dir, "1.00")},
	})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestSession_ReplayMissing(t *testing.T) {
	dir := t.TempDir()
	s, err := newSession(context.Background(), testConfig(dir), sessionOptions{
		mode: sourceMode{replay: filepath.Join(dir, "nope.txt")},
	})
	require.NoError(t, err)
	defer s.Close()

	assert.Error(t, s.Run(context.Background()))
}

func TestLoadWaveform(t *testing.T) {
	assert.Nil(t, loadWaveform(""))

	table := loadWaveform(filepath.Join(t.TempDir(), "missing.csv"))
	require.NotNil(t, table)
	assert.Equal(t, 0, table.Len())
}
