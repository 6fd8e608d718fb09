package sink

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/voltlog/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGPlot_Throttle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.png")
	p := NewPNGPlot(path, time.Second, 100, 10)

	now := time.Unix(1000, 0)
	p.now = func() time.Time { return now }

	history := samplesN(5)
	require.NoError(t, p.Refresh(history[:1]))
	assert.Equal(t, 1, p.Renders())

	now = now.Add(100 * time.Millisecond)
	require.NoError(t, p.Refresh(history[:2]))
	assert.Equal(t, 1, p.Renders(), "refresh inside interval should be skipped")

	now = now.Add(time.Second)
	require.NoError(t, p.Refresh(history[:3]))
	assert.Equal(t, 2, p.Renders())

	now = now.Add(10 * time.Millisecond)
	require.NoError(t, p.Refresh(history))
	require.NoError(t, p.Close())
	assert.Equal(t, 3, p.Renders(), "close should draw the final history")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestPNGPlot_CloseWithoutData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.png")
	p := NewPNGPlot(path, time.Second, 100, 10)
	require.NoError(t, p.Close())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPNGPlot_SinglePoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.png")
	p := NewPNGPlot(path, 0, 100, 10)
	require.NoError(t, p.Refresh([]sample.Sample{{Time: 0, Value: 2.5}}))
	assert.Equal(t, 1, p.Renders())
}

func TestPNGPlot_BadPath(t *testing.T) {
	p := NewPNGPlot(filepath.Join(t.TempDir(), "missing", "plot.png"), 0, 100, 10)
	assert.Error(t, p.Refresh(samplesN(3)))
}
