package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	vault_errors "imagevault/pkg/errors"
	"imagevault/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeCutout(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(0)
			if x > w/4 && x < 3*w/4 {
				a = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: a})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type countingModel struct {
	calls  int32
	output []byte
	err    error
}

func (m *countingModel) Cutout(ctx context.Context, original []byte) ([]byte, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.output, m.err
}

func newTestEngine(models map[string]Model) *Engine {
	return New(models, nil, logger.Nop())
}

func TestRemoveBackground_Success(t *testing.T) {
	cutout := encodeCutout(t, 40, 30)
	model := &countingModel{output: cutout}
	e := newTestEngine(map[string]Model{"u2net": model})

	original := encodeCutout(t, 40, 30)
	out, meta, err := e.RemoveBackground(context.Background(), original, "u2net")

	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&model.calls))
	assert.Equal(t, "u2net", meta.ModelUsed)
	assert.Equal(t, len(original), meta.OriginalSize)
	assert.Equal(t, len(out), meta.ProcessedSize)
	assert.Equal(t, 40, meta.ProcessedWidth)
	assert.Equal(t, 30, meta.ProcessedHeight)
	assert.Equal(t, "png", meta.ProcessedFormat)
	assert.True(t, meta.HasTransparency)
	assert.False(t, meta.EdgeSmoothing)

	// output must decode as alpha-capable PNG
	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	_, ok := decoded.(*image.NRGBA)
	assert.True(t, ok)
}

func TestRemoveBackground_UnknownModel(t *testing.T) {
	model := &countingModel{output: encodeCutout(t, 8, 8)}
	e := newTestEngine(map[string]Model{"u2net": model})

	_, _, err := e.RemoveBackground(context.Background(), encodeCutout(t, 8, 8), "bogus")

	require.Error(t, err)
	assert.ErrorIs(t, err, vault_errors.ErrModelNotSupported)
	for _, name := range []string{"u2net", "u2netp", "silueta", "isnet-general-use"} {
		assert.Contains(t, err.Error(), name)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&model.calls), "unknown model must fail before inference")
}

func TestRemoveBackground_UndecodableInput(t *testing.T) {
	model := &countingModel{output: encodeCutout(t, 8, 8)}
	e := newTestEngine(map[string]Model{"u2net": model})

	_, _, err := e.RemoveBackground(context.Background(), []byte("garbage"), "u2net")

	assert.ErrorIs(t, err, vault_errors.ErrInvalidMedia)
	assert.Equal(t, int32(0), atomic.LoadInt32(&model.calls))
}

func TestRemoveBackground_InferenceError(t *testing.T) {
	model := &countingModel{err: errors.New("model exploded")}
	e := newTestEngine(map[string]Model{"u2net": model})

	_, _, err := e.RemoveBackground(context.Background(), encodeCutout(t, 8, 8), "u2net")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "background removal failed")
}

func TestRemoveBackgroundSmoothed_Success(t *testing.T) {
	model := &countingModel{output: encodeCutout(t, 20, 20)}
	e := newTestEngine(map[string]Model{"silueta": model})

	out, meta, err := e.RemoveBackgroundSmoothed(context.Background(), encodeCutout(t, 20, 20), "silueta")

	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.True(t, meta.EdgeSmoothing)
	assert.Equal(t, len(out), meta.ProcessedSize)
}

func TestRemoveBackgroundSmoothed_FallsBackOnSmoothingError(t *testing.T) {
	model := &countingModel{output: encodeCutout(t, 20, 20)}
	e := newTestEngine(map[string]Model{"u2net": model})
	e.smoother = func(*image.NRGBA) (*image.NRGBA, error) {
		return nil, errors.New("smoothing blew up")
	}

	out, meta, err := e.RemoveBackgroundSmoothed(context.Background(), encodeCutout(t, 20, 20), "u2net")

	require.NoError(t, err, "smoothing failure must not fail the request")
	assert.NotEmpty(t, out)
	assert.False(t, meta.EdgeSmoothing)
}

func TestSmoothAlpha_PreservesDimensions(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: uint8(x * 15)})
		}
	}

	out, err := smoothAlpha(img)

	require.NoError(t, err)
	assert.Equal(t, 16, out.Bounds().Dx())
	assert.Equal(t, 12, out.Bounds().Dy())
}

func TestSmoothAlpha_EmptyImage(t *testing.T) {
	_, err := smoothAlpha(image.NewNRGBA(image.Rect(0, 0, 0, 0)))

	assert.Error(t, err)
}

func TestSupportedModels(t *testing.T) {
	models := SupportedModels()

	require.Len(t, models, 4)
	assert.True(t, IsSupported("u2net"))
	assert.True(t, IsSupported("isnet-general-use"))
	assert.False(t, IsSupported("bogus"))
}

func TestPool_RunsJobsConcurrently(t *testing.T) {
	pool := NewPool(4)
	pool.Start()
	defer pool.Stop()

	var counter int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Do(context.Background(), func() {
				atomic.AddInt32(&counter, 1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), atomic.LoadInt32(&counter))
}

func TestPool_DoRespectsCancel(t *testing.T) {
	pool := NewPool(1)
	// not started, so submission can only unblock via ctx
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pool.Do(ctx, func() {})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_UsesPool(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	defer pool.Stop()

	model := &countingModel{output: encodeCutout(t, 10, 10)}
	e := New(map[string]Model{"u2netp": model}, pool, logger.Nop())

	_, meta, err := e.RemoveBackground(context.Background(), encodeCutout(t, 10, 10), "u2netp")

	require.NoError(t, err)
	assert.Equal(t, "u2netp", meta.ModelUsed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&model.calls))
}
