package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	vault_errors "imagevault/pkg/errors"
	"imagevault/pkg/logger"
)

// Meta is the processing provenance recorded alongside a background-removed
// upload.
type Meta struct {
	ModelUsed        string
	OriginalSize     int
	ProcessedSize    int
	CompressionRatio float64
	OriginalWidth    int
	OriginalHeight   int
	ProcessedWidth   int
	ProcessedHeight  int
	OriginalFormat   string
	ProcessedFormat  string
	HasTransparency  bool
	EdgeSmoothing    bool
}

// Map flattens Meta for the upload record's metadata document.
func (m Meta) Map() map[string]interface{} {
	return map[string]interface{}{
		"modelUsed":        m.ModelUsed,
		"originalSize":     m.OriginalSize,
		"processedSize":    m.ProcessedSize,
		"compressionRatio": m.CompressionRatio,
		"originalWidth":    m.OriginalWidth,
		"originalHeight":   m.OriginalHeight,
		"processedWidth":   m.ProcessedWidth,
		"processedHeight":  m.ProcessedHeight,
		"originalFormat":   m.OriginalFormat,
		"processedFormat":  m.ProcessedFormat,
		"hasTransparency":  m.HasTransparency,
		"edgeSmoothing":    m.EdgeSmoothing,
	}
}

// Engine orchestrates background removal: it validates the requested model,
// offloads inference to the pool, and normalizes every result to an
// alpha-capable PNG.
type Engine struct {
	models   map[string]Model
	pool     *Pool
	smoother func(*image.NRGBA) (*image.NRGBA, error)
	log      *logger.Logger
}

// New builds an Engine over the given per-model callables. A nil pool runs
// inference inline, which is only sensible in tests.
func New(models map[string]Model, pool *Pool, log *logger.Logger) *Engine {
	return &Engine{
		models:   models,
		pool:     pool,
		smoother: smoothAlpha,
		log:      log,
	}
}

// RemoveBackground strips the background from data using the named model and
// returns the processed PNG plus processing metadata. An unknown model name
// fails before any decoding or inference happens.
func (e *Engine) RemoveBackground(ctx context.Context, data []byte, modelName string) ([]byte, Meta, error) {
	model, err := e.lookup(modelName)
	if err != nil {
		return nil, Meta{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Meta{}, fmt.Errorf("%w: undecodable image: %v", vault_errors.ErrInvalidMedia, err)
	}

	var cutout []byte
	var inferErr error
	run := func() { cutout, inferErr = model.Cutout(ctx, data) }
	if e.pool != nil {
		if err := e.pool.Do(ctx, run); err != nil {
			return nil, Meta{}, err
		}
	} else {
		run()
	}
	if inferErr != nil {
		return nil, Meta{}, fmt.Errorf("background removal failed: %w", inferErr)
	}

	processed, err := normalizeAlpha(cutout)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("background removal produced undecodable output: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return nil, Meta{}, err
	}
	out := buf.Bytes()

	meta := Meta{
		ModelUsed:        modelName,
		OriginalSize:     len(data),
		ProcessedSize:    len(out),
		CompressionRatio: ratio(len(out), len(data)),
		OriginalWidth:    cfg.Width,
		OriginalHeight:   cfg.Height,
		ProcessedWidth:   processed.Bounds().Dx(),
		ProcessedHeight:  processed.Bounds().Dy(),
		OriginalFormat:   format,
		ProcessedFormat:  "png",
		HasTransparency:  true,
	}
	return out, meta, nil
}

// RemoveBackgroundSmoothed runs RemoveBackground and then cleans the alpha
// channel: a small Gaussian blur followed by a morphological close and open
// to suppress speckle and hard edges. Smoothing is a quality enhancement
// only; if it fails for any reason the unsmoothed result is returned with
// EdgeSmoothing left false, never an error.
func (e *Engine) RemoveBackgroundSmoothed(ctx context.Context, data []byte, modelName string) ([]byte, Meta, error) {
	processed, meta, err := e.RemoveBackground(ctx, data, modelName)
	if err != nil {
		return nil, Meta{}, err
	}

	smoothed, err := e.applySmoothing(processed)
	if err != nil {
		if e.log != nil {
			e.log.Warnf("edge smoothing failed, returning unsmoothed result: %v", err)
		}
		return processed, meta, nil
	}

	meta.ProcessedSize = len(smoothed)
	meta.CompressionRatio = ratio(len(smoothed), meta.OriginalSize)
	meta.EdgeSmoothing = true
	return smoothed, meta, nil
}

func (e *Engine) applySmoothing(processed []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(processed))
	if err != nil {
		return nil, err
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = toNRGBA(img)
	}

	smoothed, err := e.smoother(nrgba)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, smoothed); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Engine) lookup(modelName string) (Model, error) {
	if !IsSupported(modelName) {
		return nil, fmt.Errorf("%w: invalid model %q, available models: %s",
			vault_errors.ErrModelNotSupported, modelName, supportedNames())
	}
	model, ok := e.models[modelName]
	if !ok {
		return nil, fmt.Errorf("%w: model %q is not configured", vault_errors.ErrExternalService, modelName)
	}
	return model, nil
}

// normalizeAlpha decodes the cutout and forces it into NRGBA so the stored
// PNG always carries an alpha channel regardless of what the model emitted.
func normalizeAlpha(cutout []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(cutout))
	if err != nil {
		return nil, err
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba, nil
	}
	return toNRGBA(img), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func ratio(processed, original int) float64 {
	if original <= 0 {
		return 1.0
	}
	return float64(processed) / float64(original)
}
