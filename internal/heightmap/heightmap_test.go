package heightmap

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/ashgrove-labs/terrarium/internal/errs"
	"github.com/ashgrove-labs/terrarium/internal/geodesy"
)

type flatSampler struct {
	elevation float32
	err       error
}

func (s *flatSampler) ElevationAt(context.Context, float64, float64) (float32, error) {
	return s.elevation, s.err
}

type gradientSampler struct{}

func (gradientSampler) ElevationAt(_ context.Context, lat, _ float64) (float32, error) {
	return float32(lat * 100), nil
}

func testRect() geodesy.Rectangle {
	return geodesy.Rectangle{
		TopLeft:     geodesy.Coordinate{Lat: 61, Lon: 30},
		BottomRight: geodesy.Coordinate{Lat: 60, Lon: 31},
	}
}

func TestRenderPixelCount(t *testing.T) {
	// The rendered image must be exactly R x R pixels.
	for _, res := range []Resolution{UltraLow} {
		dir := t.TempDir()
		stem := filepath.Join(dir, "out")
		r := New(&flatSampler{elevation: 10})

		if err := r.Render(context.Background(), stem, testRect(), res, FormatPNG); err != nil {
			t.Fatalf("Render error: %v", err)
		}

		data, err := os.ReadFile(stem + ".png")
		if err != nil {
			t.Fatalf("reading png: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decoding png: %v", err)
		}
		bounds := img.Bounds()
		if bounds.Dx() != int(res) || bounds.Dy() != int(res) {
			t.Errorf("image dims = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), res, res)
		}
	}
}

func TestRenderZeroCoverageAllZero(t *testing.T) {
	// A rectangle crossing zero tiles (all neighbors absent) writes a PNG
	// where every pixel equals 0 and min == max.
	dir := t.TempDir()
	stem := filepath.Join(dir, "out")
	r := New(&flatSampler{elevation: 0, err: errs.NewTileAbsentUpstream("absent")})

	if err := r.Render(context.Background(), stem, testRect(), UltraLow, FormatPNG); err != nil {
		t.Fatalf("Render error: %v", err)
	}

	data, err := os.ReadFile(stem + ".png")
	if err != nil {
		t.Fatalf("reading png: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding png: %v", err)
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != 0 || g != 0 || b != 0 {
				t.Fatalf("expected all-zero pixel at (%d,%d), got (%d,%d,%d)", x, y, r, g, b)
			}
		}
	}

	sidecarData, err := os.ReadFile(stem + ".json")
	if err != nil {
		t.Fatalf("reading sidecar: %v", err)
	}
	var sc Sidecar
	if err := json.Unmarshal(sidecarData, &sc); err != nil {
		t.Fatalf("unmarshaling sidecar: %v", err)
	}
	if sc.Heightmap.Min != sc.Heightmap.Max {
		t.Errorf("expected min == max for all-absent render, got min=%d max=%d", sc.Heightmap.Min, sc.Heightmap.Max)
	}
}

func TestRenderAbortsOnNonCoercibleError(t *testing.T) {
	dir := t.TempDir()
	stem := filepath.Join(dir, "out")
	r := New(&flatSampler{err: errs.NewInvalidCoordinate("boom")})

	err := r.Render(context.Background(), stem, testRect(), UltraLow, FormatPNG)
	if !errs.Is(err, errs.KindInvalidCoordinate) {
		t.Errorf("expected render to surface the non-coercible error, got %v", err)
	}
}

func TestRenderSidecarSchema(t *testing.T) {
	// The sidecar parses to {"heightmap":{"min":i,"max":j}} with i<=j.
	dir := t.TempDir()
	stem := filepath.Join(dir, "out")
	r := New(gradientSampler{})

	rect := geodesy.Rectangle{
		TopLeft:     geodesy.Coordinate{Lat: 61, Lon: 30},
		BottomRight: geodesy.Coordinate{Lat: 60, Lon: 31},
	}
	if err := r.Render(context.Background(), stem, rect, UltraLow, FormatPNG); err != nil {
		t.Fatalf("Render error: %v", err)
	}

	sidecarData, err := os.ReadFile(stem + ".json")
	if err != nil {
		t.Fatalf("reading sidecar: %v", err)
	}
	var sc Sidecar
	if err := json.Unmarshal(sidecarData, &sc); err != nil {
		t.Fatalf("unmarshaling sidecar: %v", err)
	}
	if sc.Heightmap.Min > sc.Heightmap.Max {
		t.Errorf("expected min <= max, got min=%d max=%d", sc.Heightmap.Min, sc.Heightmap.Max)
	}
}

func TestRenderDeterministic(t *testing.T) {
	// Two runs over the same inputs produce byte-identical PNG/JSON.
	dir := t.TempDir()
	stemA := filepath.Join(dir, "a")
	stemB := filepath.Join(dir, "b")
	r := New(gradientSampler{})

	if err := r.Render(context.Background(), stemA, testRect(), UltraLow, FormatPNG); err != nil {
		t.Fatalf("Render A error: %v", err)
	}
	if err := r.Render(context.Background(), stemB, testRect(), UltraLow, FormatPNG); err != nil {
		t.Fatalf("Render B error: %v", err)
	}

	pngA, _ := os.ReadFile(stemA + ".png")
	pngB, _ := os.ReadFile(stemB + ".png")
	if !bytes.Equal(pngA, pngB) {
		t.Errorf("expected byte-identical PNG output across runs")
	}

	jsonA, _ := os.ReadFile(stemA + ".json")
	jsonB, _ := os.ReadFile(stemB + ".json")
	if !bytes.Equal(jsonA, jsonB) {
		t.Errorf("expected byte-identical JSON output across runs")
	}
}

// cornerSampler records the first sample of the sweep (the NW grid
// corner), the last sample of the first row (NE), and the first sample of
// the last row (SW), keyed off the known grid edge length.
type cornerSampler struct {
	edge       int
	count      int
	nw, ne, sw geodesy.Coordinate
}

func (s *cornerSampler) ElevationAt(_ context.Context, lat, lon float64) (float32, error) {
	p := geodesy.Coordinate{Lat: lat, Lon: lon}
	switch s.count {
	case 0:
		s.nw = p
	case s.edge - 1:
		s.ne = p
	case s.edge * (s.edge - 1):
		s.sw = p
	}
	s.count++
	return 0, nil
}

func TestRenderSquareExtendSweepsSquareRegion(t *testing.T) {
	dir := t.TempDir()
	stem := filepath.Join(dir, "out")
	sampler := &cornerSampler{edge: int(UltraLow)}
	r := New(sampler, WithSquareExtend())

	// Tall and narrow: roughly 111km x 55km at this latitude. The extend
	// transform must grow the shorter edge to match the longer one.
	rect := geodesy.Rectangle{
		TopLeft:     geodesy.Coordinate{Lat: 61, Lon: 30},
		BottomRight: geodesy.Coordinate{Lat: 60, Lon: 31},
	}
	if err := r.Render(context.Background(), stem, rect, UltraLow, FormatPNG); err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if sampler.count != sampler.edge*sampler.edge {
		t.Fatalf("sampled %d coordinates, want %d", sampler.count, sampler.edge*sampler.edge)
	}

	width := geodesy.Distance(sampler.nw, sampler.ne)
	height := geodesy.Distance(sampler.nw, sampler.sw)
	if diff := width - height; diff < -0.02*height || diff > 0.02*height {
		t.Errorf("expected a square sweep, got width=%v height=%v", width, height)
	}
	if height < rect.HeightMeters()*0.98 {
		t.Errorf("extend must not shrink the longer edge: swept height=%v original=%v", height, rect.HeightMeters())
	}
}

func TestRenderInvalidRect(t *testing.T) {
	r := New(&flatSampler{elevation: 1})
	rect := geodesy.Rectangle{
		TopLeft:     geodesy.Coordinate{Lat: 60, Lon: 30},
		BottomRight: geodesy.Coordinate{Lat: 60, Lon: 31},
	}
	err := r.Render(context.Background(), filepath.Join(t.TempDir(), "out"), rect, UltraLow, FormatPNG)
	if !errs.Is(err, errs.KindInvalidRect) {
		t.Errorf("expected KindInvalidRect, got %v", err)
	}
}
