// Package heightmap rasterizes a georectangle into a normalized 8-bit
// grayscale heightmap image plus a JSON sidecar of the elevation extrema.
package heightmap

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/goccy/go-json"

	"github.com/ashgrove-labs/terrarium/internal/errs"
	"github.com/ashgrove-labs/terrarium/internal/geodesy"
	"github.com/ashgrove-labs/terrarium/internal/progress"
)

// Resolution is the rendered heightmap's edge size in pixels, inclusive of
// both endpoint samples.
type Resolution int

const (
	UltraLow Resolution = 513
	Low      Resolution = 1025
	Medium   Resolution = 2049
	High     Resolution = 4097
)

// Format is the output image format. Only PNG is implemented; RAW is
// reserved.
type Format int

const (
	FormatPNG Format = iota
	FormatRAW
)

// Sampler is the subset of internal/elevation.Sampler a Renderer depends
// on.
type Sampler interface {
	ElevationAt(ctx context.Context, lat, lon float64) (float32, error)
}

// Sidecar is the JSON schema written beside the PNG.
type Sidecar struct {
	Heightmap struct {
		Min int16 `json:"min"`
		Max int16 `json:"max"`
	} `json:"heightmap"`
}

// Renderer sweeps a sampling grid over a georectangle and emits the
// normalized image. It owns only transient per-render state.
type Renderer struct {
	sampler      Sampler
	squareExtend bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSquareExtend grows the input rectangle's shorter edge to match the
// longer one before rendering, producing a square coverage area. Off by
// default.
func WithSquareExtend() Option {
	return func(r *Renderer) { r.squareExtend = true }
}

// New constructs a Renderer backed by sampler.
func New(sampler Sampler, opts ...Option) *Renderer {
	r := &Renderer{sampler: sampler}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// toSquare extends rect to its bounding square around the same center.
func toSquare(rect geodesy.Rectangle) geodesy.Rectangle {
	width := rect.WidthMeters()
	height := rect.HeightMeters()
	if math.Abs(width-height) < 1e-6 {
		return rect
	}

	centerLat := (rect.TopLeft.Lat + rect.BottomRight.Lat) / 2
	centerLon := (rect.TopLeft.Lon + rect.BottomRight.Lon) / 2
	center := geodesy.Coordinate{Lat: centerLat, Lon: centerLon}

	side := math.Max(width, height)
	squared, err := geodesy.FromCenterAndSize(center, side, side)
	if err != nil {
		return rect
	}
	return squared
}

// Render sweeps an N x N grid over rect in two deterministic passes: the
// first samples every grid node and tracks the elevation extrema, the
// second normalizes against them and writes targetPath+".png" plus a
// targetPath+".json" sidecar. Pixel (x=j, y=i) holds sample [i][j]; the
// image's top row is the rectangle's northernmost row. Tiles missing
// upstream or not loadable over the network collapse to elevation 0, so a
// partially covered rectangle still renders.
func (r *Renderer) Render(ctx context.Context, targetPath string, rect geodesy.Rectangle, resolution Resolution, format Format) error {
	if format != FormatPNG {
		return errs.NewNotImplemented("only PNG output is implemented")
	}
	if !rect.Valid() {
		return errs.NewInvalidRect("rectangle must be non-empty with top > bottom, left <= right")
	}

	workRect := rect
	if r.squareExtend {
		workRect = toSquare(rect)
	}

	n := int(resolution)
	heights := make([][]int16, n)
	for i := range heights {
		heights[i] = make([]int16, n)
	}

	heightM := workRect.HeightMeters()
	widthM := workRect.WidthMeters()
	intervals := n - 1
	if intervals < 1 {
		intervals = 1
	}

	samplingBar := progress.New("sampling elevation grid", n)

	var minV, maxV int16
	first := true

	for i := 0; i < n; i++ {
		rowAnchor := geodesy.MoveToward(workRect.TopLeft, float64(i)*heightM/float64(intervals), 180)
		for j := 0; j < n; j++ {
			p := geodesy.MoveToward(rowAnchor, float64(j)*widthM/float64(intervals), 90)

			elev, err := r.sampler.ElevationAt(ctx, p.Lat, p.Lon)
			if err != nil {
				if isCoercibleToZero(err) {
					elev = 0
				} else {
					return err
				}
			}

			h := int16(math.Floor(float64(elev)))
			heights[i][j] = h
			if first {
				minV, maxV = h, h
				first = false
			} else if h < minV {
				minV = h
			} else if h > maxV {
				maxV = h
			}
		}
		samplingBar.Add(1)
	}
	samplingBar.Finish()

	encodeBar := progress.New("encoding heightmap", n)

	img := image.NewGray(image.Rect(0, 0, n, n))
	span := int(maxV) - int(minV)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var pixel float64
			if span != 0 {
				pixel = (float64(int(heights[i][j])-int(minV)) / float64(span)) * 255
			}
			pixel = clampFloat(pixel, 0, 255)
			img.SetGray(j, i, color.Gray{Y: uint8(pixel)})
		}
		encodeBar.Add(1)
	}

	pngPath := targetPath + ".png"
	if err := writePNG(pngPath, img); err != nil {
		return errs.NewImageSaveError(pngPath, err)
	}
	encodeBar.Finish()

	sidecar := Sidecar{}
	sidecar.Heightmap.Min = minV
	sidecar.Heightmap.Max = maxV

	data, err := json.MarshalIndent(sidecar, "", "    ")
	if err != nil {
		return errs.NewImageSaveError("marshaling sidecar", err)
	}
	if err := os.WriteFile(targetPath+".json", data, 0o644); err != nil {
		return errs.NewFilesystemError("writing sidecar", err)
	}

	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// isCoercibleToZero decides whether a sampling failure falls under the
// partial-coverage policy: absent or unreachable tiles read as sea level,
// anything else aborts the render.
func isCoercibleToZero(err error) bool {
	return errs.Is(err, errs.KindTileAbsentUpstream) ||
		errs.Is(err, errs.KindTileNotLoaded) ||
		errs.Is(err, errs.KindNetworkError)
}
