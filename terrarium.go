// Package terrarium resolves terrain elevation for arbitrary geographic
// coordinates and renders rectangular regions of terrain into normalized
// grayscale heightmap images. Elevation data is distributed as one-degree
// GeoTIFF tiles keyed by integer latitude/longitude and fetched on demand
// from a remote HTTP store into a bounded two-level cache.
package terrarium

import (
	"context"
	"path/filepath"

	"github.com/ashgrove-labs/terrarium/internal/config"
	"github.com/ashgrove-labs/terrarium/internal/download"
	"github.com/ashgrove-labs/terrarium/internal/elevation"
	"github.com/ashgrove-labs/terrarium/internal/geodesy"
	"github.com/ashgrove-labs/terrarium/internal/heightmap"
	"github.com/ashgrove-labs/terrarium/internal/logging"
	"github.com/ashgrove-labs/terrarium/internal/prefetch"
	"github.com/ashgrove-labs/terrarium/internal/raster"
	"github.com/ashgrove-labs/terrarium/internal/signature"
	"github.com/ashgrove-labs/terrarium/internal/tilestore"
)

// defaultLRUCapacity bounds the in-memory decoded-tile cache.
const defaultLRUCapacity = 64

// Coordinate and Rectangle are re-exported so callers do not need to
// import internal/geodesy directly.
type Coordinate = geodesy.Coordinate
type Rectangle = geodesy.Rectangle

// Resolution and Format mirror the renderer's named enums at the public
// API surface.
type Resolution = heightmap.Resolution
type Format = heightmap.Format

const (
	UltraLow = heightmap.UltraLow
	Low      = heightmap.Low
	Medium   = heightmap.Medium
	High     = heightmap.High

	FormatPNG = heightmap.FormatPNG
	FormatRAW = heightmap.FormatRAW
)

// System is an owned handle over the tile store, sampler, renderer, and
// prefetcher. Library callers construct their own System; embedders that
// need a single process-wide instance hold one behind their own
// initialization barrier rather than this package exposing global state.
type System struct {
	cfg      *config.Config
	store    *tilestore.Store
	sampler  *elevation.Sampler
	renderer *heightmap.Renderer
	pf       *Prefetcher
}

// NewSystem loads/creates cfgPath and wires the tile store, sampler,
// renderer, and prefetcher against it.
func NewSystem(cfgPath string) (*System, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	resolvePath := func(sig signature.Signature) string {
		return filepath.Join(cfg.CacheDir, sig.RelativePath(signature.DefaultPathTemplate, cfg.Extension))
	}

	dl := download.New(cfg.RemoteURL, cfg.Extension)

	store, err := tilestore.New(defaultLRUCapacity, resolvePath, dl, raster.DecodeFile)
	if err != nil {
		return nil, err
	}

	sampler := elevation.New(store)
	renderer := heightmap.New(sampler)
	pf := &Prefetcher{inner: prefetch.New(dl, resolvePath, cfg.MaxParallelThreads)}

	return &System{cfg: cfg, store: store, sampler: sampler, renderer: renderer, pf: pf}, nil
}

// InitLogger configures the process-wide logger; idempotent, returns true
// on first success, false if already initialized.
func InitLogger() bool {
	return logging.Init()
}

// ElevationAt returns the elevation in meters at (lat, lon), lazily
// materializing the covering tile.
func (s *System) ElevationAt(ctx context.Context, lat, lon float64) (float32, error) {
	return s.sampler.ElevationAt(ctx, lat, lon)
}

// ConvertGeorectangle renders rect into a normalized grayscale heightmap
// at targetPath+".png" with a min/max JSON sidecar beside it.
func (s *System) ConvertGeorectangle(ctx context.Context, targetPath string, rect Rectangle, resolution Resolution, format Format) error {
	return s.renderer.Render(ctx, targetPath, rect, resolution, format)
}

// ConvertFromCenter builds a Rectangle from a center coordinate and a
// radius in meters, then renders it.
func (s *System) ConvertFromCenter(ctx context.Context, targetPath string, center Coordinate, radiusMeters float64, resolution Resolution, format Format) error {
	rect, err := geodesy.FromCenterAndSize(center, radiusMeters*2, radiusMeters*2)
	if err != nil {
		return err
	}
	return s.ConvertGeorectangle(ctx, targetPath, rect, resolution, format)
}

// UnloadAll drops all decoded tiles. Tiles known to be absent upstream
// stay known-absent.
func (s *System) UnloadAll() {
	s.store.UnloadAll()
}

// Prefetcher bulk-populates the on-disk tile cache ahead of queries.
type Prefetcher struct {
	inner *prefetch.Prefetcher
}

// NewPrefetcher constructs a standalone Prefetcher against serverURL,
// writing downloaded tiles under storageRoot with the given extension and
// parallelism.
func NewPrefetcher(serverURL, storageRoot, extension string, parallelism int) *Prefetcher {
	dl := download.New(serverURL, extension)
	resolvePath := func(sig signature.Signature) string {
		return filepath.Join(storageRoot, sig.RelativePath(signature.DefaultPathTemplate, extension))
	}
	return &Prefetcher{inner: prefetch.New(dl, resolvePath, parallelism)}
}

// Fetch downloads every tile covering rect that is not already cached.
func (p *Prefetcher) Fetch(ctx context.Context, rect Rectangle) (*prefetch.Report, error) {
	return p.inner.Fetch(ctx, rect)
}

// Prefetcher returns the System's own prefetcher, configured from the same
// loaded config.
func (s *System) Prefetcher() *Prefetcher {
	return s.pf
}
