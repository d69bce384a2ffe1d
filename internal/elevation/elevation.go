// Package elevation translates a geographic coordinate into a tile
// signature plus pixel coordinate and returns the sampled elevation in
// meters.
package elevation

import (
	"context"
	"math"

	"github.com/ashgrove-labs/terrarium/internal/errs"
	"github.com/ashgrove-labs/terrarium/internal/geodesy"
	"github.com/ashgrove-labs/terrarium/internal/signature"
	"github.com/ashgrove-labs/terrarium/internal/tilestore"
)

// snapThreshold snaps coordinates this close to an integer degree onto it,
// avoiding off-by-one sampling at tile seams.
const snapThreshold = 0.00001

// Store is the subset of tilestore.Store a Sampler depends on.
type Store interface {
	Get(sig signature.Signature) (*tilestore.Entry, error)
	Load(ctx context.Context, sig signature.Signature) (*tilestore.Entry, error)
}

// Sampler resolves point elevations against a tile store.
type Sampler struct {
	store Store
}

// New constructs a Sampler backed by store.
func New(store Store) *Sampler {
	return &Sampler{store: store}
}

// ValidateCoordinate checks range and snaps values within snapThreshold of
// an integer degree to that integer.
func ValidateCoordinate(lat, lon float64) (float64, float64, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, errs.NewInvalidCoordinate("latitude/longitude out of range")
	}
	return snap(lat), snap(lon), nil
}

func snap(v float64) float64 {
	floor := math.Floor(v)
	ceil := math.Ceil(v)
	if v-floor < snapThreshold {
		return floor
	}
	if ceil-v < snapThreshold {
		return ceil
	}
	return v
}

// ElevationAt returns the elevation in meters at (lat, lon), lazily
// materializing the covering tile. Pixel coordinates are projected from
// geodesic distances to the tile's NW corner, nearest-neighbor.
func (s *Sampler) ElevationAt(ctx context.Context, lat, lon float64) (float32, error) {
	lat, lon, err := ValidateCoordinate(lat, lon)
	if err != nil {
		return 0, err
	}

	sig := signature.FromFloor(lat, lon)

	entry, err := s.store.Get(sig)
	if err != nil {
		entry, err = s.store.Load(ctx, sig)
		if err != nil {
			return 0, err
		}
	}

	query := geodesy.Coordinate{Lat: lat, Lon: lon}
	nw := sig.NWCorner()
	tileWidthM, tileHeightM := sig.GeorectangleSizeMeters()

	dxM := geodesy.Distance(query, geodesy.Coordinate{Lat: query.Lat, Lon: nw.Lon})
	dyM := geodesy.Distance(query, geodesy.Coordinate{Lat: nw.Lat, Lon: query.Lon})

	u := int(math.Round((dxM / tileWidthM) * float64(entry.Width)))
	v := int(math.Round((dyM / tileHeightM) * float64(entry.Height)))
	u = clamp(u, 0, entry.Width-1)
	v = clamp(v, 0, entry.Height-1)

	return entry.Raster.Pixel(u, v), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
