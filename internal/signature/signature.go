// Package signature implements the integer-degree value type identifying
// a 1x1 degree elevation tile, and its path/URL projection.
package signature

import (
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/ashgrove-labs/terrarium/internal/geodesy"
)

// Quarter identifies which of the four hemispheric quadrants a signature
// falls in, used only for on-disk path sharding.
type Quarter uint8

const (
	NW Quarter = iota
	NE
	SW
	SE
)

func (q Quarter) String() string {
	switch q {
	case NW:
		return "0"
	case NE:
		return "1"
	case SW:
		return "2"
	case SE:
		return "3"
	default:
		return "?"
	}
}

// Signature is an integer (lat, lon) pair denoting the tile whose
// south-west corner sits at that integer degree.
type Signature struct {
	Lat int8  // [-90, 89]
	Lon int16 // [-180, 179]
}

// FromFloor builds a Signature by flooring floating-point input.
func FromFloor(lat, lon float64) Signature {
	return Signature{
		Lat: int8(math.Floor(lat)),
		Lon: int16(math.Floor(lon)),
	}
}

// Quarter derives the signature's quadrant from the signs of its
// components: lat>=0 is northern, lon<0 is western.
func (s Signature) Quarter() Quarter {
	switch {
	case s.Lat >= 0 && s.Lon < 0:
		return NW
	case s.Lat >= 0 && s.Lon >= 0:
		return NE
	case s.Lat < 0 && s.Lon < 0:
		return SW
	default:
		return SE
	}
}

func absInt8(v int8) int8 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

// DefaultPathTemplate is the canonical cache layout:
// "{quarter}/{|lat|}/{|lon|}.{ext}". RelativePath and URL take the
// template as a parameter, so a caller can render another layout; the
// config file has no template key, and the System and Downloader always
// pass this default.
const DefaultPathTemplate = "{quarter}/{lat}/{lon}.{ext}"

// RelativePath renders the signature's relative path using tmpl (or
// DefaultPathTemplate if tmpl is empty), with host path separators.
func (s Signature) RelativePath(tmpl, ext string) string {
	if tmpl == "" {
		tmpl = DefaultPathTemplate
	}
	t := fasttemplate.New(tmpl, "{", "}")
	rendered := t.ExecuteString(map[string]interface{}{
		"quarter": s.Quarter().String(),
		"lat":     strconv.Itoa(int(absInt8(s.Lat))),
		"lon":     strconv.Itoa(int(absInt16(s.Lon))),
		"ext":     ext,
	})
	return filepath.FromSlash(rendered)
}

// URL renders the signature's URL path form: the same layout with '/'
// separators regardless of host platform.
func (s Signature) URL(tmpl, ext string) string {
	rel := s.RelativePath(tmpl, ext)
	return path.Clean(filepath.ToSlash(rel))
}

// String renders the signature for logging, e.g. "(41,-87)".
func (s Signature) String() string {
	return fmt.Sprintf("(%d,%d)", s.Lat, s.Lon)
}

// Less implements the total lexicographic ordering on (lat, lon).
func (s Signature) Less(o Signature) bool {
	if s.Lat != o.Lat {
		return s.Lat < o.Lat
	}
	return s.Lon < o.Lon
}

// NWCorner returns the geodetic coordinate of the tile's north-west
// corner, (lat+1, lon), the reference point for pixel projection.
func (s Signature) NWCorner() geodesy.Coordinate {
	return geodesy.Coordinate{Lat: float64(s.Lat) + 1, Lon: float64(s.Lon)}
}

// SWCorner returns the geodetic coordinate of the tile's south-west
// corner, the point the signature's integers denote.
func (s Signature) SWCorner() geodesy.Coordinate {
	return geodesy.Coordinate{Lat: float64(s.Lat), Lon: float64(s.Lon)}
}

// GeorectangleSizeMeters returns the tile's (width, height) in meters
// along its south and west edges.
func (s Signature) GeorectangleSizeMeters() (width, height float64) {
	sw := s.SWCorner()
	se := geodesy.Coordinate{Lat: sw.Lat, Lon: sw.Lon + 1}
	nw := geodesy.Coordinate{Lat: sw.Lat + 1, Lon: sw.Lon}
	return geodesy.Distance(sw, se), geodesy.Distance(sw, nw)
}

// ParseRelativePath is the inverse of RelativePath for the default
// template, recovering component signs from the quarter directory.
func ParseRelativePath(rel string) (Signature, error) {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	if len(parts) != 3 {
		return Signature{}, fmt.Errorf("signature: malformed relative path %q", rel)
	}
	quarterDigit, latStr, lonFile := parts[0], parts[1], parts[2]
	lonStr := strings.TrimSuffix(lonFile, filepath.Ext(lonFile))

	var q Quarter
	switch quarterDigit {
	case "0":
		q = NW
	case "1":
		q = NE
	case "2":
		q = SW
	case "3":
		q = SE
	default:
		return Signature{}, fmt.Errorf("signature: invalid quarter specifier %q", quarterDigit)
	}

	lat, err := strconv.Atoi(latStr)
	if err != nil {
		return Signature{}, fmt.Errorf("signature: invalid latitude %q: %w", latStr, err)
	}
	lon, err := strconv.Atoi(lonStr)
	if err != nil {
		return Signature{}, fmt.Errorf("signature: invalid longitude %q: %w", lonStr, err)
	}

	latSign, lonSign := 1, 1
	if q == NW || q == SW {
		lonSign = -1
	}
	if q == SW || q == SE {
		latSign = -1
	}

	return Signature{Lat: int8(latSign * lat), Lon: int16(lonSign * lon)}, nil
}
