// Package raster decodes elevation tile files and exposes per-pixel
// elevation lookup plus the raster's dimensions.
package raster

import (
	"image"
	"os"

	"github.com/hhrutter/tiff"
)

// Provider exposes a decoded elevation tile: its pixel dimensions and
// elevation lookup, in meters, at a pixel coordinate.
type Provider interface {
	Size() (width, height int)
	Pixel(u, v int) float32
	Close() error
}

// grayRaster adapts a decoded image.Image to Provider. Elevation tiles are
// single-channel; the gray value is read directly as meters.
type grayRaster struct {
	img           image.Image
	width, height int
	closer        func() error
}

func (g *grayRaster) Size() (int, int) { return g.width, g.height }

func (g *grayRaster) Pixel(u, v int) float32 {
	if u < 0 {
		u = 0
	}
	if v < 0 {
		v = 0
	}
	if u >= g.width {
		u = g.width - 1
	}
	if v >= g.height {
		v = g.height - 1
	}
	bounds := g.img.Bounds()
	if gimg, ok := g.img.(*image.Gray16); ok {
		return float32(int32(gimg.Gray16At(bounds.Min.X+u, bounds.Min.Y+v).Y) - 32768)
	}
	gr, _, _, _ := g.img.At(bounds.Min.X+u, bounds.Min.Y+v).RGBA()
	return float32(int32(gr>>8) - 128)
}

func (g *grayRaster) Close() error {
	if g.closer != nil {
		return g.closer()
	}
	return nil
}

// DecodeFile opens path and decodes it as a GeoTIFF elevation tile. The
// returned Provider owns the underlying file handle until Close is called.
func DecodeFile(path string) (Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	img, err := tiff.Decode(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	bounds := img.Bounds()
	return &grayRaster{
		img:    img,
		width:  bounds.Dx(),
		height: bounds.Dy(),
		closer: f.Close,
	}, nil
}
