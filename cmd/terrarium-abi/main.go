// Command terrarium-abi is built with -buildmode=c-shared to expose the C
// ABI surface: a version struct, elevation(lat,lon),
// convert_from_center(...), unload_tiles(), and enable_logger(). The
// single process-wide System instance sits behind an initialization-once
// barrier.
package main

/*
typedef struct {
	int major;
	int minor;
	int patch;
} MeridianVersion;
*/
import "C"

import (
	"context"
	"sync"

	"github.com/ashgrove-labs/terrarium"
)

const (
	versionMajor = 1
	versionMinor = 0
	versionPatch = 0

	defaultConfigPath = "cfg_meridian.ini"

	// errorSentinel is returned by meridian_elevation on any failure.
	errorSentinel = -404
)

var (
	initOnce sync.Once
	sys      *terrarium.System
	sysErr   error
)

func ensureSystem() (*terrarium.System, error) {
	initOnce.Do(func() {
		sys, sysErr = terrarium.NewSystem(defaultConfigPath)
	})
	return sys, sysErr
}

//export meridian_version
func meridian_version() C.MeridianVersion {
	return C.MeridianVersion{
		major: C.int(versionMajor),
		minor: C.int(versionMinor),
		patch: C.int(versionPatch),
	}
}

//export meridian_enable_logger
func meridian_enable_logger() C.int {
	if terrarium.InitLogger() {
		return 1
	}
	return 0
}

//export meridian_elevation
func meridian_elevation(lat C.double, lon C.double) C.int {
	s, err := ensureSystem()
	if err != nil {
		return errorSentinel
	}
	elev, err := s.ElevationAt(context.Background(), float64(lat), float64(lon))
	if err != nil {
		return errorSentinel
	}
	return C.int(int(elev))
}

//export meridian_convert_from_center
func meridian_convert_from_center(path *C.char, lat, lon, radiusM C.double, resolutionEnum, formatEnum C.int) C.int {
	s, err := ensureSystem()
	if err != nil {
		return 0
	}

	resolution := resolutionToEnum(int(resolutionEnum))
	format := terrarium.FormatPNG
	if formatEnum == 1 {
		format = terrarium.FormatRAW
	}

	center := terrarium.Coordinate{Lat: float64(lat), Lon: float64(lon)}
	err = s.ConvertFromCenter(context.Background(), C.GoString(path), center, float64(radiusM), resolution, format)
	if err != nil {
		return 0
	}
	return 1
}

//export meridian_unload_tiles
func meridian_unload_tiles() {
	s, err := ensureSystem()
	if err != nil {
		return
	}
	s.UnloadAll()
}

func resolutionToEnum(v int) terrarium.Resolution {
	switch v {
	case 0:
		return terrarium.UltraLow
	case 1:
		return terrarium.Low
	case 2:
		return terrarium.Medium
	case 3:
		return terrarium.High
	default:
		return terrarium.Low
	}
}

func main() {}
