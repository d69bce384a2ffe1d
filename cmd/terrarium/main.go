// Command terrarium wires the library's System into elevation, render,
// and prefetch subcommands.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ashgrove-labs/terrarium"
)

func main() {
	terrarium.InitLogger()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "elevation":
		runElevation(os.Args[2:])
	case "render":
		runRender(os.Args[2:])
	case "prefetch":
		runPrefetch(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: terrarium <elevation|render|prefetch> [flags]")
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "cfg_meridian.ini", "path to the INI config file")
}

func runElevation(args []string) {
	fs := flag.NewFlagSet("elevation", flag.ExitOnError)
	cfgPath := configFlag(fs)
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	fs.Parse(args)

	sys, err := terrarium.NewSystem(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	elev, err := sys.ElevationAt(context.Background(), *lat, *lon)
	if err != nil {
		log.Fatalf("elevation_at(%v,%v): %v", *lat, *lon, err)
	}
	fmt.Printf("%.1f\n", elev)
}

func runRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	cfgPath := configFlag(fs)
	out := fs.String("out", "heightmap", "output path stem (without extension)")
	topLat := fs.Float64("top", 0, "rectangle NW corner latitude")
	leftLon := fs.Float64("left", 0, "rectangle NW corner longitude")
	bottomLat := fs.Float64("bottom", 0, "rectangle SE corner latitude")
	rightLon := fs.Float64("right", 0, "rectangle SE corner longitude")
	resolution := fs.Int("resolution", int(terrarium.Low), "heightmap edge resolution (513/1025/2049/4097)")
	fs.Parse(args)

	sys, err := terrarium.NewSystem(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	rect := terrarium.Rectangle{
		TopLeft:     terrarium.Coordinate{Lat: *topLat, Lon: *leftLon},
		BottomRight: terrarium.Coordinate{Lat: *bottomLat, Lon: *rightLon},
	}

	if err := sys.ConvertGeorectangle(context.Background(), *out, rect, terrarium.Resolution(*resolution), terrarium.FormatPNG); err != nil {
		log.Fatalf("render: %v", err)
	}
	fmt.Printf("wrote %s.png and %s.json\n", *out, *out)
}

func runPrefetch(args []string) {
	fs := flag.NewFlagSet("prefetch", flag.ExitOnError)
	cfgPath := configFlag(fs)
	topLat := fs.Float64("top", 0, "rectangle NW corner latitude")
	leftLon := fs.Float64("left", 0, "rectangle NW corner longitude")
	bottomLat := fs.Float64("bottom", 0, "rectangle SE corner latitude")
	rightLon := fs.Float64("right", 0, "rectangle SE corner longitude")
	fs.Parse(args)

	sys, err := terrarium.NewSystem(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	rect := terrarium.Rectangle{
		TopLeft:     terrarium.Coordinate{Lat: *topLat, Lon: *leftLon},
		BottomRight: terrarium.Coordinate{Lat: *bottomLat, Lon: *rightLon},
	}

	report, err := sys.Prefetcher().Fetch(context.Background(), rect)
	if err != nil {
		log.Fatalf("prefetch: %v", err)
	}
	fmt.Printf("run=%s enumerated=%d downloaded=%d already_had=%d absent=%d failed=%d\n",
		report.RunID, report.Enumerated, report.Downloaded, report.AlreadyHad, report.Absent, report.Failed)
}
