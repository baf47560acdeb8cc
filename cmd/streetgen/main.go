// Command streetgen is a thin CLI wrapper around the streets library: it
// reads an already-decoded OSM document (nodes/ways/relations as plain
// JSON, not an .osm.pbf/.osm.xml file), runs the full splitting,
// clipping, transformation, and intersection-polygon pipeline, and writes
// the GeoJSON outputs package geom/render produces.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"streets/config"
	"streets/geom"
	"streets/geom/render"
	"streets/intersection"
	"streets/osmsplit"
	"streets/planar"
	"streets/transform"
	"streets/units"
)

func main() {
	input := flag.String("input", "", "Path to a JSON OSM document (nodes/ways/relations)")
	outDir := flag.String("out", "out", "Directory to write GeoJSON outputs into")
	drivingSide := flag.String("driving-side", "right", "Driving side: right or left")
	countryCode := flag.String("country", "US", "ISO-3166-1 alpha-2 country code for lane-width defaults")
	experimental := flag.Bool("experimental", false, "Also run the optional transform passes (MergeDualCarriageways, ZipSidepaths, RemoveDisconnectedRoads)")
	debugSteps := flag.Bool("debug-steps", false, "Write a Plain FeatureCollection after every transform pass")
	checked := flag.Bool("checked", false, "Halt if a transform pass violates structural invariants instead of logging")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: streetgen --input <doc.json> [--out out] [--driving-side right|left] [--country US] [--experimental] [--debug-steps]")
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.CountryCode = strings.ToUpper(*countryCode)
	if strings.EqualFold(*drivingSide, "left") {
		cfg.DrivingSide = units.Left
	}

	start := time.Now()

	log.Printf("Reading %s...", *input)
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("streetgen: open input: %v", err)
	}
	defer f.Close()

	in, err := osmsplit.DecodeJSON(f)
	if err != nil {
		log.Fatalf("streetgen: %v", err)
	}
	log.Printf("Parsed %d nodes, %d ways, %d relations", len(in.Nodes), len(in.Ways), len(in.Restrictions))

	log.Println("Splitting...")
	result, err := osmsplit.Split(in, cfg)
	if err != nil {
		log.Fatalf("streetgen: split: %v", err)
	}
	sn := result.Network

	projector := geom.NewProjector(sn.GPSBounds)

	log.Println("Clipping to boundary...")
	if err := osmsplit.Clip(sn, projector); err != nil {
		log.Fatalf("streetgen: clip: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("streetgen: mkdir %s: %v", *outDir, err)
	}

	var onStep func(transform.Snapshot)
	stepCount := 0
	if *debugSteps {
		onStep = func(snap transform.Snapshot) {
			stepCount++
			writeGeoJSON(filepath.Join(*outDir, fmt.Sprintf("debug-%02d-%s.geojson", stepCount, snap.Label)), render.Plain(snap.Network, projector))
		}
	}

	runPipeline := transform.Run
	if *checked {
		runPipeline = transform.RunChecked
	}

	log.Println("Running standard transformation pipeline...")
	if err := runPipeline(sn, transform.DefaultPipeline(), onStep); err != nil {
		log.Fatalf("streetgen: transform: %v", err)
	}

	if *experimental {
		log.Println("Running experimental transformation passes...")
		if err := runPipeline(sn, transform.ExperimentalPipeline(), onStep); err != nil {
			log.Fatalf("streetgen: experimental transform: %v", err)
		}
	}

	log.Println("Generating intersection polygons...")
	intersection.GeneratePolygons(sn)

	if errs := sn.CheckInvariants(); len(errs) > 0 {
		log.Printf("Warning: %d invariant violations after pipeline, first: %v", len(errs), errs[0])
	}

	log.Println("Exploding planar graph and tracing blocks...")
	lines := planar.FromNetwork(sn)
	pg := planar.Build(lines)
	boundaryArea := 0.0
	if len(sn.BoundaryPolygon) > 0 {
		boundaryArea = geom.Area(orb.Ring(projector.LineToPlane(orb.LineString(sn.BoundaryPolygon))))
	}
	faces := pg.TraceFaces(boundaryArea)
	colors := planar.ColorFaces(faces)
	log.Printf("Traced %d blocks", len(faces))

	log.Println("Writing outputs...")
	writeGeoJSON(filepath.Join(*outDir, "plain.geojson"), render.Plain(sn, projector))
	writeGeoJSON(filepath.Join(*outDir, "lanes.geojson"), render.Lanes(sn, projector))
	writeGeoJSON(filepath.Join(*outDir, "markings.geojson"), render.Markings(sn, projector))
	writeGeoJSON(filepath.Join(*outDir, "blocks.geojson"), render.Blocks(faces, colors, projector))

	log.Printf("Done in %s. %d roads, %d intersections, %d blocks written to %s", time.Since(start).Round(time.Millisecond), len(sn.Roads), len(sn.Intersections), len(faces), *outDir)
}

func writeGeoJSON(path string, fc interface{ MarshalJSON() ([]byte, error) }) {
	data, err := fc.MarshalJSON()
	if err != nil {
		log.Printf("Warning: streetgen: marshal %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("Warning: streetgen: write %s: %v", path, err)
	}
}
