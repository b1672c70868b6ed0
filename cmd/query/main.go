// Command query loads a persisted KDIndex and runs a single box or
// radius query against it, printing results as text or JSON.
//
// Nearest-neighbor queries are not offered here: k-NN search is an
// explicit non-goal of the index core (see pkg/kdindex), so there is
// nothing for this CLI to call.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/models"
)

func main() {
	var (
		indexFile = flag.String("i", "data/index.gob", "Index file path")
		queryType = flag.String("t", "box", "Query type: box, radius")
		// Box query parameters, in degrees.
		minLat = flag.Float64("min-lat", 0, "Minimum latitude (box query)")
		maxLat = flag.Float64("max-lat", 0, "Maximum latitude (box query)")
		minLon = flag.Float64("min-lon", 0, "Minimum longitude (box query)")
		maxLon = flag.Float64("max-lon", 0, "Maximum longitude (box query)")
		// Radius query parameters, in degrees / km.
		centerLat = flag.Float64("lat", 0, "Center latitude (radius query)")
		centerLon = flag.Float64("lon", 0, "Center longitude (radius query)")
		radiusKm  = flag.Float64("radius", 10, "Search radius in km (radius query)")
		// Output format
		outputJSON = flag.Bool("json", false, "Output results as JSON")
		limit      = flag.Int("limit", 100, "Maximum number of results to display")
	)
	flag.Parse()

	log.Printf("loading index from %s", *indexFile)
	index, err := kdindex.LoadFromFile(*indexFile)
	if err != nil {
		log.Fatalf("failed to load index: %v", err)
	}
	log.Printf("index loaded with %d points", index.Len())

	switch *queryType {
	case "box":
		runBoxQuery(index, *minLat, *maxLat, *minLon, *maxLon, *outputJSON, *limit)
	case "radius":
		runRadiusQuery(index, *centerLat, *centerLon, *radiusKm, *outputJSON, *limit)
	default:
		log.Fatalf("unknown query type: %s", *queryType)
	}
}

func runBoxQuery(index *kdindex.KDIndex, minLat, maxLat, minLon, maxLon float64, outputJSON bool, limit int) {
	if minLat == 0 && maxLat == 0 && minLon == 0 && maxLon == 0 {
		log.Fatal("box query requires --min-lat, --max-lat, --min-lon, --max-lon")
	}
	cornerW := models.Point{Lat: degToRad(minLat), Lon: degToRad(minLon)}
	cornerE := models.Point{Lat: degToRad(maxLat), Lon: degToRad(maxLon)}

	ids := index.SearchByBox(cornerW, cornerE)
	log.Printf("box query found %d points", len(ids))
	printIDs(ids, outputJSON, limit)
}

func runRadiusQuery(index *kdindex.KDIndex, centerLat, centerLon, radiusKm float64, outputJSON bool, limit int) {
	if centerLat == 0 && centerLon == 0 {
		log.Fatal("radius query requires --lat and --lon for the center point")
	}
	center := models.Point{Lat: degToRad(centerLat), Lon: degToRad(centerLon)}

	results := index.SearchByDistance(center, radiusKm)
	log.Printf("radius query (%.2f km) found %d points", radiusKm, len(results))
	printResults(results, outputJSON, limit)
}

func printIDs(ids []uint64, outputJSON bool, limit int) {
	if len(ids) > limit {
		log.Printf("showing first %d results (use --limit to see more)", limit)
		ids = ids[:limit]
	}
	if outputJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(ids); err != nil {
			log.Fatalf("failed to encode results: %v", err)
		}
		return
	}
	for i, id := range ids {
		fmt.Printf("%d. id=%d\n", i+1, id)
	}
}

func printResults(results []kdindex.Result, outputJSON bool, limit int) {
	if len(results) > limit {
		log.Printf("showing first %d results (use --limit to see more)", limit)
		results = results[:limit]
	}
	if outputJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			log.Fatalf("failed to encode results: %v", err)
		}
		return
	}
	for i, r := range results {
		fmt.Printf("%d. id=%d dist=%.2fkm\n", i+1, r.ID, r.DistanceKm)
	}
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
