// Command build generates random points over a geographic bounding box,
// builds a KDIndex over them, and persists the result to a gob file
// cmd/query can later load. Point generation is parallelized across
// workers since it's ordinary CLI tooling, not the core's synchronous
// build step (kdindex.New itself runs single-threaded).
package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/models"
)

func main() {
	var (
		numPoints  = flag.Int("n", 1000000, "Number of points to generate")
		outputFile = flag.String("o", "data/index.gob", "Output file path")
		workers    = flag.Int("w", runtime.NumCPU(), "Number of worker goroutines for point generation")
		nStop      = flag.Int("n-stop", 64, "Leaf threshold for the k-d tree")
		radiusKm   = flag.Float64("radius", 6371.0, "Sphere radius in km")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		// Geographic bounds in degrees (default: roughly the continental USA).
		minLat = flag.Float64("min-lat", 25.0, "Minimum latitude (degrees)")
		maxLat = flag.Float64("max-lat", 49.0, "Maximum latitude (degrees)")
		minLon = flag.Float64("min-lon", -125.0, "Minimum longitude (degrees)")
		maxLon = flag.Float64("max-lon", -66.0, "Maximum longitude (degrees)")
	)
	flag.Parse()

	if err := os.MkdirAll("data", 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	log.Printf("generating %d random points with %d workers", *numPoints, *workers)
	log.Printf("bounds: lat[%.2f, %.2f], lon[%.2f, %.2f]", *minLat, *maxLat, *minLon, *maxLon)

	rand.Seed(*seed)
	points := generateRandomPoints(*numPoints, *minLat, *maxLat, *minLon, *maxLon, *workers)

	log.Println("building k-d tree index")
	start := time.Now()
	idx, err := kdindex.New(points, *nStop, *radiusKm)
	if err != nil {
		log.Fatalf("failed to build index: %v", err)
	}
	buildTime := time.Since(start)
	log.Printf("index built in %v (%.0f points/sec)", buildTime, float64(*numPoints)/buildTime.Seconds())

	log.Printf("saving index to %s", *outputFile)
	if err := idx.SaveToFile(*outputFile, *nStop); err != nil {
		log.Fatalf("failed to save index: %v", err)
	}

	if fi, err := os.Stat(*outputFile); err == nil {
		log.Printf("index file size: %.2f MB", float64(fi.Size())/(1024*1024))
	}
	log.Printf("total points indexed: %d", idx.Len())
}

func generateRandomPoints(n int, minLatDeg, maxLatDeg, minLonDeg, maxLonDeg float64, workers int) []models.Point {
	points := make([]models.Point, n)

	pointsPerWorker := n / workers
	remainder := n % workers

	type workRange struct{ start, end int }
	work := make(chan workRange, workers)
	done := make(chan bool, workers)

	for w := 0; w < workers; w++ {
		go func() {
			r := rand.New(rand.NewSource(rand.Int63()))
			for wr := range work {
				for i := wr.start; i < wr.end; i++ {
					latDeg := minLatDeg + r.Float64()*(maxLatDeg-minLatDeg)
					lonDeg := minLonDeg + r.Float64()*(maxLonDeg-minLonDeg)
					points[i] = models.Point{
						ID:  uint64(i),
						Lat: latDeg * math.Pi / 180,
						Lon: lonDeg * math.Pi / 180,
					}
				}
			}
			done <- true
		}()
	}

	start := 0
	for w := 0; w < workers; w++ {
		size := pointsPerWorker
		if w < remainder {
			size++
		}
		work <- workRange{start: start, end: start + size}
		start += size
	}
	close(work)

	for w := 0; w < workers; w++ {
		<-done
	}

	return points
}
