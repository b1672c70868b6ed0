// Command sphere-kdindex is a cobra-driven CLI wrapping the same
// build/query/benchmark operations as the standalone tools under
// cmd/build, cmd/query, and cmd/benchmark, under one binary with
// persistent flags. It does not import those tools (they are separate
// main packages); it reimplements the same calls against pkg/kdindex
// directly rather than sharing code across package main boundaries.
package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/models"
)

var (
	indexFile string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "sphere-kdindex",
	Short: "Spherical k-d tree geo-spatial indexing demo",
	Long:  "A demonstration of a spherical k-d tree for radial and box geo-spatial queries, with concurrent benchmark tooling.",
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a k-d tree index from random points",
	Run:   runBuild,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run bounding-box query benchmarks on the index",
	Run:   runQuery,
}

var radiusCmd = &cobra.Command{
	Use:   "radius",
	Short: "Run radial query benchmarks on the index",
	Run:   runRadius,
}

var (
	numPoints    int
	numQueries   int
	searchRadius float64
	numWorkers   int
	nStop        int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&indexFile, "file", "f", "geo_index.gob", "Index file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	buildCmd.Flags().IntVarP(&numPoints, "points", "p", 1000000, "Number of points to generate")
	buildCmd.Flags().IntVarP(&nStop, "n-stop", "s", 64, "Leaf threshold for the k-d tree")

	queryCmd.Flags().IntVarP(&numQueries, "queries", "q", 1000, "Number of queries to run")
	queryCmd.Flags().IntVarP(&numWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")

	radiusCmd.Flags().IntVarP(&numQueries, "queries", "q", 1000, "Number of queries to run")
	radiusCmd.Flags().Float64VarP(&searchRadius, "radius", "r", 50.0, "Search radius in km")
	radiusCmd.Flags().IntVarP(&numWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")

	rootCmd.AddCommand(buildCmd, queryCmd, radiusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) {
	fmt.Printf("Building a k-d tree index from %d random points...\n", numPoints)

	points := generateRandomPoints(numPoints)

	start := time.Now()
	idx, err := kdindex.New(points, nStop, 6371.0)
	if err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}
	buildTime := time.Since(start)

	fmt.Printf("Built %d points in %v\n", idx.Len(), buildTime)
	fmt.Printf("Points per second: %.0f\n", float64(numPoints)/buildTime.Seconds())

	if err := idx.SaveToFile(indexFile, nStop); err != nil {
		log.Fatalf("Failed to save index: %v", err)
	}
	fmt.Printf("Index saved to %s\n", indexFile)
}

func runQuery(cmd *cobra.Command, args []string) {
	fmt.Printf("Loading index from %s...\n", indexFile)
	index, err := kdindex.LoadFromFile(indexFile)
	if err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}
	fmt.Printf("Loaded %d points\n", index.Len())
	fmt.Printf("Running %d bounding box queries using %d workers...\n", numQueries, numWorkers)

	type box struct{ cornerW, cornerE models.Point }
	queries := make([]box, numQueries)
	for i := 0; i < numQueries; i++ {
		centerLat := degToRad(rand.Float64()*180 - 90)
		centerLon := degToRad(rand.Float64()*360 - 180)
		boxSize := degToRad(rand.Float64()*1.9 + 0.1)
		queries[i] = box{
			cornerW: models.Point{Lat: centerLat - boxSize/2, Lon: centerLon - boxSize/2},
			cornerE: models.Point{Lat: centerLat + boxSize/2, Lon: centerLon + boxSize/2},
		}
	}

	var totalResults atomic.Int64
	start := time.Now()

	var wg sync.WaitGroup
	queriesPerWorker := numQueries / numWorkers

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * queriesPerWorker
		endIdx := startIdx + queriesPerWorker
		if w == numWorkers-1 {
			endIdx = numQueries
		}

		go func(workerID, start, end int) {
			defer wg.Done()
			localResults := 0
			for i := start; i < end; i++ {
				q := queries[i]
				ids := index.SearchByBox(q.cornerW, q.cornerE)
				localResults += len(ids)
				if verbose && i%100 == 0 {
					fmt.Printf("Worker %d: Query %d found %d results\n", workerID, i, len(ids))
				}
			}
			totalResults.Add(int64(localResults))
		}(w, startIdx, endIdx)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("\nBenchmark Results:\n")
	fmt.Printf("Total queries: %d\n", numQueries)
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Queries per second: %.0f\n", float64(numQueries)/elapsed.Seconds())
	fmt.Printf("Average query time: %v\n", elapsed/time.Duration(numQueries))
	fmt.Printf("Total results found: %d\n", totalResults.Load())
	fmt.Printf("Average results per query: %.1f\n", float64(totalResults.Load())/float64(numQueries))
}

func runRadius(cmd *cobra.Command, args []string) {
	fmt.Printf("Loading index from %s...\n", indexFile)
	index, err := kdindex.LoadFromFile(indexFile)
	if err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}
	fmt.Printf("Loaded %d points\n", index.Len())
	fmt.Printf("Running %d radius searches (%.1f km) using %d workers...\n", numQueries, searchRadius, numWorkers)

	centers := make([]models.Point, numQueries)
	for i := 0; i < numQueries; i++ {
		centers[i] = models.Point{
			Lat: degToRad(rand.Float64()*180 - 90),
			Lon: degToRad(rand.Float64()*360 - 180),
		}
	}

	var totalResults atomic.Int64
	start := time.Now()

	var wg sync.WaitGroup
	queriesPerWorker := numQueries / numWorkers

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * queriesPerWorker
		endIdx := startIdx + queriesPerWorker
		if w == numWorkers-1 {
			endIdx = numQueries
		}

		go func(workerID, start, end int) {
			defer wg.Done()
			localResults := 0
			for i := start; i < end; i++ {
				c := centers[i]
				results := index.SearchByDistance(c, searchRadius)
				localResults += len(results)
				if verbose && i%100 == 0 {
					fmt.Printf("Worker %d: Query %d found %d results\n", workerID, i, len(results))
				}
			}
			totalResults.Add(int64(localResults))
		}(w, startIdx, endIdx)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("\nRadius Search Benchmark Results:\n")
	fmt.Printf("Total queries: %d\n", numQueries)
	fmt.Printf("Search radius: %.1f km\n", searchRadius)
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Queries per second: %.0f\n", float64(numQueries)/elapsed.Seconds())
	fmt.Printf("Average query time: %v\n", elapsed/time.Duration(numQueries))
	fmt.Printf("Total results found: %d\n", totalResults.Load())
	fmt.Printf("Average results per query: %.1f\n", float64(totalResults.Load())/float64(numQueries))
}

// generateRandomPoints produces a realistic clustered distribution,
// weighted toward a few population centers rather than a uniform
// sphere.
func generateRandomPoints(n int) []models.Point {
	points := make([]models.Point, n)

	numWorkers := runtime.NumCPU()
	batchSize := n / numWorkers
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * batchSize
		endIdx := startIdx + batchSize
		if w == numWorkers-1 {
			endIdx = n
		}

		go func(start, end int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(start)))

			for i := start; i < end; i++ {
				var latDeg, lonDeg float64
				switch r.Intn(5) {
				case 0: // North America
					latDeg = r.Float64()*30 + 30
					lonDeg = r.Float64()*60 - 120
				case 1: // Europe
					latDeg = r.Float64()*20 + 40
					lonDeg = r.Float64()*40 - 10
				case 2: // Asia
					latDeg = r.Float64()*40 + 20
					lonDeg = r.Float64()*80 + 60
				case 3: // South America
					latDeg = r.Float64()*40 - 50
					lonDeg = r.Float64()*30 - 80
				default: // Uniform
					latDeg = r.Float64()*180 - 90
					lonDeg = r.Float64()*360 - 180
				}

				points[i] = models.Point{
					ID:  uint64(i),
					Lat: degToRad(latDeg),
					Lon: degToRad(lonDeg),
				}
			}
		}(startIdx, endIdx)
	}

	wg.Wait()
	return points
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
