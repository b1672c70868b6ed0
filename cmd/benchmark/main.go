// Command benchmark drives concurrent load against one of three
// backends: the k-d tree (pkg/kdindex), a linear scan (pkg/linear),
// or an rtreego-backed approximation (pkg/baseline), and reports
// throughput and latency. Queries against a single loaded index run
// concurrently from this CLI only; pkg/kdindex itself has no internal
// concurrency, per its own package doc.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kass/sphere-kdindex/pkg/baseline"
	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/linear"
	"github.com/kass/sphere-kdindex/pkg/models"
)

// BenchmarkResult summarizes one batch of timed queries.
type BenchmarkResult struct {
	Backend       string
	QueryType     string
	TotalQueries  int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	QueriesPerSec float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	TotalResults  int64
	AvgResults    float64
}

// searcher is the minimal surface every backend under test exposes.
// It mirrors geosearch.Index but returns plain lengths so this command
// doesn't need to depend on the row-adapter plumbing.
type searcher interface {
	searchByDistance(q models.Point, d float64) int
	searchByBox(cornerW, cornerE models.Point) int
}

type kdSearcher struct{ idx *kdindex.KDIndex }

func (s kdSearcher) searchByDistance(q models.Point, d float64) int {
	return len(s.idx.SearchByDistance(q, d))
}
func (s kdSearcher) searchByBox(cornerW, cornerE models.Point) int {
	return len(s.idx.SearchByBox(cornerW, cornerE))
}

type linearSearcher struct{ c *linear.Container }

func (s linearSearcher) searchByDistance(q models.Point, d float64) int {
	return len(s.c.SearchByDistance(q, d))
}
func (s linearSearcher) searchByBox(cornerW, cornerE models.Point) int {
	return len(s.c.SearchByBox(cornerW, cornerE))
}

type baselineSearcher struct{ idx *baseline.Index }

func (s baselineSearcher) searchByDistance(q models.Point, d float64) int {
	ids, err := s.idx.SearchByDistance(q, d)
	if err != nil {
		return 0
	}
	return len(ids)
}
func (s baselineSearcher) searchByBox(cornerW, cornerE models.Point) int {
	ids, err := s.idx.SearchByBox(cornerW, cornerE)
	if err != nil {
		return 0
	}
	return len(ids)
}

func main() {
	var (
		indexFile  = flag.String("i", "data/index.gob", "Index file to load for the kdtree/linear/baseline backends")
		backend    = flag.String("backend", "compare", "Backend: kdtree, linear, baseline, compare (runs all three)")
		queryType  = flag.String("t", "box", "Query type: box, radius")
		numQueries = flag.Int("n", 1000, "Number of queries to run")
		workers    = flag.Int("w", runtime.NumCPU(), "Number of concurrent workers")
		minLat     = flag.Float64("min-lat", 25.0, "Minimum latitude for random queries (degrees)")
		maxLat     = flag.Float64("max-lat", 49.0, "Maximum latitude for random queries (degrees)")
		minLon     = flag.Float64("min-lon", -125.0, "Minimum longitude for random queries (degrees)")
		maxLon     = flag.Float64("max-lon", -66.0, "Maximum longitude for random queries (degrees)")
		boxSize    = flag.Float64("box-size", 1.0, "Box size in degrees (box queries)")
		radiusKm   = flag.Float64("radius", 50.0, "Radius in km (radius queries)")
	)
	flag.Parse()

	log.Printf("loading index from %s", *indexFile)
	kdIdx, err := kdindex.LoadFromFile(*indexFile)
	if err != nil {
		log.Fatalf("failed to load index: %v", err)
	}
	log.Printf("index loaded with %d points", kdIdx.Len())

	points := kdIdx.Points()
	const sphereRadius = 6371.0

	backends := map[string]searcher{}
	switch *backend {
	case "kdtree":
		backends["kdtree"] = kdSearcher{kdIdx}
	case "linear":
		lc, err := linear.New(points, sphereRadius, 0)
		if err != nil {
			log.Fatalf("failed to build linear container: %v", err)
		}
		backends["linear"] = linearSearcher{lc}
	case "baseline":
		bi, err := baseline.New(points, sphereRadius)
		if err != nil {
			log.Fatalf("failed to build baseline index: %v", err)
		}
		backends["baseline"] = baselineSearcher{bi}
	case "compare":
		lc, err := linear.New(points, sphereRadius, 0)
		if err != nil {
			log.Fatalf("failed to build linear container: %v", err)
		}
		bi, err := baseline.New(points, sphereRadius)
		if err != nil {
			log.Fatalf("failed to build baseline index: %v", err)
		}
		backends["kdtree"] = kdSearcher{kdIdx}
		backends["linear"] = linearSearcher{lc}
		backends["baseline"] = baselineSearcher{bi}
	default:
		log.Fatalf("unknown backend: %s", *backend)
	}

	for _, name := range []string{"kdtree", "linear", "baseline"} {
		s, ok := backends[name]
		if !ok {
			continue
		}
		log.Printf("running %d %s queries against %s with %d workers", *numQueries, *queryType, name, *workers)
		var result BenchmarkResult
		switch *queryType {
		case "box":
			result = benchmarkQueries(name, "box", s, *numQueries, *workers,
				*minLat, *maxLat, *minLon, *maxLon, func(r *rand.Rand) int {
					latDeg := *minLat + r.Float64()*(*maxLat-*minLat-*boxSize)
					lonDeg := *minLon + r.Float64()*(*maxLon-*minLon-*boxSize)
					cornerW := models.Point{Lat: degToRad(latDeg), Lon: degToRad(lonDeg)}
					cornerE := models.Point{Lat: degToRad(latDeg + *boxSize), Lon: degToRad(lonDeg + *boxSize)}
					return s.searchByBox(cornerW, cornerE)
				})
		case "radius":
			result = benchmarkQueries(name, "radius", s, *numQueries, *workers,
				*minLat, *maxLat, *minLon, *maxLon, func(r *rand.Rand) int {
					latDeg := *minLat + r.Float64()*(*maxLat-*minLat)
					lonDeg := *minLon + r.Float64()*(*maxLon-*minLon)
					center := models.Point{Lat: degToRad(latDeg), Lon: degToRad(lonDeg)}
					return s.searchByDistance(center, *radiusKm)
				})
		default:
			log.Fatalf("unknown query type: %s", *queryType)
		}
		printResult(result)
	}
}

func benchmarkQueries(backend, queryType string, s searcher, numQueries, workers int,
	minLat, maxLat, minLon, maxLon float64, run func(r *rand.Rand) int) BenchmarkResult {

	var (
		totalResults int64
		minDuration  = time.Hour
		maxDuration  time.Duration
		durations    []time.Duration
		mu           sync.Mutex
	)

	startTime := time.Now()

	queryCh := make(chan int, numQueries)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(rand.Int63()))

			for range queryCh {
				queryStart := time.Now()
				n := run(r)
				queryDuration := time.Since(queryStart)

				atomic.AddInt64(&totalResults, int64(n))

				mu.Lock()
				durations = append(durations, queryDuration)
				if queryDuration < minDuration {
					minDuration = queryDuration
				}
				if queryDuration > maxDuration {
					maxDuration = queryDuration
				}
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < numQueries; i++ {
		queryCh <- i
	}
	close(queryCh)

	wg.Wait()
	totalDuration := time.Since(startTime)

	var totalDur time.Duration
	for _, d := range durations {
		totalDur += d
	}
	avgDuration := totalDur / time.Duration(len(durations))

	return BenchmarkResult{
		Backend:       backend,
		QueryType:     queryType,
		TotalQueries:  numQueries,
		TotalDuration: totalDuration,
		AvgDuration:   avgDuration,
		QueriesPerSec: float64(numQueries) / totalDuration.Seconds(),
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalResults:  totalResults,
		AvgResults:    float64(totalResults) / float64(numQueries),
	}
}

func printResult(result BenchmarkResult) {
	fmt.Printf("\n=== %s / %s ===\n", result.Backend, result.QueryType)
	fmt.Printf("Total Queries: %d\n", result.TotalQueries)
	fmt.Printf("Total Duration: %v\n", result.TotalDuration)
	fmt.Printf("Average Duration: %v\n", result.AvgDuration)
	fmt.Printf("Queries/Second: %.2f\n", result.QueriesPerSec)
	fmt.Printf("Min Duration: %v\n", result.MinDuration)
	fmt.Printf("Max Duration: %v\n", result.MaxDuration)
	fmt.Printf("Total Results: %d\n", result.TotalResults)
	fmt.Printf("Avg Results/Query: %.2f\n", result.AvgResults)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
