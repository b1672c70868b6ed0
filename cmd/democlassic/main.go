// Command democlassic is the non-interactive counterpart to cmd/demo:
// plain ANSI-colored stdout output instead of a Bubble Tea TUI, driven
// by a YAML config file, that builds a k-d tree and compares its box
// query throughput against the PostGIS-backed hoststore.Index. After a
// run that reached the database it stops the PostGIS container with
// docker compose down; it does not start the container. It skips the
// nearest-neighbor phase, since k-NN is out of scope for the index
// core.
package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/kass/sphere-kdindex/pkg/hoststore"
	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/models"
)

const indexFile = "geo_index.gob"

// Config is the demo's tunable parameters, loaded from config.yaml.
type Config struct {
	Demo struct {
		Points            int `yaml:"points"`
		BenchmarkDuration int `yaml:"benchmark_duration"`
	} `yaml:"demo"`
	HostStore struct {
		Host              string `yaml:"host"`
		Port              int    `yaml:"port"`
		User              string `yaml:"user"`
		Password          string `yaml:"password"`
		Database          string `yaml:"database"`
		MaxConnections    int    `yaml:"max_connections"`
		ConnectionTimeout int    `yaml:"connection_timeout"`
	} `yaml:"hoststore"`
	Network struct {
		SimulatedLatencyMs int `yaml:"simulated_latency_ms"`
	} `yaml:"network"`
}

var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"

	config Config

	simulateNetworkLatency = false
	networkLatency         time.Duration
)

func init() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		colorReset, colorRed, colorGreen, colorYellow, colorPurple, colorCyan, colorBold = "", "", "", "", "", "", ""
	}
}

func printTitle(title string) {
	fmt.Printf("\n%s%s🌍 %s%s\n", colorBold, colorPurple, title, colorReset)
	fmt.Println(strings.Repeat("=", 60))
}

func printSubtitle(subtitle string) {
	fmt.Printf("\n%s%s%s%s\n", colorBold, colorCyan, subtitle, colorReset)
}

func printSuccess(message string) { fmt.Printf("%s✓ %s%s\n", colorGreen, message, colorReset) }
func printError(message string)   { fmt.Printf("%s✗ %s%s\n", colorRed, message, colorReset) }
func printInfo(message string)    { fmt.Printf("%s• %s%s\n", colorYellow, message, colorReset) }

func printStat(label string, value interface{}) {
	fmt.Printf("  %s%s:%s %s%v%s\n", colorBold, label, colorReset, colorYellow, value, colorReset)
}

func printProgress(current, total int, label string) {
	percent := float64(current) / float64(total) * 100
	const barLength = 40
	filled := int(percent / 100 * float64(barLength))

	bar := "["
	for i := 0; i < barLength; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	bar += "]"

	fmt.Printf("\r%s %s%.1f%%%s %s", label, colorCyan, percent, colorReset, bar)
	if current >= total {
		fmt.Println()
	}
}

func loadConfig() error {
	data, err := os.ReadFile("config.yaml")
	if err != nil {
		data, err = os.ReadFile("config.yaml.example")
		if err != nil {
			return fmt.Errorf("config.yaml not found; copy config.yaml.example to config.yaml")
		}
		fmt.Printf("%sUsing config.yaml.example (copy to config.yaml for custom settings)%s\n", colorYellow, colorReset)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

type benchmarkStats struct {
	queriesPerSecond float64
	avgQueryTime     time.Duration
	totalQueries     int64
}

func main() {
	if err := loadConfig(); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "--network-latency" {
		simulateNetworkLatency = true
		networkLatency = time.Duration(config.Network.SimulatedLatencyMs) * time.Millisecond
	}

	printTitle("Sphere k-d Index Demo")

	idx := loadAndIndex()

	time.Sleep(500 * time.Millisecond)
	kdStats := runKDTreeBenchmark(idx)

	time.Sleep(500 * time.Millisecond)
	hostStats := runHostStoreBenchmark(idx)

	printComparison(kdStats, hostStats)
	printSummary()

	if hostStats.totalQueries > 0 {
		fmt.Println()
		printInfo("Stopping hoststore container...")
		cmd := exec.Command("docker", "compose", "down")
		if err := cmd.Run(); err != nil {
			printError("Failed to stop the hoststore container. Run 'make postgis-down' manually.")
		} else {
			printSuccess("Hoststore container stopped")
		}
	}
}

func loadAndIndex() *kdindex.KDIndex {
	const nStop = 64
	const sphereRadius = 6371.0

	if fileInfo, err := os.Stat(indexFile); err == nil {
		printSubtitle("Using Existing Index")
		idx, err := kdindex.LoadFromFile(indexFile)
		if err != nil {
			fmt.Printf("%sError loading existing index: %v%s\n", colorRed, err, colorReset)
			fmt.Println("Regenerating index...")
		} else if idx.Len() >= config.Demo.Points {
			fileSize := fileInfo.Size()
			printSuccess(fmt.Sprintf("Found existing index: %s", indexFile))
			fmt.Println()
			printStat("Index file size", humanSize(fileSize))
			printStat("Points indexed", idx.Len())
			printStat("CPU cores", runtime.NumCPU())
			fmt.Println()
			printInfo("Skipping index generation - using existing data")
			return idx
		}
	}

	printSubtitle("Building the k-d Tree")

	numPoints := config.Demo.Points
	fmt.Printf("Generating %s%d%s random geographic points...\n", colorBold, numPoints, colorReset)

	points := generateRandomPoints(numPoints)

	start := time.Now()
	idx, err := kdindex.New(points, nStop, sphereRadius)
	if err != nil {
		log.Fatalf("failed to build index: %v", err)
	}
	buildTime := time.Since(start)

	if err := idx.SaveToFile(indexFile, nStop); err != nil {
		log.Printf("error saving index: %v", err)
	}

	printSuccess(fmt.Sprintf("Built %d points in %v", idx.Len(), buildTime))
	printSuccess(fmt.Sprintf("Build rate: %.0f points/second", float64(numPoints)/buildTime.Seconds()))
	printSuccess(fmt.Sprintf("Index saved to %s", indexFile))

	return idx
}

func humanSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(bytes)/(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func runKDTreeBenchmark(idx *kdindex.KDIndex) benchmarkStats {
	printSubtitle("Running k-d Tree Bounding Box Queries")

	benchDuration := time.Duration(config.Demo.BenchmarkDuration) * time.Second
	fmt.Printf("Running single-threaded benchmark for %s%v%s\n", colorBold, benchDuration, colorReset)

	var queryCount atomic.Int64
	start := time.Now()
	deadline := start.Add(benchDuration)

	done := make(chan bool)
	go reportDeadlineProgress(start, benchDuration, done)

	for time.Now().Before(deadline) {
		cornerW, cornerE := randomBox()
		idx.SearchByBox(cornerW, cornerE)
		queryCount.Add(1)
	}
	done <- true
	elapsed := time.Since(start)

	completed := queryCount.Load()
	fmt.Println()
	printSuccess("k-d Tree Bounding Box Queries Complete!")
	printStat("Total queries", completed)
	printStat("Queries per second", fmt.Sprintf("%.0f", float64(completed)/elapsed.Seconds()))
	printStat("Average query time", elapsed/time.Duration(completed))

	return benchmarkStats{
		queriesPerSecond: float64(completed) / elapsed.Seconds(),
		avgQueryTime:     elapsed / time.Duration(completed),
		totalQueries:     completed,
	}
}

func runHostStoreBenchmark(idx *kdindex.KDIndex) benchmarkStats {
	printSubtitle("Running Hoststore (PostGIS) Bounding Box Queries")

	printInfo("Connecting to hoststore...")
	store, err := hoststore.Open(config.HostStore.Host, config.HostStore.User, config.HostStore.Password,
		config.HostStore.Database, config.HostStore.Port, 6371.0)
	if err != nil {
		printError(fmt.Sprintf("hoststore connection failed: %v", err))
		fmt.Println()
		printInfo("Skipping hoststore benchmark. To enable it:")
		printInfo("1. Ensure Docker is running")
		printInfo("2. Run 'make postgis-up' to start the database")
		return benchmarkStats{}
	}
	defer store.Close()
	printSuccess("Connected to hoststore")

	count, err := store.Count()
	if err != nil || count < int64(config.Demo.Points) {
		printInfo("Loading points into hoststore...")
		if err := store.InitSchema(); err != nil {
			log.Printf("failed to init schema: %v", err)
			return benchmarkStats{}
		}

		points := idx.Points()
		start := time.Now()
		if err := store.BulkInsertPoints(points); err != nil {
			log.Printf("failed to insert points: %v", err)
			return benchmarkStats{}
		}
		printSuccess(fmt.Sprintf("Loaded %d points in %v", len(points), time.Since(start)))

		indexStart := time.Now()
		if err := store.CreateSpatialIndex(); err != nil {
			log.Printf("failed to create spatial index: %v", err)
			return benchmarkStats{}
		}
		printSuccess(fmt.Sprintf("Created spatial index in %v", time.Since(indexStart)))
	} else {
		printSuccess(fmt.Sprintf("Found existing hoststore data with %d points", count))
	}

	benchDuration := time.Duration(config.Demo.BenchmarkDuration) * time.Second
	fmt.Printf("Running single-threaded benchmark for %s%v%s\n", colorBold, benchDuration, colorReset)
	if simulateNetworkLatency {
		fmt.Printf("%sSimulating network latency: +%v per query%s\n", colorCyan, networkLatency, colorReset)
	}

	var queryCount atomic.Int64
	start := time.Now()
	deadline := start.Add(benchDuration)

	done := make(chan bool)
	go reportDeadlineProgress(start, benchDuration, done)

	for time.Now().Before(deadline) {
		cornerW, cornerE := randomBox()
		store.SearchByBox(cornerW, cornerE)
		queryCount.Add(1)
		if simulateNetworkLatency {
			time.Sleep(networkLatency)
		}
	}
	done <- true
	elapsed := time.Since(start)

	completed := queryCount.Load()
	fmt.Println()
	printSuccess("Hoststore Bounding Box Queries Complete!")
	printStat("Total queries", completed)
	printStat("Queries per second", fmt.Sprintf("%.0f", float64(completed)/elapsed.Seconds()))
	printStat("Average query time", elapsed/time.Duration(completed))

	return benchmarkStats{
		queriesPerSecond: float64(completed) / elapsed.Seconds(),
		avgQueryTime:     elapsed / time.Duration(completed),
		totalQueries:     completed,
	}
}

func reportDeadlineProgress(start time.Time, duration time.Duration, done chan bool) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			percent := time.Since(start).Seconds() / duration.Seconds() * 100
			if percent > 100 {
				percent = 100
			}
			printProgress(int(percent), 100, "Benchmarking")
		}
	}
}

func printComparison(kdStats, hostStats benchmarkStats) {
	printTitle("Performance Comparison")

	fmt.Printf("%s%-20s %-20s %-20s%s\n", colorBold, "Metric", "k-d tree", "hoststore", colorReset)
	fmt.Println(strings.Repeat("-", 62))

	hostQPS := "N/A"
	if hostStats.queriesPerSecond > 0 {
		hostQPS = fmt.Sprintf("%.0f", hostStats.queriesPerSecond)
	}
	fmt.Printf("%-20s %-20s %-20s\n", "Queries/second", fmt.Sprintf("%.0f", kdStats.queriesPerSecond), hostQPS)

	hostAvg := "N/A"
	if hostStats.avgQueryTime > 0 {
		hostAvg = hostStats.avgQueryTime.String()
	}
	fmt.Printf("%-20s %-20s %-20s\n", "Avg query time", kdStats.avgQueryTime.String(), hostAvg)

	if hostStats.queriesPerSecond > 0 {
		ratio := kdStats.queriesPerSecond / hostStats.queriesPerSecond
		fmt.Printf("\n%sk-d tree is %.1fx faster than hoststore%s\n", colorBold, ratio, colorReset)
	}
	fmt.Println()
}

func printSummary() {
	printTitle("Demo Complete! 🎉")
	fmt.Printf("\n%sThe k-d tree index demonstrated:%s\n", colorBold, colorReset)
	printInfo("In-memory spatial indexing with microsecond latency")
	printInfo("Closed-form spherical cap covering boxes for radial queries")
	printInfo("Antimeridian-aware box queries without coordinate rewriting")
	fmt.Printf("\n%sTest Dataset:%s %d geographic points\n", colorBold, colorReset, config.Demo.Points)
	fmt.Println()
}

func randomBox() (models.Point, models.Point) {
	centerLat := degToRad(rand.Float64()*180 - 90)
	centerLon := degToRad(rand.Float64()*360 - 180)
	boxSize := degToRad(rand.Float64()*1.9 + 0.1)
	return models.Point{Lat: centerLat - boxSize/2, Lon: centerLon - boxSize/2},
		models.Point{Lat: centerLat + boxSize/2, Lon: centerLon + boxSize/2}
}

func generateRandomPoints(n int) []models.Point {
	points := make([]models.Point, n)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < n; i++ {
		var latDeg, lonDeg float64
		switch r.Intn(5) {
		case 0:
			latDeg = r.Float64()*30 + 30
			lonDeg = r.Float64()*60 - 120
		case 1:
			latDeg = r.Float64()*20 + 40
			lonDeg = r.Float64()*40 - 10
		case 2:
			latDeg = r.Float64()*40 + 20
			lonDeg = r.Float64()*80 + 60
		case 3:
			latDeg = r.Float64()*40 - 50
			lonDeg = r.Float64()*30 - 80
		default:
			latDeg = r.Float64()*180 - 90
			lonDeg = r.Float64()*360 - 180
		}
		points[i] = models.Point{ID: uint64(i), Lat: degToRad(latDeg), Lon: degToRad(lonDeg)}
	}
	return points
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
