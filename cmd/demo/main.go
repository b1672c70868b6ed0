// Command demo is a Bubble Tea TUI that builds a k-d tree index over a
// million generated points, then times bounding-box queries, radial
// queries, and a head-to-head against the plain linear-scan backend.
// Nearest-neighbor search has no stage here since k-NN is outside the
// index core's scope.
package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/linear"
	"github.com/kass/sphere-kdindex/pkg/models"
)

const indexFile = "geo_index.gob"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1).
			MarginTop(1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

type stage int

const (
	stageLoading stage = iota
	stageLoadComplete
	stageBoxBenchmark
	stageBoxComplete
	stageRadiusSearch
	stageRadiusComplete
	stageCompareLinear
	stageCompareComplete
	stageDone
)

type model struct {
	stage           stage
	spinner         spinner.Model
	progress        progress.Model
	progressPercent float64

	pointsLoaded int
	loadTime     time.Duration

	boxStats     benchmarkResult
	radiusStats  benchmarkResult
	compareStats compareResult

	messages []string
	width    int
	height   int
}

type benchmarkResult struct {
	totalQueries  int64
	totalTime     time.Duration
	totalResults  int64
	avgQueryTime  time.Duration
	queriesPerSec float64
}

type compareResult struct {
	kdTreeQueriesPerSec float64
	linearQueriesPerSec float64
	speedup             float64
}

type progressMsg float64
type stageCompleteMsg struct {
	stage stage
	stats interface{}
}
type messageMsg string

func initialModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	p := progress.New(progress.WithDefaultGradient())

	return model{
		stage:    stageLoading,
		spinner:  s,
		progress: p,
		messages: []string{},
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		runDemo(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		m.progressPercent = float64(msg)
		return m, m.progress.SetPercent(float64(msg))

	case messageMsg:
		m.messages = append(m.messages, string(msg))
		if len(m.messages) > 5 {
			m.messages = m.messages[1:]
		}
		return m, nil

	case stageCompleteMsg:
		switch msg.stage {
		case stageLoading:
			if stats, ok := msg.stats.(loadStats); ok {
				m.pointsLoaded = stats.points
				m.loadTime = stats.duration
			}
			m.stage = stageLoadComplete
		case stageBoxBenchmark:
			if stats, ok := msg.stats.(benchmarkResult); ok {
				m.boxStats = stats
			}
			m.stage = stageBoxComplete
		case stageRadiusSearch:
			if stats, ok := msg.stats.(benchmarkResult); ok {
				m.radiusStats = stats
			}
			m.stage = stageRadiusComplete
		case stageCompareLinear:
			if stats, ok := msg.stats.(compareResult); ok {
				m.compareStats = stats
			}
			m.stage = stageCompareComplete
		}

		if m.stage < stageDone {
			return m, tea.Tick(time.Second, func(t time.Time) tea.Msg {
				m.stage++
				return nil
			})
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🌍 Sphere k-d Index Demo"))
	b.WriteString("\n\n")

	switch m.stage {
	case stageLoading:
		b.WriteString(subtitleStyle.Render("Building the k-d tree"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Indexing 1,000,000 random points...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageLoadComplete:
		b.WriteString(renderLoadStats(m.pointsLoaded, m.loadTime))

	case stageBoxBenchmark:
		b.WriteString(subtitleStyle.Render("Running Bounding Box Queries"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Executing 1,000 bounding box queries...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageBoxComplete:
		b.WriteString(renderBenchmarkStats("Bounding Box Queries", m.boxStats))

	case stageRadiusSearch:
		b.WriteString(subtitleStyle.Render("Running Radial Queries"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Executing 1,000 radius searches (50km)...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageRadiusComplete:
		b.WriteString(renderBenchmarkStats("Radial Queries", m.radiusStats))

	case stageCompareLinear:
		b.WriteString(subtitleStyle.Render("Comparing Against a Linear Scan"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Running the same radial queries through pkg/linear...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageCompareComplete:
		b.WriteString(renderCompareStats(m.compareStats))

	case stageDone:
		b.WriteString(renderSummary(m))
	}

	if len(m.messages) > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Recent activity:"))
		b.WriteString("\n")
		for _, msg := range m.messages {
			b.WriteString(dimStyle.Render("• " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press 'q' to quit"))

	return b.String()
}

func renderLoadStats(points int, duration time.Duration) string {
	stats := fmt.Sprintf(
		"✓ Indexed %s points in %s\n"+
			"✓ Points per second: %s\n"+
			"✓ Index saved to %s",
		statStyle.Render(fmt.Sprintf("%d", points)),
		statStyle.Render(duration.String()),
		statStyle.Render(fmt.Sprintf("%.0f", float64(points)/duration.Seconds())),
		statStyle.Render(indexFile),
	)

	return boxStyle.Render(successStyle.Render("Build Complete!\n\n") + stats)
}

func renderBenchmarkStats(title string, stats benchmarkResult) string {
	content := fmt.Sprintf(
		"✓ Total queries: %s\n"+
			"✓ Total time: %s\n"+
			"✓ Queries per second: %s\n"+
			"✓ Average query time: %s\n"+
			"✓ Total results found: %s\n"+
			"✓ Average results per query: %s",
		statStyle.Render(fmt.Sprintf("%d", stats.totalQueries)),
		statStyle.Render(stats.totalTime.String()),
		statStyle.Render(fmt.Sprintf("%.0f", stats.queriesPerSec)),
		statStyle.Render(stats.avgQueryTime.String()),
		statStyle.Render(fmt.Sprintf("%d", stats.totalResults)),
		statStyle.Render(fmt.Sprintf("%.1f", float64(stats.totalResults)/float64(stats.totalQueries))),
	)

	return boxStyle.Render(successStyle.Render(title+" Complete!\n\n") + content)
}

func renderCompareStats(stats compareResult) string {
	content := fmt.Sprintf(
		"✓ k-d tree: %s queries/sec\n"+
			"✓ Linear scan: %s queries/sec\n"+
			"✓ Speedup: %s",
		statStyle.Render(fmt.Sprintf("%.0f", stats.kdTreeQueriesPerSec)),
		statStyle.Render(fmt.Sprintf("%.0f", stats.linearQueriesPerSec)),
		statStyle.Render(fmt.Sprintf("%.1fx", stats.speedup)),
	)

	return boxStyle.Render(successStyle.Render("Comparison Complete!\n\n") + content)
}

func renderSummary(m model) string {
	summary := titleStyle.Render("🎉 Demo Complete!")
	summary += "\n\n"

	summary += infoStyle.Render("The k-d tree index demonstrated:")
	summary += "\n\n"

	features := []string{
		fmt.Sprintf("• Parallel point generation using %d CPU cores", runtime.NumCPU()),
		fmt.Sprintf("• Efficient bounding box queries (%s queries/sec)", statStyle.Render(fmt.Sprintf("%.0f", m.boxStats.queriesPerSec))),
		fmt.Sprintf("• Fast radial queries (%s queries/sec)", statStyle.Render(fmt.Sprintf("%.0f", m.radiusStats.queriesPerSec))),
		fmt.Sprintf("• A %s speedup over a plain linear scan", statStyle.Render(fmt.Sprintf("%.1fx", m.compareStats.speedup))),
	}

	for _, feature := range features {
		summary += successStyle.Render(feature) + "\n"
	}

	summary += "\n"
	summary += boxStyle.Render(
		infoStyle.Render("Performance Summary:\n\n") +
			fmt.Sprintf("Total points indexed: %s\n", statStyle.Render(fmt.Sprintf("%d", m.pointsLoaded))) +
			fmt.Sprintf("Index build time: %s\n", statStyle.Render(m.loadTime.String())) +
			fmt.Sprintf("Average query performance: %s", statStyle.Render(fmt.Sprintf("~%.0f queries/sec",
				(m.boxStats.queriesPerSec+m.radiusStats.queriesPerSec)/2))),
	)

	return summary
}

type loadStats struct {
	points   int
	duration time.Duration
}

func runDemo() tea.Cmd {
	return func() tea.Msg {
		go executeDemo()
		return nil
	}
}

var program *tea.Program

func executeDemo() {
	loadAndIndex()

	time.Sleep(500 * time.Millisecond)
	runBoxBenchmarks()

	time.Sleep(500 * time.Millisecond)
	runRadiusSearches()

	time.Sleep(500 * time.Millisecond)
	runLinearComparison()
}

func loadAndIndex() {
	const numPoints = 1000000
	const nStop = 64
	const sphereRadius = 6371.0

	points := generateRandomPoints(numPoints)

	var loaded atomic.Int32
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			p := float64(loaded.Load()) / float64(numPoints)
			program.Send(progressMsg(p))
			if loaded.Load() >= int32(numPoints) {
				break
			}
		}
	}()

	loaded.Store(int32(numPoints) / 2)
	start := time.Now()
	idx, err := kdindex.New(points, nStop, sphereRadius)
	if err != nil {
		program.Send(messageMsg(fmt.Sprintf("Error building index: %v", err)))
		return
	}
	loaded.Store(int32(numPoints))
	loadTime := time.Since(start)

	if err := idx.SaveToFile(indexFile, nStop); err != nil {
		program.Send(messageMsg(fmt.Sprintf("Error saving index: %v", err)))
	}

	program.Send(stageCompleteMsg{
		stage: stageLoading,
		stats: loadStats{points: idx.Len(), duration: loadTime},
	})
}

func runBoxBenchmarks() {
	index, err := kdindex.LoadFromFile(indexFile)
	if err != nil {
		program.Send(messageMsg(fmt.Sprintf("Error loading index: %v", err)))
		return
	}

	const numQueries = 1000
	numWorkers := runtime.NumCPU()

	queries := make([]struct{ cornerW, cornerE models.Point }, numQueries)
	for i := 0; i < numQueries; i++ {
		centerLat := degToRad(rand.Float64()*180 - 90)
		centerLon := degToRad(rand.Float64()*360 - 180)
		boxSize := degToRad(rand.Float64()*1.9 + 0.1)
		queries[i] = struct{ cornerW, cornerE models.Point }{
			cornerW: models.Point{Lat: centerLat - boxSize/2, Lon: centerLon - boxSize/2},
			cornerE: models.Point{Lat: centerLat + boxSize/2, Lon: centerLon + boxSize/2},
		}
	}

	var totalResults atomic.Int64
	var queryCount atomic.Int32
	start := time.Now()

	go reportProgress(&queryCount, numQueries)

	var wg sync.WaitGroup
	queriesPerWorker := numQueries / numWorkers
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * queriesPerWorker
		endIdx := startIdx + queriesPerWorker
		if w == numWorkers-1 {
			endIdx = numQueries
		}
		go func(start, end int) {
			defer wg.Done()
			localResults := 0
			for i := start; i < end; i++ {
				q := queries[i]
				ids := index.SearchByBox(q.cornerW, q.cornerE)
				localResults += len(ids)
				queryCount.Add(1)
			}
			totalResults.Add(int64(localResults))
		}(startIdx, endIdx)
	}

	wg.Wait()
	elapsed := time.Since(start)
	completed := queryCount.Load()

	program.Send(stageCompleteMsg{
		stage: stageBoxBenchmark,
		stats: benchmarkResult{
			totalQueries:  int64(completed),
			totalTime:     elapsed,
			totalResults:  totalResults.Load(),
			avgQueryTime:  elapsed / time.Duration(completed),
			queriesPerSec: float64(completed) / elapsed.Seconds(),
		},
	})
}

func runRadiusSearches() {
	index, err := kdindex.LoadFromFile(indexFile)
	if err != nil {
		program.Send(messageMsg(fmt.Sprintf("Error loading index: %v", err)))
		return
	}

	const numQueries = 1000
	const searchRadiusKm = 50.0
	numWorkers := runtime.NumCPU()

	centers := randomCenters(numQueries)

	var totalResults atomic.Int64
	var queryCount atomic.Int32
	start := time.Now()

	go reportProgress(&queryCount, numQueries)

	var wg sync.WaitGroup
	queriesPerWorker := numQueries / numWorkers
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * queriesPerWorker
		endIdx := startIdx + queriesPerWorker
		if w == numWorkers-1 {
			endIdx = numQueries
		}
		go func(start, end int) {
			defer wg.Done()
			localResults := 0
			for i := start; i < end; i++ {
				results := index.SearchByDistance(centers[i], searchRadiusKm)
				localResults += len(results)
				queryCount.Add(1)
			}
			totalResults.Add(int64(localResults))
		}(startIdx, endIdx)
	}

	wg.Wait()
	elapsed := time.Since(start)
	completed := queryCount.Load()

	program.Send(stageCompleteMsg{
		stage: stageRadiusSearch,
		stats: benchmarkResult{
			totalQueries:  int64(completed),
			totalTime:     elapsed,
			totalResults:  totalResults.Load(),
			avgQueryTime:  elapsed / time.Duration(completed),
			queriesPerSec: float64(completed) / elapsed.Seconds(),
		},
	})
}

func runLinearComparison() {
	index, err := kdindex.LoadFromFile(indexFile)
	if err != nil {
		program.Send(messageMsg(fmt.Sprintf("Error loading index: %v", err)))
		return
	}
	linearContainer, err := linear.New(index.Points(), 6371.0, 0)
	if err != nil {
		program.Send(messageMsg(fmt.Sprintf("Error building linear container: %v", err)))
		return
	}

	const numQueries = 200
	const searchRadiusKm = 50.0
	centers := randomCenters(numQueries)

	var queryCount atomic.Int32
	go reportProgress(&queryCount, numQueries*2)

	kdStart := time.Now()
	for i := 0; i < numQueries; i++ {
		index.SearchByDistance(centers[i], searchRadiusKm)
		queryCount.Add(1)
	}
	kdElapsed := time.Since(kdStart)

	linearStart := time.Now()
	for i := 0; i < numQueries; i++ {
		linearContainer.SearchByDistance(centers[i], searchRadiusKm)
		queryCount.Add(1)
	}
	linearElapsed := time.Since(linearStart)

	kdQPS := float64(numQueries) / kdElapsed.Seconds()
	linearQPS := float64(numQueries) / linearElapsed.Seconds()

	program.Send(stageCompleteMsg{
		stage: stageCompareLinear,
		stats: compareResult{
			kdTreeQueriesPerSec: kdQPS,
			linearQueriesPerSec: linearQPS,
			speedup:             kdQPS / linearQPS,
		},
	})
}

func reportProgress(counter *atomic.Int32, total int) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		p := float64(counter.Load()) / float64(total)
		program.Send(progressMsg(p))
		if counter.Load() >= int32(total) {
			break
		}
	}
}

func randomCenters(n int) []models.Point {
	centers := make([]models.Point, n)
	for i := 0; i < n; i++ {
		centers[i] = models.Point{
			Lat: degToRad(rand.Float64()*180 - 90),
			Lon: degToRad(rand.Float64()*360 - 180),
		}
	}
	return centers
}

// generateRandomPoints produces a clustered distribution weighted
// toward a few population centers.
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

func main() {
	program = tea.NewProgram(initialModel())

	if _, err := program.Run(); err != nil {
		log.Fatal(err)
	}
}
