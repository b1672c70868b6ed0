package kdindex

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/kass/sphere-kdindex/pkg/models"
	"github.com/kass/sphere-kdindex/pkg/sphere"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(id uint64, lat, lon float64) models.Point {
	return models.Point{ID: id, Lat: lat, Lon: lon}
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(nil, 4, 1.0)
	assert.ErrorIs(t, err, ErrEmptyPoints)
}

func TestNewRejectsBadNStop(t *testing.T) {
	_, err := New([]models.Point{pt(0, 0, 0)}, 0, 1.0)
	assert.ErrorIs(t, err, ErrInvalidNStop)
}

func TestNewRejectsOutOfRangeCoord(t *testing.T) {
	_, err := New([]models.Point{pt(0, 10, 0)}, 4, 1.0)
	assert.ErrorIs(t, err, ErrCoordOutOfRange)
}

func TestNewRejectsNonFiniteCoord(t *testing.T) {
	_, err := New([]models.Point{pt(0, math.NaN(), 0)}, 4, 1.0)
	assert.ErrorIs(t, err, ErrNonFiniteCoord)
}

func TestSinglePointTrivialDisc(t *testing.T) {
	idx, err := New([]models.Point{pt(0, 0, 0)}, 4, 1.0)
	require.NoError(t, err)

	results := idx.SearchByDistance(pt(99, 0, 0), 0.1)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(0), results[0].ID)
	assert.Equal(t, float32(0), results[0].DistanceKm)
}

func TestEmptyBall(t *testing.T) {
	idx, err := New([]models.Point{pt(0, 0, 0)}, 4, 1.0)
	require.NoError(t, err)

	results := idx.SearchByDistance(pt(99, 1.0, 0), 0.5)
	assert.Empty(t, results)
}

func TestNegativeOrNonFiniteDistanceIsEmpty(t *testing.T) {
	idx, err := New([]models.Point{pt(0, 0, 0)}, 4, 1.0)
	require.NoError(t, err)

	assert.Empty(t, idx.SearchByDistance(pt(0, 0, 0), -1))
	assert.Empty(t, idx.SearchByDistance(pt(0, 0, 0), math.NaN()))
	assert.Empty(t, idx.SearchByDistance(pt(0, 0, 0), math.Inf(1)))
}

func TestAntimeridianWrap(t *testing.T) {
	points := []models.Point{
		pt(0, 0, 3.14),
		pt(1, 0, -3.14),
	}
	idx, err := New(points, 4, 1.0)
	require.NoError(t, err)

	results := idx.SearchByDistance(pt(99, 0, 3.14), 0.01)
	ids := resultIDs(results)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []uint64{0, 1}, ids)
}

func TestNorthPoleCap(t *testing.T) {
	lat := math.Pi/2 - 0.01
	points := []models.Point{
		pt(0, lat, -math.Pi),
		pt(1, lat, -math.Pi/2),
		pt(2, lat, 0),
		pt(3, lat, math.Pi/2),
	}
	idx, err := New(points, 4, 1.0)
	require.NoError(t, err)

	results := idx.SearchByDistance(pt(99, math.Pi/2-0.005, 0), 0.1)
	assert.Len(t, results, 4)
}

func TestBoxWrap(t *testing.T) {
	points := []models.Point{
		pt(0, 0, 2.0),
		pt(1, 0, 3.0),
		pt(2, 0, -3.0),
		pt(3, 0, -2.0),
	}
	idx, err := New(points, 4, 1.0)
	require.NoError(t, err)

	ids := idx.SearchByBox(pt(0, -0.1, 2.5), pt(0, 0.1, -2.5))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []uint64{1, 2}, ids)
}

// TestBuildInvariants checks the build invariant: for every inner node
// all left points have split-coord <= splitter and all right points
// have split-coord >= splitter, and every leaf has at most nStop
// points.
func TestBuildInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	n := 500
	nStop := 8
	points := randomPoints(r, n)

	idx, err := New(points, nStop, 1.0)
	require.NoError(t, err)

	for i, nd := range idx.nodes {
		if nd.isLeaf {
			assert.LessOrEqual(t, len(nd.points), nStop)
			continue
		}
		assert.Less(t, nd.left, i)
		assert.Less(t, nd.right, i)
		assert.NotEqual(t, nd.left, nd.right)

		leftPts := idx.extractAll(nd.left)
		rightPts := idx.extractAll(nd.right)
		for _, p := range leftPts {
			c := p.Lat
			if nd.dim == dimLon {
				c = p.Lon
			}
			assert.LessOrEqual(t, c, nd.splitter+1e-12)
		}
		for _, p := range rightPts {
			c := p.Lat
			if nd.dim == dimLon {
				c = p.Lon
			}
			assert.GreaterOrEqual(t, c, nd.splitter-1e-12)
		}
	}
}

// TestCompletenessVsLinearScan covers uniformly random points and
// queries: KDIndex results must match a linear scan exactly.
func TestCompletenessVsLinearScan(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	points := randomPoints(r, 2000)
	idx, err := New(points, 32, 1.0)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		q := pt(uint64(100000+i), (r.Float64()*2-1)*(math.Pi/2-0.2), (r.Float64()*2-1)*(math.Pi-0.2))
		d := r.Float64() * 0.05

		treeIDs := sortedIDs(idx.SearchByDistance(q, d))
		linearIDs := linearScan(points, q, d, 1.0)

		assert.Equal(t, linearIDs, treeIDs, "query %d (lat=%f,lon=%f,d=%f)", i, q.Lat, q.Lon, d)
	}
}

func TestNoOpRebuild(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	points := randomPoints(r, 300)

	idx1, err := New(points, 16, 1.0)
	require.NoError(t, err)
	idx2, err := New(points, 16, 1.0)
	require.NoError(t, err)

	q := pt(0, 0.1, 0.2)
	assert.Equal(t, sortedIDs(idx1.SearchByDistance(q, 0.3)), sortedIDs(idx2.SearchByDistance(q, 0.3)))
}

func TestPolarSymmetry(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	points := randomPoints(r, 300)
	mirrored := make([]models.Point, len(points))
	for i, p := range points {
		mirrored[i] = models.Point{ID: p.ID, Lat: -p.Lat, Lon: p.Lon}
	}

	idx, err := New(points, 16, 1.0)
	require.NoError(t, err)
	idxMirrored, err := New(mirrored, 16, 1.0)
	require.NoError(t, err)

	q := pt(0, 0.3, 0.4)
	qMirrored := pt(0, -0.3, 0.4)

	orig := sortedIDs(idx.SearchByDistance(q, 0.2))
	mir := sortedIDs(idxMirrored.SearchByDistance(qMirrored, 0.2))
	assert.Equal(t, orig, mir)
}

func TestPointsRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	points := randomPoints(r, 200)
	idx, err := New(points, 16, 1.0)
	require.NoError(t, err)

	got := idx.Points()
	gotIDs := make([]uint64, len(got))
	for i, p := range got {
		gotIDs[i] = p.ID
	}
	wantIDs := make([]uint64, len(points))
	for i, p := range points {
		wantIDs[i] = p.ID
	}
	sort.Slice(gotIDs, func(i, j int) bool { return gotIDs[i] < gotIDs[j] })
	sort.Slice(wantIDs, func(i, j int) bool { return wantIDs[i] < wantIDs[j] })
	assert.Equal(t, wantIDs, gotIDs)
}

func resultIDs(results []Result) []uint64 {
	ids := make([]uint64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func sortedIDs(results []Result) []uint64 {
	ids := resultIDs(results)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func linearScan(points []models.Point, q models.Point, d, radius float64) []uint64 {
	ids := make([]uint64, 0)
	for _, p := range points {
		if sphere.Distance(q, p, radius) <= d {
			ids = append(ids, p.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func randomPoints(r *rand.Rand, n int) []models.Point {
	points := make([]models.Point, n)
	for i := range points {
		lat := (r.Float64()*2 - 1) * (math.Pi/2 - 0.1)
		lon := (r.Float64()*2 - 1) * (math.Pi - 0.1)
		points[i] = pt(uint64(i), lat, lon)
	}
	return points
}
