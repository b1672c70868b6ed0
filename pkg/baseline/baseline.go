// Package baseline wraps github.com/dhconnelly/rtreego as a third
// timing lane for cmd/benchmark: "is the hand-built k-d tree actually
// faster than reaching for an R-tree library, on top of the plain
// linear scan". It is never used by the core or by the Query façade.
// rtreego answers a strictly Euclidean bounding-box query, not the
// sphere-aware radial search KDIndex performs, so the radial search
// here is built box-then-refine, the same shape as the other backends.
//
// The boxes come from sphere.CoverBoxes; candidates come back from
// rtreego's Euclidean bounding-box search and are refined with
// sphere.Distance to get an actual great-circle answer.
package baseline

import (
	"fmt"

	"github.com/dhconnelly/rtreego"

	"github.com/kass/sphere-kdindex/pkg/models"
	"github.com/kass/sphere-kdindex/pkg/sphere"
)

const (
	tolerance   = 1e-6
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialPoint wraps a models.Point to satisfy rtreego.Spatial.
type spatialPoint struct {
	models.Point
	rect *rtreego.Rect
}

func (sp *spatialPoint) Bounds() *rtreego.Rect { return sp.rect }

// Index is an rtreego-backed baseline index over the same (lat, lon)
// radian points the k-d tree indexes.
type Index struct {
	tree         *rtreego.Rtree
	sphereRadius float64
}

// New builds a baseline index from points.
func New(points []models.Point, sphereRadius float64) (*Index, error) {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, p := range points {
		rp := rtreego.Point{p.Lat, p.Lon}
		rect := rp.ToRect(tolerance)
		tree.Insert(&spatialPoint{Point: p, rect: rect})
	}
	return &Index{tree: tree, sphereRadius: sphereRadius}, nil
}

// SearchByDistance answers the radial query: it bounds the covering
// box(es) produced by sphere.CoverBoxes in rtreego's rect space, then
// refines by exact haversine distance.
func (idx *Index) SearchByDistance(q models.Point, d float64) ([]uint64, error) {
	box0, box1 := sphere.CoverBoxes(q, d, idx.sphereRadius)

	var ids []uint64
	for _, b := range []*models.Box{box0, box1} {
		if b == nil {
			continue
		}
		pts, err := idx.queryRect(*b)
		if err != nil {
			return nil, err
		}
		for _, p := range pts {
			if sphere.Distance(q, p, idx.sphereRadius) <= d {
				ids = append(ids, p.ID)
			}
		}
	}
	return ids, nil
}

// SearchByBox performs a rectangle query over the tree.
func (idx *Index) SearchByBox(cornerW, cornerE models.Point) ([]uint64, error) {
	box0, box1 := sphere.ConstructSearchBox(cornerW, cornerE)

	var ids []uint64
	for _, b := range []*models.Box{box0, box1} {
		if b == nil {
			continue
		}
		pts, err := idx.queryRect(*b)
		if err != nil {
			return nil, err
		}
		for _, p := range pts {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (idx *Index) queryRect(b models.Box) ([]models.Point, error) {
	lowerLeft := rtreego.Point{b.LatFrom, b.LonFrom}
	size := []float64{b.LatTo - b.LatFrom, b.LonTo - b.LonFrom}
	rect, err := rtreego.NewRect(lowerLeft, size)
	if err != nil {
		return nil, fmt.Errorf("baseline: invalid rect: %w", err)
	}

	results := idx.tree.SearchIntersect(rect)
	points := make([]models.Point, 0, len(results))
	for _, r := range results {
		sp, ok := r.(*spatialPoint)
		if !ok {
			continue
		}
		if b.Contains(sp.Point) {
			points = append(points, sp.Point)
		}
	}
	return points, nil
}

// Len returns the number of points indexed.
func (idx *Index) Len() int { return idx.tree.Size() }
