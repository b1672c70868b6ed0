// Package kdindex implements a 2-D k-d tree specialized for spherical
// (latitude, longitude) points. The tree is built once from a batch of
// points and is thereafter read-only; nodes live in an append-only
// arena addressed by integer index rather than pointers, so the
// finished index needs no synchronization to read concurrently.
package kdindex

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kass/sphere-kdindex/pkg/models"
	"github.com/kass/sphere-kdindex/pkg/sphere"
)

// Build-time errors.
var (
	ErrEmptyPoints     = errors.New("kdindex: no points provided")
	ErrInvalidNStop    = errors.New("kdindex: n_stop must be positive")
	ErrInvalidRadius   = errors.New("kdindex: sphere radius must be positive")
	ErrNonFiniteCoord  = errors.New("kdindex: point has a non-finite coordinate")
	ErrCoordOutOfRange = errors.New("kdindex: point coordinate outside [-pi/2,pi/2] x [-pi,pi]")
)

// dimension is the split axis of an inner node.
type dimension uint8

const (
	dimLat dimension = iota
	dimLon
)

// node is a tagged arena entry: either an inner split node or a leaf
// holding a small batch of points. isLeaf discriminates the tag; the
// unused fields of the other variant are left zero.
type node struct {
	isLeaf bool

	// Inner fields.
	splitter float64
	dim      dimension
	left     int
	right    int

	// Leaf fields.
	points []models.Point
}

// KDIndex is a sealed, read-only k-d tree over a batch of spherical
// points, plus the sphere radius (km) used to refine radial queries.
type KDIndex struct {
	root         int
	nodes        []node
	sphereRadius float64
}

// Result is one radial-query hit: a point ID and its distance (km) to
// the query point, as a 32-bit float per the external interface.
type Result struct {
	ID         uint64
	DistanceKm float32
}

// New builds a KDIndex over points, stopping recursion once a subtree
// holds nStop or fewer points. sphereRadius is the radius (km) of the
// sphere the points lie on, used only by SearchByDistance's distance
// refinement and by SphereGeom internally.
//
// Build fails on empty input, nStop <= 0, non-positive radius, or any
// point with a non-finite or out-of-range coordinate.
func New(points []models.Point, nStop int, sphereRadius float64) (*KDIndex, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPoints
	}
	if nStop <= 0 {
		return nil, ErrInvalidNStop
	}
	if sphereRadius <= 0 {
		return nil, ErrInvalidRadius
	}
	for _, p := range points {
		if err := validateCoord(p); err != nil {
			return nil, err
		}
	}

	b := &builder{points: points, nStop: nStop}
	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}
	root := b.build(indices)

	return &KDIndex{root: root, nodes: b.nodes, sphereRadius: sphereRadius}, nil
}

func validateCoord(p models.Point) error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: id %d", ErrNonFiniteCoord, p.ID)
	}
	if p.Lat < -math.Pi/2 || p.Lat > math.Pi/2 || p.Lon < -math.Pi || p.Lon > math.Pi {
		return fmt.Errorf("%w: id %d", ErrCoordOutOfRange, p.ID)
	}
	return nil
}

// builder accumulates arena nodes during a single New call.
type builder struct {
	points []models.Point
	nStop  int
	nodes  []node
}

// build recursively splits indices (indexes into b.points) and appends
// the resulting subtree to b.nodes, returning the new subtree's root
// index. Children are always appended before their parent, so the
// overall arena ends up in post-order and the final append is the root.
func (b *builder) build(indices []int) int {
	if len(indices) <= b.nStop {
		leafPoints := make([]models.Point, len(indices))
		for i, idx := range indices {
			leafPoints[i] = b.points[idx]
		}
		b.nodes = append(b.nodes, node{isLeaf: true, points: leafPoints})
		return len(b.nodes) - 1
	}

	dim := b.chooseDimension(indices)
	coord := func(idx int) float64 {
		if dim == dimLat {
			return b.points[idx].Lat
		}
		return b.points[idx].Lon
	}
	sort.Slice(indices, func(i, j int) bool { return coord(indices[i]) < coord(indices[j]) })

	m := (len(indices) - 1) / 2
	splitter := (coord(indices[m]) + coord(indices[m+1])) / 2

	left := b.build(indices[:m+1])
	right := b.build(indices[m+1:])

	b.nodes = append(b.nodes, node{isLeaf: false, splitter: splitter, dim: dim, left: left, right: right})
	return len(b.nodes) - 1
}

// chooseDimension picks the axis with the greater sample variance over
// indices, breaking ties toward longitude.
func (b *builder) chooseDimension(indices []int) dimension {
	var latMean, lonMean float64
	for _, idx := range indices {
		latMean += b.points[idx].Lat
		lonMean += b.points[idx].Lon
	}
	n := float64(len(indices))
	latMean /= n
	lonMean /= n

	var latVar, lonVar float64
	for _, idx := range indices {
		dLat := b.points[idx].Lat - latMean
		dLon := b.points[idx].Lon - lonMean
		latVar += dLat * dLat
		lonVar += dLon * dLon
	}
	latVar /= n
	lonVar /= n

	if latVar > lonVar {
		return dimLat
	}
	return dimLon
}

// SearchByDistance returns every indexed point within great-circle
// distance d of q, each paired with its exact distance in km. A
// negative or non-finite d yields an empty result; d == 0 returns
// exactly the points whose distance to q is zero.
func (idx *KDIndex) SearchByDistance(q models.Point, d float64) []Result {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return nil
	}

	box0, box1 := sphere.CoverBoxes(q, d, idx.sphereRadius)

	var candidates []models.Point
	if box0 != nil {
		candidates = append(candidates, idx.traverse(idx.root, models.World, *box0)...)
	}
	if box1 != nil {
		candidates = append(candidates, idx.traverse(idx.root, models.World, *box1)...)
	}

	results := make([]Result, 0, len(candidates))
	for _, p := range candidates {
		dist := sphere.Distance(q, p, idx.sphereRadius)
		if dist <= d {
			results = append(results, Result{ID: p.ID, DistanceKm: float32(dist)})
		}
	}
	return results
}

// SearchByBox returns the IDs of every indexed point within the
// rectangle between cornerW (south-west) and cornerE (north-east). If
// cornerE's longitude is west of cornerW's, the box wraps the
// antimeridian and is internally split into two boxes. Since the
// search boxes are axis-aligned and exact, no refinement is needed.
func (idx *KDIndex) SearchByBox(cornerW, cornerE models.Point) []uint64 {
	box0, box1 := sphere.ConstructSearchBox(cornerW, cornerE)

	var points []models.Point
	if box0 != nil {
		points = append(points, idx.traverse(idx.root, models.World, *box0)...)
	}
	if box1 != nil {
		points = append(points, idx.traverse(idx.root, models.World, *box1)...)
	}

	ids := make([]uint64, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	return ids
}

// traverse returns every point reachable from nodeIdx that lies within
// target, given that the subtree at nodeIdx covers exactly the region
// current. The nested check is the essential pruning step: once
// current is entirely inside target, every point under nodeIdx
// qualifies without further coordinate comparisons.
func (idx *KDIndex) traverse(nodeIdx int, current, target models.Box) []models.Point {
	if models.Nested(current, target) {
		return idx.extractAll(nodeIdx)
	}

	n := &idx.nodes[nodeIdx]
	if n.isLeaf {
		out := make([]models.Point, 0, len(n.points))
		for _, p := range n.points {
			if target.Contains(p) {
				out = append(out, p)
			}
		}
		return out
	}

	if n.dim == dimLat {
		lo, hi := target.LatFrom, target.LatTo
		s := n.splitter
		switch {
		case lo <= s && s < hi:
			left := idx.traverse(n.left,
				models.Box{LatFrom: current.LatFrom, LatTo: s, LonFrom: current.LonFrom, LonTo: current.LonTo},
				models.Box{LatFrom: target.LatFrom, LatTo: s, LonFrom: target.LonFrom, LonTo: target.LonTo})
			right := idx.traverse(n.right,
				models.Box{LatFrom: s, LatTo: current.LatTo, LonFrom: current.LonFrom, LonTo: current.LonTo},
				models.Box{LatFrom: s, LatTo: target.LatTo, LonFrom: target.LonFrom, LonTo: target.LonTo})
			return append(left, right...)
		case lo < s && hi <= s:
			return idx.traverse(n.left,
				models.Box{LatFrom: current.LatFrom, LatTo: s, LonFrom: current.LonFrom, LonTo: current.LonTo},
				target)
		default:
			return idx.traverse(n.right,
				models.Box{LatFrom: s, LatTo: current.LatTo, LonFrom: current.LonFrom, LonTo: current.LonTo},
				target)
		}
	}

	lo, hi := target.LonFrom, target.LonTo
	s := n.splitter
	switch {
	case lo <= s && s < hi:
		left := idx.traverse(n.left,
			models.Box{LatFrom: current.LatFrom, LatTo: current.LatTo, LonFrom: current.LonFrom, LonTo: s},
			models.Box{LatFrom: target.LatFrom, LatTo: target.LatTo, LonFrom: target.LonFrom, LonTo: s})
		right := idx.traverse(n.right,
			models.Box{LatFrom: current.LatFrom, LatTo: current.LatTo, LonFrom: s, LonTo: current.LonTo},
			models.Box{LatFrom: target.LatFrom, LatTo: target.LatTo, LonFrom: s, LonTo: target.LonTo})
		return append(left, right...)
	case lo < s && hi <= s:
		return idx.traverse(n.left,
			models.Box{LatFrom: current.LatFrom, LatTo: current.LatTo, LonFrom: current.LonFrom, LonTo: s},
			target)
	default:
		return idx.traverse(n.right,
			models.Box{LatFrom: current.LatFrom, LatTo: current.LatTo, LonFrom: s, LonTo: current.LonTo},
			target)
	}
}

// extractAll concatenates every leaf point reachable from nodeIdx,
// used once traverse has established the subtree lies entirely inside
// the target box.
func (idx *KDIndex) extractAll(nodeIdx int) []models.Point {
	n := &idx.nodes[nodeIdx]
	if n.isLeaf {
		out := make([]models.Point, len(n.points))
		copy(out, n.points)
		return out
	}
	left := idx.extractAll(n.left)
	right := idx.extractAll(n.right)
	return append(left, right...)
}

// Points returns every indexed point. It is used by tooling that needs
// to rebuild a different backend (pkg/linear, pkg/baseline) from the
// same dataset a persisted KDIndex was built from.
func (idx *KDIndex) Points() []models.Point {
	return idx.extractAll(idx.root)
}

// Len returns the number of points indexed.
func (idx *KDIndex) Len() int {
	total := 0
	for _, n := range idx.nodes {
		if n.isLeaf {
			total += len(n.points)
		}
	}
	return total
}
