// Package linear implements a small-container fallback: a plain
// iterative scan over a point batch, useful when the set is too small
// for k-d tree construction to pay for itself. It performs the same
// distance refinement as KDIndex so the two backends are
// interchangeable behind the Query façade.
package linear

import (
	"errors"

	"github.com/kass/sphere-kdindex/pkg/models"
	"github.com/kass/sphere-kdindex/pkg/sphere"
)

// ErrEmptyPoints mirrors kdindex.ErrEmptyPoints for backend parity.
var ErrEmptyPoints = errors.New("linear: no points provided")

// Result is one radial-query hit, matching kdindex.Result's shape.
type Result struct {
	ID         uint64
	DistanceKm float32
}

// Container holds a copy of a point batch and answers both query types
// by exhaustive scan. GlobeID is an opaque identifier for the globe the
// points were collected for, carried alongside SphereRadius so this
// type and kdindex.KDIndex remain swappable behind the same façade.
type Container struct {
	GlobeID      uint64
	SphereRadius float64
	points       []models.Point
}

// New copies points into a new Container. sphereRadius must be positive.
func New(points []models.Point, sphereRadius float64, globeID uint64) (*Container, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPoints
	}
	cp := make([]models.Point, len(points))
	copy(cp, points)
	return &Container{GlobeID: globeID, SphereRadius: sphereRadius, points: cp}, nil
}

// SearchByDistance returns every point within great-circle distance d
// of q, each with its exact distance in km.
func (c *Container) SearchByDistance(q models.Point, d float64) []Result {
	var results []Result
	for _, p := range c.points {
		dist := sphere.Distance(q, p, c.SphereRadius)
		if dist <= d {
			results = append(results, Result{ID: p.ID, DistanceKm: float32(dist)})
		}
	}
	return results
}

// SearchByBox returns the IDs of every point within the rectangle
// between cornerW and cornerE, antimeridian wrap included.
func (c *Container) SearchByBox(cornerW, cornerE models.Point) []uint64 {
	box0, box1 := sphere.ConstructSearchBox(cornerW, cornerE)

	var ids []uint64
	for _, p := range c.points {
		in0 := box0 != nil && box0.Contains(p)
		in1 := box1 != nil && box1.Contains(p)
		if in0 || in1 {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Len returns the number of points held.
func (c *Container) Len() int { return len(c.points) }
