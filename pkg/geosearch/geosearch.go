// Package geosearch is a thin façade that exposes a uniform
// SearchByDistance/SearchByBox surface over any index backend: the k-d
// tree, the linear fallback, or a host-database-backed index. It shapes
// results into the row form a caller would persist or print: (id,
// distance) pairs for radial search, bare ids for box search.
package geosearch

import "github.com/kass/sphere-kdindex/pkg/models"

// DistanceRow is the host row shape for a radial-search hit.
type DistanceRow struct {
	ID         uint64
	DistanceKm float32
}

// Index is implemented by this package's adapters (KDTree, Linear,
// HostStore), which front kdindex.KDIndex, linear.Container, and
// hoststore.Index.
type Index interface {
	SearchByDistance(q models.Point, d float64) []DistanceRow
	SearchByBox(cornerW, cornerE models.Point) []uint64
}

// SearchByDistance runs a radial query against idx and returns host rows.
func SearchByDistance(idx Index, q models.Point, d float64) []DistanceRow {
	return idx.SearchByDistance(q, d)
}

// SearchByBox runs a box query against idx and returns matching ids.
func SearchByBox(idx Index, cornerW, cornerE models.Point) []uint64 {
	return idx.SearchByBox(cornerW, cornerE)
}
