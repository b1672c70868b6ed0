package geosearch

import (
	"github.com/kass/sphere-kdindex/pkg/hoststore"
	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/linear"
	"github.com/kass/sphere-kdindex/pkg/models"
)

// KDTree adapts *kdindex.KDIndex to the Index interface.
type KDTree struct{ Tree *kdindex.KDIndex }

func (k KDTree) SearchByDistance(q models.Point, d float64) []DistanceRow {
	results := k.Tree.SearchByDistance(q, d)
	rows := make([]DistanceRow, len(results))
	for i, r := range results {
		rows[i] = DistanceRow{ID: r.ID, DistanceKm: r.DistanceKm}
	}
	return rows
}

func (k KDTree) SearchByBox(cornerW, cornerE models.Point) []uint64 {
	return k.Tree.SearchByBox(cornerW, cornerE)
}

// Linear adapts *linear.Container to the Index interface.
type Linear struct{ Container *linear.Container }

func (l Linear) SearchByDistance(q models.Point, d float64) []DistanceRow {
	results := l.Container.SearchByDistance(q, d)
	rows := make([]DistanceRow, len(results))
	for i, r := range results {
		rows[i] = DistanceRow{ID: r.ID, DistanceKm: r.DistanceKm}
	}
	return rows
}

func (l Linear) SearchByBox(cornerW, cornerE models.Point) []uint64 {
	return l.Container.SearchByBox(cornerW, cornerE)
}

// HostStore adapts *hoststore.Index to the Index interface.
type HostStore struct{ Store *hoststore.Index }

func (h HostStore) SearchByDistance(q models.Point, d float64) []DistanceRow {
	results := h.Store.SearchByDistance(q, d)
	rows := make([]DistanceRow, len(results))
	for i, r := range results {
		rows[i] = DistanceRow{ID: r.ID, DistanceKm: r.DistanceKm}
	}
	return rows
}

func (h HostStore) SearchByBox(cornerW, cornerE models.Point) []uint64 {
	return h.Store.SearchByBox(cornerW, cornerE)
}
