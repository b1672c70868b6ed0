package geosearch

import (
	"sort"
	"testing"

	"github.com/kass/sphere-kdindex/pkg/kdindex"
	"github.com/kass/sphere-kdindex/pkg/linear"
	"github.com/kass/sphere-kdindex/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(id uint64, lat, lon float64) models.Point {
	return models.Point{ID: id, Lat: lat, Lon: lon}
}

func TestFacadeBackendParity(t *testing.T) {
	points := []models.Point{
		pt(0, 0, 0),
		pt(1, 0.01, 0.01),
		pt(2, 1.0, 1.0),
	}

	tree, err := kdindex.New(points, 2, 1.0)
	require.NoError(t, err)
	container, err := linear.New(points, 1.0, 0)
	require.NoError(t, err)

	var backends []Index = []Index{KDTree{Tree: tree}, Linear{Container: container}}

	q := pt(99, 0, 0)
	var want []uint64
	for _, b := range backends {
		rows := SearchByDistance(b, q, 0.05)
		ids := make([]uint64, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if want == nil {
			want = ids
		} else {
			assert.Equal(t, want, ids)
		}
	}
	assert.Equal(t, []uint64{0, 1}, want)
}
