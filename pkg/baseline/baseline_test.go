package baseline

import (
	"sort"
	"testing"

	"github.com/kass/sphere-kdindex/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(id uint64, lat, lon float64) models.Point {
	return models.Point{ID: id, Lat: lat, Lon: lon}
}

func TestSearchByDistance(t *testing.T) {
	idx, err := New([]models.Point{pt(1, 0, 0), pt(2, 1.0, 0)}, 1.0)
	require.NoError(t, err)

	ids, err := idx.SearchByDistance(pt(0, 0, 0), 0.1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids)
}

func TestSearchByBox(t *testing.T) {
	points := []models.Point{
		pt(0, 0, 0.1),
		pt(1, 0, 0.5),
		pt(2, 5, 5),
	}
	idx, err := New(points, 1.0)
	require.NoError(t, err)

	ids, err := idx.SearchByBox(pt(0, -0.2, 0), pt(0, 0.2, 1.0))
	require.NoError(t, err)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []uint64{0, 1}, ids)
}
