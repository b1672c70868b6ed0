package linear

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

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(nil, 1.0, 0)
	assert.ErrorIs(t, err, ErrEmptyPoints)
}

func TestSearchByDistance(t *testing.T) {
	c, err := New([]models.Point{pt(1, 0, 0), pt(2, 1.0, 0)}, 1.0, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), c.GlobeID)

	results := c.SearchByDistance(pt(0, 0, 0), 0.1)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].ID)
}

func TestSearchByBoxWrap(t *testing.T) {
	points := []models.Point{
		pt(0, 0, 2.0),
		pt(1, 0, 3.0),
		pt(2, 0, -3.0),
		pt(3, 0, -2.0),
	}
	c, err := New(points, 1.0, 0)
	require.NoError(t, err)

	ids := c.SearchByBox(pt(0, -0.1, 2.5), pt(0, 0.1, -2.5))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []uint64{1, 2}, ids)
}
