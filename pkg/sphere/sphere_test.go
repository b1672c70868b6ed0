package sphere

import (
	"math"
	"testing"

	"github.com/kass/sphere-kdindex/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(id uint64, lat, lon float64) models.Point {
	return models.Point{ID: id, Lat: lat, Lon: lon}
}

func TestDistanceSymmetryAndIdentity(t *testing.T) {
	a := pt(0, 0.1, 0.2)
	b := pt(1, -0.3, 1.0)

	assert.Equal(t, Distance(a, b, 1.0), Distance(b, a, 1.0))
	assert.Equal(t, 0.0, Distance(a, a, 1.0))
	assert.True(t, Distance(a, b, 1.0) >= 0)
}

func TestDistanceKnownValue(t *testing.T) {
	// Quarter of the way around a unit-radius sphere along the equator.
	a := pt(0, 0, 0)
	b := pt(1, 0, math.Pi/2)
	assert.InDelta(t, math.Pi/2, Distance(a, b, 1.0), 1e-9)
}

func TestCoverBoxesPlainCase(t *testing.T) {
	center := pt(0, 0, 0)
	b0, b1 := CoverBoxes(center, 0.1, 1.0)
	require.NotNil(t, b0)
	assert.Nil(t, b1)
	assert.LessOrEqual(t, b0.LatFrom, b0.LatTo)
	assert.LessOrEqual(t, b0.LonFrom, b0.LonTo)
	assert.True(t, b0.Contains(center))
}

func TestCoverBoxesNorthPole(t *testing.T) {
	center := pt(0, math.Pi/2-0.01, 0)
	b0, b1 := CoverBoxes(center, 0.1, 1.0)
	require.NotNil(t, b0)
	assert.Nil(t, b1)
	assert.Equal(t, math.Pi/2, b0.LatTo)
	assert.Equal(t, -math.Pi, b0.LonFrom)
	assert.Equal(t, math.Pi, b0.LonTo)
}

func TestCoverBoxesSouthPole(t *testing.T) {
	center := pt(0, -math.Pi/2+0.01, 0)
	b0, b1 := CoverBoxes(center, 0.1, 1.0)
	require.NotNil(t, b0)
	assert.Nil(t, b1)
	assert.Equal(t, -math.Pi/2, b0.LatFrom)
}

func TestCoverBoxesAntimeridianWrap(t *testing.T) {
	center := pt(0, 0, math.Pi-0.001)
	b0, b1 := CoverBoxes(center, 0.01, 1.0)
	require.NotNil(t, b0)
	require.NotNil(t, b1)
	assert.LessOrEqual(t, b0.LonFrom, b0.LonTo)
	assert.LessOrEqual(t, b1.LonFrom, b1.LonTo)
	assert.Equal(t, math.Pi, b0.LonTo)
	assert.Equal(t, -math.Pi, b1.LonFrom)
}

func TestCoverBoxesFullBand(t *testing.T) {
	center := pt(0, 0, 0)
	// An angular radius of 4 reaches past the north pole, so the polar-cap
	// case returns a box spanning every longitude.
	b0, b1 := CoverBoxes(center, 4*1.0, 1.0)
	require.NotNil(t, b0)
	assert.Nil(t, b1)
	assert.Equal(t, -math.Pi, b0.LonFrom)
	assert.Equal(t, math.Pi, b0.LonTo)
}

func TestConstructSearchBoxPlain(t *testing.T) {
	w := pt(0, -0.1, 0.2)
	e := pt(0, 0.1, 0.5)
	b0, b1 := ConstructSearchBox(w, e)
	require.NotNil(t, b0)
	assert.Nil(t, b1)
	assert.Equal(t, 0.2, b0.LonFrom)
	assert.Equal(t, 0.5, b0.LonTo)
}

func TestConstructSearchBoxWrap(t *testing.T) {
	w := pt(0, -0.1, 2.5)
	e := pt(0, 0.1, -2.5)
	b0, b1 := ConstructSearchBox(w, e)
	require.NotNil(t, b0)
	require.NotNil(t, b1)
	assert.Equal(t, 2.5, b0.LonFrom)
	assert.Equal(t, math.Pi, b0.LonTo)
	assert.Equal(t, -math.Pi, b1.LonFrom)
	assert.Equal(t, -2.5, b1.LonTo)
}

func TestCoverageOfCoverBoxes(t *testing.T) {
	// Coverage property: a point known to be within d of center must
	// fall inside one of the returned boxes.
	center := pt(0, 0.2, 3.0)
	d := 0.05
	b0, b1 := CoverBoxes(center, d, 1.0)

	// Sample points on the iso-distance circle approximately.
	for i := 0; i < 16; i++ {
		theta := 2 * math.Pi * float64(i) / 16
		lat := center.Lat + d*math.Cos(theta)
		lon := center.Lon + d*math.Sin(theta)
		for lon > math.Pi {
			lon -= 2 * math.Pi
		}
		for lon < -math.Pi {
			lon += 2 * math.Pi
		}
		p := pt(uint64(i), lat, lon)
		inB0 := b0 != nil && b0.Contains(p)
		inB1 := b1 != nil && b1.Contains(p)
		assert.True(t, inB0 || inB1, "point %d at (%f,%f) not covered", i, lat, lon)
	}
}
