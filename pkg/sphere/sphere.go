// Package sphere converts spherical metric-distance queries into the
// axis-aligned lat/lon boxes the k-d index traverses, and provides the
// haversine distance used to refine tree candidates.
package sphere

import (
	"math"

	"github.com/kass/sphere-kdindex/pkg/models"
)

// hav is the haversine of x: (1 - cos x) / 2.
func hav(x float64) float64 {
	return (1 - math.Cos(x)) / 2
}

// archav is the inverse haversine, defined on h in [0,1]; outside that
// range the angle is undefined and treated as zero, a degenerate case
// that is never surfaced to the caller.
func archav(h float64) float64 {
	if h < 0 || h > 1 {
		return 0
	}
	return math.Acos(1 - 2*h)
}

// Distance returns the great-circle distance between p1 and p2 on a
// sphere of the given radius, via the haversine formula. It is
// commutative, non-negative, and zero on identical points.
func Distance(p1, p2 models.Point, radius float64) float64 {
	dLat := p1.Lat - p2.Lat
	dLon := p1.Lon - p2.Lon
	a := hav(dLat) + math.Cos(p1.Lat)*math.Cos(p2.Lat)*hav(dLon)
	return radius * archav(a)
}

// deltaLonMax returns the maximum longitudinal deviation, from center,
// reached by any point within great-circle distance d (dLat = d/radius)
// of center. The extremum of the bounding objective over the parallel
// phi occurs analytically at phi = center.Lat, giving the closed form
// below instead of a numerical search. divisor can vanish near the
// poles, which is handled by the polar-cap cases in CoverBoxes before
// this is ever called.
func deltaLonMax(center models.Point, dLat float64) float64 {
	divisor := math.Cos(center.Lat) * math.Cos(center.Lat)
	dividend := hav(dLat)
	if math.Abs(divisor) < math.Abs(dividend) {
		return 0
	}
	return archav(dividend / divisor)
}

// CoverBoxes returns one or two boxes whose union contains every point
// on the sphere within great-circle distance d of center. The second
// box is non-nil only when the disc straddles the antimeridian.
func CoverBoxes(center models.Point, d, radius float64) (*models.Box, *models.Box) {
	dLat := d / radius

	// North-polar cap.
	if center.Lat+dLat >= math.Pi/2 {
		return &models.Box{
			LatFrom: math.Max(center.Lat-dLat, -math.Pi/2),
			LatTo:   math.Pi / 2,
			LonFrom: -math.Pi,
			LonTo:   math.Pi,
		}, nil
	}

	// South-polar cap.
	if center.Lat-dLat <= -math.Pi/2 {
		return &models.Box{
			LatFrom: -math.Pi / 2,
			LatTo:   math.Min(center.Lat+dLat, math.Pi/2),
			LonFrom: -math.Pi,
			LonTo:   math.Pi,
		}, nil
	}

	dLon := deltaLonMax(center, dLat)

	// Full longitudinal band.
	if dLon >= math.Pi {
		return &models.Box{
			LatFrom: center.Lat - dLat,
			LatTo:   center.Lat + dLat,
			LonFrom: -math.Pi,
			LonTo:   math.Pi,
		}, nil
	}

	latFrom, latTo := center.Lat-dLat, center.Lat+dLat

	// East-seam wrap.
	if center.Lon+dLon > math.Pi {
		delta := center.Lon + dLon - math.Pi
		return &models.Box{
				LatFrom: latFrom, LatTo: latTo,
				LonFrom: center.Lon - dLon, LonTo: math.Pi,
			}, &models.Box{
				LatFrom: latFrom, LatTo: latTo,
				LonFrom: -math.Pi, LonTo: math.Min(delta-math.Pi, center.Lon-dLon),
			}
	}

	// West-seam wrap.
	if center.Lon-dLon < -math.Pi {
		delta := dLon - center.Lon - math.Pi
		return &models.Box{
				LatFrom: latFrom, LatTo: latTo,
				LonFrom: -math.Pi, LonTo: center.Lon + dLon,
			}, &models.Box{
				LatFrom: latFrom, LatTo: latTo,
				LonFrom: math.Max(math.Pi-delta, center.Lon+dLon), LonTo: math.Pi,
			}
	}

	// Plain case.
	return &models.Box{
		LatFrom: latFrom, LatTo: latTo,
		LonFrom: center.Lon - dLon, LonTo: center.Lon + dLon,
	}, nil
}

// ConstructSearchBox builds 1 or 2 boxes for a direct box query between
// a south-west corner and a north-east corner, splitting at the
// antimeridian when the east corner's longitude is west of the west
// corner's (i.e. the box wraps the seam).
func ConstructSearchBox(cornerW, cornerE models.Point) (*models.Box, *models.Box) {
	if cornerE.Lon < cornerW.Lon {
		return &models.Box{
				LatFrom: cornerW.Lat, LatTo: cornerE.Lat,
				LonFrom: cornerW.Lon, LonTo: math.Pi,
			}, &models.Box{
				LatFrom: cornerW.Lat, LatTo: cornerE.Lat,
				LonFrom: -math.Pi, LonTo: cornerE.Lon,
			}
	}
	return &models.Box{
		LatFrom: cornerW.Lat, LatTo: cornerE.Lat,
		LonFrom: cornerW.Lon, LonTo: cornerE.Lon,
	}, nil
}
