package geo

import "math"

// KmPerDegree is the length of one degree of latitude in kilometres.
const KmPerDegree = 111.12

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Distance returns the equirectangular distance between a and b in whole kilometres.
//
// The longitude delta is scaled by the cosine of the mean latitude and combined
// with the latitude delta as a plane Euclidean norm. This is a flat-earth
// approximation: it is accurate for a compact mid-latitude country and degrades
// near the poles or across large longitude spans.
func Distance(a, b Point) int {
	meanLat := (a.Lat + b.Lat) / 2 * math.Pi / 180
	dx := (b.Lon - a.Lon) * math.Cos(meanLat)
	dy := b.Lat - a.Lat
	return int(math.Round(KmPerDegree * math.Sqrt(dx*dx+dy*dy)))
}

// SearchRadiusKm widens radiusKm for spatial prefilters that measure distance
// differently (haversine, bounding boxes). Candidates must be re-checked with
// Distance. The extra kilometre covers rounding up to the next whole km.
func SearchRadiusKm(radiusKm float64) float64 {
	return (radiusKm + 1) * 1.1
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
