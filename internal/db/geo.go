package db

// GeoUnit is the distance unit of a GEOSEARCH radius.
type GeoUnit string

const (
	// GeoKilometers measures radii in kilometres.
	GeoKilometers GeoUnit = "km"
	// GeoMeters measures radii in metres.
	GeoMeters GeoUnit = "m"
)

// GeoMember is a single GEOADD entry.
type GeoMember struct {
	Name string
	Lat  float64
	Lon  float64
}

// GeoQuery is a radius query centred at a coordinate (GEOSEARCH FROMLONLAT BYRADIUS).
type GeoQuery struct {
	Key    string
	Lat    float64
	Lon    float64
	Radius float64
	Unit   GeoUnit
}

// GeoHit is a single GEOSEARCH result with distance (in the query unit) and coordinates.
type GeoHit struct {
	Name string
	Dist float64
	Lat  float64
	Lon  float64
}
