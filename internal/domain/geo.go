package domain

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the sphere radius used for distances and ring anchors.
const EarthRadiusMeters = 6378137.0

// LatLon is a WGS-84 coordinate in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both components are finite and in range.
func (p LatLon) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return s2.LatLngFromDegrees(p.Lat, p.Lon).IsValid()
}

func (p LatLon) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// DistanceMeters is the great-circle distance between a and b.
func DistanceMeters(a, b LatLon) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * EarthRadiusMeters
}

// Destination returns the point reached by travelling distance meters from
// origin along the initial bearing (degrees clockwise from north).
func Destination(origin LatLon, distance, bearing float64) LatLon {
	ll := origin.latLng()
	brg := (s1.Angle(bearing) * s1.Degree).Radians()
	ad := distance / EarthRadiusMeters

	lat1 := ll.Lat.Radians()
	lon1 := ll.Lng.Radians()
	sinLat1, cosLat1 := math.Sincos(lat1)
	sinAd, cosAd := math.Sincos(ad)

	lat2 := math.Asin(sinLat1*cosAd + cosLat1*sinAd*math.Cos(brg))
	lon2 := lon1 + math.Atan2(math.Sin(brg)*sinAd*cosLat1, cosAd-sinLat1*math.Sin(lat2))

	out := s2.LatLng{Lat: s1.Angle(lat2), Lng: s1.Angle(lon2)}
	return LatLon{Lat: out.Lat.Degrees(), Lon: out.Lng.Degrees()}
}

// Ring is a distance circle around the origin with the point its label is
// drawn at.
type Ring struct {
	RadiusMeters float64 `json:"radius_meters"`
	Label        string  `json:"label"`
	Anchor       LatLon  `json:"anchor"`
}

const ringLabelBearing = 45

var ringSpecs = []struct {
	radius float64
	label  string
	ratio  float64
}{
	{2000, "2km", 0.985},
	{5000, "5km", 0.97},
}

// Rings returns the 2 km and 5 km rings around origin. Labels sit just
// inside the circle, north-east of the center.
func Rings(origin LatLon) []Ring {
	rings := make([]Ring, 0, len(ringSpecs))
	for _, rs := range ringSpecs {
		rings = append(rings, Ring{
			RadiusMeters: rs.radius,
			Label:        rs.label,
			Anchor:       Destination(origin, rs.radius*rs.ratio, ringLabelBearing),
		})
	}
	return rings
}
