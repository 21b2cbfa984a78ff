package technician

import (
	"math"

	"repairhub/models"
)

// Haversine returns the great-circle distance in kilometres between two coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLon := (lon2 - lon1) * (math.Pi / 180)
	lat1Rad := lat1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// DistanceKm measures between two points; ok is false when either lacks coordinates.
func DistanceKm(a, b *models.GeoPoint) (float64, bool) {
	if !a.Valid() || !b.Valid() {
		return 0, false
	}
	return Haversine(a.Lat(), a.Lng(), b.Lat(), b.Lng()), true
}
