package models

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewGeoPoint builds a point from latitude and longitude.
func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Valid reports whether the point carries a longitude/latitude pair.
func (g *GeoPoint) Valid() bool {
	return g != nil && len(g.Coordinates) == 2
}

func (g *GeoPoint) Lat() float64 { return g.Coordinates[1] }
func (g *GeoPoint) Lng() float64 { return g.Coordinates[0] }

// Identity is the authenticated caller of a core operation.
type Identity struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}
