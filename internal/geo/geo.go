// Package geo holds the GeoJSON value types shared by bikes, rides and
// parking zones. Coordinates are stored in GeoJSON order: [longitude, latitude].
package geo

// Point is a GeoJSON Point with optional address metadata.
type Point struct {
	Type             string    `json:"type" bson:"type"`
	Coordinates      []float64 `json:"coordinates" bson:"coordinates"`
	Address          string    `json:"address,omitempty" bson:"address,omitempty"`
	FormattedAddress string    `json:"formattedAddress,omitempty" bson:"formattedAddress,omitempty"`
	City             string    `json:"city,omitempty" bson:"city,omitempty"`
	State            string    `json:"state,omitempty" bson:"state,omitempty"`
	Zipcode          string    `json:"zipcode,omitempty" bson:"zipcode,omitempty"`
	Country          string    `json:"country,omitempty" bson:"country,omitempty"`
}

// NewPoint builds a Point from a latitude/longitude pair.
func NewPoint(lat, lng float64) Point {
	return Point{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Lng returns the longitude, or 0 if the point has no coordinates.
func (p Point) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// Lat returns the latitude, or 0 if the point has no coordinates.
func (p Point) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Valid reports whether the point carries a usable coordinate pair.
func (p Point) Valid() bool {
	return len(p.Coordinates) == 2
}

// Polygon is a GeoJSON Polygon. Only the exterior ring (Coordinates[0]) is
// considered by Contains; holes are not supported.
type Polygon struct {
	Type        string        `json:"type" bson:"type"`
	Coordinates [][][]float64 `json:"coordinates" bson:"coordinates"`
}

// Contains reports whether the point (lat, lng) lies inside the polygon's
// exterior ring, using the ray casting algorithm. A malformed ring, one with
// fewer than three points or a point without both coordinates, contains
// nothing.
func (pg Polygon) Contains(lat, lng float64) bool {
	if len(pg.Coordinates) == 0 {
		return false
	}
	ring := pg.Coordinates[0]
	if len(ring) < 3 {
		return false
	}

	for _, pt := range ring {
		if len(pt) < 2 {
			return false
		}
	}

	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]

		if (yi > lat) != (yj > lat) &&
			lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}
