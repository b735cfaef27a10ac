package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the Earth radius in kilometers for Haversine.
const EarthRadiusKm = 6371.0

var ErrInvalidPolygon = errors.New("invalid polygon")

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Polygon is a closed ring of points; the closing vertex may be omitted.
type Polygon []Point

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// HaversineKm returns distance in km between two points (lat/lng in degrees).
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	φ1, φ2 := rad(lat1), rad(lat2)
	Δφ := rad(lat2 - lat1)
	Δλ := rad(lng2 - lng1)
	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func Distance(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Validate checks vertex count and coordinate ranges.
func (poly Polygon) Validate() error {
	if len(poly) < 3 {
		return fmt.Errorf("%w: need at least 3 points, got %d", ErrInvalidPolygon, len(poly))
	}
	for i, p := range poly {
		if !p.Valid() {
			return fmt.Errorf("%w: point %d (%f, %f) out of range", ErrInvalidPolygon, i, p.Lat, p.Lng)
		}
	}
	return nil
}

// Contains reports whether p lies inside the polygon using ray casting.
// Points on an edge or vertex count as inside.
func (poly Polygon) Contains(p Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if onSegment(a, b, p) {
			return true
		}
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
	}
	return inside
}

const epsilon = 1e-12

func onSegment(a, b, p Point) bool {
	cross := (p.Lng-a.Lng)*(b.Lat-a.Lat) - (p.Lat-a.Lat)*(b.Lng-a.Lng)
	if math.Abs(cross) > epsilon {
		return false
	}
	return p.Lng >= math.Min(a.Lng, b.Lng)-epsilon && p.Lng <= math.Max(a.Lng, b.Lng)+epsilon &&
		p.Lat >= math.Min(a.Lat, b.Lat)-epsilon && p.Lat <= math.Max(a.Lat, b.Lat)+epsilon
}

// Centroid returns the vertex average, which is adequate for ward-sized areas.
func (poly Polygon) Centroid() Point {
	if len(poly) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range poly {
		c.Lat += p.Lat
		c.Lng += p.Lng
	}
	c.Lat /= float64(len(poly))
	c.Lng /= float64(len(poly))
	return c
}

func (poly Polygon) BoundingBox() BoundingBox {
	if len(poly) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{MinLat: poly[0].Lat, MaxLat: poly[0].Lat, MinLng: poly[0].Lng, MaxLng: poly[0].Lng}
	for _, p := range poly[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLng = math.Min(b.MinLng, p.Lng)
		b.MaxLng = math.Max(b.MaxLng, p.Lng)
	}
	return b
}

// ParsePolygon accepts either [[lat,lng],...] or [{"lat":..,"lng":..},...].
func ParsePolygon(raw []byte) (Polygon, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPolygon)
	}
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err == nil {
		poly := make(Polygon, 0, len(pairs))
		for i, pr := range pairs {
			if len(pr) != 2 {
				return nil, fmt.Errorf("%w: point %d must have 2 coordinates", ErrInvalidPolygon, i)
			}
			poly = append(poly, Point{Lat: pr[0], Lng: pr[1]})
		}
		return poly, nil
	}
	var points []Point
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolygon, err)
	}
	return Polygon(points), nil
}

// Encode serialises the polygon as [[lat,lng],...].
func (poly Polygon) Encode() string {
	pairs := make([][2]float64, len(poly))
	for i, p := range poly {
		pairs[i] = [2]float64{p.Lat, p.Lng}
	}
	b, _ := json.Marshal(pairs)
	return string(b)
}
