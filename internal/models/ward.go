package models

import (
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/geo"

	"gorm.io/gorm"
)

// Ward is an administrative division complaints are routed by. Boundaries
// hold a JSON ring of [lat,lng] pairs entered by administrators.
type Ward struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"not null;index" json:"is_active"`
	Boundaries  string         `gorm:"type:text" json:"boundaries,omitempty"`
	CenterLat   *float64       `json:"center_lat"`
	CenterLng   *float64       `json:"center_lng"`
	MinLat      *float64       `json:"-"`
	MinLng      *float64       `json:"-"`
	MaxLat      *float64       `json:"-"`
	MaxLng      *float64       `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	SubZones []SubZone `gorm:"foreignKey:WardID" json:"sub_zones,omitempty"`
}

// SubZone is a division inside a ward; names are unique per ward.
type SubZone struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	WardID      uint           `gorm:"not null;uniqueIndex:idx_subzone_ward_name" json:"ward_id"`
	Name        string         `gorm:"size:120;not null;uniqueIndex:idx_subzone_ward_name" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"not null" json:"is_active"`
	Boundaries  string         `gorm:"type:text" json:"boundaries,omitempty"`
	CenterLat   *float64       `json:"center_lat"`
	CenterLng   *float64       `json:"center_lng"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Ward *Ward `gorm:"foreignKey:WardID" json:"ward,omitempty"`
}

// Polygon decodes the stored boundary; nil when none has been set.
func (w *Ward) Polygon() (geo.Polygon, error) {
	if w.Boundaries == "" {
		return nil, nil
	}
	return geo.ParsePolygon([]byte(w.Boundaries))
}

// SetBoundary stores the polygon along with its centre and bounding box.
func (w *Ward) SetBoundary(poly geo.Polygon) {
	w.Boundaries = poly.Encode()
	c := poly.Centroid()
	bb := poly.BoundingBox()
	w.CenterLat, w.CenterLng = &c.Lat, &c.Lng
	w.MinLat, w.MinLng, w.MaxLat, w.MaxLng = &bb.MinLat, &bb.MinLng, &bb.MaxLat, &bb.MaxLng
}

// Center returns the configured centre point, if any.
func (w *Ward) Center() (geo.Point, bool) {
	if w.CenterLat == nil || w.CenterLng == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *w.CenterLat, Lng: *w.CenterLng}, true
}

func (s *SubZone) Polygon() (geo.Polygon, error) {
	if s.Boundaries == "" {
		return nil, nil
	}
	return geo.ParsePolygon([]byte(s.Boundaries))
}

func (s *SubZone) SetBoundary(poly geo.Polygon) {
	s.Boundaries = poly.Encode()
	c := poly.Centroid()
	s.CenterLat, s.CenterLng = &c.Lat, &c.Lng
}
