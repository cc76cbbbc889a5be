package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type DiscountType string

const (
	DiscountPercent      DiscountType = "PERCENT"
	DiscountFixed        DiscountType = "FIXED"
	DiscountFreeShipping DiscountType = "FREE_SHIPPING"
)

// ParseDiscountType accepts the canonical names plus the FREESHIP alias
// older widget builds send.
func ParseDiscountType(raw string) (DiscountType, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(DiscountPercent):
		return DiscountPercent, true
	case string(DiscountFixed):
		return DiscountFixed, true
	case string(DiscountFreeShipping), "FREESHIP":
		return DiscountFreeShipping, true
	default:
		return "", false
	}
}

const (
	DefaultSegmentCount = 6
	ChanceTotal         = 100.0
	ChanceEpsilon       = 0.0001
)

type Segment struct {
	Enabled       bool         `json:"enabled"`
	Label         string       `json:"label"`
	Chance        float64      `json:"chance"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
}

// IndexedSegment is an enabled segment with its position among the
// enabled segments, which is the index the storefront wheel renders.
type IndexedSegment struct {
	Index int
	Segment
}

// Catalog is the ordered list of wheel segments for one tenant.
type Catalog struct {
	TenantID  string
	Segments  []Segment
	UpdatedAt time.Time
}

func (c Catalog) EnabledSegments() []IndexedSegment {
	enabled := make([]IndexedSegment, 0, len(c.Segments))
	for _, seg := range c.Segments {
		if !seg.Enabled {
			continue
		}
		enabled = append(enabled, IndexedSegment{Index: len(enabled), Segment: seg})
	}
	return enabled
}

// WheelSettings is the persisted form of a Catalog.
type WheelSettings struct {
	TenantID  string                       `gorm:"primaryKey;column:tenant_id"`
	Segments  datatypes.JSONSlice[Segment] `gorm:"column:segments;not null"`
	CreatedAt time.Time                    `gorm:"not null"`
	UpdatedAt time.Time                    `gorm:"not null"`
}

func (WheelSettings) TableName() string { return "wheel_settings" }

func (w WheelSettings) Catalog() Catalog {
	return Catalog{
		TenantID:  w.TenantID,
		Segments:  append([]Segment(nil), w.Segments...),
		UpdatedAt: w.UpdatedAt,
	}
}
