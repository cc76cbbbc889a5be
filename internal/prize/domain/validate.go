package domain

import (
	"errors"
	"math"
	"strings"
)

// Reasons a catalog cannot be spun. The messages are shown to merchants
// and shoppers as-is.
var (
	ErrNoActiveSegments = errors.New("no active segments")
	ErrBadChance        = errors.New("bad chance value")
	ErrZeroTotalChance  = errors.New("zero total chance")
	ErrChanceTotal      = errors.New("chances must total 100")
)

// Admin-only checks applied when a catalog is saved.
var (
	ErrNoSegments           = errors.New("at least one segment is required")
	ErrEmptyLabel           = errors.New("enabled segments need a label")
	ErrInvalidDiscountType  = errors.New("unknown discount type")
	ErrInvalidDiscountValue = errors.New("discount value must be a positive number")
	ErrPercentOutOfRange    = errors.New("percentage discount cannot exceed 100")
	ErrNotFound             = errors.New("catalog_not_found")
)

// SegmentError ties a validation failure to a segment position.
type SegmentError struct {
	Index int
	Err   error
}

func (e *SegmentError) Error() string { return e.Err.Error() }
func (e *SegmentError) Unwrap() error { return e.Err }

// CheckSpinnable returns the enabled segments and their chance total, or
// the reason the catalog cannot produce a fair draw.
func CheckSpinnable(c Catalog) ([]IndexedSegment, float64, error) {
	enabled := c.EnabledSegments()
	if len(enabled) == 0 {
		return nil, 0, ErrNoActiveSegments
	}

	total := 0.0
	for _, seg := range enabled {
		if math.IsNaN(seg.Chance) || math.IsInf(seg.Chance, 0) || seg.Chance < 0 {
			return nil, 0, ErrBadChance
		}
		total += seg.Chance
	}
	if total == 0 {
		return nil, 0, ErrZeroTotalChance
	}
	if math.Abs(total-ChanceTotal) > ChanceEpsilon {
		return nil, 0, ErrChanceTotal
	}
	return enabled, total, nil
}

// Validate runs the spin checks plus the per-segment rules enforced when
// a merchant saves the wheel. All segment problems are reported.
func Validate(c Catalog) []error {
	if len(c.Segments) == 0 {
		return []error{ErrNoSegments}
	}

	var errs []error
	for i, seg := range c.Segments {
		if !seg.Enabled {
			continue
		}
		if strings.TrimSpace(seg.Label) == "" {
			errs = append(errs, &SegmentError{Index: i, Err: ErrEmptyLabel})
		}
		if _, ok := ParseDiscountType(string(seg.DiscountType)); !ok {
			errs = append(errs, &SegmentError{Index: i, Err: ErrInvalidDiscountType})
			continue
		}
		if seg.DiscountType == DiscountFreeShipping {
			continue
		}
		if math.IsNaN(seg.DiscountValue) || math.IsInf(seg.DiscountValue, 0) || seg.DiscountValue <= 0 {
			errs = append(errs, &SegmentError{Index: i, Err: ErrInvalidDiscountValue})
			continue
		}
		if seg.DiscountType == DiscountPercent && seg.DiscountValue > 100 {
			errs = append(errs, &SegmentError{Index: i, Err: ErrPercentOutOfRange})
		}
	}

	if _, _, err := CheckSpinnable(c); err != nil {
		errs = append(errs, err)
	}
	return errs
}
