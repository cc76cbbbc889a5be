package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seg(chance float64) Segment {
	return Segment{Enabled: true, Label: "10% off", Chance: chance, DiscountType: DiscountPercent, DiscountValue: 10}
}

func TestCheckSpinnable(t *testing.T) {
	cases := []struct {
		name     string
		segments []Segment
		want     error
	}{
		{"valid", []Segment{seg(50), seg(30), seg(20)}, nil},
		{"within epsilon", []Segment{seg(33.33333), seg(33.33333), seg(33.33334)}, nil},
		{"no segments", nil, ErrNoActiveSegments},
		{"all disabled", []Segment{{Chance: 100}}, ErrNoActiveSegments},
		{"negative", []Segment{seg(-10), seg(110)}, ErrBadChance},
		{"nan", []Segment{seg(math.NaN()), seg(100)}, ErrBadChance},
		{"inf", []Segment{seg(math.Inf(1))}, ErrBadChance},
		{"zero", []Segment{seg(0), seg(0)}, ErrZeroTotalChance},
		{"over", []Segment{seg(50), seg(50), seg(20)}, ErrChanceTotal},
		{"under", []Segment{seg(50), seg(49.9)}, ErrChanceTotal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := CheckSpinnable(Catalog{Segments: tc.segments})
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestCheckSpinnableIgnoresDisabledChances(t *testing.T) {
	disabled := seg(500)
	disabled.Enabled = false
	enabled, total, err := CheckSpinnable(Catalog{Segments: []Segment{seg(60), disabled, seg(40)}})
	require.NoError(t, err)
	assert.Equal(t, 100.0, total)
	require.Len(t, enabled, 2)
	assert.Equal(t, 0, enabled[0].Index)
	assert.Equal(t, 1, enabled[1].Index)
}

func TestValidateReportsSegmentProblems(t *testing.T) {
	segments := []Segment{
		{Enabled: true, Label: "", Chance: 50, DiscountType: DiscountPercent, DiscountValue: 10},
		{Enabled: true, Label: "big", Chance: 25, DiscountType: DiscountPercent, DiscountValue: 150},
		{Enabled: true, Label: "fixed", Chance: 25, DiscountType: DiscountFixed, DiscountValue: 0},
		{Enabled: false, Label: "", Chance: 0, DiscountType: "BOGUS"},
	}
	errs := Validate(Catalog{Segments: segments})
	require.Len(t, errs, 3)

	var segErr *SegmentError
	require.True(t, errors.As(errs[0], &segErr))
	assert.Equal(t, 0, segErr.Index)
	assert.True(t, errors.Is(errs[0], ErrEmptyLabel))
	assert.True(t, errors.Is(errs[1], ErrPercentOutOfRange))
	assert.True(t, errors.Is(errs[2], ErrInvalidDiscountValue))
}

func TestValidateFreeShippingIgnoresValue(t *testing.T) {
	segments := []Segment{
		{Enabled: true, Label: "Free shipping", Chance: 100, DiscountType: DiscountFreeShipping},
	}
	assert.Empty(t, Validate(Catalog{Segments: segments}))
}

func TestValidateIncludesChanceTotal(t *testing.T) {
	errs := Validate(Catalog{Segments: []Segment{seg(60), seg(60)}})
	require.Len(t, errs, 1)
	assert.Equal(t, "chances must total 100", errs[0].Error())
}

func TestParseDiscountType(t *testing.T) {
	got, ok := ParseDiscountType(" freeship ")
	assert.True(t, ok)
	assert.Equal(t, DiscountFreeShipping, got)

	got, ok = ParseDiscountType("fixed")
	assert.True(t, ok)
	assert.Equal(t, DiscountFixed, got)

	_, ok = ParseDiscountType("BOGO")
	assert.False(t, ok)
}
