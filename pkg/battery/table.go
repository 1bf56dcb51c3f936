// Package battery holds the single-cell lithium discharge curve used by the
// badge to turn a measured cell voltage into a state-of-charge estimate, and
// the LC709203F capacity codes.
package battery

import (
	"sort"

	"github.com/chewxy/math32"
	pkgerrors "github.com/pkg/errors"
)

// VoltageTable maps state of charge to cell voltage. Index i holds the
// voltage measured at i percent.
type VoltageTable [101]float32

// DefaultTable is the discharge curve of a 1S LiPo cell under the badge's
// light load, from 3.2V (empty) to 4.2V (full).
var DefaultTable = VoltageTable{
	3.200, 3.250, 3.300, 3.350, 3.400, 3.450, 3.480, 3.510, 3.540, 3.570,
	3.600, 3.609, 3.618, 3.627, 3.636, 3.645, 3.654, 3.663, 3.672, 3.681,
	3.690, 3.694, 3.698, 3.702, 3.706, 3.710, 3.714, 3.718, 3.722, 3.726,
	3.730, 3.734, 3.738, 3.742, 3.746, 3.750, 3.754, 3.758, 3.762, 3.766,
	3.770, 3.773, 3.776, 3.779, 3.782, 3.785, 3.788, 3.791, 3.794, 3.797,
	3.800, 3.805, 3.810, 3.815, 3.820, 3.825, 3.830, 3.835, 3.840, 3.845,
	3.850, 3.856, 3.862, 3.868, 3.874, 3.880, 3.886, 3.892, 3.898, 3.904,
	3.910, 3.917, 3.924, 3.931, 3.938, 3.945, 3.952, 3.959, 3.966, 3.973,
	3.980, 3.990, 4.000, 4.010, 4.020, 4.030, 4.040, 4.050, 4.060, 4.070,
	4.080, 4.092, 4.104, 4.116, 4.128, 4.140, 4.152, 4.164, 4.176, 4.188,
	4.200,
}

// Validate checks that the table never decreases.
func (t *VoltageTable) Validate() error {
	for i := 1; i < len(t); i++ {
		if math32.IsNaN(t[i]) || math32.IsNaN(t[i-1]) {
			return pkgerrors.Errorf("voltage table entry %d is not a number", i)
		}
		if t[i] < t[i-1] {
			return pkgerrors.Errorf("voltage table decreases at %d%%: %.3fV < %.3fV", i, t[i], t[i-1])
		}
	}
	return nil
}

// Empty returns the voltage at 0%.
func (t *VoltageTable) Empty() float32 {
	return t[0]
}

// Full returns the voltage at 100%.
func (t *VoltageTable) Full() float32 {
	return t[len(t)-1]
}

// Percent estimates the state of charge for voltage v by interpolating
// between the two table entries bracketing it. Readings outside the table
// are clamped to 0 or 100.
func (t *VoltageTable) Percent(v float32) float32 {
	if math32.IsNaN(v) || v < t.Empty() {
		return 0
	}
	if v >= t.Full() {
		return 100
	}

	// First entry strictly above v; the one before it does not exceed v.
	hi := sort.Search(len(t), func(i int) bool { return t[i] > v })
	lo := hi - 1

	span := t[hi] - t[lo]
	if span <= 0 {
		return float32(lo)
	}

	return float32(lo) + (v-t[lo])/span
}

// PercentInt is Percent rounded to the nearest whole percent.
func (t *VoltageTable) PercentInt(v float32) int {
	return int(math32.Floor(t.Percent(v) + 0.5))
}

// Voltage returns the table voltage for a whole percentage, clamped to 0..100.
func (t *VoltageTable) Voltage(percent int) float32 {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return t[percent]
}
