// Package co2 maps SCD40 CO2 concentrations to the qualitative labels shown
// on the badge.
package co2

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Color is an e-paper shade. The MagTag panel is 4-level greyscale.
type Color string

const (
	ColorNone  Color = ""
	ColorBlack Color = "black"
	ColorDark  Color = "dark"
	ColorLight Color = "light"
	ColorWhite Color = "white"
)

// Band is one row of a threshold table. Threshold is the inclusive lower
// bound in ppm.
type Band struct {
	Label     string `json:"label" yaml:"label"`
	Threshold uint16 `json:"threshold" yaml:"threshold"`
	Color     Color  `json:"color,omitempty" yaml:"color,omitempty"`
}

// Table is an ordered set of bands, lowest threshold first.
type Table []Band

// Revision names accepted by config.
const (
	RevisionThreeLevel = "three-level"
	RevisionFiveLevel  = "five-level"
)

var (
	// ThreeLevel is the coarse revision that also colors the reading.
	ThreeLevel = Table{
		{Label: "Good", Threshold: 0, Color: ColorLight},
		{Label: "Poor", Threshold: 1000, Color: ColorDark},
		{Label: "Bad", Threshold: 2000, Color: ColorBlack},
	}

	// FiveLevel is the finer revision, labels only.
	FiveLevel = Table{
		{Label: "Good", Threshold: 0},
		{Label: "OK", Threshold: 800},
		{Label: "So-So", Threshold: 1000},
		{Label: "Poor", Threshold: 1500},
		{Label: "Bad", Threshold: 2000},
	}
)

// Revisions lists every built-in table by name.
var Revisions = map[string]Table{
	RevisionThreeLevel: ThreeLevel,
	RevisionFiveLevel:  FiveLevel,
}

// Revision returns the built-in table with the given name.
func Revision(name string) (Table, error) {
	t, ok := Revisions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, pkgerrors.Errorf("unknown co2 revision %q, must be %s or %s", name, RevisionThreeLevel, RevisionFiveLevel)
	}
	return t, nil
}

// Validate makes sure every ppm value selects exactly one band: the first
// threshold must be 0 and thresholds must strictly increase.
func (t Table) Validate() error {
	if len(t) == 0 {
		return pkgerrors.New("co2 table is empty")
	}
	if t[0].Threshold != 0 {
		return pkgerrors.Errorf("first co2 threshold must be 0, got %d", t[0].Threshold)
	}

	seen := make(map[string]struct{}, len(t))
	for i, b := range t {
		if strings.TrimSpace(b.Label) == "" {
			return pkgerrors.Errorf("co2 band %d has an empty label", i)
		}
		if _, ok := seen[b.Label]; ok {
			return pkgerrors.Errorf("co2 label %q appears more than once", b.Label)
		}
		seen[b.Label] = struct{}{}

		if i > 0 && b.Threshold <= t[i-1].Threshold {
			return pkgerrors.Errorf("co2 thresholds must strictly increase: %q (%d) after %q (%d)",
				b.Label, b.Threshold, t[i-1].Label, t[i-1].Threshold)
		}
	}

	return nil
}

// Classify returns the band with the highest threshold not exceeding ppm.
// An empty table yields the zero Band.
func (t Table) Classify(ppm uint16) Band {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Threshold <= ppm {
			return t[i]
		}
	}
	if len(t) > 0 {
		return t[0]
	}
	return Band{}
}

// Label is shorthand for Classify(ppm).Label.
func (t Table) Label(ppm uint16) string {
	return t.Classify(ppm).Label
}

// Labels returns the labels in table order.
func (t Table) Labels() []string {
	ret := make([]string, 0, len(t))
	for _, b := range t {
		ret = append(ret, b.Label)
	}
	return ret
}
